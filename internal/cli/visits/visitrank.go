package visits

import (
	"fmt"
	"strings"

	"github.com/evvtrack/evvtrack/internal/cli"
)

type VisitRankCmd struct {
	Visit string `arg:"" help:"Visit ID."`
	Limit int    `short:"n" help:"Maximum candidates to show." default:"5"`
}

func (c *VisitRankCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	visit, ranked, err := ctx.Resolution().Candidates(c.Visit)
	if err != nil {
		return fmt.Errorf("failed to rank candidates: %w", err)
	}

	fmt.Printf("Candidates for visit %s (%s):\n", visit.ID, cli.FormatWindow(visit.ScheduledStart, visit.ScheduledEnd))
	if len(ranked) == 0 {
		fmt.Println("  No eligible caregivers. Check skills, availability, travel radius, and weekly hours.")
		return nil
	}

	if c.Limit > 0 && len(ranked) > c.Limit {
		ranked = ranked[:c.Limit]
	}
	for i, r := range ranked {
		fmt.Printf("  %d. %s (%s)  score %.2f  %.1f mi\n", i+1, r.Caregiver.Name, r.Caregiver.ID, r.Score, r.DistanceMi)
		if len(r.Reasons) > 0 {
			fmt.Printf("     %s\n", strings.Join(r.Reasons, "; "))
		}
	}
	return nil
}
