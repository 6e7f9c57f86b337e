package conflicts

import (
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/models"
)

type DetectCmd struct {
	Severity string `short:"s" help:"Only alerts at or above this severity (low|medium|high)."`
}

func (c *DetectCmd) Validate() error {
	switch c.Severity {
	case "", string(constants.SeverityLow), string(constants.SeverityMedium), string(constants.SeverityHigh):
		return nil
	}
	return fmt.Errorf("severity must be low, medium, or high")
}

func (c *DetectCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	alerts, err := ctx.Resolution().Detect(time.Now())
	if err != nil {
		return fmt.Errorf("failed to run conflict detection: %w", err)
	}

	if c.Severity != "" {
		min := severityRank(constants.Severity(c.Severity))
		kept := alerts[:0]
		for _, a := range alerts {
			if severityRank(a.Severity) >= min {
				kept = append(kept, a)
			}
		}
		alerts = kept
	}

	printDetailed(alerts)
	return nil
}

func severityRank(s constants.Severity) int {
	switch s {
	case constants.SeverityHigh:
		return 3
	case constants.SeverityMedium:
		return 2
	default:
		return 1
	}
}

func printDetailed(alerts []models.ConflictAlert) {
	if len(alerts) == 0 {
		fmt.Println("No conflicts detected.")
		return
	}

	fmt.Printf("%d conflict(s) detected:\n\n", len(alerts))
	for _, a := range alerts {
		fmt.Printf("[%s] %s  (id %s)\n", a.Severity, a.Kind, a.ID)
		fmt.Printf("  %s\n", a.Message)
		if len(a.VisitIDs) > 0 {
			fmt.Printf("  Visits: %v\n", a.VisitIDs)
		}
		if a.CaregiverID != "" {
			fmt.Printf("  Caregiver: %s\n", a.CaregiverID)
		}
		for _, s := range a.Suggestions {
			fmt.Printf("  Suggestion: %s\n", s)
		}
		fmt.Println()
	}
}
