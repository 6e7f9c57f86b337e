package visits

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/models"
)

type VisitListCmd struct {
	Date      string `short:"d" help:"Only visits on this date (YYYY-MM-DD)."`
	Caregiver string `short:"g" help:"Only visits assigned to this caregiver."`
	Status    string `short:"s" help:"Only visits with this status (scheduled|in_progress|completed|cancelled|no_show)."`
	All       bool   `short:"a" help:"Include cancelled and no-show visits."`
}

func (c *VisitListCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	var visits []models.Visit
	var err error
	switch {
	case c.Date != "":
		day, perr := time.ParseInLocation(constants.DateFormat, c.Date, time.Local)
		if perr != nil {
			return fmt.Errorf("invalid date (expected %s): %w", constants.DateFormat, perr)
		}
		visits, err = ctx.Store.GetVisits(day, day.AddDate(0, 0, 1))
	case c.Caregiver != "":
		visits, err = ctx.Store.GetVisitsForCaregiver(c.Caregiver)
	default:
		visits, err = ctx.Store.GetAllVisits()
	}
	if err != nil {
		return fmt.Errorf("failed to get visits: %w", err)
	}

	filtered := visits[:0]
	for _, v := range visits {
		if c.Status != "" && v.Status != constants.VisitStatus(c.Status) {
			continue
		}
		if c.Status == "" && !c.All &&
			(v.Status == constants.VisitCancelled || v.Status == constants.VisitNoShow) {
			continue
		}
		filtered = append(filtered, v)
	}

	if len(filtered) == 0 {
		fmt.Println("No visits found.")
		return nil
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].ScheduledStart.Before(filtered[j].ScheduledStart)
	})

	fmt.Printf("%-36s %-22s %-12s %-12s %-12s %-8s\n", "ID", "Window", "Client", "Caregiver", "Status", "Tasks")
	fmt.Println(strings.Repeat("-", 108))

	for _, v := range filtered {
		caregiver := v.CaregiverID
		if caregiver == "" {
			caregiver = "(unassigned)"
		}
		done := 0
		for _, t := range v.Tasks {
			if t.Completed {
				done++
			}
		}
		fmt.Printf("%-36s %-22s %-12s %-12s %-12s %d/%d\n",
			v.ID, cli.FormatWindow(v.ScheduledStart, v.ScheduledEnd),
			truncate(v.ClientID, 12), truncate(caregiver, 12), v.Status, done, len(v.Tasks))
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
