package system

import (
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/notifier"
)

// NotifyCmd is run by the OS scheduler (cron, launchd) once a minute. It
// reminds assigned caregivers of visits starting soon and nags about
// in-progress sessions running past their scheduled end.
type NotifyCmd struct {
	DryRun bool `help:"Print notifications to stdout instead of sending them."`
	Lead   int  `help:"Minutes of warning before a visit starts." default:"15"`
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	now := time.Now()
	visits, err := ctx.Store.GetVisits(now.Add(-24*time.Hour), now.Add(24*time.Hour))
	if err != nil {
		return fmt.Errorf("failed to get visits: %w", err)
	}

	n := notifier.New()
	send := func(msg string) {
		if c.DryRun {
			fmt.Println("[DryRun] " + msg)
			return
		}
		if err := n.Notify(msg); err != nil {
			// Keep checking remaining visits even if delivery fails
			fmt.Printf("Failed to send notification: %v\n", err)
		}
	}

	for _, v := range visits {
		switch v.Status {
		case constants.VisitScheduled:
			// Fires on the exact minute so the per-minute scheduler
			// delivers each reminder once
			untilStart := int(v.ScheduledStart.Sub(now).Minutes())
			if untilStart != c.Lead {
				continue
			}
			who := "unassigned"
			if cg, err := ctx.Store.GetCaregiver(v.CaregiverID); err == nil {
				who = cg.Name
			}
			client := v.ClientID
			if cl, err := ctx.Store.GetClient(v.ClientID); err == nil {
				client = cl.Name
			}
			send(fmt.Sprintf("Upcoming: visit for %s starts in %d min (%s, %s)",
				client, c.Lead, v.ScheduledStart.Format(constants.TimeFormat), who))

		case constants.VisitInProgress:
			pastEnd := int(now.Sub(v.ScheduledEnd).Minutes())
			if pastEnd != 0 {
				continue
			}
			send(fmt.Sprintf("Visit %s has reached its scheduled end; remember to clock out", v.ID))
		}
	}

	return nil
}
