package conflicts

import (
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/models"
)

// ResolveCmd acts on one alert from the live detection set: reassign or
// reschedule the implicated visit, or record an override accepting the
// conflict. Every action re-runs detection and prints what remains.
type ResolveCmd struct {
	Alert string `arg:"" help:"Alert ID from 'evvtrack conflicts'."`

	Assign     string `short:"a" help:"Reassign: caregiver ID to move the implicated visit to." xor:"action"`
	Reschedule bool   `short:"r" help:"Reschedule the implicated visit to --date/--start/--end." xor:"action"`
	Override   bool   `short:"o" help:"Accept the conflict; the alert stays suppressed while it matches." xor:"action"`

	Visit string `help:"Visit to act on when the alert implicates more than one."`
	Date  string `short:"d" help:"New date (YYYY-MM-DD) for --reschedule."`
	Start string `short:"s" help:"New start time (HH:MM) for --reschedule."`
	End   string `short:"e" help:"New end time (HH:MM) for --reschedule."`
	Note  string `help:"Audit note recorded with --override."`
}

func (c *ResolveCmd) Validate() error {
	if c.Assign == "" && !c.Reschedule && !c.Override {
		return fmt.Errorf("pick one action: --assign <caregiver>, --reschedule, or --override")
	}
	if c.Reschedule && (c.Date == "" || c.Start == "" || c.End == "") {
		return fmt.Errorf("--reschedule requires --date, --start, and --end")
	}
	return nil
}

func (c *ResolveCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	svc := ctx.Resolution()
	now := time.Now()

	alert, err := svc.FindAlert(c.Alert, now)
	if err != nil {
		return err
	}

	var alerts []models.ConflictAlert
	switch {
	case c.Override:
		if alerts, err = svc.Override(alert.ID, c.Note, now); err != nil {
			return err
		}
		fmt.Printf("Overrode %s alert %s\n", alert.Kind, alert.ID)

	case c.Assign != "":
		visitID, err := c.pickVisit(alert)
		if err != nil {
			return err
		}
		if alerts, err = svc.Assign(visitID, c.Assign, now); err != nil {
			return err
		}
		fmt.Printf("Reassigned visit %s to %s\n", visitID, c.Assign)

	case c.Reschedule:
		visitID, err := c.pickVisit(alert)
		if err != nil {
			return err
		}
		start, end, err := cli.ParseWindow(c.Date, c.Start, c.End)
		if err != nil {
			return err
		}
		if alerts, err = svc.Reschedule(visitID, start, end, now); err != nil {
			return err
		}
		fmt.Printf("Rescheduled visit %s to %s\n", visitID, cli.FormatWindow(start, end))
	}

	cli.PrintAlerts(alerts)
	return nil
}

// pickVisit selects the visit to act on: the --visit flag when given
// (validated against the alert), or the alert's single implicated visit.
func (c *ResolveCmd) pickVisit(alert models.ConflictAlert) (string, error) {
	if c.Visit != "" {
		for _, id := range alert.VisitIDs {
			if id == c.Visit {
				return id, nil
			}
		}
		return "", fmt.Errorf("visit %s is not implicated by alert %s", c.Visit, alert.ID)
	}
	if len(alert.VisitIDs) == 1 {
		return alert.VisitIDs[0], nil
	}
	return "", fmt.Errorf("alert %s implicates %d visits; pick one with --visit", alert.ID, len(alert.VisitIDs))
}
