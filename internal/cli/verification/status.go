package verification

import (
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/constants"
)

type StatusCmd struct {
	Visit string `arg:"" help:"Visit ID."`
}

func (c *StatusCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	visit, session, err := loadVisitSession(ctx, c.Visit)
	if err != nil {
		return err
	}

	fmt.Printf("Visit %s (%s)\n", visit.ID, cli.FormatWindow(visit.ScheduledStart, visit.ScheduledEnd))
	fmt.Printf("Visit status: %s, session state: %s\n", visit.Status, session.State)

	if session.ClockInAt != nil {
		fmt.Printf("Clocked in:  %s\n", session.ClockInAt.Format(constants.TimeFormat))
	}
	if session.ClockOutAt != nil {
		fmt.Printf("Clocked out: %s\n", session.ClockOutAt.Format(constants.TimeFormat))
	}
	if session.State == constants.SessionInProgress || session.State == constants.SessionOnBreak {
		fmt.Printf("Worked so far: %s (breaks %s)\n",
			session.ElapsedWorked(time.Now()).Round(time.Minute),
			session.AccumulatedBreak.Round(time.Minute))
	}
	if session.Override {
		fmt.Println("Contains a supervisor override.")
	}

	if len(session.Tasks) == 0 {
		fmt.Println("No checklist for this visit.")
		return nil
	}
	fmt.Println("Checklist:")
	for _, t := range session.Tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		required := ""
		if t.Required {
			required = " (required)"
		}
		fmt.Printf("  [%s] %s  %s%s\n", mark, t.ID, t.Name, required)
	}
	return nil
}
