package verification

import (
	"errors"
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/evv"
)

type ClockOutCmd struct {
	Visit string `arg:"" help:"Visit ID."`
	locationFlags
	Force bool `help:"Supervisor override: record the clock-out even if verification refuses it."`
}

func (c *ClockOutCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	visit, session, err := loadVisitSession(ctx, c.Visit)
	if err != nil {
		return err
	}

	tracker := ctx.Tracker()
	now := time.Now()
	if c.Force {
		err = tracker.ForceClockOut(&visit, &session, c.point(), now)
	} else {
		err = tracker.ClockOut(&visit, &session, c.point(), now)
	}
	if err != nil {
		var te *evv.TransitionError
		if errors.As(err, &te) && len(te.MissingTasks) > 0 {
			fmt.Printf("Required tasks incomplete: %s\n", taskLine(te.MissingTasks))
		}
		notifyRefusal(ctx, visit, "Clock-out", err)
		return explain(err)
	}

	if err := persist(ctx, visit, session); err != nil {
		return err
	}

	fmt.Printf("Clocked out of visit %s at %s\n", visit.ID, session.ClockOutAt.Format(constants.TimeFormat))
	fmt.Printf("Worked %s (breaks %s)\n",
		session.ElapsedWorked(now).Round(time.Minute),
		session.AccumulatedBreak.Round(time.Minute))
	if session.Override {
		fmt.Println("Override recorded for audit.")
	}
	return nil
}
