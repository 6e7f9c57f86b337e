package verification

import (
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/constants"
)

type ClockInCmd struct {
	Visit string `arg:"" help:"Visit ID."`
	locationFlags
	Force bool `help:"Supervisor override: record the clock-in even if verification refuses it."`
}

func (c *ClockInCmd) Run(ctx *cli.Context) error {
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
		err = tracker.ForceClockIn(&visit, &session, c.point(), now)
	} else {
		err = tracker.ClockIn(&visit, &session, c.point(), now)
	}
	if err != nil {
		notifyRefusal(ctx, visit, "Clock-in", err)
		return explain(err)
	}

	if err := persist(ctx, visit, session); err != nil {
		return err
	}

	fmt.Printf("Clocked in to visit %s at %s\n", visit.ID, session.ClockInAt.Format(constants.TimeFormat))
	if session.Override {
		fmt.Println("Override recorded for audit.")
	}
	if len(session.Tasks) > 0 {
		fmt.Printf("Checklist: %s\n", taskLine(session.Tasks))
	}
	return nil
}
