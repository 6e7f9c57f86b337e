package verification

import (
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/cli"
)

type BreakStartCmd struct {
	Visit string `arg:"" help:"Visit ID."`
}

func (c *BreakStartCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	visit, session, err := loadVisitSession(ctx, c.Visit)
	if err != nil {
		return err
	}

	if err := ctx.Tracker().StartBreak(&session, time.Now()); err != nil {
		return err
	}
	if err := persist(ctx, visit, session); err != nil {
		return err
	}

	fmt.Printf("Break started for visit %s\n", visit.ID)
	return nil
}

type BreakEndCmd struct {
	Visit string `arg:"" help:"Visit ID."`
}

func (c *BreakEndCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	visit, session, err := loadVisitSession(ctx, c.Visit)
	if err != nil {
		return err
	}

	if err := ctx.Tracker().EndBreak(&session, time.Now()); err != nil {
		return err
	}
	if err := persist(ctx, visit, session); err != nil {
		return err
	}

	fmt.Printf("Break ended for visit %s (total break time %s)\n",
		visit.ID, session.AccumulatedBreak.Round(time.Minute))
	return nil
}
