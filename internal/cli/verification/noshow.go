package verification

import (
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/cli"
)

type NoShowCmd struct {
	Visit string `arg:"" help:"Visit ID."`
}

func (c *NoShowCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	visit, session, err := loadVisitSession(ctx, c.Visit)
	if err != nil {
		return err
	}

	if err := ctx.Tracker().MarkNoShow(&visit, &session, time.Now()); err != nil {
		return err
	}
	if err := persist(ctx, visit, session); err != nil {
		return err
	}

	fmt.Printf("Marked visit %s as a no-show\n", visit.ID)

	alerts, err := ctx.Resolution().Detect(time.Now())
	if err != nil {
		return fmt.Errorf("failed to run conflict detection: %w", err)
	}
	cli.PrintAlerts(alerts)
	return nil
}
