package visits

import (
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/cli"
)

type VisitCancelCmd struct {
	Visit string `arg:"" help:"Visit ID."`
}

func (c *VisitCancelCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	alerts, err := ctx.Resolution().Cancel(c.Visit, time.Now())
	if err != nil {
		return fmt.Errorf("failed to cancel visit: %w", err)
	}

	fmt.Printf("Cancelled visit %s\n", c.Visit)
	cli.PrintAlerts(alerts)
	return nil
}
