package visits

import (
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/cli"
)

type VisitAssignCmd struct {
	Visit     string `arg:"" help:"Visit ID."`
	Caregiver string `arg:"" help:"Caregiver ID."`
}

func (c *VisitAssignCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	alerts, err := ctx.Resolution().Assign(c.Visit, c.Caregiver, time.Now())
	if err != nil {
		return fmt.Errorf("failed to assign visit: %w", err)
	}

	fmt.Printf("Assigned visit %s to caregiver %s\n", c.Visit, c.Caregiver)
	cli.PrintAlerts(alerts)
	return nil
}
