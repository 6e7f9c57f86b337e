package visits

import (
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/cli"
)

type VisitRescheduleCmd struct {
	Visit string `arg:"" help:"Visit ID."`
	Date  string `short:"d" help:"New date (YYYY-MM-DD)." required:""`
	Start string `short:"s" help:"New start time (HH:MM)." required:""`
	End   string `short:"e" help:"New end time (HH:MM)." required:""`
}

func (c *VisitRescheduleCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	start, end, err := cli.ParseWindow(c.Date, c.Start, c.End)
	if err != nil {
		return err
	}

	alerts, err := ctx.Resolution().Reschedule(c.Visit, start, end, time.Now())
	if err != nil {
		return fmt.Errorf("failed to reschedule visit: %w", err)
	}

	fmt.Printf("Rescheduled visit %s to %s\n", c.Visit, cli.FormatWindow(start, end))
	cli.PrintAlerts(alerts)
	return nil
}
