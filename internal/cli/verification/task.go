package verification

import (
	"fmt"

	"github.com/evvtrack/evvtrack/internal/cli"
)

type TaskToggleCmd struct {
	Visit string `arg:"" help:"Visit ID."`
	Task  string `arg:"" help:"Task ID (see 'evvtrack evv status')."`
	Undo  bool   `help:"Mark the task not completed instead."`
}

func (c *TaskToggleCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	visit, session, err := loadVisitSession(ctx, c.Visit)
	if err != nil {
		return err
	}

	if err := ctx.Tracker().ToggleTask(&visit, &session, c.Task, !c.Undo); err != nil {
		return err
	}
	if err := persist(ctx, visit, session); err != nil {
		return err
	}

	state := "completed"
	if c.Undo {
		state = "not completed"
	}
	fmt.Printf("Marked task %s %s on visit %s\n", c.Task, state, visit.ID)

	if remaining := session.RequiredIncomplete(); len(remaining) > 0 {
		fmt.Printf("Required tasks remaining: %s\n", taskLine(remaining))
	} else {
		fmt.Println("All required tasks complete.")
	}
	return nil
}
