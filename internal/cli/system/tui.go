package system

import (
	"fmt"
	"os"

	"github.com/evvtrack/evvtrack/internal/cli"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/evvtrack/evvtrack/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewModel(ctx.Store, ctx.Resolution()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
	return nil
}
