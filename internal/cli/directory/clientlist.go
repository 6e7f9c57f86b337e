package directory

import (
	"fmt"
	"strings"

	"github.com/evvtrack/evvtrack/internal/cli"
)

type ClientListCmd struct{}

func (c *ClientListCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	clients, err := ctx.Store.GetAllClients()
	if err != nil {
		return fmt.Errorf("failed to get clients: %w", err)
	}
	if len(clients) == 0 {
		fmt.Println("No clients on file.")
		return nil
	}

	fmt.Printf("%-36s %-20s %-22s %s\n", "ID", "Name", "Location", "Preferences")
	fmt.Println(strings.Repeat("-", 100))
	for _, cl := range clients {
		fmt.Printf("%-36s %-20s %-22s %s\n",
			cl.ID, cl.Name,
			fmt.Sprintf("%.4f, %.4f", cl.Location.Lat, cl.Location.Lng),
			strings.Join(cl.PreferenceTags, ", "))
	}
	return nil
}
