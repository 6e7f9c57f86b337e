package directory

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/geo"
	"github.com/evvtrack/evvtrack/internal/models"
)

type ClientAddCmd struct {
	Name string   `arg:"" help:"Client name."`
	Lat  float64  `help:"Home latitude." required:""`
	Lng  float64  `help:"Home longitude." required:""`
	Tag  []string `short:"t" help:"Preference tag, repeatable (e.g. 'speaks spanish', 'no pets')."`
}

func (c *ClientAddCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	client := models.Client{
		ID:             uuid.New().String(),
		Name:           c.Name,
		Location:       geo.Location{Lat: c.Lat, Lng: c.Lng},
		PreferenceTags: c.Tag,
	}
	if err := client.Validate(); err != nil {
		return err
	}
	if err := ctx.Store.AddClient(client); err != nil {
		return fmt.Errorf("failed to add client: %w", err)
	}

	fmt.Printf("Added client %s (%s)\n", client.Name, client.ID)
	return nil
}
