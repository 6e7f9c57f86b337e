package directory

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/geo"
	"github.com/evvtrack/evvtrack/internal/models"
)

type CaregiverAddCmd struct {
	Name         string   `arg:"" help:"Caregiver name."`
	Skill        []string `short:"s" help:"Skill tag, repeatable (e.g. 'medication reminder')."`
	Tag          []string `short:"t" help:"Preference tag this caregiver satisfies, repeatable (e.g. 'speaks spanish')."`
	Rating       float64  `short:"r" help:"Rating (0-5)." default:"3"`
	Lat          float64  `help:"Home latitude." required:""`
	Lng          float64  `help:"Home longitude." required:""`
	TravelRadius float64  `help:"Travel radius in miles." default:"15"`
}

func (c *CaregiverAddCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	caregiver := models.Caregiver{
		ID:             uuid.New().String(),
		Name:           c.Name,
		Skills:         c.Skill,
		PreferenceTags: c.Tag,
		Rating:         c.Rating,
		HomeLocation:   geo.Location{Lat: c.Lat, Lng: c.Lng},
		TravelRadiusMi: c.TravelRadius,
	}
	if err := caregiver.Validate(); err != nil {
		return err
	}
	if err := ctx.Store.AddCaregiver(caregiver); err != nil {
		return fmt.Errorf("failed to add caregiver: %w", err)
	}

	fmt.Printf("Added caregiver %s (%s)\n", caregiver.Name, caregiver.ID)
	fmt.Println("Set weekly availability with 'evvtrack caregiver availability' before assigning visits.")
	return nil
}
