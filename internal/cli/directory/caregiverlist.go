package directory

import (
	"fmt"
	"strings"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/models"
)

type CaregiverListCmd struct{}

func (c *CaregiverListCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	caregivers, err := ctx.Store.GetAllCaregivers()
	if err != nil {
		return fmt.Errorf("failed to get caregivers: %w", err)
	}
	if len(caregivers) == 0 {
		fmt.Println("No caregivers on file.")
		return nil
	}

	availability, err := ctx.Store.GetAllAvailability()
	if err != nil {
		return fmt.Errorf("failed to get availability: %w", err)
	}

	// Commitment shown here is the stored convenience figure; detection
	// recomputes it from the visit snapshot.
	fmt.Printf("%-36s %-20s %-6s %-8s %-24s %s\n", "ID", "Name", "Rate", "Radius", "Hours (committed/max)", "Skills")
	fmt.Println(strings.Repeat("-", 120))

	for _, cg := range caregivers {
		slots := availability[cg.ID]
		var committed float64
		for _, s := range slots {
			committed += s.CommittedHours
		}
		fmt.Printf("%-36s %-20s %-6.1f %-8.1f %-24s %s\n",
			cg.ID, cg.Name, cg.Rating, cg.TravelRadiusMi,
			fmt.Sprintf("%.1f/%.1f", committed, models.WeeklyMaxHours(slots)),
			strings.Join(cg.Skills, ", "))
	}
	return nil
}
