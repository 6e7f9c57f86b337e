package directory

import (
	"fmt"
	"strings"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/models"
)

type AvailabilitySetCmd struct {
	Caregiver string  `arg:"" help:"Caregiver ID."`
	Day       string  `arg:"" help:"Weekday (sun-sat or 0-6)."`
	Start     string  `short:"s" help:"Window start (HH:MM)." default:"08:00"`
	End       string  `short:"e" help:"Window end (HH:MM)." default:"18:00"`
	MaxHours  float64 `short:"m" help:"Weekly hour cap contributed by this day." default:"8"`
	Off       bool    `help:"Mark the day unavailable instead."`
}

func (c *AvailabilitySetCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	if _, err := ctx.Store.GetCaregiver(c.Caregiver); err != nil {
		return fmt.Errorf("failed to get caregiver: %w", err)
	}
	weekday, err := cli.ParseWeekday(c.Day)
	if err != nil {
		return err
	}

	slot := models.AvailabilitySlot{
		CaregiverID: c.Caregiver,
		Weekday:     weekday,
		Start:       c.Start,
		End:         c.End,
		IsAvailable: !c.Off,
		MaxHours:    c.MaxHours,
	}
	if err := slot.Validate(); err != nil {
		return err
	}
	if err := ctx.Store.SaveAvailability(slot); err != nil {
		return fmt.Errorf("failed to save availability: %w", err)
	}

	if c.Off {
		fmt.Printf("Marked %s unavailable on %s\n", c.Caregiver, weekday)
	} else {
		fmt.Printf("Set %s availability: %s %s-%s (up to %.1fh)\n", c.Caregiver, weekday, c.Start, c.End, c.MaxHours)
	}
	return nil
}

type AvailabilityListCmd struct {
	Caregiver string `arg:"" help:"Caregiver ID."`
}

func (c *AvailabilityListCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	slots, err := ctx.Store.GetAvailability(c.Caregiver)
	if err != nil {
		return fmt.Errorf("failed to get availability: %w", err)
	}
	if len(slots) == 0 {
		fmt.Println("No availability on file.")
		return nil
	}

	fmt.Printf("%-10s %-12s %-10s %-10s\n", "Day", "Window", "Max", "Committed")
	fmt.Println(strings.Repeat("-", 46))
	for _, s := range slots {
		window := fmt.Sprintf("%s-%s", s.Start, s.End)
		if !s.IsAvailable {
			window = "off"
		}
		fmt.Printf("%-10s %-12s %-10.1f %-10.1f\n", s.Weekday, window, s.MaxHours, s.CommittedHours)
	}
	fmt.Printf("Weekly cap: %.1fh\n", models.WeeklyMaxHours(slots))
	return nil
}
