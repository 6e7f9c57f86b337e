package settings

import (
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/cli"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	GeofenceRadiusMi   *float64 `help:"Clock-in/out verification radius in miles."`
	OvertimeRiskRatio  *float64 `help:"Committed/max hours ratio that raises a medium overtime alert."`
	OvertimeHardRatio  *float64 `help:"Committed/max hours ratio that raises a high overtime alert."`
	OvertimeAllowance  *float64 `help:"Committed/max hours ratio above which matching excludes a caregiver."`
	UnassignedLeadHrs  *float64 `help:"Hours of lead time within which unassigned visits alert."`
	NoShowGraceMin     *int     `help:"Minutes past scheduled start before a visit can be marked a no-show."`
	TravelSpeedMph     *float64 `help:"Assumed travel speed for back-to-back feasibility checks."`
	SampleIntervalSec  *int     `help:"Background location sample interval in seconds."`
	NotifyOnResolution *bool    `help:"Send a desktop notification when a conflict is resolved."`
	NotifyOnRefusal    *bool    `help:"Send a desktop notification when a clock-in/out is refused."`
	Timezone           *string  `help:"IANA timezone for schedule display ('Local' for system time)."`
}

func (c *SettingsCmd) Validate() error {
	if c.GeofenceRadiusMi != nil && *c.GeofenceRadiusMi <= 0 {
		return fmt.Errorf("geofence radius must be positive")
	}
	if c.OvertimeRiskRatio != nil && *c.OvertimeRiskRatio <= 0 {
		return fmt.Errorf("overtime risk ratio must be positive")
	}
	if c.OvertimeHardRatio != nil && *c.OvertimeHardRatio <= 0 {
		return fmt.Errorf("overtime hard ratio must be positive")
	}
	if c.NoShowGraceMin != nil && *c.NoShowGraceMin < 0 {
		return fmt.Errorf("no-show grace must not be negative")
	}
	if c.TravelSpeedMph != nil && *c.TravelSpeedMph <= 0 {
		return fmt.Errorf("travel speed must be positive")
	}
	if c.SampleIntervalSec != nil && *c.SampleIntervalSec <= 0 {
		return fmt.Errorf("sample interval must be positive")
	}
	if c.Timezone != nil && *c.Timezone != "Local" {
		if _, err := time.LoadLocation(*c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone: %w", err)
		}
	}
	return nil
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		fmt.Println("Verification Settings:")
		fmt.Printf("  Geofence Radius:       %.2f mi\n", settings.GeofenceRadiusMi)
		fmt.Printf("  No-Show Grace:         %d min\n", settings.NoShowGraceMin)
		fmt.Printf("  Sample Interval:       %d sec\n", settings.SampleIntervalSec)
		fmt.Println("\nScheduling Settings:")
		fmt.Printf("  Overtime Risk Ratio:   %.2f\n", settings.OvertimeRiskRatio)
		fmt.Printf("  Overtime Hard Ratio:   %.2f\n", settings.OvertimeHardRatio)
		fmt.Printf("  Overtime Allowance:    %.2f\n", settings.OvertimeAllowance)
		fmt.Printf("  Unassigned Lead Time:  %.1f hrs\n", settings.UnassignedLeadHrs)
		fmt.Printf("  Travel Speed:          %.1f mph\n", settings.TravelSpeedMph)
		fmt.Println("\nNotification Settings:")
		fmt.Printf("  Notify On Resolution:  %v\n", settings.NotifyOnResolution)
		fmt.Printf("  Notify On Refusal:     %v\n", settings.NotifyOnRefusal)
		fmt.Printf("  Timezone:              %s\n", settings.Timezone)
		return nil
	}

	updated := false
	if c.GeofenceRadiusMi != nil {
		settings.GeofenceRadiusMi = *c.GeofenceRadiusMi
		updated = true
	}
	if c.OvertimeRiskRatio != nil {
		settings.OvertimeRiskRatio = *c.OvertimeRiskRatio
		updated = true
	}
	if c.OvertimeHardRatio != nil {
		settings.OvertimeHardRatio = *c.OvertimeHardRatio
		updated = true
	}
	if c.OvertimeAllowance != nil {
		settings.OvertimeAllowance = *c.OvertimeAllowance
		updated = true
	}
	if c.UnassignedLeadHrs != nil {
		settings.UnassignedLeadHrs = *c.UnassignedLeadHrs
		updated = true
	}
	if c.NoShowGraceMin != nil {
		settings.NoShowGraceMin = *c.NoShowGraceMin
		updated = true
	}
	if c.TravelSpeedMph != nil {
		settings.TravelSpeedMph = *c.TravelSpeedMph
		updated = true
	}
	if c.SampleIntervalSec != nil {
		settings.SampleIntervalSec = *c.SampleIntervalSec
		updated = true
	}
	if c.NotifyOnResolution != nil {
		settings.NotifyOnResolution = *c.NotifyOnResolution
		updated = true
	}
	if c.NotifyOnRefusal != nil {
		settings.NotifyOnRefusal = *c.NotifyOnRefusal
		updated = true
	}
	if c.Timezone != nil {
		settings.Timezone = *c.Timezone
		updated = true
	}

	if !updated {
		fmt.Println("No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}

	if settings.OvertimeRiskRatio > settings.OvertimeHardRatio {
		return fmt.Errorf("overtime risk ratio (%g) must not exceed hard ratio (%g)",
			settings.OvertimeRiskRatio, settings.OvertimeHardRatio)
	}

	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Println("Settings updated successfully.")
	return nil
}
