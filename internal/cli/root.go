package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/evvtrack/evvtrack/internal/conflict"
	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/directory"
	"github.com/evvtrack/evvtrack/internal/evv"
	"github.com/evvtrack/evvtrack/internal/logger"
	"github.com/evvtrack/evvtrack/internal/matching"
	"github.com/evvtrack/evvtrack/internal/models"
	"github.com/evvtrack/evvtrack/internal/notifier"
	"github.com/evvtrack/evvtrack/internal/resolution"
	"github.com/evvtrack/evvtrack/internal/storage"
)

type Context struct {
	Store storage.Provider

	// Notifier overrides the desktop-agent sink; nil means the real agent.
	Notifier resolution.Notifier
}

// Agent returns the notification sink.
func (c *Context) Agent() resolution.Notifier {
	if c.Notifier == nil {
		c.Notifier = notifier.New()
	}
	return c.Notifier
}

// Settings loads the persisted engine tunables, falling back to the stock
// defaults when the store has none yet (e.g. before init).
func (c *Context) Settings() models.Settings {
	settings, err := c.Store.GetSettings()
	if err != nil {
		logger.Debug("Falling back to default settings", "error", err)
		return models.Settings{
			GeofenceRadiusMi:   constants.DefaultGeofenceRadiusMi,
			OvertimeRiskRatio:  constants.DefaultOvertimeRiskRatio,
			OvertimeHardRatio:  constants.DefaultOvertimeHardRatio,
			OvertimeAllowance:  constants.DefaultOvertimeAllowance,
			UnassignedLeadHrs:  constants.DefaultUnassignedLeadTime.Hours(),
			NoShowGraceMin:     int(constants.DefaultNoShowGrace.Minutes()),
			TravelSpeedMph:     constants.DefaultTravelSpeedMph,
			SampleIntervalSec:  int(constants.DefaultSampleInterval.Seconds()),
			NotifyOnResolution: true,
			NotifyOnRefusal:    true,
			Timezone:           "Local",
		}
	}
	return settings
}

// Detector builds a conflict detector from the stored settings.
func (c *Context) Detector() *conflict.Detector {
	s := c.Settings()
	return conflict.New(conflict.Config{
		OvertimeRiskRatio:  s.OvertimeRiskRatio,
		OvertimeHardRatio:  s.OvertimeHardRatio,
		UnassignedLeadTime: time.Duration(s.UnassignedLeadHrs * float64(time.Hour)),
		TravelSpeedMph:     s.TravelSpeedMph,
	})
}

// Engine builds a matching engine from the stored settings.
func (c *Context) Engine() *matching.Engine {
	cfg := matching.DefaultConfig()
	cfg.OvertimeAllowance = c.Settings().OvertimeAllowance
	return matching.New(cfg)
}

// Tracker builds an EVV tracker from the stored settings.
func (c *Context) Tracker() *evv.Tracker {
	s := c.Settings()
	return evv.New(evv.Config{
		GeofenceRadiusMi: s.GeofenceRadiusMi,
		NoShowGrace:      time.Duration(s.NoShowGraceMin) * time.Minute,
	})
}

// Directory exposes caregiver/client identity lookups backed by the store.
func (c *Context) Directory() directory.Service {
	return directory.NewStoreService(c.Store)
}

// Resolution builds the coordinator-action service.
func (c *Context) Resolution() *resolution.Service {
	return resolution.New(c.Store, c.Directory(), c.Detector(), c.Engine(), c.Agent(), c.Settings().NotifyOnResolution)
}

// ParseWeekday parses a weekday name or number (0=Sunday).
func ParseWeekday(s string) (time.Weekday, error) {
	dayMap := map[string]time.Weekday{
		"sun": time.Sunday, "sunday": time.Sunday,
		"mon": time.Monday, "monday": time.Monday,
		"tue": time.Tuesday, "tuesday": time.Tuesday,
		"wed": time.Wednesday, "wednesday": time.Wednesday,
		"thu": time.Thursday, "thursday": time.Thursday,
		"fri": time.Friday, "friday": time.Friday,
		"sat": time.Saturday, "saturday": time.Saturday,
	}

	key := strings.TrimSpace(strings.ToLower(s))
	if wd, ok := dayMap[key]; ok {
		return wd, nil
	}
	if num, err := strconv.Atoi(key); err == nil && num >= 0 && num <= 6 {
		return time.Weekday(num), nil
	}
	return 0, fmt.Errorf("invalid weekday: %s", s)
}

// ParseWindow combines a date and two clock times into a scheduled window.
func ParseWindow(date, start, end string) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation(constants.DateFormat, date, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date (expected %s): %w", constants.DateFormat, err)
	}
	startT, err := time.ParseInLocation(constants.TimeFormat, start, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time (expected HH:MM): %w", err)
	}
	endT, err := time.ParseInLocation(constants.TimeFormat, end, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time (expected HH:MM): %w", err)
	}

	s := day.Add(time.Duration(startT.Hour())*time.Hour + time.Duration(startT.Minute())*time.Minute)
	e := day.Add(time.Duration(endT.Hour())*time.Hour + time.Duration(endT.Minute())*time.Minute)
	if !e.After(s) {
		return time.Time{}, time.Time{}, fmt.Errorf("end time must be after start time")
	}
	return s, e, nil
}

// ParseTasks parses the care task flag values. Each entry is a task name,
// optionally suffixed with ":required" to gate clock-out on completion.
func ParseTasks(raw []string) []models.CareTask {
	var tasks []models.CareTask
	for i, entry := range raw {
		name := entry
		required := false
		if strings.HasSuffix(strings.ToLower(entry), ":required") {
			name = entry[:len(entry)-len(":required")]
			required = true
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tasks = append(tasks, models.CareTask{
			ID:       fmt.Sprintf("t%d", i+1),
			Name:     name,
			Required: required,
		})
	}
	return tasks
}

// FormatWindow renders a scheduled window for listings.
func FormatWindow(start, end time.Time) string {
	return fmt.Sprintf("%s %s-%s",
		start.Format(constants.DateFormat),
		start.Format(constants.TimeFormat),
		end.Format(constants.TimeFormat))
}

// PrintAlerts renders a detection result in severity order.
func PrintAlerts(alerts []models.ConflictAlert) {
	if len(alerts) == 0 {
		fmt.Println("No conflicts detected.")
		return
	}

	fmt.Printf("%d conflict(s) detected:\n", len(alerts))
	for _, a := range alerts {
		fmt.Printf("  [%s] %s: %s\n", strings.ToUpper(string(a.Severity)), a.Kind, a.Message)
		for _, s := range a.Suggestions {
			fmt.Printf("      → %s\n", s)
		}
	}
}
