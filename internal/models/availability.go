package models

import (
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/timeutil"
)

// AvailabilitySlot is one caregiver's working window for one weekday.
// MaxHours is the cap on committed hours for the calendar week containing
// the weekday; CommittedHours is a stored convenience updated on
// assignment, but the engine always recomputes commitment from the visit
// snapshot. CommittedHours exceeding MaxHours is not a rejected write, it
// is what the overtime_risk conflict detects.
type AvailabilitySlot struct {
	CaregiverID    string       `json:"caregiver_id"`
	Weekday        time.Weekday `json:"weekday"`
	Start          string       `json:"start"` // HH:MM
	End            string       `json:"end"`   // HH:MM
	IsAvailable    bool         `json:"is_available"`
	MaxHours       float64      `json:"max_hours"`
	CommittedHours float64      `json:"committed_hours"`
}

func (s *AvailabilitySlot) Validate() error {
	if s.CaregiverID == "" {
		return fmt.Errorf("availability slot must reference a caregiver")
	}
	if s.Weekday < time.Sunday || s.Weekday > time.Saturday {
		return fmt.Errorf("invalid weekday: %d", s.Weekday)
	}
	startMin, err := timeutil.ParseClock(s.Start)
	if err != nil {
		return fmt.Errorf("invalid start: %w", err)
	}
	endMin, err := timeutil.ParseClock(s.End)
	if err != nil {
		return fmt.Errorf("invalid end: %w", err)
	}
	if endMin <= startMin {
		return fmt.Errorf("availability end must be after start")
	}
	if s.MaxHours < 0 {
		return fmt.Errorf("max hours must not be negative")
	}
	return nil
}

// Covers reports whether this slot is open and its window contains the
// wall-clock span [start, end) on the slot's weekday.
func (s *AvailabilitySlot) Covers(start, end time.Time) bool {
	if !s.IsAvailable {
		return false
	}
	if start.Weekday() != s.Weekday {
		return false
	}
	startMin, err := timeutil.ParseClock(s.Start)
	if err != nil {
		return false
	}
	endMin, err := timeutil.ParseClock(s.End)
	if err != nil {
		return false
	}
	return timeutil.CoversWindow(start, end, startMin, endMin)
}

// SlotFor returns the slot for the given weekday, or nil.
func SlotFor(slots []AvailabilitySlot, weekday time.Weekday) *AvailabilitySlot {
	for i := range slots {
		if slots[i].Weekday == weekday {
			return &slots[i]
		}
	}
	return nil
}

// WeeklyMaxHours sums the caps of a caregiver's open slots. This is the
// capacity the overtime rules compare weekly commitment against.
func WeeklyMaxHours(slots []AvailabilitySlot) float64 {
	var total float64
	for _, s := range slots {
		if s.IsAvailable {
			total += s.MaxHours
		}
	}
	return total
}
