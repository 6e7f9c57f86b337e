package timeutil

import (
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/constants"
)

// ParseClock parses a wall-clock string (HH:MM) and returns minutes from midnight.
func ParseClock(clock string) (int, error) {
	t, err := time.Parse(constants.TimeFormat, clock)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q (expected HH:MM): %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock formats minutes from midnight as a wall-clock string (HH:MM).
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// MinuteOfDay returns the minutes from midnight for an instant, in its own location.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Overlaps reports whether the half-open intervals [startA, endA) and
// [startB, endB) intersect. Intervals that merely touch do not overlap.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && startB.Before(endA)
}

// WeekStart returns midnight of the Sunday beginning the calendar week
// containing t, in t's location. Committed-hours accounting buckets visits
// by this boundary.
func WeekStart(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -int(midnight.Weekday()))
}

// SameWeek reports whether two instants fall in the same calendar week.
func SameWeek(a, b time.Time) bool {
	return WeekStart(a).Equal(WeekStart(b))
}

// Hours returns the duration between two instants in fractional hours.
// Returns 0 when end is not after start.
func Hours(start, end time.Time) float64 {
	if !end.After(start) {
		return 0
	}
	return end.Sub(start).Hours()
}

// NextOccurrence advances a visit start by one recurrence step.
func NextOccurrence(t time.Time, rec constants.RecurrenceType) time.Time {
	switch rec {
	case constants.RecurrenceDaily:
		return t.AddDate(0, 0, 1)
	case constants.RecurrenceWeekly:
		return t.AddDate(0, 0, 7)
	case constants.RecurrenceBiweekly:
		return t.AddDate(0, 0, 14)
	case constants.RecurrenceMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t
	}
}

// CoversWindow reports whether the wall-clock window [windowStart, windowEnd]
// (minutes from midnight) contains the wall-clock span of [start, end).
// Spans that cross midnight are never covered by a same-day window.
func CoversWindow(start, end time.Time, windowStart, windowEnd int) bool {
	if start.YearDay() != end.YearDay() || start.Year() != end.Year() {
		return false
	}
	return MinuteOfDay(start) >= windowStart && MinuteOfDay(end) <= windowEnd
}
