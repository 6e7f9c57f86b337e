package conflict

import (
	"testing"
	"time"

	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/geo"
	"github.com/evvtrack/evvtrack/internal/models"
)

// Monday 2026-03-02 anchors most fixtures.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func visitAt(id, caregiverID string, startHour, endHour float64) models.Visit {
	start := monday.Add(time.Duration(startHour * float64(time.Hour)))
	end := monday.Add(time.Duration(endHour * float64(time.Hour)))
	return models.Visit{
		ID:             id,
		ClientID:       "client-1",
		CaregiverID:    caregiverID,
		ScheduledStart: start,
		ScheduledEnd:   end,
		Status:         constants.VisitScheduled,
		Priority:       constants.PriorityMedium,
	}
}

func mondaySlot(caregiverID string, maxHours float64) models.AvailabilitySlot {
	return models.AvailabilitySlot{
		CaregiverID: caregiverID,
		Weekday:     time.Monday,
		Start:       "08:00",
		End:         "16:00",
		IsAvailable: true,
		MaxHours:    maxHours,
	}
}

func alertsOfKind(alerts []models.ConflictAlert, kind constants.ConflictKind) []models.ConflictAlert {
	var out []models.ConflictAlert
	for _, a := range alerts {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

func TestDetectOverlaps(t *testing.T) {
	d := New(DefaultConfig())

	// Scenario: Michael has 14:00-16:30 and 16:00-18:00 the same day
	snap := Snapshot{
		Visits: []models.Visit{
			visitAt("v1", "michael", 14, 16.5),
			visitAt("v2", "michael", 16, 18),
		},
		Caregivers: map[string]models.Caregiver{
			"michael": {ID: "michael", Name: "Michael Chen"},
		},
		Now: monday,
	}

	alerts := alertsOfKind(d.Detect(snap), constants.ConflictScheduling)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 scheduling_conflict, got %d", len(alerts))
	}
	a := alerts[0]
	if a.Severity != constants.SeverityHigh {
		t.Errorf("severity = %s, want high", a.Severity)
	}
	if len(a.VisitIDs) != 2 || a.VisitIDs[0] != "v1" || a.VisitIDs[1] != "v2" {
		t.Errorf("VisitIDs = %v, want [v1 v2]", a.VisitIDs)
	}
}

func TestDetectOverlaps_BoundaryTouchDoesNotConflict(t *testing.T) {
	d := New(DefaultConfig())
	snap := Snapshot{
		Visits: []models.Visit{
			visitAt("v1", "michael", 14, 16),
			visitAt("v2", "michael", 16, 18),
		},
		Now: monday,
	}

	if got := alertsOfKind(d.Detect(snap), constants.ConflictScheduling); len(got) != 0 {
		t.Errorf("boundary-touching visits produced %d conflicts, want 0", len(got))
	}
}

func TestDetectOverlaps_DifferentCaregivers(t *testing.T) {
	d := New(DefaultConfig())
	snap := Snapshot{
		Visits: []models.Visit{
			visitAt("v1", "michael", 14, 16),
			visitAt("v2", "sarah", 14, 16),
		},
		Now: monday,
	}

	if got := alertsOfKind(d.Detect(snap), constants.ConflictScheduling); len(got) != 0 {
		t.Errorf("visits for different caregivers produced %d conflicts, want 0", len(got))
	}
}

func TestDetectUnassigned(t *testing.T) {
	d := New(DefaultConfig())

	soon := visitAt("v-soon", "", 10, 12)
	farOut := visitAt("v-far", "", 10, 12)
	farOut.ScheduledStart = monday.AddDate(0, 0, 7).Add(10 * time.Hour)
	farOut.ScheduledEnd = farOut.ScheduledStart.Add(2 * time.Hour)

	snap := Snapshot{
		Visits: []models.Visit{soon, farOut},
		Now:    monday,
	}

	alerts := alertsOfKind(d.Detect(snap), constants.ConflictNoCaregiver)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 no_caregiver alert, got %d", len(alerts))
	}
	if alerts[0].VisitIDs[0] != "v-soon" {
		t.Errorf("alert names %s, want v-soon", alerts[0].VisitIDs[0])
	}
	if alerts[0].Severity != constants.SeverityHigh {
		t.Errorf("severity = %s, want high", alerts[0].Severity)
	}
}

func TestDetectOvertime_ScenarioSarah(t *testing.T) {
	// Sarah: Monday 08:00-16:00, maxHours 8, 6 hours already committed.
	d := New(DefaultConfig())
	availability := map[string][]models.AvailabilitySlot{
		"sarah": {mondaySlot("sarah", 8)},
	}
	caregivers := map[string]models.Caregiver{
		"sarah": {ID: "sarah", Name: "Sarah Wilson"},
	}

	existing := []models.Visit{
		visitAt("v1", "sarah", 8, 11),
		visitAt("v2", "sarah", 11, 14),
	}

	// A new 2-hour visit brings her to exactly 8 of 8 hours: at the limit,
	// not over it. No overtime alert.
	atLimit := append(append([]models.Visit{}, existing...), visitAt("v3", "sarah", 14, 16))
	alerts := alertsOfKind(d.Detect(Snapshot{
		Visits: atLimit, Availability: availability, Caregivers: caregivers, Now: monday,
	}), constants.ConflictOvertimeRisk)
	if len(alerts) != 0 {
		t.Fatalf("at exactly max hours expected no overtime_risk, got %v", alerts)
	}

	// One more hour the same week crosses the limit: severity high.
	over := append(append([]models.Visit{}, atLimit...), visitAt("v4", "sarah", 16, 17))
	alerts = alertsOfKind(d.Detect(Snapshot{
		Visits: over, Availability: availability, Caregivers: caregivers, Now: monday,
	}), constants.ConflictOvertimeRisk)
	if len(alerts) != 1 {
		t.Fatalf("expected exactly 1 overtime_risk alert, got %d", len(alerts))
	}
	if alerts[0].Severity != constants.SeverityHigh {
		t.Errorf("severity = %s, want high", alerts[0].Severity)
	}
	if alerts[0].CaregiverID != "sarah" {
		t.Errorf("caregiver = %s, want sarah", alerts[0].CaregiverID)
	}
}

func TestDetectOvertime_RiskBand(t *testing.T) {
	// 7.5 of 8 hours is 93.75%: inside the risk band, below the limit.
	d := New(DefaultConfig())
	snap := Snapshot{
		Visits: []models.Visit{
			visitAt("v1", "sarah", 8, 12),
			visitAt("v2", "sarah", 12, 15.5),
		},
		Availability: map[string][]models.AvailabilitySlot{
			"sarah": {mondaySlot("sarah", 8)},
		},
		Caregivers: map[string]models.Caregiver{"sarah": {ID: "sarah", Name: "Sarah Wilson"}},
		Now:        monday,
	}

	alerts := alertsOfKind(d.Detect(snap), constants.ConflictOvertimeRisk)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 overtime_risk alert, got %d", len(alerts))
	}
	if alerts[0].Severity != constants.SeverityMedium {
		t.Errorf("severity = %s, want medium", alerts[0].Severity)
	}
}

func TestDetectOvertime_SeparateWeeksDoNotCombine(t *testing.T) {
	d := New(DefaultConfig())
	nextWeek := visitAt("v2", "sarah", 8, 14)
	nextWeek.ScheduledStart = nextWeek.ScheduledStart.AddDate(0, 0, 7)
	nextWeek.ScheduledEnd = nextWeek.ScheduledEnd.AddDate(0, 0, 7)

	snap := Snapshot{
		Visits: []models.Visit{
			visitAt("v1", "sarah", 8, 14), // 6h this week
			nextWeek,                      // 6h next week
		},
		Availability: map[string][]models.AvailabilitySlot{
			"sarah": {mondaySlot("sarah", 8)},
		},
		Caregivers: map[string]models.Caregiver{"sarah": {ID: "sarah"}},
		Now:        monday,
	}

	if alerts := alertsOfKind(d.Detect(snap), constants.ConflictOvertimeRisk); len(alerts) != 0 {
		t.Errorf("hours in different weeks combined into %d alerts, want 0", len(alerts))
	}
}

func TestDetectPreferenceMismatch(t *testing.T) {
	d := New(DefaultConfig())

	v := visitAt("v1", "michael", 10, 12)
	v.ClientPreferences = []string{"spanish", "no-pets"}

	snap := Snapshot{
		Visits: []models.Visit{v},
		Caregivers: map[string]models.Caregiver{
			"michael": {ID: "michael", Name: "Michael Chen", PreferenceTags: []string{"Spanish"}},
		},
		Now: monday,
	}

	alerts := alertsOfKind(d.Detect(snap), constants.ConflictClientPreference)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 client_preference alert, got %d", len(alerts))
	}
	if alerts[0].Severity != constants.SeverityMedium {
		t.Errorf("severity = %s, want medium", alerts[0].Severity)
	}

	// Tag matching is case-insensitive: satisfying both tags clears the alert
	snap.Caregivers["michael"] = models.Caregiver{
		ID: "michael", PreferenceTags: []string{"Spanish", "No-Pets"},
	}
	if alerts := alertsOfKind(d.Detect(snap), constants.ConflictClientPreference); len(alerts) != 0 {
		t.Errorf("satisfied preferences still produced %d alerts", len(alerts))
	}
}

func TestDetectTravel(t *testing.T) {
	d := New(DefaultConfig())

	first := visitAt("v1", "michael", 9, 10)
	first.ClientLocation = geo.Location{Lat: 36.8508, Lng: -75.9776}

	// About 18 miles away with no gap at all
	second := visitAt("v2", "michael", 10, 11)
	second.ClientLocation = geo.Location{Lat: 36.8468, Lng: -76.2852}

	snap := Snapshot{
		Visits: []models.Visit{first, second},
		Caregivers: map[string]models.Caregiver{
			"michael": {ID: "michael", Name: "Michael Chen", TravelRadiusMi: 10},
		},
		Now: monday,
	}

	alerts := alertsOfKind(d.Detect(snap), constants.ConflictTravelDistance)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 travel_distance alert, got %d", len(alerts))
	}
	if alerts[0].Severity != constants.SeverityHigh {
		t.Errorf("severity = %s, want high (unreachable next visit)", alerts[0].Severity)
	}

	// With a two-hour gap the leg is drivable but still beyond the radius
	second.ScheduledStart = monday.Add(12 * time.Hour)
	second.ScheduledEnd = monday.Add(13 * time.Hour)
	snap.Visits = []models.Visit{first, second}

	alerts = alertsOfKind(d.Detect(snap), constants.ConflictTravelDistance)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 travel_distance alert, got %d", len(alerts))
	}
	if alerts[0].Severity != constants.SeverityMedium {
		t.Errorf("severity = %s, want medium (out of radius only)", alerts[0].Severity)
	}
}

func TestDetectTravel_NearbyVisitsClean(t *testing.T) {
	d := New(DefaultConfig())

	first := visitAt("v1", "michael", 9, 10)
	first.ClientLocation = geo.Location{Lat: 36.8508, Lng: -75.9776}
	second := visitAt("v2", "michael", 11, 12)
	second.ClientLocation = geo.Location{Lat: 36.8530, Lng: -75.9790}

	snap := Snapshot{
		Visits: []models.Visit{first, second},
		Caregivers: map[string]models.Caregiver{
			"michael": {ID: "michael", TravelRadiusMi: 10},
		},
		Now: monday,
	}

	if alerts := alertsOfKind(d.Detect(snap), constants.ConflictTravelDistance); len(alerts) != 0 {
		t.Errorf("nearby visits produced %d travel alerts, want 0", len(alerts))
	}
}

func TestDetect_OrderingAndDeterminism(t *testing.T) {
	d := New(DefaultConfig())

	unassigned := visitAt("v-un", "", 10, 12)

	mismatch := visitAt("v-pref", "michael", 8, 9)
	mismatch.ClientPreferences = []string{"mandarin"}

	overlapA := visitAt("v-a", "sarah", 13, 15)
	overlapB := visitAt("v-b", "sarah", 14, 16)

	snap := Snapshot{
		Visits: []models.Visit{mismatch, unassigned, overlapA, overlapB},
		Caregivers: map[string]models.Caregiver{
			"michael": {ID: "michael"},
			"sarah":   {ID: "sarah"},
		},
		Now: monday,
	}

	alerts := d.Detect(snap)
	if len(alerts) != 3 {
		t.Fatalf("expected 3 alerts, got %d: %v", len(alerts), alerts)
	}

	// High alerts first, ordered by earliest implicated start; medium after
	if alerts[0].Kind != constants.ConflictNoCaregiver {
		t.Errorf("alerts[0].Kind = %s, want no_caregiver (high, 10:00)", alerts[0].Kind)
	}
	if alerts[1].Kind != constants.ConflictScheduling {
		t.Errorf("alerts[1].Kind = %s, want scheduling_conflict (high, 13:00)", alerts[1].Kind)
	}
	if alerts[2].Kind != constants.ConflictClientPreference {
		t.Errorf("alerts[2].Kind = %s, want client_preference (medium)", alerts[2].Kind)
	}

	// Re-running over the same snapshot yields the identical result
	again := d.Detect(snap)
	if len(again) != len(alerts) {
		t.Fatalf("re-detection changed alert count: %d vs %d", len(again), len(alerts))
	}
	for i := range alerts {
		if alerts[i].ID != again[i].ID || alerts[i].Severity != again[i].Severity {
			t.Errorf("re-detection changed alert %d: %+v vs %+v", i, alerts[i], again[i])
		}
	}
}

func TestDetect_CancelledVisitsIgnored(t *testing.T) {
	d := New(DefaultConfig())

	a := visitAt("v1", "michael", 14, 16)
	b := visitAt("v2", "michael", 15, 17)
	b.Status = constants.VisitCancelled

	snap := Snapshot{Visits: []models.Visit{a, b}, Now: monday}
	if alerts := alertsOfKind(d.Detect(snap), constants.ConflictScheduling); len(alerts) != 0 {
		t.Errorf("cancelled visit still conflicts: %v", alerts)
	}
}
