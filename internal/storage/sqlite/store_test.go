package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/geo"
	"github.com/evvtrack/evvtrack/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testVisit(id string, start time.Time) models.Visit {
	return models.Visit{
		ID:             id,
		ClientID:       "client-1",
		CaregiverID:    "cg-1",
		ScheduledStart: start,
		ScheduledEnd:   start.Add(2 * time.Hour),
		Status:         constants.VisitScheduled,
		Tasks: []models.CareTask{
			{ID: "t1", Name: "Medication reminder", Required: true},
			{ID: "t2", Name: "Companionship", Required: false},
		},
		Recurrence:        constants.RecurrenceNone,
		Priority:          constants.PriorityHigh,
		ClientLocation:    geo.Location{Lat: 36.8508, Lng: -75.9776},
		ClientPreferences: []string{"female caregiver", "non-smoker"},
		CreatedAt:         start.Add(-48 * time.Hour),
	}
}

func TestVisitRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	visit := testVisit("v1", start)

	if err := store.AddVisit(visit); err != nil {
		t.Fatalf("AddVisit failed: %v", err)
	}

	got, err := store.GetVisit("v1")
	if err != nil {
		t.Fatalf("GetVisit failed: %v", err)
	}
	if got.ID != visit.ID || got.ClientID != visit.ClientID || got.CaregiverID != visit.CaregiverID {
		t.Errorf("identity fields mismatch: got %+v", got)
	}
	if !got.ScheduledStart.Equal(visit.ScheduledStart) || !got.ScheduledEnd.Equal(visit.ScheduledEnd) {
		t.Errorf("schedule mismatch: got %v-%v", got.ScheduledStart, got.ScheduledEnd)
	}
	if got.Status != constants.VisitScheduled || got.Priority != constants.PriorityHigh {
		t.Errorf("status/priority mismatch: got %s/%s", got.Status, got.Priority)
	}
	if len(got.Tasks) != 2 || got.Tasks[0].Name != "Medication reminder" || !got.Tasks[0].Required {
		t.Errorf("tasks mismatch: got %+v", got.Tasks)
	}
	if len(got.ClientPreferences) != 2 {
		t.Errorf("client preferences mismatch: got %v", got.ClientPreferences)
	}
	if got.ClientLocation.Lat != 36.8508 {
		t.Errorf("client location mismatch: got %+v", got.ClientLocation)
	}
	if got.ActualStart != nil || got.ActualEnd != nil {
		t.Errorf("actual times should be unset, got %v/%v", got.ActualStart, got.ActualEnd)
	}
}

func TestVisitUpdatePreservesID(t *testing.T) {
	store := setupTestStore(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	visit := testVisit("v1", start)

	if err := store.AddVisit(visit); err != nil {
		t.Fatalf("AddVisit failed: %v", err)
	}

	actualStart := start.Add(3 * time.Minute)
	visit.Status = constants.VisitInProgress
	visit.ActualStart = &actualStart
	if err := store.UpdateVisit(visit); err != nil {
		t.Fatalf("UpdateVisit failed: %v", err)
	}

	got, err := store.GetVisit("v1")
	if err != nil {
		t.Fatalf("GetVisit failed: %v", err)
	}
	if got.Status != constants.VisitInProgress {
		t.Errorf("status = %s, want in_progress", got.Status)
	}
	if got.ActualStart == nil || !got.ActualStart.Equal(actualStart) {
		t.Errorf("actual start = %v, want %v", got.ActualStart, actualStart)
	}

	all, err := store.GetAllVisits()
	if err != nil {
		t.Fatalf("GetAllVisits failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("update created a duplicate row: %d visits", len(all))
	}
}

func TestGetVisitsRange(t *testing.T) {
	store := setupTestStore(t)
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	for i, hour := range []int{8, 12, 16} {
		v := testVisit(string(rune('a'+i)), monday.Add(time.Duration(hour)*time.Hour))
		if err := store.AddVisit(v); err != nil {
			t.Fatalf("AddVisit failed: %v", err)
		}
	}

	// Window [11:00, 15:00) intersects only the noon visit
	got, err := store.GetVisits(monday.Add(11*time.Hour), monday.Add(15*time.Hour))
	if err != nil {
		t.Fatalf("GetVisits failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("range query returned %+v, want only visit b", got)
	}

	// Open-ended bounds return everything
	all, err := store.GetVisits(time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("GetVisits with open bounds failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("open-bounds query returned %d visits, want 3", len(all))
	}
}

func TestCancelVisit(t *testing.T) {
	store := setupTestStore(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if err := store.AddVisit(testVisit("v1", start)); err != nil {
		t.Fatalf("AddVisit failed: %v", err)
	}

	if err := store.CancelVisit("v1"); err != nil {
		t.Fatalf("CancelVisit failed: %v", err)
	}
	got, err := store.GetVisit("v1")
	if err != nil {
		t.Fatalf("GetVisit failed: %v", err)
	}
	if got.Status != constants.VisitCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}

	// Cancelled is terminal
	if err := store.CancelVisit("v1"); err == nil {
		t.Error("cancelling an already-cancelled visit should fail")
	}
}

func TestAvailabilityRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	slot := models.AvailabilitySlot{
		CaregiverID:    "cg-1",
		Weekday:        time.Monday,
		Start:          "08:00",
		End:            "18:00",
		IsAvailable:    true,
		MaxHours:       8,
		CommittedHours: 6,
	}
	if err := store.SaveAvailability(slot); err != nil {
		t.Fatalf("SaveAvailability failed: %v", err)
	}

	// Same caregiver+weekday upserts
	slot.CommittedHours = 7
	if err := store.SaveAvailability(slot); err != nil {
		t.Fatalf("SaveAvailability upsert failed: %v", err)
	}

	slots, err := store.GetAvailability("cg-1")
	if err != nil {
		t.Fatalf("GetAvailability failed: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("got %d slots, want 1", len(slots))
	}
	if slots[0].Weekday != time.Monday || slots[0].CommittedHours != 7 {
		t.Errorf("slot mismatch: %+v", slots[0])
	}

	all, err := store.GetAllAvailability()
	if err != nil {
		t.Fatalf("GetAllAvailability failed: %v", err)
	}
	if len(all["cg-1"]) != 1 {
		t.Errorf("all-availability map mismatch: %+v", all)
	}
}

func TestDirectoryRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	cg := models.Caregiver{
		ID:             "cg-1",
		Name:           "Sarah",
		Skills:         []string{"medication reminder", "mobility assistance"},
		PreferenceTags: []string{"female caregiver", "non-smoker"},
		Rating:         4.5,
		HomeLocation:   geo.Location{Lat: 36.84, Lng: -76.0},
		TravelRadiusMi: 15,
	}
	if err := store.AddCaregiver(cg); err != nil {
		t.Fatalf("AddCaregiver failed: %v", err)
	}

	gotCG, err := store.GetCaregiver("cg-1")
	if err != nil {
		t.Fatalf("GetCaregiver failed: %v", err)
	}
	if gotCG.Name != "Sarah" || gotCG.Rating != 4.5 || len(gotCG.Skills) != 2 {
		t.Errorf("caregiver mismatch: %+v", gotCG)
	}

	client := models.Client{
		ID:             "client-1",
		Name:           "Mrs. Alvarez",
		Location:       geo.Location{Lat: 36.8508, Lng: -75.9776},
		PreferenceTags: []string{"spanish speaking"},
	}
	if err := store.AddClient(client); err != nil {
		t.Fatalf("AddClient failed: %v", err)
	}

	gotClient, err := store.GetClient("client-1")
	if err != nil {
		t.Fatalf("GetClient failed: %v", err)
	}
	if gotClient.Name != "Mrs. Alvarez" || len(gotClient.PreferenceTags) != 1 {
		t.Errorf("client mismatch: %+v", gotClient)
	}

	if _, err := store.GetCaregiver("missing"); err == nil {
		t.Error("GetCaregiver for missing id should fail")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	clockIn := time.Date(2026, 3, 2, 14, 2, 0, 0, time.UTC)
	session := models.EVVSession{
		VisitID:   "v1",
		State:     constants.SessionInProgress,
		ClockInAt: &clockIn,
		ClockInPoint: &geo.Point{
			Location:   geo.Location{Lat: 36.8508, Lng: -75.9780},
			AccuracyMi: 0.01,
		},
		AccumulatedBreak: 25 * time.Minute,
		Tasks: []models.CareTask{
			{ID: "t1", Name: "Medication reminder", Required: true, Completed: true},
		},
		Override: true,
	}
	if err := store.SaveSession(session); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err := store.GetSession("v1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.State != constants.SessionInProgress {
		t.Errorf("state = %s, want in_progress", got.State)
	}
	if got.ClockInAt == nil || !got.ClockInAt.Equal(clockIn) {
		t.Errorf("clock-in time mismatch: %v", got.ClockInAt)
	}
	if got.ClockInPoint == nil || got.ClockInPoint.Location.Lng != -75.9780 {
		t.Errorf("clock-in point mismatch: %+v", got.ClockInPoint)
	}
	if got.ClockOutPoint != nil {
		t.Errorf("clock-out point should be unset, got %+v", got.ClockOutPoint)
	}
	if got.AccumulatedBreak != 25*time.Minute {
		t.Errorf("accumulated break = %v, want 25m", got.AccumulatedBreak)
	}
	if len(got.Tasks) != 1 || !got.Tasks[0].Completed {
		t.Errorf("task snapshot mismatch: %+v", got.Tasks)
	}
	if !got.Override {
		t.Error("override flag lost")
	}

	if _, err := store.GetSession("missing"); err == nil {
		t.Error("GetSession for missing visit should fail")
	}
}

func TestSettingsDefaultsAndRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	settings, err := store.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings after Init failed: %v", err)
	}
	if settings.GeofenceRadiusMi != constants.DefaultGeofenceRadiusMi {
		t.Errorf("default geofence radius = %g, want %g", settings.GeofenceRadiusMi, constants.DefaultGeofenceRadiusMi)
	}
	if settings.OvertimeRiskRatio != constants.DefaultOvertimeRiskRatio {
		t.Errorf("default risk ratio = %g, want %g", settings.OvertimeRiskRatio, constants.DefaultOvertimeRiskRatio)
	}

	settings.GeofenceRadiusMi = 0.25
	settings.NotifyOnRefusal = false
	if err := store.SaveSettings(settings); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	got, err := store.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if got.GeofenceRadiusMi != 0.25 {
		t.Errorf("geofence radius = %g, want 0.25", got.GeofenceRadiusMi)
	}
	if got.NotifyOnRefusal {
		t.Error("notify_on_refusal should be false after save")
	}
}
