package resolution

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/evvtrack/evvtrack/internal/conflict"
	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/directory"
	"github.com/evvtrack/evvtrack/internal/geo"
	"github.com/evvtrack/evvtrack/internal/matching"
	"github.com/evvtrack/evvtrack/internal/models"
	"github.com/evvtrack/evvtrack/internal/storage/sqlite"
)

type captureNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (c *captureNotifier) Notify(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, text)
	return nil
}

var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func setupService(t *testing.T) (*Service, *sqlite.Store) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := New(store, directory.NewStoreService(store), conflict.New(conflict.DefaultConfig()), matching.New(matching.DefaultConfig()), &captureNotifier{}, false)
	return svc, store
}

func seedCaregiver(t *testing.T, store *sqlite.Store, id string) {
	t.Helper()
	if err := store.AddCaregiver(models.Caregiver{
		ID:             id,
		Name:           id,
		Skills:         []string{"medication reminder"},
		Rating:         4.0,
		HomeLocation:   geo.Location{Lat: 36.85, Lng: -75.98},
		TravelRadiusMi: 20,
	}); err != nil {
		t.Fatalf("AddCaregiver failed: %v", err)
	}
	if err := store.SaveAvailability(models.AvailabilitySlot{
		CaregiverID: id,
		Weekday:     time.Monday,
		Start:       "08:00",
		End:         "18:00",
		IsAvailable: true,
		MaxHours:    8,
	}); err != nil {
		t.Fatalf("SaveAvailability failed: %v", err)
	}
}

func seedVisit(t *testing.T, store *sqlite.Store, id, caregiverID string, startHour int) {
	t.Helper()
	start := monday.Add(time.Duration(startHour) * time.Hour)
	if err := store.AddVisit(models.Visit{
		ID:             id,
		ClientID:       "client-1",
		CaregiverID:    caregiverID,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(2 * time.Hour),
		Status:         constants.VisitScheduled,
		Priority:       constants.PriorityMedium,
		ClientLocation: geo.Location{Lat: 36.8508, Lng: -75.9776},
		Tasks: []models.CareTask{
			{ID: "t1", Name: "Medication reminder", Required: true},
		},
		CreatedAt: monday.Add(-24 * time.Hour),
	}); err != nil {
		t.Fatalf("AddVisit failed: %v", err)
	}
}

func TestAssignPersistsAndRedetects(t *testing.T) {
	svc, store := setupService(t)
	seedCaregiver(t, store, "sarah")
	seedVisit(t, store, "v1", "", 10)

	alerts, err := svc.Assign("v1", "sarah", monday)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	visit, err := store.GetVisit("v1")
	if err != nil {
		t.Fatalf("GetVisit failed: %v", err)
	}
	if visit.CaregiverID != "sarah" {
		t.Errorf("caregiver = %q, want sarah", visit.CaregiverID)
	}

	// The unassigned alert for the near-term visit must be gone
	for _, a := range alerts {
		if a.Kind == constants.ConflictNoCaregiver {
			t.Errorf("no_caregiver alert survived assignment: %+v", a)
		}
	}
}

func TestAssignUnknownCaregiver(t *testing.T) {
	svc, store := setupService(t)
	seedVisit(t, store, "v1", "", 10)

	if _, err := svc.Assign("v1", "nobody", monday); err == nil {
		t.Error("assigning an unknown caregiver should fail")
	}
}

func TestAssignCompletedVisit(t *testing.T) {
	svc, store := setupService(t)
	seedCaregiver(t, store, "sarah")
	seedVisit(t, store, "v1", "sarah", 10)

	visit, _ := store.GetVisit("v1")
	visit.Status = constants.VisitInProgress
	if err := store.UpdateVisit(visit); err != nil {
		t.Fatalf("UpdateVisit failed: %v", err)
	}

	if _, err := svc.Assign("v1", "sarah", monday); err == nil {
		t.Error("assigning an in-progress visit should fail")
	}
}

func TestRescheduleResolvesOverlap(t *testing.T) {
	svc, store := setupService(t)
	seedCaregiver(t, store, "michael")
	seedVisit(t, store, "v1", "michael", 10) // 10:00-12:00
	seedVisit(t, store, "v2", "michael", 11) // 11:00-13:00, overlaps v1

	alerts, err := svc.Detect(monday)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if !hasKind(alerts, constants.ConflictScheduling) {
		t.Fatalf("expected a scheduling conflict before rescheduling, got %+v", alerts)
	}

	alerts, err = svc.Reschedule("v2", monday.Add(14*time.Hour), monday.Add(16*time.Hour), monday)
	if err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	if hasKind(alerts, constants.ConflictScheduling) {
		t.Errorf("scheduling conflict survived rescheduling: %+v", alerts)
	}
}

func TestRescheduleRejectsInvertedWindow(t *testing.T) {
	svc, store := setupService(t)
	seedVisit(t, store, "v1", "", 10)

	if _, err := svc.Reschedule("v1", monday.Add(12*time.Hour), monday.Add(10*time.Hour), monday); err == nil {
		t.Error("rescheduling with end before start should fail")
	}
}

func TestCancelRemovesFromDetection(t *testing.T) {
	svc, store := setupService(t)
	seedCaregiver(t, store, "michael")
	seedVisit(t, store, "v1", "michael", 10)
	seedVisit(t, store, "v2", "michael", 11)

	alerts, err := svc.Cancel("v2", monday)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if hasKind(alerts, constants.ConflictScheduling) {
		t.Errorf("cancelled visit still produces scheduling conflicts: %+v", alerts)
	}

	visit, _ := store.GetVisit("v2")
	if visit.Status != constants.VisitCancelled {
		t.Errorf("status = %s, want cancelled", visit.Status)
	}
}

func TestOverrideSuppressesAlertByID(t *testing.T) {
	svc, store := setupService(t)
	seedCaregiver(t, store, "michael")
	seedVisit(t, store, "v1", "michael", 10) // 10:00-12:00
	seedVisit(t, store, "v2", "michael", 11) // 11:00-13:00, overlaps v1

	alerts, err := svc.Detect(monday)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	var alertID string
	for _, a := range alerts {
		if a.Kind == constants.ConflictScheduling {
			alertID = a.ID
		}
	}
	if alertID == "" {
		t.Fatalf("expected a scheduling conflict, got %+v", alerts)
	}

	remaining, err := svc.Override(alertID, "coordinator accepted the handoff overlap", monday)
	if err != nil {
		t.Fatalf("Override failed: %v", err)
	}
	for _, a := range remaining {
		if a.ID == alertID {
			t.Errorf("overridden alert still reported: %+v", a)
		}
	}

	// The id is no longer addressable once suppressed
	if _, err := svc.FindAlert(alertID, monday); err == nil {
		t.Error("overridden alert should not resolve by id anymore")
	}

	overrides, err := store.GetAlertOverrides()
	if err != nil {
		t.Fatalf("GetAlertOverrides failed: %v", err)
	}
	o, ok := overrides[alertID]
	if !ok {
		t.Fatalf("override not persisted, got %+v", overrides)
	}
	if o.Note != "coordinator accepted the handoff overlap" {
		t.Errorf("note = %q", o.Note)
	}
}

func TestOverrideUnknownAlert(t *testing.T) {
	svc, _ := setupService(t)

	if _, err := svc.Override("scheduling_conflict:nobody:x+y", "", monday); err == nil {
		t.Error("overriding an alert that is not currently derived should fail")
	}
}

func TestOverrideRetiresWhenFingerprintChanges(t *testing.T) {
	svc, store := setupService(t)
	seedCaregiver(t, store, "michael")
	seedVisit(t, store, "v1", "michael", 10)
	seedVisit(t, store, "v2", "michael", 11)

	alerts, err := svc.Detect(monday)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	var alertID string
	for _, a := range alerts {
		if a.Kind == constants.ConflictScheduling {
			alertID = a.ID
		}
	}
	if _, err := svc.Override(alertID, "", monday); err != nil {
		t.Fatalf("Override failed: %v", err)
	}

	// A third overlapping visit changes the subject, so the new finding
	// carries a fresh fingerprint the old override does not suppress.
	seedVisit(t, store, "v3", "michael", 11)
	alerts, err = svc.Detect(monday)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if !hasKind(alerts, constants.ConflictScheduling) {
		t.Errorf("new overlap should surface despite the old override, got %+v", alerts)
	}
}

func TestCandidatesExcludeCommittedVisit(t *testing.T) {
	svc, store := setupService(t)
	seedCaregiver(t, store, "sarah")
	// Sarah already has 6 committed hours this week; the 2-hour visit
	// being matched must not count against her on a reassignment check.
	for _, id := range []string{"w1", "w2", "w3"} {
		seedVisit(t, store, id, "sarah", 8)
	}
	seedVisit(t, store, "v1", "sarah", 14)

	_, ranked, err := svc.Candidates("v1")
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(ranked) != 1 || ranked[0].Caregiver.ID != "sarah" {
		t.Fatalf("expected sarah to remain eligible at exactly her weekly cap, got %+v", ranked)
	}
}

func TestNotificationsFireOnResolution(t *testing.T) {
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	defer store.Close()

	capture := &captureNotifier{}
	svc := New(store, directory.NewStoreService(store), conflict.New(conflict.DefaultConfig()), matching.New(matching.DefaultConfig()), capture, true)

	seedCaregiver(t, store, "sarah")
	seedVisit(t, store, "v1", "", 10)

	if _, err := svc.Assign("v1", "sarah", monday); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	// Delivery is fire-and-forget; give the goroutine a moment
	deadline := time.Now().Add(time.Second)
	for {
		capture.mu.Lock()
		n := len(capture.messages)
		capture.mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	capture.mu.Lock()
	defer capture.mu.Unlock()
	if len(capture.messages) != 1 {
		t.Fatalf("got %d notifications, want 1", len(capture.messages))
	}
}

func hasKind(alerts []models.ConflictAlert, kind constants.ConflictKind) bool {
	for _, a := range alerts {
		if a.Kind == kind {
			return true
		}
	}
	return false
}
