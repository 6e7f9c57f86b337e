package evv

import (
	"testing"
	"time"

	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/geo"
	"github.com/evvtrack/evvtrack/internal/models"
)

var clientLoc = geo.Location{Lat: 36.8508, Lng: -75.9776}

func scheduledVisit() *models.Visit {
	start := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	return &models.Visit{
		ID:             "visit-1",
		ClientID:       "client-1",
		CaregiverID:    "sarah",
		ScheduledStart: start,
		ScheduledEnd:   start.Add(2 * time.Hour),
		Status:         constants.VisitScheduled,
		Priority:       constants.PriorityMedium,
		ClientLocation: clientLoc,
		Tasks: []models.CareTask{
			{ID: "t1", Name: "Medication reminder", Required: true},
			{ID: "t2", Name: "Mobility assistance", Required: true},
			{ID: "t3", Name: "Light housekeeping", Required: false},
			{ID: "t4", Name: "Companionship", Required: false},
		},
	}
}

func atClient() *geo.Point {
	// ~0.02 mi from the client's address, inside the 0.1 mi geofence
	return &geo.Point{Location: geo.Location{Lat: 36.8508, Lng: -75.9780}, AccuracyMi: 0.01}
}

func farAway() *geo.Point {
	// ~0.5 mi north of the client's address
	return &geo.Point{Location: geo.Location{Lat: 36.8580, Lng: -75.9776}, AccuracyMi: 0.01}
}

func TestClockIn_InsideGeofence(t *testing.T) {
	tracker := New(DefaultConfig())
	visit := scheduledVisit()
	session := NewSession(visit)
	now := visit.ScheduledStart

	if err := tracker.ClockIn(visit, session, atClient(), now); err != nil {
		t.Fatalf("clock-in inside the geofence failed: %v", err)
	}
	if session.State != constants.SessionInProgress {
		t.Errorf("session state = %s, want in_progress", session.State)
	}
	if visit.Status != constants.VisitInProgress {
		t.Errorf("visit status = %s, want in_progress", visit.Status)
	}
	if session.ClockInAt == nil || !session.ClockInAt.Equal(now) {
		t.Errorf("clock-in timestamp not recorded")
	}
	if visit.ActualStart == nil || !visit.ActualStart.Equal(now) {
		t.Errorf("visit actual start not recorded")
	}
}

func TestClockIn_LocationMismatch(t *testing.T) {
	tracker := New(DefaultConfig())
	visit := scheduledVisit()
	session := NewSession(visit)

	err := tracker.ClockIn(visit, session, farAway(), visit.ScheduledStart)
	if !Refused(err, LocationMismatch) {
		t.Fatalf("expected LocationMismatch, got %v", err)
	}
	var te *TransitionError = err.(*TransitionError)
	if te.DistanceMi < 0.4 || te.DistanceMi > 0.6 {
		t.Errorf("reported distance = %f, want roughly 0.5 mi", te.DistanceMi)
	}

	// A refused transition leaves everything untouched
	if session.State != constants.SessionNotStarted {
		t.Errorf("refused clock-in changed session state to %s", session.State)
	}
	if visit.Status != constants.VisitScheduled {
		t.Errorf("refused clock-in changed visit status to %s", visit.Status)
	}
}

func TestClockIn_LocationUnavailable(t *testing.T) {
	tracker := New(DefaultConfig())
	visit := scheduledVisit()
	session := NewSession(visit)

	err := tracker.ClockIn(visit, session, nil, visit.ScheduledStart)
	if !Refused(err, LocationUnavailable) {
		t.Fatalf("expected LocationUnavailable, got %v", err)
	}
}

func TestClockIn_Idempotent(t *testing.T) {
	tracker := New(DefaultConfig())
	visit := scheduledVisit()
	session := NewSession(visit)
	now := visit.ScheduledStart

	if err := tracker.ClockIn(visit, session, atClient(), now); err != nil {
		t.Fatalf("first clock-in failed: %v", err)
	}
	firstStamp := *session.ClockInAt

	// Retried delivery five minutes later must be a no-op success
	if err := tracker.ClockIn(visit, session, atClient(), now.Add(5*time.Minute)); err != nil {
		t.Fatalf("duplicate clock-in errored: %v", err)
	}
	if !session.ClockInAt.Equal(firstStamp) {
		t.Errorf("duplicate clock-in moved the timestamp from %v to %v", firstStamp, session.ClockInAt)
	}
}

func TestClockIn_AfterCompletionIsStale(t *testing.T) {
	tracker := New(DefaultConfig())
	visit := scheduledVisit()
	session := NewSession(visit)
	session.State = constants.SessionCompleted
	visit.Status = constants.VisitCompleted

	err := tracker.ClockIn(visit, session, atClient(), visit.ScheduledStart)
	if !Refused(err, StaleTransition) {
		t.Fatalf("expected StaleTransition, got %v", err)
	}
}

func TestForceClockIn_RecordsOverride(t *testing.T) {
	tracker := New(DefaultConfig())
	visit := scheduledVisit()
	session := NewSession(visit)

	if err := tracker.ForceClockIn(visit, session, farAway(), visit.ScheduledStart); err != nil {
		t.Fatalf("override clock-in failed: %v", err)
	}
	if !session.Override {
		t.Errorf("override flag not set for audit")
	}
}

func TestClockOut_TaskGating(t *testing.T) {
	tracker := New(DefaultConfig())
	visit := scheduledVisit()
	session := NewSession(visit)
	now := visit.ScheduledStart

	if err := tracker.ClockIn(visit, session, atClient(), now); err != nil {
		t.Fatalf("clock-in failed: %v", err)
	}

	// One of two required tasks done; both optional tasks untouched
	if err := tracker.ToggleTask(visit, session, "t1", true); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	err := tracker.ClockOut(visit, session, atClient(), now.Add(2*time.Hour))
	if !Refused(err, IncompleteTasks) {
		t.Fatalf("expected IncompleteTasks, got %v", err)
	}
	te := err.(*TransitionError)
	if len(te.MissingTasks) != 1 || te.MissingTasks[0].ID != "t2" {
		t.Errorf("MissingTasks = %v, want exactly t2", te.MissingTasks)
	}

	// Completing the remaining required task unblocks clock-out; the
	// optional tasks never gate it
	if err := tracker.ToggleTask(visit, session, "t2", true); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if err := tracker.ClockOut(visit, session, atClient(), now.Add(2*time.Hour)); err != nil {
		t.Fatalf("clock-out after finishing required tasks failed: %v", err)
	}
	if visit.Status != constants.VisitCompleted {
		t.Errorf("visit status = %s, want completed", visit.Status)
	}
}

func TestClockOut_LocationMismatch(t *testing.T) {
	tracker := New(DefaultConfig())
	visit := scheduledVisit()
	session := NewSession(visit)
	now := visit.ScheduledStart

	if err := tracker.ClockIn(visit, session, atClient(), now); err != nil {
		t.Fatalf("clock-in failed: %v", err)
	}
	for _, id := range []string{"t1", "t2"} {
		if err := tracker.ToggleTask(visit, session, id, true); err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
	}

	err := tracker.ClockOut(visit, session, farAway(), now.Add(2*time.Hour))
	if !Refused(err, LocationMismatch) {
		t.Fatalf("expected LocationMismatch, got %v", err)
	}
	if session.State != constants.SessionInProgress {
		t.Errorf("refused clock-out changed session state to %s", session.State)
	}
}

func TestBreakAccounting(t *testing.T) {
	tracker := New(DefaultConfig())
	visit := scheduledVisit()
	session := NewSession(visit)
	clockIn := visit.ScheduledStart

	if err := tracker.ClockIn(visit, session, atClient(), clockIn); err != nil {
		t.Fatalf("clock-in failed: %v", err)
	}

	// Two break cycles: 15 and 10 minutes
	if err := tracker.StartBreak(session, clockIn.Add(30*time.Minute)); err != nil {
		t.Fatalf("start break failed: %v", err)
	}
	if err := tracker.EndBreak(session, clockIn.Add(45*time.Minute)); err != nil {
		t.Fatalf("end break failed: %v", err)
	}
	if err := tracker.StartBreak(session, clockIn.Add(60*time.Minute)); err != nil {
		t.Fatalf("second start break failed: %v", err)
	}
	if err := tracker.EndBreak(session, clockIn.Add(70*time.Minute)); err != nil {
		t.Fatalf("second end break failed: %v", err)
	}

	if session.AccumulatedBreak != 25*time.Minute {
		t.Errorf("accumulated break = %v, want 25m", session.AccumulatedBreak)
	}

	for _, id := range []string{"t1", "t2"} {
		if err := tracker.ToggleTask(visit, session, id, true); err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
	}
	clockOut := clockIn.Add(2 * time.Hour)
	if err := tracker.ClockOut(visit, session, atClient(), clockOut); err != nil {
		t.Fatalf("clock-out failed: %v", err)
	}

	// elapsedWorked = (clockOut - clockIn) - total breaks = 120m - 25m
	if got := session.ElapsedWorked(clockOut.Add(time.Hour)); got != 95*time.Minute {
		t.Errorf("elapsed worked = %v, want 95m", got)
	}
}

func TestClockOut_FromBreakFoldsOpenBreak(t *testing.T) {
	tracker := New(DefaultConfig())
	visit := scheduledVisit()
	session := NewSession(visit)
	clockIn := visit.ScheduledStart

	if err := tracker.ClockIn(visit, session, atClient(), clockIn); err != nil {
		t.Fatalf("clock-in failed: %v", err)
	}
	for _, id := range []string{"t1", "t2"} {
		if err := tracker.ToggleTask(visit, session, id, true); err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
	}
	if err := tracker.StartBreak(session, clockIn.Add(90*time.Minute)); err != nil {
		t.Fatalf("start break failed: %v", err)
	}

	// Clock out mid-break: the open 30-minute break folds in first
	clockOut := clockIn.Add(2 * time.Hour)
	if err := tracker.ClockOut(visit, session, atClient(), clockOut); err != nil {
		t.Fatalf("clock-out from break failed: %v", err)
	}
	if session.AccumulatedBreak != 30*time.Minute {
		t.Errorf("accumulated break = %v, want 30m", session.AccumulatedBreak)
	}
	if got := session.ElapsedWorked(clockOut); got != 90*time.Minute {
		t.Errorf("elapsed worked = %v, want 90m", got)
	}
}

func TestClockOut_Idempotent(t *testing.T) {
	tracker := New(DefaultConfig())
	visit := scheduledVisit()
	session := NewSession(visit)
	now := visit.ScheduledStart

	if err := tracker.ClockIn(visit, session, atClient(), now); err != nil {
		t.Fatalf("clock-in failed: %v", err)
	}
	for _, id := range []string{"t1", "t2"} {
		if err := tracker.ToggleTask(visit, session, id, true); err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
	}
	clockOut := now.Add(2 * time.Hour)
	if err := tracker.ClockOut(visit, session, atClient(), clockOut); err != nil {
		t.Fatalf("clock-out failed: %v", err)
	}
	if err := tracker.ClockOut(visit, session, atClient(), clockOut.Add(time.Minute)); err != nil {
		t.Fatalf("duplicate clock-out errored: %v", err)
	}
	if !session.ClockOutAt.Equal(clockOut) {
		t.Errorf("duplicate clock-out moved the timestamp")
	}
}

func TestClockOut_BeforeClockInIsStale(t *testing.T) {
	tracker := New(DefaultConfig())
	visit := scheduledVisit()
	session := NewSession(visit)

	err := tracker.ClockOut(visit, session, atClient(), visit.ScheduledStart)
	if !Refused(err, StaleTransition) {
		t.Fatalf("expected StaleTransition, got %v", err)
	}
}

func TestMarkNoShow(t *testing.T) {
	tracker := New(DefaultConfig())
	visit := scheduledVisit()
	session := NewSession(visit)

	// Inside the grace period: too early
	if err := tracker.MarkNoShow(visit, session, visit.ScheduledStart.Add(10*time.Minute)); err == nil {
		t.Errorf("no-show accepted inside the grace period")
	}

	// Past the grace period
	if err := tracker.MarkNoShow(visit, session, visit.ScheduledStart.Add(31*time.Minute)); err != nil {
		t.Fatalf("no-show past the grace period failed: %v", err)
	}
	if visit.Status != constants.VisitNoShow {
		t.Errorf("visit status = %s, want no_show", visit.Status)
	}
}

func TestMarkNoShow_DisjointFromClockIn(t *testing.T) {
	tracker := New(DefaultConfig())
	visit := scheduledVisit()
	session := NewSession(visit)

	if err := tracker.ClockIn(visit, session, atClient(), visit.ScheduledStart); err != nil {
		t.Fatalf("clock-in failed: %v", err)
	}

	err := tracker.MarkNoShow(visit, session, visit.ScheduledStart.Add(time.Hour))
	if !Refused(err, StaleTransition) {
		t.Fatalf("expected StaleTransition for no-show after clock-in, got %v", err)
	}
}

func TestToggleTask_FrozenAfterCompletion(t *testing.T) {
	tracker := New(DefaultConfig())
	visit := scheduledVisit()
	session := NewSession(visit)
	now := visit.ScheduledStart

	if err := tracker.ClockIn(visit, session, atClient(), now); err != nil {
		t.Fatalf("clock-in failed: %v", err)
	}
	for _, id := range []string{"t1", "t2"} {
		if err := tracker.ToggleTask(visit, session, id, true); err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
	}
	if err := tracker.ClockOut(visit, session, atClient(), now.Add(time.Hour)); err != nil {
		t.Fatalf("clock-out failed: %v", err)
	}

	err := tracker.ToggleTask(visit, session, "t3", true)
	if !Refused(err, StaleTransition) {
		t.Fatalf("expected StaleTransition for toggle after completion, got %v", err)
	}
}
