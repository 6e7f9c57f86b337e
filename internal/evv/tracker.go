package evv

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/geo"
	"github.com/evvtrack/evvtrack/internal/models"
)

// Condition is the typed refusal kind a rejected transition carries. Every
// condition is recoverable; a refused transition leaves the session in its
// prior valid state.
type Condition string

const (
	// LocationUnavailable means no coordinates could be obtained at all.
	// The caller should retry after enabling location services.
	LocationUnavailable Condition = "location_unavailable"

	// LocationMismatch means coordinates were obtained but fall outside
	// the geofence. The caller should move closer or seek an override.
	LocationMismatch Condition = "location_mismatch"

	// IncompleteTasks means clock-out was attempted with required
	// checklist tasks unfinished.
	IncompleteTasks Condition = "incomplete_tasks"

	// StaleTransition means the request's expected-from-state is
	// incompatible with the session's actual state.
	StaleTransition Condition = "stale_transition"
)

// TransitionError is a refused session transition. The Message is written
// to be shown to the caregiver as-is.
type TransitionError struct {
	Condition    Condition
	Message      string
	MissingTasks []models.CareTask
	DistanceMi   float64
}

func (e *TransitionError) Error() string {
	return e.Message
}

// Refused reports whether err is a refused transition with the given
// condition.
func Refused(err error, cond Condition) bool {
	var te *TransitionError
	if errors.As(err, &te) {
		return te.Condition == cond
	}
	return false
}

// Config holds the verification tunables.
type Config struct {
	GeofenceRadiusMi float64
	NoShowGrace      time.Duration
}

// DefaultConfig returns the stock verification thresholds.
func DefaultConfig() Config {
	return Config{
		GeofenceRadiusMi: constants.DefaultGeofenceRadiusMi,
		NoShowGrace:      constants.DefaultNoShowGrace,
	}
}

// Tracker drives the clock-in/break/clock-out state machine for one visit
// at a time. Methods mutate the passed visit and session only on success;
// persistence is the caller's concern. Each transition carries an implicit
// expected-from-state: a request that arrives after its transition already
// happened is a no-op success, so duplicate deliveries are harmless.
type Tracker struct {
	cfg Config
}

// New creates a Tracker.
func New(cfg Config) *Tracker {
	return &Tracker{cfg: cfg}
}

// NewSession creates the not-started session for a visit, snapshotting its
// task checklist.
func NewSession(visit *models.Visit) *models.EVVSession {
	tasks := make([]models.CareTask, len(visit.Tasks))
	copy(tasks, visit.Tasks)
	return &models.EVVSession{
		VisitID: visit.ID,
		State:   constants.SessionNotStarted,
		Tasks:   tasks,
	}
}

// ClockIn transitions not_started -> in_progress after verifying the
// reported location against the client's recorded location. A nil point
// means geolocation could not be obtained.
func (t *Tracker) ClockIn(visit *models.Visit, session *models.EVVSession, point *geo.Point, now time.Time) error {
	return t.clockIn(visit, session, point, now, false)
}

// ForceClockIn is the supervisor override path: it skips the geofence
// check and marks the session as overridden for audit.
func (t *Tracker) ForceClockIn(visit *models.Visit, session *models.EVVSession, point *geo.Point, now time.Time) error {
	return t.clockIn(visit, session, point, now, true)
}

func (t *Tracker) clockIn(visit *models.Visit, session *models.EVVSession, point *geo.Point, now time.Time, force bool) error {
	if session.State == constants.SessionCompleted {
		return &TransitionError{
			Condition: StaleTransition,
			Message:   "This visit has already been completed; clock-in is no longer possible.",
		}
	}
	if session.Past(constants.SessionNotStarted) {
		// Duplicate delivery of a clock-in that already happened
		return nil
	}

	if point == nil {
		return &TransitionError{
			Condition: LocationUnavailable,
			Message:   "Your location could not be determined. Enable location services and try again.",
		}
	}

	if !force && !visit.ClientLocation.IsZero() {
		distance := geo.DistanceMi(point.Location, visit.ClientLocation)
		if distance > t.cfg.GeofenceRadiusMi {
			return &TransitionError{
				Condition:  LocationMismatch,
				DistanceMi: distance,
				Message: fmt.Sprintf("You are %.1f miles from the client's address; please move closer to clock in.",
					distance),
			}
		}
	}

	if err := visit.Transition(constants.VisitInProgress); err != nil {
		return &TransitionError{
			Condition: StaleTransition,
			Message:   fmt.Sprintf("Visit can no longer be started: %v", err),
		}
	}

	session.State = constants.SessionInProgress
	session.ClockInAt = &now
	session.ClockInPoint = point
	session.Override = force
	visit.ActualStart = &now
	return nil
}

// StartBreak transitions in_progress -> on_break. No location check.
func (t *Tracker) StartBreak(session *models.EVVSession, now time.Time) error {
	switch session.State {
	case constants.SessionOnBreak:
		// Duplicate delivery
		return nil
	case constants.SessionInProgress:
		session.State = constants.SessionOnBreak
		session.BreakStartedAt = &now
		return nil
	}
	return &TransitionError{
		Condition: StaleTransition,
		Message:   fmt.Sprintf("Cannot start a break while the session is %s.", session.State),
	}
}

// EndBreak transitions on_break -> in_progress, folding the finished break
// into the accumulated total.
func (t *Tracker) EndBreak(session *models.EVVSession, now time.Time) error {
	switch session.State {
	case constants.SessionInProgress:
		// Duplicate delivery
		return nil
	case constants.SessionOnBreak:
		if session.BreakStartedAt != nil && now.After(*session.BreakStartedAt) {
			session.AccumulatedBreak += now.Sub(*session.BreakStartedAt)
		}
		session.BreakStartedAt = nil
		session.State = constants.SessionInProgress
		return nil
	}
	return &TransitionError{
		Condition: StaleTransition,
		Message:   fmt.Sprintf("No break is in progress; the session is %s.", session.State),
	}
}

// ClockOut transitions in_progress or on_break -> completed. All required
// checklist tasks must be finished, and the reported location must fall
// inside the geofence. An open break is folded into the accumulated total
// before the session freezes.
func (t *Tracker) ClockOut(visit *models.Visit, session *models.EVVSession, point *geo.Point, now time.Time) error {
	return t.clockOut(visit, session, point, now, false)
}

// ForceClockOut is the supervisor override path for the location check
// only; required tasks gate the transition regardless.
func (t *Tracker) ForceClockOut(visit *models.Visit, session *models.EVVSession, point *geo.Point, now time.Time) error {
	return t.clockOut(visit, session, point, now, true)
}

func (t *Tracker) clockOut(visit *models.Visit, session *models.EVVSession, point *geo.Point, now time.Time, force bool) error {
	if session.Past(constants.SessionInProgress) {
		// Duplicate delivery of a clock-out that already happened
		return nil
	}
	if session.State == constants.SessionNotStarted {
		return &TransitionError{
			Condition: StaleTransition,
			Message:   "Clock-in has not happened yet; there is nothing to clock out of.",
		}
	}

	if missing := session.RequiredIncomplete(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, task := range missing {
			names[i] = task.Name
		}
		return &TransitionError{
			Condition:    IncompleteTasks,
			MissingTasks: missing,
			Message: fmt.Sprintf("Finish the remaining required tasks before clocking out: %s.",
				strings.Join(names, ", ")),
		}
	}

	if point == nil {
		return &TransitionError{
			Condition: LocationUnavailable,
			Message:   "Your location could not be determined. Enable location services and try again.",
		}
	}

	if !force && !visit.ClientLocation.IsZero() {
		distance := geo.DistanceMi(point.Location, visit.ClientLocation)
		if distance > t.cfg.GeofenceRadiusMi {
			return &TransitionError{
				Condition:  LocationMismatch,
				DistanceMi: distance,
				Message: fmt.Sprintf("You are %.1f miles from the client's address; please move closer to clock out.",
					distance),
			}
		}
	}

	if err := visit.Transition(constants.VisitCompleted); err != nil {
		return &TransitionError{
			Condition: StaleTransition,
			Message:   fmt.Sprintf("Visit can no longer be completed: %v", err),
		}
	}

	// Fold an open break before freezing elapsed time
	if session.State == constants.SessionOnBreak && session.BreakStartedAt != nil && now.After(*session.BreakStartedAt) {
		session.AccumulatedBreak += now.Sub(*session.BreakStartedAt)
		session.BreakStartedAt = nil
	}

	session.State = constants.SessionCompleted
	session.ClockOutAt = &now
	session.ClockOutPoint = point
	if force {
		session.Override = true
	}
	visit.ActualEnd = &now

	// Mirror the final checklist back onto the visit record
	visit.Tasks = make([]models.CareTask, len(session.Tasks))
	copy(visit.Tasks, session.Tasks)
	return nil
}

// ToggleTask updates a checklist item on both the session snapshot and the
// visit record.
func (t *Tracker) ToggleTask(visit *models.Visit, session *models.EVVSession, taskID string, completed bool) error {
	if session.State == constants.SessionCompleted {
		return &TransitionError{
			Condition: StaleTransition,
			Message:   "The checklist is frozen once the visit is completed.",
		}
	}
	found := false
	for i := range session.Tasks {
		if session.Tasks[i].ID == taskID {
			session.Tasks[i].Completed = completed
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("visit %s has no task %s", visit.ID, taskID)
	}
	return visit.SetTaskCompleted(taskID, completed)
}

// MarkNoShow transitions the owning visit to no_show once the grace period
// past the scheduled start has elapsed without a clock-in. This is a
// visit-level transition: a session that ever reached in_progress can
// never become a no-show.
func (t *Tracker) MarkNoShow(visit *models.Visit, session *models.EVVSession, now time.Time) error {
	if session != nil && session.State != constants.SessionNotStarted {
		return &TransitionError{
			Condition: StaleTransition,
			Message:   "The caregiver has already clocked in; this visit cannot be a no-show.",
		}
	}
	deadline := visit.ScheduledStart.Add(t.cfg.NoShowGrace)
	if now.Before(deadline) {
		return fmt.Errorf("no-show grace period runs until %s", deadline.Format(constants.TimeFormat))
	}
	if err := visit.Transition(constants.VisitNoShow); err != nil {
		return &TransitionError{
			Condition: StaleTransition,
			Message:   fmt.Sprintf("Visit cannot be marked a no-show: %v", err),
		}
	}
	return nil
}
