package models

import (
	"time"

	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/geo"
)

// EVVSession is the verification record for one visit: when and where the
// caregiver actually clocked in and out, with break time accounted
// separately from worked time.
type EVVSession struct {
	VisitID          string                 `json:"visit_id"`
	State            constants.SessionState `json:"state"`
	ClockInAt        *time.Time             `json:"clock_in_at,omitempty"`
	ClockInPoint     *geo.Point             `json:"clock_in_point,omitempty"`
	ClockOutAt       *time.Time             `json:"clock_out_at,omitempty"`
	ClockOutPoint    *geo.Point             `json:"clock_out_point,omitempty"`
	BreakStartedAt   *time.Time             `json:"break_started_at,omitempty"`
	AccumulatedBreak time.Duration          `json:"accumulated_break"`
	Tasks            []CareTask             `json:"tasks"` // snapshot of the visit checklist
	Override         bool                   `json:"override"` // supervisor forced a refused transition; audited
}

// sessionOrder ranks session states along the clock-in/out progression.
// Duplicate transition requests are detected by comparing the state a
// request expects against this order.
var sessionOrder = map[constants.SessionState]int{
	constants.SessionNotStarted: 0,
	constants.SessionInProgress: 1,
	constants.SessionOnBreak:    1, // breaks cycle within the in-progress phase
	constants.SessionCompleted:  2,
}

// Past reports whether the session has already moved beyond the given
// state. A transition request expecting a state the session is past is a
// duplicate delivery, not an error.
func (s *EVVSession) Past(state constants.SessionState) bool {
	return sessionOrder[s.State] > sessionOrder[state]
}

// ElapsedWorked returns worked time excluding accumulated breaks. While in
// progress the value is live against now; once completed it is fixed by
// the clock-out timestamp. An open break counts up to now.
func (s *EVVSession) ElapsedWorked(now time.Time) time.Duration {
	if s.ClockInAt == nil {
		return 0
	}
	end := now
	if s.State == constants.SessionCompleted && s.ClockOutAt != nil {
		end = *s.ClockOutAt
	}
	worked := end.Sub(*s.ClockInAt) - s.AccumulatedBreak
	if s.State == constants.SessionOnBreak && s.BreakStartedAt != nil {
		worked -= now.Sub(*s.BreakStartedAt)
	}
	if worked < 0 {
		return 0
	}
	return worked
}

// RequiredIncomplete returns required checklist tasks not yet completed in
// the session snapshot.
func (s *EVVSession) RequiredIncomplete() []CareTask {
	var missing []CareTask
	for _, task := range s.Tasks {
		if task.Required && !task.Completed {
			missing = append(missing, task)
		}
	}
	return missing
}
