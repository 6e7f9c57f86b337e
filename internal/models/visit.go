package models

import (
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/geo"
)

// CareTask is one item on a visit's care checklist.
type CareTask struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Required  bool   `json:"required"`
	Completed bool   `json:"completed"`
}

// Visit is a scheduled unit of care for one client, optionally assigned to
// a caregiver. Recurring visits are expanded into independent Visit rows at
// creation; Recurrence is descriptive metadata only.
type Visit struct {
	ID                string                   `json:"id"`
	ClientID          string                   `json:"client_id"`
	CaregiverID       string                   `json:"caregiver_id,omitempty"` // empty = unassigned
	ScheduledStart    time.Time                `json:"scheduled_start"`
	ScheduledEnd      time.Time                `json:"scheduled_end"`
	Status            constants.VisitStatus    `json:"status"`
	Tasks             []CareTask               `json:"tasks"`
	Recurrence        constants.RecurrenceType `json:"recurrence"`
	Priority          constants.Priority       `json:"priority"`
	ClientLocation    geo.Location             `json:"client_location"`
	ClientPreferences []string                 `json:"client_preferences,omitempty"`
	ActualStart       *time.Time               `json:"actual_start,omitempty"` // set only by the EVV tracker
	ActualEnd         *time.Time               `json:"actual_end,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
}

// visitTransitions is the closed set of legal status transitions. Completed,
// cancelled, and no-show are terminal; no-show is only reachable from
// scheduled, so a visit that clocked in can never become a no-show.
var visitTransitions = map[constants.VisitStatus][]constants.VisitStatus{
	constants.VisitScheduled:  {constants.VisitInProgress, constants.VisitCancelled, constants.VisitNoShow},
	constants.VisitInProgress: {constants.VisitCompleted},
	constants.VisitCompleted:  {},
	constants.VisitCancelled:  {},
	constants.VisitNoShow:     {},
}

func (v *Visit) Validate() error {
	if v.ClientID == "" {
		return fmt.Errorf("visit must reference a client")
	}
	if v.ScheduledStart.IsZero() || v.ScheduledEnd.IsZero() {
		return fmt.Errorf("visit must have scheduled start and end")
	}
	if !v.ScheduledEnd.After(v.ScheduledStart) {
		return fmt.Errorf("scheduled end must be after scheduled start")
	}
	if v.ActualStart != nil && v.ActualEnd != nil && v.ActualEnd.Before(*v.ActualStart) {
		return fmt.Errorf("actual end must not precede actual start")
	}
	switch v.Status {
	case constants.VisitScheduled, constants.VisitInProgress, constants.VisitCompleted,
		constants.VisitCancelled, constants.VisitNoShow:
	default:
		return fmt.Errorf("invalid visit status: %s", v.Status)
	}
	switch v.Priority {
	case constants.PriorityLow, constants.PriorityMedium, constants.PriorityHigh:
	default:
		return fmt.Errorf("invalid visit priority: %s", v.Priority)
	}
	seen := make(map[string]bool, len(v.Tasks))
	for _, task := range v.Tasks {
		if task.ID == "" {
			return fmt.Errorf("care task %q has no id", task.Name)
		}
		if seen[task.ID] {
			return fmt.Errorf("duplicate care task id: %s", task.ID)
		}
		seen[task.ID] = true
	}
	return nil
}

// Transition moves the visit to a new status, rejecting moves not in the
// transition table.
func (v *Visit) Transition(to constants.VisitStatus) error {
	for _, allowed := range visitTransitions[v.Status] {
		if allowed == to {
			v.Status = to
			return nil
		}
	}
	return fmt.Errorf("illegal visit transition %s -> %s", v.Status, to)
}

// Assigned reports whether the visit has a caregiver.
func (v *Visit) Assigned() bool {
	return v.CaregiverID != ""
}

// ScheduledDuration returns the planned length of the visit.
func (v *Visit) ScheduledDuration() time.Duration {
	return v.ScheduledEnd.Sub(v.ScheduledStart)
}

// RequiredIncomplete returns the required tasks not yet completed.
func (v *Visit) RequiredIncomplete() []CareTask {
	var missing []CareTask
	for _, task := range v.Tasks {
		if task.Required && !task.Completed {
			missing = append(missing, task)
		}
	}
	return missing
}

// SetTaskCompleted flips a task's completion flag. Returns an error if the
// task id is unknown.
func (v *Visit) SetTaskCompleted(taskID string, completed bool) error {
	for i := range v.Tasks {
		if v.Tasks[i].ID == taskID {
			v.Tasks[i].Completed = completed
			return nil
		}
	}
	return fmt.Errorf("visit %s has no task %s", v.ID, taskID)
}

// Active reports whether the visit still occupies its caregiver's schedule.
// Cancelled and no-show visits release their time.
func (v *Visit) Active() bool {
	return v.Status == constants.VisitScheduled || v.Status == constants.VisitInProgress ||
		v.Status == constants.VisitCompleted
}
