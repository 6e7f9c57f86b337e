// Package resolution applies coordinator actions to the schedule: assigning
// and reassigning caregivers, rescheduling, and cancelling. Every mutation
// is persisted, re-checked by the conflict detector, and surfaced to the
// desktop agent when notifications are enabled.
package resolution

import (
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/conflict"
	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/directory"
	"github.com/evvtrack/evvtrack/internal/logger"
	"github.com/evvtrack/evvtrack/internal/matching"
	"github.com/evvtrack/evvtrack/internal/models"
	"github.com/evvtrack/evvtrack/internal/storage"
	"github.com/evvtrack/evvtrack/internal/timeutil"
)

// Notifier is the fire-and-forget notification sink. Delivery failures are
// logged, never propagated: a missing desktop agent must not block
// scheduling work.
type Notifier interface {
	Notify(text string) error
}

type Service struct {
	store    storage.Provider
	dir      directory.Service
	detector *conflict.Detector
	engine   *matching.Engine
	notifier Notifier
	notify   bool
}

func New(store storage.Provider, dir directory.Service, detector *conflict.Detector, engine *matching.Engine, notifier Notifier, notifyOnResolution bool) *Service {
	return &Service{
		store:    store,
		dir:      dir,
		detector: detector,
		engine:   engine,
		notifier: notifier,
		notify:   notifyOnResolution,
	}
}

// Snapshot loads the full scheduling state for a detection pass.
func (s *Service) Snapshot(now time.Time) (conflict.Snapshot, error) {
	visits, err := s.store.GetAllVisits()
	if err != nil {
		return conflict.Snapshot{}, fmt.Errorf("loading visits: %w", err)
	}
	availability, err := s.store.GetAllAvailability()
	if err != nil {
		return conflict.Snapshot{}, fmt.Errorf("loading availability: %w", err)
	}
	caregivers, err := s.dir.Caregivers()
	if err != nil {
		return conflict.Snapshot{}, fmt.Errorf("loading caregivers: %w", err)
	}

	byID := make(map[string]models.Caregiver, len(caregivers))
	for _, cg := range caregivers {
		byID[cg.ID] = cg
	}

	return conflict.Snapshot{
		Visits:       visits,
		Availability: availability,
		Caregivers:   byID,
		Now:          now,
	}, nil
}

// Detect runs a full conflict pass over the current stored schedule.
// Alerts the coordinator has overridden are suppressed from the result;
// they are still derived, so the override retires on its own once the
// schedule changes and the fingerprint stops matching.
func (s *Service) Detect(now time.Time) ([]models.ConflictAlert, error) {
	snap, err := s.Snapshot(now)
	if err != nil {
		return nil, err
	}
	alerts := s.detector.Detect(snap)

	overrides, err := s.store.GetAlertOverrides()
	if err != nil {
		return nil, fmt.Errorf("loading alert overrides: %w", err)
	}
	if len(overrides) == 0 {
		return alerts, nil
	}
	kept := alerts[:0]
	for _, a := range alerts {
		if _, overridden := overrides[a.ID]; !overridden {
			kept = append(kept, a)
		}
	}
	return kept, nil
}

// FindAlert looks an alert up by id on a fresh detection pass. Alerts are
// derived, never stored, so an id is only addressable while the finding
// still holds.
func (s *Service) FindAlert(alertID string, now time.Time) (models.ConflictAlert, error) {
	alerts, err := s.Detect(now)
	if err != nil {
		return models.ConflictAlert{}, err
	}
	for _, a := range alerts {
		if a.ID == alertID {
			return a, nil
		}
	}
	return models.ConflictAlert{}, fmt.Errorf("no current alert with id %s (run 'evvtrack conflicts' for the live set)", alertID)
}

// Override records the coordinator's decision to accept a detected
// conflict. The note is kept for audit alongside the fingerprint.
func (s *Service) Override(alertID, note string, now time.Time) ([]models.ConflictAlert, error) {
	alert, err := s.FindAlert(alertID, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveAlertOverride(models.AlertOverride{
		Fingerprint: alert.ID,
		Note:        note,
		CreatedAt:   now,
	}); err != nil {
		return nil, fmt.Errorf("saving override: %w", err)
	}

	logger.Info("Overrode alert", "alert", alertID, "kind", alert.Kind, "note", note)
	s.send(fmt.Sprintf("Conflict %s overridden", alertID))

	return s.Detect(now)
}

// Candidates ranks every caregiver in the directory for the given visit.
func (s *Service) Candidates(visitID string) (models.Visit, []matching.RankedCandidate, error) {
	visit, err := s.store.GetVisit(visitID)
	if err != nil {
		return models.Visit{}, nil, err
	}

	caregivers, err := s.dir.Caregivers()
	if err != nil {
		return models.Visit{}, nil, fmt.Errorf("loading caregivers: %w", err)
	}

	var candidates []matching.Candidate
	for _, cg := range caregivers {
		slots, err := s.store.GetAvailability(cg.ID)
		if err != nil {
			return models.Visit{}, nil, fmt.Errorf("loading availability for %s: %w", cg.ID, err)
		}
		committed, err := s.committedHours(cg.ID, visit)
		if err != nil {
			return models.Visit{}, nil, err
		}
		candidates = append(candidates, matching.Candidate{
			Caregiver:      cg,
			Slots:          slots,
			CommittedHours: committed,
		})
	}

	return visit, s.engine.Rank(visit, candidates), nil
}

// committedHours sums the caregiver's scheduled hours in the visit's
// calendar week, excluding the visit being matched so a reassignment does
// not double-count it.
func (s *Service) committedHours(caregiverID string, visit models.Visit) (float64, error) {
	existing, err := s.store.GetVisitsForCaregiver(caregiverID)
	if err != nil {
		return 0, fmt.Errorf("loading visits for %s: %w", caregiverID, err)
	}

	var committed float64
	for _, v := range existing {
		if v.ID == visit.ID || !v.Active() {
			continue
		}
		if timeutil.SameWeek(v.ScheduledStart, visit.ScheduledStart) {
			committed += timeutil.Hours(v.ScheduledStart, v.ScheduledEnd)
		}
	}
	return committed, nil
}

// Assign sets the visit's caregiver. The caregiver must exist; the visit
// must still be scheduled. Reassignment is the same operation with a
// different caregiver.
func (s *Service) Assign(visitID, caregiverID string, now time.Time) ([]models.ConflictAlert, error) {
	visit, err := s.store.GetVisit(visitID)
	if err != nil {
		return nil, err
	}
	if visit.Status != constants.VisitScheduled {
		return nil, fmt.Errorf("only scheduled visits can be assigned (visit %s is %s)", visitID, visit.Status)
	}

	caregiver, err := s.dir.Caregiver(caregiverID)
	if err != nil {
		return nil, err
	}

	previous := visit.CaregiverID
	visit.CaregiverID = caregiver.ID
	if err := s.store.UpdateVisit(visit); err != nil {
		return nil, fmt.Errorf("saving visit: %w", err)
	}

	if previous == "" {
		logger.Info("Assigned visit", "visit", visitID, "caregiver", caregiverID)
		s.send(fmt.Sprintf("Visit %s assigned to %s", visitID, caregiver.Name))
	} else {
		logger.Info("Reassigned visit", "visit", visitID, "from", previous, "to", caregiverID)
		s.send(fmt.Sprintf("Visit %s reassigned to %s", visitID, caregiver.Name))
	}

	return s.Detect(now)
}

// Reschedule moves a scheduled visit to a new window.
func (s *Service) Reschedule(visitID string, start, end time.Time, now time.Time) ([]models.ConflictAlert, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("scheduled end must be after scheduled start")
	}

	visit, err := s.store.GetVisit(visitID)
	if err != nil {
		return nil, err
	}
	if visit.Status != constants.VisitScheduled {
		return nil, fmt.Errorf("only scheduled visits can be rescheduled (visit %s is %s)", visitID, visit.Status)
	}

	visit.ScheduledStart = start
	visit.ScheduledEnd = end
	if err := s.store.UpdateVisit(visit); err != nil {
		return nil, fmt.Errorf("saving visit: %w", err)
	}

	logger.Info("Rescheduled visit", "visit", visitID, "start", start, "end", end)
	s.send(fmt.Sprintf("Visit %s rescheduled to %s", visitID, start.Format("Mon Jan 2 15:04")))

	return s.Detect(now)
}

// Cancel transitions a visit to cancelled. Cancelled visits drop out of
// every detection rule on the next pass.
func (s *Service) Cancel(visitID string, now time.Time) ([]models.ConflictAlert, error) {
	if err := s.store.CancelVisit(visitID); err != nil {
		return nil, err
	}
	logger.Info("Cancelled visit", "visit", visitID)
	s.send(fmt.Sprintf("Visit %s cancelled", visitID))
	return s.Detect(now)
}

func (s *Service) send(text string) {
	if !s.notify || s.notifier == nil {
		return
	}
	go func() {
		if err := s.notifier.Notify(text); err != nil {
			logger.Debug("Notification delivery failed", "error", err)
		}
	}()
}
