package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/models"
)

const visitColumns = `id, client_id, caregiver_id, scheduled_start, scheduled_end, status,
	       tasks, recurrence, priority, client_lat, client_lng, client_preferences,
	       actual_start, actual_end, created_at`

func (s *Store) AddVisit(visit models.Visit) error {
	return s.UpdateVisit(visit)
}

func (s *Store) UpdateVisit(visit models.Visit) error {
	tasksJSON, err := json.Marshal(visit.Tasks)
	if err != nil {
		return fmt.Errorf("failed to marshal visit tasks: %w", err)
	}
	prefsJSON, err := json.Marshal(visit.ClientPreferences)
	if err != nil {
		return fmt.Errorf("failed to marshal client preferences: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO visits (`+visitColumns+`
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			client_id = EXCLUDED.client_id,
			caregiver_id = EXCLUDED.caregiver_id,
			scheduled_start = EXCLUDED.scheduled_start,
			scheduled_end = EXCLUDED.scheduled_end,
			status = EXCLUDED.status,
			tasks = EXCLUDED.tasks,
			recurrence = EXCLUDED.recurrence,
			priority = EXCLUDED.priority,
			client_lat = EXCLUDED.client_lat,
			client_lng = EXCLUDED.client_lng,
			client_preferences = EXCLUDED.client_preferences,
			actual_start = EXCLUDED.actual_start,
			actual_end = EXCLUDED.actual_end,
			created_at = EXCLUDED.created_at`,
		visit.ID, visit.ClientID, visit.CaregiverID,
		visit.ScheduledStart.UTC(), visit.ScheduledEnd.UTC(),
		string(visit.Status), string(tasksJSON), string(visit.Recurrence), string(visit.Priority),
		visit.ClientLocation.Lat, visit.ClientLocation.Lng, string(prefsJSON),
		visit.ActualStart, visit.ActualEnd, visit.CreatedAt.UTC(),
	)
	return err
}

func (s *Store) GetVisit(id string) (models.Visit, error) {
	row := s.db.QueryRow(`SELECT `+visitColumns+` FROM visits WHERE id = $1`, id)
	visit, err := scanVisit(row)
	if err == sql.ErrNoRows {
		return models.Visit{}, fmt.Errorf("visit with id %s not found", id)
	}
	return visit, err
}

func (s *Store) GetAllVisits() ([]models.Visit, error) {
	return s.queryVisits(`SELECT ` + visitColumns + ` FROM visits ORDER BY scheduled_start`)
}

func (s *Store) GetVisits(start, end time.Time) ([]models.Visit, error) {
	switch {
	case !start.IsZero() && !end.IsZero():
		return s.queryVisits(`SELECT `+visitColumns+` FROM visits
			WHERE scheduled_start < $1 AND scheduled_end > $2 ORDER BY scheduled_start`,
			end.UTC(), start.UTC())
	case !end.IsZero():
		return s.queryVisits(`SELECT `+visitColumns+` FROM visits
			WHERE scheduled_start < $1 ORDER BY scheduled_start`, end.UTC())
	case !start.IsZero():
		return s.queryVisits(`SELECT `+visitColumns+` FROM visits
			WHERE scheduled_end > $1 ORDER BY scheduled_start`, start.UTC())
	default:
		return s.GetAllVisits()
	}
}

func (s *Store) GetVisitsForCaregiver(caregiverID string) ([]models.Visit, error) {
	return s.queryVisits(`SELECT `+visitColumns+` FROM visits WHERE caregiver_id = $1 ORDER BY scheduled_start`, caregiverID)
}

func (s *Store) CancelVisit(id string) error {
	visit, err := s.GetVisit(id)
	if err != nil {
		return err
	}
	if err := visit.Transition(constants.VisitCancelled); err != nil {
		return err
	}
	return s.UpdateVisit(visit)
}

func (s *Store) queryVisits(query string, args ...any) ([]models.Visit, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []models.Visit
	for rows.Next() {
		visit, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, visit)
	}
	return visits, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisit(row rowScanner) (models.Visit, error) {
	var v models.Visit
	var status, tasksJSON, recurrence, priority, prefsJSON string
	var actualStart, actualEnd sql.NullTime

	err := row.Scan(
		&v.ID, &v.ClientID, &v.CaregiverID, &v.ScheduledStart, &v.ScheduledEnd, &status,
		&tasksJSON, &recurrence, &priority, &v.ClientLocation.Lat, &v.ClientLocation.Lng, &prefsJSON,
		&actualStart, &actualEnd, &v.CreatedAt,
	)
	if err != nil {
		return models.Visit{}, err
	}

	v.Status = constants.VisitStatus(status)
	v.Recurrence = constants.RecurrenceType(recurrence)
	v.Priority = constants.Priority(priority)
	if actualStart.Valid {
		t := actualStart.Time
		v.ActualStart = &t
	}
	if actualEnd.Valid {
		t := actualEnd.Time
		v.ActualEnd = &t
	}

	if err := json.Unmarshal([]byte(tasksJSON), &v.Tasks); err != nil {
		return models.Visit{}, fmt.Errorf("unmarshaling visit tasks: %w", err)
	}
	if err := json.Unmarshal([]byte(prefsJSON), &v.ClientPreferences); err != nil {
		return models.Visit{}, fmt.Errorf("unmarshaling client preferences: %w", err)
	}

	return v, nil
}
