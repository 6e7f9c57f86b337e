package sqlite

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
		INSERT OR REPLACE INTO visits (`+visitColumns+`
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		visit.ID, visit.ClientID, visit.CaregiverID,
		visit.ScheduledStart.UTC().Format(time.RFC3339), visit.ScheduledEnd.UTC().Format(time.RFC3339),
		string(visit.Status), string(tasksJSON), string(visit.Recurrence), string(visit.Priority),
		visit.ClientLocation.Lat, visit.ClientLocation.Lng, string(prefsJSON),
		nullableTime(visit.ActualStart), nullableTime(visit.ActualEnd),
		visit.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetVisit(id string) (models.Visit, error) {
	row := s.db.QueryRow(`SELECT `+visitColumns+` FROM visits WHERE id = ?`, id)
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
	query := `SELECT ` + visitColumns + ` FROM visits`
	var args []any
	var where []string
	if !end.IsZero() {
		where = append(where, "scheduled_start < ?")
		args = append(args, end.UTC().Format(time.RFC3339))
	}
	if !start.IsZero() {
		where = append(where, "scheduled_end > ?")
		args = append(args, start.UTC().Format(time.RFC3339))
	}
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY scheduled_start"
	return s.queryVisits(query, args...)
}

func (s *Store) GetVisitsForCaregiver(caregiverID string) ([]models.Visit, error) {
	return s.queryVisits(`SELECT `+visitColumns+` FROM visits WHERE caregiver_id = ? ORDER BY scheduled_start`, caregiverID)
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
	var scheduledStart, scheduledEnd, createdAt string
	var actualStart, actualEnd sql.NullString

	err := row.Scan(
		&v.ID, &v.ClientID, &v.CaregiverID, &scheduledStart, &scheduledEnd, &status,
		&tasksJSON, &recurrence, &priority, &v.ClientLocation.Lat, &v.ClientLocation.Lng, &prefsJSON,
		&actualStart, &actualEnd, &createdAt,
	)
	if err != nil {
		return models.Visit{}, err
	}

	v.Status = constants.VisitStatus(status)
	v.Recurrence = constants.RecurrenceType(recurrence)
	v.Priority = constants.Priority(priority)

	if v.ScheduledStart, err = time.Parse(time.RFC3339, scheduledStart); err != nil {
		return models.Visit{}, fmt.Errorf("parsing scheduled_start: %w", err)
	}
	if v.ScheduledEnd, err = time.Parse(time.RFC3339, scheduledEnd); err != nil {
		return models.Visit{}, fmt.Errorf("parsing scheduled_end: %w", err)
	}
	if v.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return models.Visit{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if v.ActualStart, err = parseNullableTime(actualStart); err != nil {
		return models.Visit{}, fmt.Errorf("parsing actual_start: %w", err)
	}
	if v.ActualEnd, err = parseNullableTime(actualEnd); err != nil {
		return models.Visit{}, fmt.Errorf("parsing actual_end: %w", err)
	}

	if err := json.Unmarshal([]byte(tasksJSON), &v.Tasks); err != nil {
		return models.Visit{}, fmt.Errorf("unmarshaling visit tasks: %w", err)
	}
	if err := json.Unmarshal([]byte(prefsJSON), &v.ClientPreferences); err != nil {
		return models.Visit{}, fmt.Errorf("unmarshaling client preferences: %w", err)
	}

	return v, nil
}

func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
