package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/geo"
	"github.com/evvtrack/evvtrack/internal/models"
)

func (s *Store) SaveSession(session models.EVVSession) error {
	tasksJSON, err := json.Marshal(session.Tasks)
	if err != nil {
		return fmt.Errorf("failed to marshal session tasks: %w", err)
	}

	inLat, inLng, inAcc := nullablePoint(session.ClockInPoint)
	outLat, outLng, outAcc := nullablePoint(session.ClockOutPoint)

	_, err = s.db.Exec(`
		INSERT INTO evv_sessions (
			visit_id, state, clock_in_at, clock_in_lat, clock_in_lng, clock_in_accuracy_mi,
			clock_out_at, clock_out_lat, clock_out_lng, clock_out_accuracy_mi,
			break_started_at, accumulated_break_sec, tasks, override
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (visit_id) DO UPDATE SET
			state = EXCLUDED.state,
			clock_in_at = EXCLUDED.clock_in_at,
			clock_in_lat = EXCLUDED.clock_in_lat,
			clock_in_lng = EXCLUDED.clock_in_lng,
			clock_in_accuracy_mi = EXCLUDED.clock_in_accuracy_mi,
			clock_out_at = EXCLUDED.clock_out_at,
			clock_out_lat = EXCLUDED.clock_out_lat,
			clock_out_lng = EXCLUDED.clock_out_lng,
			clock_out_accuracy_mi = EXCLUDED.clock_out_accuracy_mi,
			break_started_at = EXCLUDED.break_started_at,
			accumulated_break_sec = EXCLUDED.accumulated_break_sec,
			tasks = EXCLUDED.tasks,
			override = EXCLUDED.override`,
		session.VisitID, string(session.State),
		session.ClockInAt, inLat, inLng, inAcc,
		session.ClockOutAt, outLat, outLng, outAcc,
		session.BreakStartedAt, int64(session.AccumulatedBreak.Seconds()),
		string(tasksJSON), session.Override,
	)
	return err
}

func (s *Store) GetSession(visitID string) (models.EVVSession, error) {
	row := s.db.QueryRow(`
		SELECT visit_id, state, clock_in_at, clock_in_lat, clock_in_lng, clock_in_accuracy_mi,
		       clock_out_at, clock_out_lat, clock_out_lng, clock_out_accuracy_mi,
		       break_started_at, accumulated_break_sec, tasks, override
		FROM evv_sessions WHERE visit_id = $1`, visitID)

	var session models.EVVSession
	var state, tasksJSON string
	var clockInAt, clockOutAt, breakStartedAt sql.NullTime
	var inLat, inLng, inAcc, outLat, outLng, outAcc sql.NullFloat64
	var breakSec int64

	err := row.Scan(
		&session.VisitID, &state, &clockInAt, &inLat, &inLng, &inAcc,
		&clockOutAt, &outLat, &outLng, &outAcc,
		&breakStartedAt, &breakSec, &tasksJSON, &session.Override,
	)
	if err == sql.ErrNoRows {
		return models.EVVSession{}, fmt.Errorf("no session for visit %s", visitID)
	}
	if err != nil {
		return models.EVVSession{}, err
	}

	session.State = constants.SessionState(state)
	session.AccumulatedBreak = time.Duration(breakSec) * time.Second
	session.ClockInPoint = parseNullablePoint(inLat, inLng, inAcc)
	session.ClockOutPoint = parseNullablePoint(outLat, outLng, outAcc)
	if clockInAt.Valid {
		t := clockInAt.Time
		session.ClockInAt = &t
	}
	if clockOutAt.Valid {
		t := clockOutAt.Time
		session.ClockOutAt = &t
	}
	if breakStartedAt.Valid {
		t := breakStartedAt.Time
		session.BreakStartedAt = &t
	}

	if err := json.Unmarshal([]byte(tasksJSON), &session.Tasks); err != nil {
		return models.EVVSession{}, fmt.Errorf("unmarshaling session tasks: %w", err)
	}

	return session, nil
}

func nullablePoint(p *geo.Point) (lat, lng, acc sql.NullFloat64) {
	if p == nil {
		return
	}
	lat = sql.NullFloat64{Float64: p.Location.Lat, Valid: true}
	lng = sql.NullFloat64{Float64: p.Location.Lng, Valid: true}
	acc = sql.NullFloat64{Float64: p.AccuracyMi, Valid: true}
	return
}

func parseNullablePoint(lat, lng, acc sql.NullFloat64) *geo.Point {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &geo.Point{
		Location:   geo.Location{Lat: lat.Float64, Lng: lng.Float64},
		AccuracyMi: acc.Float64,
	}
}
