package sqlite

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
		INSERT OR REPLACE INTO evv_sessions (
			visit_id, state, clock_in_at, clock_in_lat, clock_in_lng, clock_in_accuracy_mi,
			clock_out_at, clock_out_lat, clock_out_lng, clock_out_accuracy_mi,
			break_started_at, accumulated_break_sec, tasks, override
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.VisitID, string(session.State),
		nullableTime(session.ClockInAt), inLat, inLng, inAcc,
		nullableTime(session.ClockOutAt), outLat, outLng, outAcc,
		nullableTime(session.BreakStartedAt), int64(session.AccumulatedBreak.Seconds()),
		string(tasksJSON), session.Override,
	)
	return err
}

func (s *Store) GetSession(visitID string) (models.EVVSession, error) {
	row := s.db.QueryRow(`
		SELECT visit_id, state, clock_in_at, clock_in_lat, clock_in_lng, clock_in_accuracy_mi,
		       clock_out_at, clock_out_lat, clock_out_lng, clock_out_accuracy_mi,
		       break_started_at, accumulated_break_sec, tasks, override
		FROM evv_sessions WHERE visit_id = ?`, visitID)

	var session models.EVVSession
	var state, tasksJSON string
	var clockInAt, clockOutAt, breakStartedAt sql.NullString
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

	if session.ClockInAt, err = parseNullableTime(clockInAt); err != nil {
		return models.EVVSession{}, fmt.Errorf("parsing clock_in_at: %w", err)
	}
	if session.ClockOutAt, err = parseNullableTime(clockOutAt); err != nil {
		return models.EVVSession{}, fmt.Errorf("parsing clock_out_at: %w", err)
	}
	if session.BreakStartedAt, err = parseNullableTime(breakStartedAt); err != nil {
		return models.EVVSession{}, fmt.Errorf("parsing break_started_at: %w", err)
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
