package postgres

import (
	"time"

	"github.com/evvtrack/evvtrack/internal/models"
)

func (s *Store) SaveAvailability(slot models.AvailabilitySlot) error {
	_, err := s.db.Exec(`
		INSERT INTO availability (
			caregiver_id, weekday, start_time, end_time, is_available, max_hours, committed_hours
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (caregiver_id, weekday) DO UPDATE SET
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			is_available = EXCLUDED.is_available,
			max_hours = EXCLUDED.max_hours,
			committed_hours = EXCLUDED.committed_hours`,
		slot.CaregiverID, int(slot.Weekday), slot.Start, slot.End,
		slot.IsAvailable, slot.MaxHours, slot.CommittedHours,
	)
	return err
}

func (s *Store) GetAvailability(caregiverID string) ([]models.AvailabilitySlot, error) {
	rows, err := s.db.Query(`
		SELECT caregiver_id, weekday, start_time, end_time, is_available, max_hours, committed_hours
		FROM availability WHERE caregiver_id = $1 ORDER BY weekday`, caregiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []models.AvailabilitySlot
	for rows.Next() {
		var slot models.AvailabilitySlot
		var weekday int
		if err := rows.Scan(&slot.CaregiverID, &weekday, &slot.Start, &slot.End,
			&slot.IsAvailable, &slot.MaxHours, &slot.CommittedHours); err != nil {
			return nil, err
		}
		slot.Weekday = time.Weekday(weekday)
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (s *Store) GetAllAvailability() (map[string][]models.AvailabilitySlot, error) {
	rows, err := s.db.Query(`
		SELECT caregiver_id, weekday, start_time, end_time, is_available, max_hours, committed_hours
		FROM availability ORDER BY caregiver_id, weekday`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	all := make(map[string][]models.AvailabilitySlot)
	for rows.Next() {
		var slot models.AvailabilitySlot
		var weekday int
		if err := rows.Scan(&slot.CaregiverID, &weekday, &slot.Start, &slot.End,
			&slot.IsAvailable, &slot.MaxHours, &slot.CommittedHours); err != nil {
			return nil, err
		}
		slot.Weekday = time.Weekday(weekday)
		all[slot.CaregiverID] = append(all[slot.CaregiverID], slot)
	}
	return all, rows.Err()
}
