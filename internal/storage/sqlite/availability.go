package sqlite

import (
	"time"

	"github.com/evvtrack/evvtrack/internal/models"
)

func (s *Store) SaveAvailability(slot models.AvailabilitySlot) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO availability (
			caregiver_id, weekday, start_time, end_time, is_available, max_hours, committed_hours
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		slot.CaregiverID, int(slot.Weekday), slot.Start, slot.End,
		slot.IsAvailable, slot.MaxHours, slot.CommittedHours,
	)
	return err
}

func (s *Store) GetAvailability(caregiverID string) ([]models.AvailabilitySlot, error) {
	rows, err := s.db.Query(`
		SELECT caregiver_id, weekday, start_time, end_time, is_available, max_hours, committed_hours
		FROM availability WHERE caregiver_id = ? ORDER BY weekday`, caregiverID)
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
