package postgres

import (
	"github.com/evvtrack/evvtrack/internal/models"
)

func (s *Store) SaveAlertOverride(o models.AlertOverride) error {
	_, err := s.db.Exec(`
		INSERT INTO alert_overrides (fingerprint, note, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (fingerprint) DO UPDATE SET
			note = EXCLUDED.note,
			created_at = EXCLUDED.created_at`,
		o.Fingerprint, o.Note, o.CreatedAt,
	)
	return err
}

func (s *Store) GetAlertOverrides() (map[string]models.AlertOverride, error) {
	rows, err := s.db.Query(`SELECT fingerprint, note, created_at FROM alert_overrides`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := make(map[string]models.AlertOverride)
	for rows.Next() {
		var o models.AlertOverride
		if err := rows.Scan(&o.Fingerprint, &o.Note, &o.CreatedAt); err != nil {
			return nil, err
		}
		overrides[o.Fingerprint] = o
	}
	return overrides, rows.Err()
}
