package sqlite

import (
	"fmt"
	"time"

	"github.com/evvtrack/evvtrack/internal/models"
)

func (s *Store) SaveAlertOverride(o models.AlertOverride) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO alert_overrides (fingerprint, note, created_at)
		VALUES (?, ?, ?)`,
		o.Fingerprint, o.Note, o.CreatedAt.UTC().Format(time.RFC3339),
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
		var createdAt string
		if err := rows.Scan(&o.Fingerprint, &o.Note, &createdAt); err != nil {
			return nil, err
		}
		if o.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		overrides[o.Fingerprint] = o
	}
	return overrides, rows.Err()
}
