package sqlite

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/migration"
	"github.com/evvtrack/evvtrack/internal/models"
	"github.com/evvtrack/evvtrack/migrations"
)

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Seed default engine tunables on a fresh or incomplete database
	settings, err := s.GetSettings()
	if err != nil || settings.GeofenceRadiusMi == 0 {
		if err := s.SaveSettings(defaultSettings()); err != nil {
			return fmt.Errorf("failed to save default settings: %w", err)
		}
	}

	return nil
}

func defaultSettings() models.Settings {
	return models.Settings{
		GeofenceRadiusMi:   constants.DefaultGeofenceRadiusMi,
		OvertimeRiskRatio:  constants.DefaultOvertimeRiskRatio,
		OvertimeHardRatio:  constants.DefaultOvertimeHardRatio,
		OvertimeAllowance:  constants.DefaultOvertimeAllowance,
		UnassignedLeadHrs:  constants.DefaultUnassignedLeadTime.Hours(),
		NoShowGraceMin:     int(constants.DefaultNoShowGrace.Minutes()),
		TravelSpeedMph:     constants.DefaultTravelSpeedMph,
		SampleIntervalSec:  int(constants.DefaultSampleInterval.Seconds()),
		NotifyOnResolution: true,
		NotifyOnRefusal:    true,
		Timezone:           "Local",
	}
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'evvtrack init' first")
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.validateSchemaVersion(); err != nil {
		return err
	}

	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) runMigrations() error {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return fmt.Errorf("failed to access sqlite migrations: %w", err)
	}

	runner := migration.NewRunner(s.db, subFS)
	_, err = runner.ApplyMigrations(nil)
	return err
}

func (s *Store) validateSchemaVersion() error {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return fmt.Errorf("failed to access sqlite migrations: %w", err)
	}

	runner := migration.NewRunner(s.db, subFS)
	return runner.ValidateVersion()
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB exposes the connection for the migrate command.
func (s *Store) GetDB() *sql.DB {
	return s.db
}
