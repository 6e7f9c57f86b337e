package storage

import (
	"time"

	"github.com/evvtrack/evvtrack/internal/models"
)

// Provider is the persistence contract the CLI and engines run against.
// Two implementations exist: an embedded SQLite database for single-office
// use and a shared PostgreSQL database for multi-coordinator deployments.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Visits
	AddVisit(models.Visit) error
	GetVisit(id string) (models.Visit, error)
	GetAllVisits() ([]models.Visit, error)
	// GetVisits returns visits whose scheduled window intersects
	// [start, end). Zero bounds are open on that side.
	GetVisits(start, end time.Time) ([]models.Visit, error)
	GetVisitsForCaregiver(caregiverID string) ([]models.Visit, error)
	UpdateVisit(models.Visit) error
	CancelVisit(id string) error

	// Availability
	SaveAvailability(models.AvailabilitySlot) error
	GetAvailability(caregiverID string) ([]models.AvailabilitySlot, error)
	GetAllAvailability() (map[string][]models.AvailabilitySlot, error)

	// Directory
	AddCaregiver(models.Caregiver) error
	GetCaregiver(id string) (models.Caregiver, error)
	GetAllCaregivers() ([]models.Caregiver, error)
	AddClient(models.Client) error
	GetClient(id string) (models.Client, error)
	GetAllClients() ([]models.Client, error)

	// EVV sessions
	SaveSession(models.EVVSession) error
	GetSession(visitID string) (models.EVVSession, error)

	// Alert overrides
	SaveAlertOverride(models.AlertOverride) error
	GetAlertOverrides() (map[string]models.AlertOverride, error)

	// Utils
	GetConfigPath() string
}
