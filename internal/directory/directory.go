// Package directory exposes caregiver and client identity data as read-only
// lookups. The scheduling engines do not own identity records; everything
// they know about a person comes through this interface, so an agency can
// back it with an HR system instead of the local database without touching
// the engines.
package directory

import (
	"github.com/evvtrack/evvtrack/internal/models"
	"github.com/evvtrack/evvtrack/internal/storage"
)

type Service interface {
	Caregiver(id string) (models.Caregiver, error)
	Caregivers() ([]models.Caregiver, error)
	Client(id string) (models.Client, error)
	Clients() ([]models.Client, error)
}

type storeService struct {
	store storage.Provider
}

// NewStoreService reads the directory out of the caregiver and client
// tables of the local store.
func NewStoreService(store storage.Provider) Service {
	return &storeService{store: store}
}

func (s *storeService) Caregiver(id string) (models.Caregiver, error) {
	return s.store.GetCaregiver(id)
}

func (s *storeService) Caregivers() ([]models.Caregiver, error) {
	return s.store.GetAllCaregivers()
}

func (s *storeService) Client(id string) (models.Client, error) {
	return s.store.GetClient(id)
}

func (s *storeService) Clients() ([]models.Client, error) {
	return s.store.GetAllClients()
}
