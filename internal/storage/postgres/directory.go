package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/evvtrack/evvtrack/internal/models"
)

func (s *Store) AddCaregiver(cg models.Caregiver) error {
	skillsJSON, err := json.Marshal(cg.Skills)
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}
	tagsJSON, err := json.Marshal(cg.PreferenceTags)
	if err != nil {
		return fmt.Errorf("failed to marshal preference tags: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO caregivers (
			id, name, skills, preference_tags, rating, home_lat, home_lng, travel_radius_mi
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			skills = EXCLUDED.skills,
			preference_tags = EXCLUDED.preference_tags,
			rating = EXCLUDED.rating,
			home_lat = EXCLUDED.home_lat,
			home_lng = EXCLUDED.home_lng,
			travel_radius_mi = EXCLUDED.travel_radius_mi`,
		cg.ID, cg.Name, string(skillsJSON), string(tagsJSON), cg.Rating,
		cg.HomeLocation.Lat, cg.HomeLocation.Lng, cg.TravelRadiusMi,
	)
	return err
}

func (s *Store) GetCaregiver(id string) (models.Caregiver, error) {
	row := s.db.QueryRow(`
		SELECT id, name, skills, preference_tags, rating, home_lat, home_lng, travel_radius_mi
		FROM caregivers WHERE id = $1`, id)
	cg, err := scanCaregiver(row)
	if err == sql.ErrNoRows {
		return models.Caregiver{}, fmt.Errorf("caregiver with id %s not found", id)
	}
	return cg, err
}

func (s *Store) GetAllCaregivers() ([]models.Caregiver, error) {
	rows, err := s.db.Query(`
		SELECT id, name, skills, preference_tags, rating, home_lat, home_lng, travel_radius_mi
		FROM caregivers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var caregivers []models.Caregiver
	for rows.Next() {
		cg, err := scanCaregiver(rows)
		if err != nil {
			return nil, err
		}
		caregivers = append(caregivers, cg)
	}
	return caregivers, rows.Err()
}

func scanCaregiver(row rowScanner) (models.Caregiver, error) {
	var cg models.Caregiver
	var skillsJSON, tagsJSON string

	err := row.Scan(&cg.ID, &cg.Name, &skillsJSON, &tagsJSON, &cg.Rating,
		&cg.HomeLocation.Lat, &cg.HomeLocation.Lng, &cg.TravelRadiusMi)
	if err != nil {
		return models.Caregiver{}, err
	}

	if err := json.Unmarshal([]byte(skillsJSON), &cg.Skills); err != nil {
		return models.Caregiver{}, fmt.Errorf("unmarshaling skills: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &cg.PreferenceTags); err != nil {
		return models.Caregiver{}, fmt.Errorf("unmarshaling preference tags: %w", err)
	}
	return cg, nil
}

func (s *Store) AddClient(client models.Client) error {
	tagsJSON, err := json.Marshal(client.PreferenceTags)
	if err != nil {
		return fmt.Errorf("failed to marshal preference tags: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO clients (id, name, lat, lng, preference_tags)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			preference_tags = EXCLUDED.preference_tags`,
		client.ID, client.Name, client.Location.Lat, client.Location.Lng, string(tagsJSON),
	)
	return err
}

func (s *Store) GetClient(id string) (models.Client, error) {
	row := s.db.QueryRow(`SELECT id, name, lat, lng, preference_tags FROM clients WHERE id = $1`, id)
	client, err := scanClient(row)
	if err == sql.ErrNoRows {
		return models.Client{}, fmt.Errorf("client with id %s not found", id)
	}
	return client, err
}

func (s *Store) GetAllClients() ([]models.Client, error) {
	rows, err := s.db.Query(`SELECT id, name, lat, lng, preference_tags FROM clients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func scanClient(row rowScanner) (models.Client, error) {
	var client models.Client
	var tagsJSON string

	err := row.Scan(&client.ID, &client.Name, &client.Location.Lat, &client.Location.Lng, &tagsJSON)
	if err != nil {
		return models.Client{}, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &client.PreferenceTags); err != nil {
		return models.Client{}, fmt.Errorf("unmarshaling preference tags: %w", err)
	}
	return client, nil
}
