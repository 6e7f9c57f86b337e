package sqlite

import (
	"fmt"

	"github.com/evvtrack/evvtrack/internal/models"
)

func (s *Store) GetSettings() (models.Settings, error) {
	rows, err := s.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return models.Settings{}, err
	}
	defer rows.Close()

	settings := models.Settings{}
	count := 0
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Settings{}, err
		}
		switch key {
		case "geofence_radius_mi":
			if _, err := fmt.Sscanf(value, "%f", &settings.GeofenceRadiusMi); err != nil {
				return models.Settings{}, fmt.Errorf("parsing geofence_radius_mi: %w", err)
			}
		case "overtime_risk_ratio":
			if _, err := fmt.Sscanf(value, "%f", &settings.OvertimeRiskRatio); err != nil {
				return models.Settings{}, fmt.Errorf("parsing overtime_risk_ratio: %w", err)
			}
		case "overtime_hard_ratio":
			if _, err := fmt.Sscanf(value, "%f", &settings.OvertimeHardRatio); err != nil {
				return models.Settings{}, fmt.Errorf("parsing overtime_hard_ratio: %w", err)
			}
		case "overtime_allowance":
			if _, err := fmt.Sscanf(value, "%f", &settings.OvertimeAllowance); err != nil {
				return models.Settings{}, fmt.Errorf("parsing overtime_allowance: %w", err)
			}
		case "unassigned_lead_hrs":
			if _, err := fmt.Sscanf(value, "%f", &settings.UnassignedLeadHrs); err != nil {
				return models.Settings{}, fmt.Errorf("parsing unassigned_lead_hrs: %w", err)
			}
		case "no_show_grace_min":
			if _, err := fmt.Sscanf(value, "%d", &settings.NoShowGraceMin); err != nil {
				return models.Settings{}, fmt.Errorf("parsing no_show_grace_min: %w", err)
			}
		case "travel_speed_mph":
			if _, err := fmt.Sscanf(value, "%f", &settings.TravelSpeedMph); err != nil {
				return models.Settings{}, fmt.Errorf("parsing travel_speed_mph: %w", err)
			}
		case "sample_interval_sec":
			if _, err := fmt.Sscanf(value, "%d", &settings.SampleIntervalSec); err != nil {
				return models.Settings{}, fmt.Errorf("parsing sample_interval_sec: %w", err)
			}
		case "notify_on_resolution":
			settings.NotifyOnResolution = value == "true"
		case "notify_on_refusal":
			settings.NotifyOnRefusal = value == "true"
		case "timezone":
			settings.Timezone = value
		}
		count++
	}

	if count == 0 {
		return models.Settings{}, fmt.Errorf("settings not found")
	}

	return settings, nil
}

func (s *Store) SaveSettings(settings models.Settings) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	pairs := []struct {
		key   string
		value string
	}{
		{"geofence_radius_mi", fmt.Sprintf("%g", settings.GeofenceRadiusMi)},
		{"overtime_risk_ratio", fmt.Sprintf("%g", settings.OvertimeRiskRatio)},
		{"overtime_hard_ratio", fmt.Sprintf("%g", settings.OvertimeHardRatio)},
		{"overtime_allowance", fmt.Sprintf("%g", settings.OvertimeAllowance)},
		{"unassigned_lead_hrs", fmt.Sprintf("%g", settings.UnassignedLeadHrs)},
		{"no_show_grace_min", fmt.Sprintf("%d", settings.NoShowGraceMin)},
		{"travel_speed_mph", fmt.Sprintf("%g", settings.TravelSpeedMph)},
		{"sample_interval_sec", fmt.Sprintf("%d", settings.SampleIntervalSec)},
		{"notify_on_resolution", fmt.Sprintf("%v", settings.NotifyOnResolution)},
		{"notify_on_refusal", fmt.Sprintf("%v", settings.NotifyOnRefusal)},
		{"timezone", settings.Timezone},
	}
	for _, p := range pairs {
		if _, err := stmt.Exec(p.key, p.value); err != nil {
			return err
		}
	}

	return tx.Commit()
}
