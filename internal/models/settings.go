package models

// Settings are the persisted engine tunables. Defaults are applied by the
// storage provider at init; real overtime and verification rules vary by
// agency and jurisdiction, so none of these are hard-coded at call sites.
type Settings struct {
	GeofenceRadiusMi   float64 `json:"geofence_radius_mi"`
	OvertimeRiskRatio  float64 `json:"overtime_risk_ratio"`
	OvertimeHardRatio  float64 `json:"overtime_hard_ratio"`
	OvertimeAllowance  float64 `json:"overtime_allowance"`
	UnassignedLeadHrs  float64 `json:"unassigned_lead_hrs"`
	NoShowGraceMin     int     `json:"no_show_grace_min"`
	TravelSpeedMph     float64 `json:"travel_speed_mph"`
	SampleIntervalSec  int     `json:"sample_interval_sec"`
	NotifyOnResolution bool    `json:"notify_on_resolution"`
	NotifyOnRefusal    bool    `json:"notify_on_refusal"`
	Timezone           string  `json:"timezone"`
}
