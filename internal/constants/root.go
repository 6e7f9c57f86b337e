package constants

import "time"

// VisitStatus represents the lifecycle status of a visit
type VisitStatus string

// SessionState represents the current state of an EVV session
type SessionState string

// ConflictKind represents the kind of a detected scheduling conflict
type ConflictKind string

// Severity represents how urgent a conflict alert is
type Severity string

// RecurrenceType represents the recurrence pattern of a visit
type RecurrenceType string

// Priority represents the priority of a visit
type Priority string

const (
	AppName            = "evvtrack"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/evvtrack/evvtrack.db"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard wall-clock format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// TimestampFormat is the format for persisted instants (RFC3339)
	TimestampFormat = time.RFC3339
)

// Visit statuses
const (
	VisitScheduled  VisitStatus = "scheduled"
	VisitInProgress VisitStatus = "in_progress"
	VisitCompleted  VisitStatus = "completed"
	VisitCancelled  VisitStatus = "cancelled"
	VisitNoShow     VisitStatus = "no_show"
)

// EVV session states
const (
	SessionNotStarted SessionState = "not_started"
	SessionInProgress SessionState = "in_progress"
	SessionOnBreak    SessionState = "on_break"
	SessionCompleted  SessionState = "completed"
)

// Conflict kinds
const (
	ConflictScheduling       ConflictKind = "scheduling_conflict"
	ConflictOvertimeRisk     ConflictKind = "overtime_risk"
	ConflictNoCaregiver      ConflictKind = "no_caregiver"
	ConflictClientPreference ConflictKind = "client_preference"
	ConflictTravelDistance   ConflictKind = "travel_distance"
)

// Severities
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Recurrence types
const (
	RecurrenceNone     RecurrenceType = "none"
	RecurrenceDaily    RecurrenceType = "daily"
	RecurrenceWeekly   RecurrenceType = "weekly"
	RecurrenceBiweekly RecurrenceType = "biweekly"
	RecurrenceMonthly  RecurrenceType = "monthly"
)

// Priorities
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Engine defaults. All of these are tunable through persisted settings or
// command flags; the constants are only the initial values.
const (
	// DefaultGeofenceRadiusMi is the clock-in/out verification threshold (~160 m)
	DefaultGeofenceRadiusMi = 0.1

	// DefaultOvertimeRiskRatio is the committed/max weekly hours ratio that
	// raises a medium overtime_risk alert
	DefaultOvertimeRiskRatio = 0.9

	// DefaultOvertimeHardRatio is the ratio that escalates the alert to high
	DefaultOvertimeHardRatio = 1.0

	// DefaultOvertimeAllowance caps scheduled hours at assignment time
	// (1.0 = no scheduled overtime)
	DefaultOvertimeAllowance = 1.0

	// DefaultUnassignedLeadTime is the horizon within which an unassigned
	// visit raises a no_caregiver alert
	DefaultUnassignedLeadTime = 24 * time.Hour

	// DefaultNoShowGrace is how long past the scheduled start a visit may
	// wait for a clock-in before it can be marked a no-show
	DefaultNoShowGrace = 30 * time.Minute

	// DefaultTravelSpeedMph is the assumed travel speed for gap feasibility
	DefaultTravelSpeedMph = 30.0

	// DefaultSampleInterval is the cadence of background location sampling
	DefaultSampleInterval = 30 * time.Second

	// DefaultLocationStaleness widens the geofence check when the latest
	// sample is older than this
	DefaultLocationStaleness = 2 * time.Minute

	// Notifier constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "evvtrack-agent.lock"
	NotificationDurationMs = 5000
	AgentAppIdentifier     = "com.evvtrack.agent"
)
