package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/evvtrack/evvtrack/internal/constants"
)

// ConflictAlert is a derived finding that the current schedule violates a
// policy. Alerts are recomputed from the visit/availability snapshot on
// every detection pass and are never the source of truth.
type ConflictAlert struct {
	ID          string                 `json:"id"`
	Kind        constants.ConflictKind `json:"kind"`
	Severity    constants.Severity     `json:"severity"`
	VisitIDs    []string               `json:"visit_ids"`
	CaregiverID string                 `json:"caregiver_id,omitempty"`
	Message     string                 `json:"message"`
	Suggestions []string               `json:"suggestions,omitempty"` // advisory only
	EarliestAt  time.Time              `json:"earliest_at"`           // earliest implicated scheduled start
}

// Fingerprint derives a stable identifier from the alert's kind and subject
// so the same finding keeps the same id across detection passes. Resolution
// commands address alerts by this id.
func (a *ConflictAlert) Fingerprint() string {
	ids := append([]string(nil), a.VisitIDs...)
	sort.Strings(ids)
	subject := a.CaregiverID
	if subject == "" {
		subject = "-"
	}
	return fmt.Sprintf("%s:%s:%s", a.Kind, subject, strings.Join(ids, "+"))
}

// AlertOverride is a coordinator's recorded decision to accept a detected
// conflict. The alert keeps being derived on every pass; the override
// suppresses it from reported sets for as long as its fingerprint still
// matches, and retires naturally once the schedule changes.
type AlertOverride struct {
	Fingerprint string    `json:"fingerprint"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// severityRank orders severities for display sorting.
func severityRank(s constants.Severity) int {
	switch s {
	case constants.SeverityHigh:
		return 0
	case constants.SeverityMedium:
		return 1
	default:
		return 2
	}
}

// SortAlerts orders alerts by severity (high first), then by the earliest
// implicated visit's scheduled start, then by id for a deterministic tail.
func SortAlerts(alerts []ConflictAlert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		if severityRank(alerts[i].Severity) != severityRank(alerts[j].Severity) {
			return severityRank(alerts[i].Severity) < severityRank(alerts[j].Severity)
		}
		if !alerts[i].EarliestAt.Equal(alerts[j].EarliestAt) {
			return alerts[i].EarliestAt.Before(alerts[j].EarliestAt)
		}
		return alerts[i].ID < alerts[j].ID
	})
}
