package conflict

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/geo"
	"github.com/evvtrack/evvtrack/internal/models"
	"github.com/evvtrack/evvtrack/internal/timeutil"
)

// Config holds the detection thresholds. Overtime and verification rules
// vary by agency and jurisdiction, so every threshold is tunable.
type Config struct {
	OvertimeRiskRatio  float64
	OvertimeHardRatio  float64
	UnassignedLeadTime time.Duration
	TravelSpeedMph     float64
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		OvertimeRiskRatio:  constants.DefaultOvertimeRiskRatio,
		OvertimeHardRatio:  constants.DefaultOvertimeHardRatio,
		UnassignedLeadTime: constants.DefaultUnassignedLeadTime,
		TravelSpeedMph:     constants.DefaultTravelSpeedMph,
	}
}

// Snapshot is the immutable view of scheduling state a detection pass runs
// over. Availability and caregivers are keyed by caregiver id.
type Snapshot struct {
	Visits       []models.Visit
	Availability map[string][]models.AvailabilitySlot
	Caregivers   map[string]models.Caregiver
	Now          time.Time
}

// Detector scans a snapshot and emits conflict alerts. Detection is a pure
// function of the snapshot: no side effects, deterministic output, safe to
// re-run after every mutation.
type Detector struct {
	cfg Config
}

// New creates a Detector with the given thresholds.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Detect runs every rule over the snapshot and returns the combined alert
// list sorted by severity, then earliest implicated scheduled start. A
// single visit may appear in several alerts; each rule is evaluated
// independently.
func (d *Detector) Detect(snap Snapshot) []models.ConflictAlert {
	alerts := []models.ConflictAlert{}
	alerts = append(alerts, d.detectOverlaps(snap)...)
	alerts = append(alerts, d.detectUnassigned(snap)...)
	alerts = append(alerts, d.detectOvertime(snap)...)
	alerts = append(alerts, d.detectPreferenceMismatch(snap)...)
	alerts = append(alerts, d.detectTravel(snap)...)

	for i := range alerts {
		alerts[i].ID = alerts[i].Fingerprint()
	}
	models.SortAlerts(alerts)
	return alerts
}

// onSchedule reports whether a visit still occupies caregiver time for
// conflict purposes. Completed visits no longer collide with anything.
func onSchedule(v *models.Visit) bool {
	return v.Status == constants.VisitScheduled || v.Status == constants.VisitInProgress
}

func (d *Detector) caregiverName(snap Snapshot, id string) string {
	if cg, ok := snap.Caregivers[id]; ok && cg.Name != "" {
		return cg.Name
	}
	return id
}

// detectOverlaps raises scheduling_conflict for every pair of visits
// assigned to the same caregiver whose half-open scheduled intervals
// intersect. Visits that merely touch boundaries do not conflict.
func (d *Detector) detectOverlaps(snap Snapshot) []models.ConflictAlert {
	byCaregiver := make(map[string][]*models.Visit)
	for i := range snap.Visits {
		v := &snap.Visits[i]
		if v.Assigned() && onSchedule(v) {
			byCaregiver[v.CaregiverID] = append(byCaregiver[v.CaregiverID], v)
		}
	}

	var alerts []models.ConflictAlert
	for caregiverID, visits := range byCaregiver {
		sort.Slice(visits, func(i, j int) bool {
			return visits[i].ScheduledStart.Before(visits[j].ScheduledStart)
		})
		for i := 0; i < len(visits); i++ {
			for j := i + 1; j < len(visits); j++ {
				a, b := visits[i], visits[j]
				if !timeutil.Overlaps(a.ScheduledStart, a.ScheduledEnd, b.ScheduledStart, b.ScheduledEnd) {
					continue
				}
				alerts = append(alerts, models.ConflictAlert{
					Kind:        constants.ConflictScheduling,
					Severity:    constants.SeverityHigh,
					VisitIDs:    []string{a.ID, b.ID},
					CaregiverID: caregiverID,
					EarliestAt:  a.ScheduledStart,
					Message: fmt.Sprintf("%s is double-booked: visits overlap between %s and %s",
						d.caregiverName(snap, caregiverID),
						b.ScheduledStart.Format("Mon 15:04"),
						minTime(a.ScheduledEnd, b.ScheduledEnd).Format("15:04")),
					Suggestions: []string{
						"Reassign one visit to another caregiver",
						"Reschedule one visit outside the overlap",
					},
				})
			}
		}
	}
	return alerts
}

// detectUnassigned raises no_caregiver for visits without a caregiver whose
// scheduled start falls inside the lead-time horizon.
func (d *Detector) detectUnassigned(snap Snapshot) []models.ConflictAlert {
	horizon := snap.Now.Add(d.cfg.UnassignedLeadTime)

	var alerts []models.ConflictAlert
	for i := range snap.Visits {
		v := &snap.Visits[i]
		if v.Assigned() || v.Status != constants.VisitScheduled {
			continue
		}
		if v.ScheduledStart.After(horizon) {
			continue
		}
		alerts = append(alerts, models.ConflictAlert{
			Kind:       constants.ConflictNoCaregiver,
			Severity:   constants.SeverityHigh,
			VisitIDs:   []string{v.ID},
			EarliestAt: v.ScheduledStart,
			Message: fmt.Sprintf("Visit at %s has no caregiver assigned",
				v.ScheduledStart.Format("Mon Jan 2 15:04")),
			Suggestions: []string{"Rank eligible caregivers and assign one"},
		})
	}
	return alerts
}

// detectOvertime buckets each caregiver's on-schedule hours by calendar
// week and compares them against the weekly capacity from availability.
// One alert per caregiver-week: medium when commitment reaches the risk
// ratio, escalated to high once it crosses capacity. Sitting exactly at
// capacity raises nothing.
func (d *Detector) detectOvertime(snap Snapshot) []models.ConflictAlert {
	type weekKey struct {
		caregiverID string
		weekStart   time.Time
	}
	type weekLoad struct {
		hours    float64
		visitIDs []string
		earliest time.Time
	}

	loads := make(map[weekKey]*weekLoad)
	for i := range snap.Visits {
		v := &snap.Visits[i]
		if !v.Assigned() || !v.Active() {
			continue
		}
		key := weekKey{v.CaregiverID, timeutil.WeekStart(v.ScheduledStart)}
		load, ok := loads[key]
		if !ok {
			load = &weekLoad{earliest: v.ScheduledStart}
			loads[key] = load
		}
		load.hours += timeutil.Hours(v.ScheduledStart, v.ScheduledEnd)
		load.visitIDs = append(load.visitIDs, v.ID)
		if v.ScheduledStart.Before(load.earliest) {
			load.earliest = v.ScheduledStart
		}
	}

	var alerts []models.ConflictAlert
	for key, load := range loads {
		capacity := models.WeeklyMaxHours(snap.Availability[key.caregiverID])
		if capacity <= 0 {
			continue
		}
		hard := capacity * d.cfg.OvertimeHardRatio
		risk := capacity * d.cfg.OvertimeRiskRatio

		var severity constants.Severity
		var message string
		switch {
		case load.hours > hard:
			severity = constants.SeverityHigh
			message = fmt.Sprintf("%s is over the weekly limit: %.1f of %.1f hours committed",
				d.caregiverName(snap, key.caregiverID), load.hours, capacity)
		case load.hours >= risk && load.hours < hard:
			severity = constants.SeverityMedium
			message = fmt.Sprintf("%s is approaching the weekly limit: %.1f of %.1f hours committed",
				d.caregiverName(snap, key.caregiverID), load.hours, capacity)
		default:
			continue
		}

		sort.Strings(load.visitIDs)
		alerts = append(alerts, models.ConflictAlert{
			Kind:        constants.ConflictOvertimeRisk,
			Severity:    severity,
			VisitIDs:    load.visitIDs,
			CaregiverID: key.caregiverID,
			EarliestAt:  load.earliest,
			Message:     message,
			Suggestions: []string{
				"Reassign a visit to a caregiver with remaining capacity",
				"Reschedule a visit into the following week",
			},
		})
	}
	return alerts
}

// detectPreferenceMismatch raises client_preference when a client's
// preference tags are not a subset of the assigned caregiver's satisfied
// tags. Matching is exact, case-insensitive subset; no partial credit.
func (d *Detector) detectPreferenceMismatch(snap Snapshot) []models.ConflictAlert {
	var alerts []models.ConflictAlert
	for i := range snap.Visits {
		v := &snap.Visits[i]
		if !v.Assigned() || !onSchedule(v) || len(v.ClientPreferences) == 0 {
			continue
		}
		cg, ok := snap.Caregivers[v.CaregiverID]
		if !ok {
			continue
		}
		var unmet []string
		for _, tag := range v.ClientPreferences {
			if !cg.HasTag(tag) {
				unmet = append(unmet, tag)
			}
		}
		if len(unmet) == 0 {
			continue
		}
		alerts = append(alerts, models.ConflictAlert{
			Kind:        constants.ConflictClientPreference,
			Severity:    constants.SeverityMedium,
			VisitIDs:    []string{v.ID},
			CaregiverID: v.CaregiverID,
			EarliestAt:  v.ScheduledStart,
			Message: fmt.Sprintf("%s does not satisfy client preferences: %s",
				d.caregiverName(snap, v.CaregiverID), strings.Join(unmet, ", ")),
			Suggestions: []string{"Rank caregivers matching the client's preferences"},
		})
	}
	return alerts
}

// detectTravel walks each caregiver's same-day visits in start order and
// checks consecutive legs: the leg distance against the caregiver's travel
// radius, and the projected travel time against the gap between visits.
// A leg that cannot be driven in time is high severity; a merely
// out-of-radius leg is medium.
func (d *Detector) detectTravel(snap Snapshot) []models.ConflictAlert {
	byCaregiver := make(map[string][]*models.Visit)
	for i := range snap.Visits {
		v := &snap.Visits[i]
		if v.Assigned() && onSchedule(v) && !v.ClientLocation.IsZero() {
			byCaregiver[v.CaregiverID] = append(byCaregiver[v.CaregiverID], v)
		}
	}

	var alerts []models.ConflictAlert
	for caregiverID, visits := range byCaregiver {
		cg, ok := snap.Caregivers[caregiverID]
		if !ok {
			continue
		}
		sort.Slice(visits, func(i, j int) bool {
			return visits[i].ScheduledStart.Before(visits[j].ScheduledStart)
		})
		for i := 0; i+1 < len(visits); i++ {
			a, b := visits[i], visits[i+1]
			if a.ScheduledStart.YearDay() != b.ScheduledStart.YearDay() ||
				a.ScheduledStart.Year() != b.ScheduledStart.Year() {
				continue
			}
			legMi := geo.DistanceMi(a.ClientLocation, b.ClientLocation)
			gap := b.ScheduledStart.Sub(a.ScheduledEnd)
			travel := time.Duration(legMi / d.cfg.TravelSpeedMph * float64(time.Hour))

			infeasible := gap >= 0 && travel > gap
			outOfRadius := cg.TravelRadiusMi > 0 && legMi > cg.TravelRadiusMi
			if !infeasible && !outOfRadius {
				continue
			}

			severity := constants.SeverityMedium
			message := fmt.Sprintf("%s travels %.1f mi between visits, beyond the %.1f mi radius",
				d.caregiverName(snap, caregiverID), legMi, cg.TravelRadiusMi)
			if infeasible {
				severity = constants.SeverityHigh
				message = fmt.Sprintf("%s cannot reach the next visit in time: %.1f mi leg with a %d-minute gap",
					d.caregiverName(snap, caregiverID), legMi, int(gap.Minutes()))
			}

			alerts = append(alerts, models.ConflictAlert{
				Kind:        constants.ConflictTravelDistance,
				Severity:    severity,
				VisitIDs:    []string{a.ID, b.ID},
				CaregiverID: caregiverID,
				EarliestAt:  a.ScheduledStart,
				Message:     message,
				Suggestions: []string{
					"Reassign the later visit to a closer caregiver",
					"Widen the gap between the two visits",
				},
			})
		}
	}
	return alerts
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
