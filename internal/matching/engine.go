package matching

import (
	"fmt"
	"sort"

	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/geo"
	"github.com/evvtrack/evvtrack/internal/models"
	"github.com/evvtrack/evvtrack/internal/timeutil"
)

// Config holds the scoring weights and the assignment-time overtime
// allowance. Weights are additive over [0,1] component scores.
type Config struct {
	SkillWeight       float64
	PreferenceWeight  float64
	RatingWeight      float64
	SlackWeight       float64
	OvertimeAllowance float64
}

// DefaultConfig returns the stock weights.
func DefaultConfig() Config {
	return Config{
		SkillWeight:       0.4,
		PreferenceWeight:  0.3,
		RatingWeight:      0.2,
		SlackWeight:       0.1,
		OvertimeAllowance: constants.DefaultOvertimeAllowance,
	}
}

// Candidate pairs a caregiver with the scheduling context the filter and
// scorer need: their availability and the hours already committed in the
// visit's calendar week.
type Candidate struct {
	Caregiver      models.Caregiver
	Slots          []models.AvailabilitySlot
	CommittedHours float64
}

// RankedCandidate is one scored, eligible caregiver.
type RankedCandidate struct {
	Caregiver  models.Caregiver
	Score      float64
	DistanceMi float64
	Reasons    []string
}

// Engine ranks eligible caregivers for a visit. Ranking never mutates
// state; callers decide whether to apply the top result.
type Engine struct {
	cfg Config
}

// New creates an Engine with the given weights.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Rank filters the candidates against the hard constraints, scores the
// survivors, and returns them best-first. An empty result is a valid
// answer meaning no caregiver is eligible; callers surface that as a
// no_caregiver condition rather than an error.
func (e *Engine) Rank(visit models.Visit, candidates []Candidate) []RankedCandidate {
	ranked := []RankedCandidate{}
	for _, cand := range candidates {
		if !e.eligible(visit, cand) {
			continue
		}
		ranked = append(ranked, e.score(visit, cand))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].DistanceMi != ranked[j].DistanceMi {
			return ranked[i].DistanceMi < ranked[j].DistanceMi
		}
		return ranked[i].Caregiver.ID < ranked[j].Caregiver.ID
	})
	return ranked
}

// eligible applies the hard constraints: an open availability window
// covering the visit, no scheduled overtime past the allowance, and the
// visit within the caregiver's travel radius from home.
func (e *Engine) eligible(visit models.Visit, cand Candidate) bool {
	slot := models.SlotFor(cand.Slots, visit.ScheduledStart.Weekday())
	if slot == nil || !slot.Covers(visit.ScheduledStart, visit.ScheduledEnd) {
		return false
	}

	weeklyMax := models.WeeklyMaxHours(cand.Slots)
	if weeklyMax <= 0 {
		return false
	}
	projected := cand.CommittedHours + timeutil.Hours(visit.ScheduledStart, visit.ScheduledEnd)
	if projected > weeklyMax*e.cfg.OvertimeAllowance {
		return false
	}

	if cand.Caregiver.TravelRadiusMi > 0 && !visit.ClientLocation.IsZero() {
		if geo.DistanceMi(cand.Caregiver.HomeLocation, visit.ClientLocation) > cand.Caregiver.TravelRadiusMi {
			return false
		}
	}
	return true
}

func (e *Engine) score(visit models.Visit, cand Candidate) RankedCandidate {
	var reasons []string

	skillScore, covered, required := skillCoverage(visit, cand.Caregiver)
	if required > 0 {
		reasons = append(reasons, fmt.Sprintf("covers %d/%d required tasks", covered, required))
	}

	prefScore, satisfied := preferenceMatch(visit, cand.Caregiver)
	if len(visit.ClientPreferences) > 0 {
		reasons = append(reasons, fmt.Sprintf("satisfies %d/%d client preferences",
			satisfied, len(visit.ClientPreferences)))
	}

	ratingScore := clamp01(cand.Caregiver.Rating / 5)
	if cand.Caregiver.Rating > 0 {
		reasons = append(reasons, fmt.Sprintf("rated %.1f of 5", cand.Caregiver.Rating))
	}

	weeklyMax := models.WeeklyMaxHours(cand.Slots)
	slackScore := 0.0
	if weeklyMax > 0 {
		slackScore = clamp01(1 - cand.CommittedHours/weeklyMax)
		reasons = append(reasons, fmt.Sprintf("%.1f of %.1f weekly hours free",
			weeklyMax-cand.CommittedHours, weeklyMax))
	}

	distance := 0.0
	if !visit.ClientLocation.IsZero() && !cand.Caregiver.HomeLocation.IsZero() {
		distance = geo.DistanceMi(cand.Caregiver.HomeLocation, visit.ClientLocation)
	}

	score := e.cfg.SkillWeight*skillScore +
		e.cfg.PreferenceWeight*prefScore +
		e.cfg.RatingWeight*ratingScore +
		e.cfg.SlackWeight*slackScore

	return RankedCandidate{
		Caregiver:  cand.Caregiver,
		Score:      score,
		DistanceMi: distance,
		Reasons:    reasons,
	}
}

// skillCoverage returns the fraction of the visit's required tasks whose
// name matches one of the caregiver's skill tags. A visit with no required
// tasks needs no particular skills, which counts as full coverage.
func skillCoverage(visit models.Visit, cg models.Caregiver) (score float64, covered, required int) {
	for _, task := range visit.Tasks {
		if !task.Required {
			continue
		}
		required++
		if cg.HasSkill(task.Name) {
			covered++
		}
	}
	if required == 0 {
		return 1, 0, 0
	}
	return float64(covered) / float64(required), covered, required
}

// preferenceMatch returns the fraction of client preference tags the
// caregiver satisfies. No stated preferences counts as a full match.
func preferenceMatch(visit models.Visit, cg models.Caregiver) (score float64, satisfied int) {
	if len(visit.ClientPreferences) == 0 {
		return 1, 0
	}
	for _, tag := range visit.ClientPreferences {
		if cg.HasTag(tag) {
			satisfied++
		}
	}
	return float64(satisfied) / float64(len(visit.ClientPreferences)), satisfied
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
