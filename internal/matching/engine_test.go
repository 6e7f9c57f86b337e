package matching

import (
	"testing"
	"time"

	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/geo"
	"github.com/evvtrack/evvtrack/internal/models"
)

var vbClient = geo.Location{Lat: 36.8508, Lng: -75.9776}

func mondayVisit() models.Visit {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return models.Visit{
		ID:             "visit-1",
		ClientID:       "client-1",
		ScheduledStart: start,
		ScheduledEnd:   start.Add(2 * time.Hour),
		Status:         constants.VisitScheduled,
		Priority:       constants.PriorityMedium,
		ClientLocation: vbClient,
		Tasks: []models.CareTask{
			{ID: "t1", Name: "medication", Required: true},
			{ID: "t2", Name: "mobility", Required: true},
		},
		ClientPreferences: []string{"spanish"},
	}
}

func candidate(id string, rating, committed float64) Candidate {
	return Candidate{
		Caregiver: models.Caregiver{
			ID:             id,
			Name:           id,
			Skills:         []string{"medication", "mobility"},
			PreferenceTags: []string{"spanish"},
			Rating:         rating,
			HomeLocation:   geo.Location{Lat: 36.8600, Lng: -75.9800},
			TravelRadiusMi: 15,
		},
		Slots: []models.AvailabilitySlot{{
			CaregiverID: id,
			Weekday:     time.Monday,
			Start:       "08:00",
			End:         "16:00",
			IsAvailable: true,
			MaxHours:    8,
		}},
		CommittedHours: committed,
	}
}

func TestRank_EligibilityWindow(t *testing.T) {
	e := New(DefaultConfig())
	visit := mondayVisit()

	closed := candidate("closed", 4, 0)
	closed.Slots[0].IsAvailable = false

	lateWindow := candidate("late", 4, 0)
	lateWindow.Slots[0].Start = "11:00"

	wrongDay := candidate("tuesday-only", 4, 0)
	wrongDay.Slots[0].Weekday = time.Tuesday

	ok := candidate("ok", 4, 0)

	ranked := e.Rank(visit, []Candidate{closed, lateWindow, wrongDay, ok})
	if len(ranked) != 1 || ranked[0].Caregiver.ID != "ok" {
		t.Fatalf("expected only the covering candidate, got %v", ranked)
	}
}

func TestRank_OvertimeAllowanceExcludes(t *testing.T) {
	e := New(DefaultConfig())
	visit := mondayVisit() // 2 hours

	full := candidate("full", 4, 7) // 7 + 2 > 8
	exact := candidate("exact", 4, 6) // 6 + 2 = 8, allowed

	ranked := e.Rank(visit, []Candidate{full, exact})
	if len(ranked) != 1 || ranked[0].Caregiver.ID != "exact" {
		t.Fatalf("expected only the candidate that fits the cap, got %v", ranked)
	}
}

func TestRank_TravelRadiusExcludes(t *testing.T) {
	e := New(DefaultConfig())
	visit := mondayVisit()

	far := candidate("far", 4, 0)
	far.Caregiver.HomeLocation = geo.Location{Lat: 37.5, Lng: -77.4} // Richmond, ~90 mi

	ranked := e.Rank(visit, []Candidate{far})
	if len(ranked) != 0 {
		t.Fatalf("expected out-of-radius candidate to be excluded, got %v", ranked)
	}
}

func TestRank_EmptyRankingIsNotAnError(t *testing.T) {
	e := New(DefaultConfig())
	ranked := e.Rank(mondayVisit(), nil)
	if ranked == nil {
		t.Fatalf("expected empty slice, got nil")
	}
	if len(ranked) != 0 {
		t.Fatalf("expected no candidates, got %d", len(ranked))
	}
}

func TestRank_ScoringOrders(t *testing.T) {
	e := New(DefaultConfig())
	visit := mondayVisit()

	strong := candidate("strong", 5, 0)

	weakSkills := candidate("weak-skills", 5, 0)
	weakSkills.Caregiver.Skills = []string{"medication"} // covers 1 of 2

	noPref := candidate("no-pref", 5, 0)
	noPref.Caregiver.PreferenceTags = nil

	lowRated := candidate("low-rated", 2, 0)

	busy := candidate("busy", 5, 6)

	ranked := e.Rank(visit, []Candidate{busy, weakSkills, lowRated, noPref, strong})
	if len(ranked) != 5 {
		t.Fatalf("expected 5 ranked candidates, got %d", len(ranked))
	}
	if ranked[0].Caregiver.ID != "strong" {
		t.Errorf("best candidate = %s, want strong", ranked[0].Caregiver.ID)
	}
	// Full score: 0.4 + 0.3 + 0.2 + 0.1 = 1.0
	if ranked[0].Score < 0.999 || ranked[0].Score > 1.001 {
		t.Errorf("strong score = %f, want 1.0", ranked[0].Score)
	}

	scores := map[string]float64{}
	for _, rc := range ranked {
		scores[rc.Caregiver.ID] = rc.Score
	}
	// Missing half the skills costs 0.2; missing the preference costs 0.3
	if !near(scores["weak-skills"], 0.8) {
		t.Errorf("weak-skills score = %f, want 0.8", scores["weak-skills"])
	}
	if !near(scores["no-pref"], 0.7) {
		t.Errorf("no-pref score = %f, want 0.7", scores["no-pref"])
	}
	// Rating 2 of 5 scores 0.08 of the 0.2 weight
	if !near(scores["low-rated"], 0.88) {
		t.Errorf("low-rated score = %f, want 0.88", scores["low-rated"])
	}
	// 6 of 8 hours committed leaves slack 0.25, scoring 0.025 of the 0.1 weight
	if !near(scores["busy"], 0.925) {
		t.Errorf("busy score = %f, want 0.925", scores["busy"])
	}
}

func TestRank_TiesBrokenByDistanceThenID(t *testing.T) {
	e := New(DefaultConfig())
	visit := mondayVisit()

	near1 := candidate("bbb", 5, 0)
	near1.Caregiver.HomeLocation = geo.Location{Lat: 36.8510, Lng: -75.9776}

	far := candidate("aaa", 5, 0)
	far.Caregiver.HomeLocation = geo.Location{Lat: 36.9000, Lng: -75.9776}

	sameSpot := candidate("ccc", 5, 0)
	sameSpot.Caregiver.HomeLocation = near1.Caregiver.HomeLocation

	ranked := e.Rank(visit, []Candidate{far, sameSpot, near1})
	if len(ranked) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(ranked))
	}
	// Identical scores: closer first, then lexical id among equals
	want := []string{"bbb", "ccc", "aaa"}
	for i, id := range want {
		if ranked[i].Caregiver.ID != id {
			t.Errorf("ranked[%d] = %s, want %s", i, ranked[i].Caregiver.ID, id)
		}
	}
}

func TestRank_Deterministic(t *testing.T) {
	e := New(DefaultConfig())
	visit := mondayVisit()
	candidates := []Candidate{
		candidate("a", 3, 2),
		candidate("b", 4, 4),
		candidate("c", 5, 6),
	}

	first := e.Rank(visit, candidates)
	second := e.Rank(visit, candidates)
	if len(first) != len(second) {
		t.Fatalf("rank lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Caregiver.ID != second[i].Caregiver.ID || first[i].Score != second[i].Score {
			t.Errorf("rank %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func near(got, want float64) bool {
	diff := got - want
	return diff < 1e-9 && diff > -1e-9
}
