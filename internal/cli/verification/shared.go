// Package verification holds the caregiver-facing EVV commands: clock-in,
// clock-out, breaks, the task checklist, and no-show marking. Every command
// loads the visit and its session, runs one tracker transition, and persists
// both records only when the transition succeeds.
package verification

import (
	"fmt"
	"strings"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/evv"
	"github.com/evvtrack/evvtrack/internal/geo"
	"github.com/evvtrack/evvtrack/internal/logger"
	"github.com/evvtrack/evvtrack/internal/models"
)

// locationFlags are the reported-coordinate flags shared by clock-in and
// clock-out. Omitting both lat and lng means no fix could be obtained,
// which the tracker refuses with location_unavailable.
type locationFlags struct {
	Lat      float64 `help:"Reported latitude."`
	Lng      float64 `help:"Reported longitude."`
	Accuracy float64 `help:"Horizontal accuracy of the fix in miles (0 = unknown)."`
}

// point converts the flags into a reported point, or nil when no
// coordinates were given. Kong leaves unset float flags at zero, and (0,0)
// is open ocean, so the zero pair is treated as absent.
func (f locationFlags) point() *geo.Point {
	if f.Lat == 0 && f.Lng == 0 {
		return nil
	}
	return &geo.Point{
		Location:   geo.Location{Lat: f.Lat, Lng: f.Lng},
		AccuracyMi: f.Accuracy,
	}
}

// loadVisitSession fetches the visit and its session, creating a fresh
// not-started session when the visit has never been clocked into.
func loadVisitSession(ctx *cli.Context, visitID string) (models.Visit, models.EVVSession, error) {
	visit, err := ctx.Store.GetVisit(visitID)
	if err != nil {
		return models.Visit{}, models.EVVSession{}, fmt.Errorf("failed to get visit: %w", err)
	}
	session, err := ctx.Store.GetSession(visitID)
	if err != nil {
		session = *evv.NewSession(&visit)
	}
	return visit, session, nil
}

// persist writes the mutated visit and session back.
func persist(ctx *cli.Context, visit models.Visit, session models.EVVSession) error {
	if err := ctx.Store.UpdateVisit(visit); err != nil {
		return fmt.Errorf("failed to update visit: %w", err)
	}
	if err := ctx.Store.SaveSession(session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// notifyRefusal surfaces geofence and checklist refusals to the coordinator
// agent when the notify-on-refusal setting is on. Delivery is
// fire-and-forget: a missing agent never changes the caregiver-facing
// outcome.
func notifyRefusal(ctx *cli.Context, visit models.Visit, action string, err error) {
	if !ctx.Settings().NotifyOnRefusal {
		return
	}
	if !evv.Refused(err, evv.LocationMismatch) && !evv.Refused(err, evv.IncompleteTasks) {
		return
	}
	if nerr := ctx.Agent().Notify(fmt.Sprintf("%s refused for visit %s: %v", action, visit.ID, err)); nerr != nil {
		logger.Debug("Refusal notification delivery failed", "visit", visit.ID, "error", nerr)
	}
}

// explain renders a refused transition with its recovery hint.
func explain(err error) error {
	var hint string
	switch {
	case evv.Refused(err, evv.LocationUnavailable):
		hint = "Enable location services and retry, or ask a supervisor for --force."
	case evv.Refused(err, evv.LocationMismatch):
		hint = "Move closer to the client's address and retry, or ask a supervisor for --force."
	case evv.Refused(err, evv.IncompleteTasks):
		hint = "Complete the listed tasks with 'evvtrack evv task', or ask a supervisor for --force."
	}
	if hint == "" {
		return err
	}
	return fmt.Errorf("%w\n%s", err, hint)
}

func taskLine(tasks []models.CareTask) string {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}
