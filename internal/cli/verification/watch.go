package verification

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/evv"
	"github.com/evvtrack/evvtrack/internal/geo"
)

// fileSource reads the current position from a text file holding
// "lat,lng[,accuracy_mi]". Location agents on the device keep the file
// current; re-reading it each sample picks up their updates.
type fileSource struct {
	path string
}

func (f fileSource) Current(_ context.Context) (geo.Point, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return geo.Point{}, err
	}
	parts := strings.Split(strings.TrimSpace(string(raw)), ",")
	if len(parts) < 2 {
		return geo.Point{}, fmt.Errorf("location file must contain 'lat,lng[,accuracy_mi]'")
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid longitude: %w", err)
	}
	point := geo.Point{Location: geo.Location{Lat: lat, Lng: lng}}
	if len(parts) > 2 {
		acc, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return geo.Point{}, fmt.Errorf("invalid accuracy: %w", err)
		}
		point.AccuracyMi = acc
	}
	return point, nil
}

type WatchCmd struct {
	Visit    string `arg:"" help:"Visit ID."`
	Source   string `short:"f" help:"Location file updated by the device's location agent ('lat,lng[,accuracy_mi]')." required:""`
	Interval int    `short:"i" help:"Sample interval in seconds (0 = configured default)."`
}

// Run polls the location source until interrupted, reporting each fix
// against the visit's geofence. The readout is advisory; clock-in and
// clock-out still verify their own reported coordinates.
func (c *WatchCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	visit, _, err := loadVisitSession(ctx, c.Visit)
	if err != nil {
		return err
	}
	settings := ctx.Settings()

	interval := time.Duration(c.Interval) * time.Second
	if interval <= 0 {
		interval = time.Duration(settings.SampleIntervalSec) * time.Second
	}

	sampler := evv.NewSampler(fileSource{path: c.Source}, interval)
	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sampler.Start(runCtx)
	defer sampler.Stop()

	fmt.Printf("Watching location for visit %s every %s (ctrl-c to stop)\n", visit.ID, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-runCtx.Done():
			fmt.Println("Stopped.")
			return nil
		case <-ticker.C:
			now := time.Now()
			point, at, ok := sampler.Latest()
			if !ok {
				fmt.Println("No location fix yet.")
				continue
			}
			distance := geo.DistanceMi(point.Location, visit.ClientLocation)
			inside := geo.WithinMi(point.Location, visit.ClientLocation, settings.GeofenceRadiusMi, sampler.Slack(now))
			state := "OUTSIDE geofence"
			if inside {
				state = "inside geofence"
			}
			fmt.Printf("%s  %.5f,%.5f  %.2f mi from client  %s  (fix age %s)\n",
				now.Format("15:04:05"), point.Location.Lat, point.Location.Lng,
				distance, state, now.Sub(at).Round(time.Second))
		}
	}
}
