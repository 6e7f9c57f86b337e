package evv

import (
	"context"
	"sync"
	"time"

	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/geo"
	"github.com/evvtrack/evvtrack/internal/logger"
)

// LocationSource produces the device's current position. Implementations
// may fail transiently (permission prompts, weak GPS); the sampler treats
// every failure as a skipped sample.
type LocationSource interface {
	Current(ctx context.Context) (geo.Point, error)
}

// Sampler polls a location source on a fixed cadence while a session is
// active. It is advisory: missed samples only widen the staleness slack
// fed into the geofence check, and never block or fail the state machine.
type Sampler struct {
	source    LocationSource
	interval  time.Duration
	staleness time.Duration

	mu     sync.Mutex
	last   *geo.Point
	lastAt time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSampler creates a sampler with the given cadence. A zero interval
// uses the default.
func NewSampler(source LocationSource, interval time.Duration) *Sampler {
	if interval <= 0 {
		interval = constants.DefaultSampleInterval
	}
	return &Sampler{
		source:    source,
		interval:  interval,
		staleness: constants.DefaultLocationStaleness,
	}
}

// Start begins polling in the background. Stop or cancelling the parent
// context ends the loop.
func (s *Sampler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx)
}

// Stop cancels the polling loop and waits for it to exit. Safe to call on
// a sampler that never started.
func (s *Sampler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
}

func (s *Sampler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Take an immediate first sample so the geofence check has something
	// to work with before the first tick
	s.sample(ctx)

	for {
		select {
		case <-ticker.C:
			s.sample(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sampler) sample(ctx context.Context) {
	sampleCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	point, err := s.source.Current(sampleCtx)
	if err != nil {
		logger.Debug("Location sample skipped", "error", err)
		return
	}

	s.mu.Lock()
	s.last = &point
	s.lastAt = time.Now()
	s.mu.Unlock()
}

// Latest returns the most recent sample and when it was taken. ok is false
// when no sample has succeeded yet.
func (s *Sampler) Latest() (point geo.Point, at time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return geo.Point{}, time.Time{}, false
	}
	return *s.last, s.lastAt, true
}

// Slack returns the extra geofence slack in miles to apply for sample age:
// the reported accuracy of the last fix, doubled once the fix is stale.
// With no fix at all the slack is zero and the caller should treat the
// location as unavailable.
func (s *Sampler) Slack(now time.Time) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return 0
	}
	slack := s.last.AccuracyMi
	if now.Sub(s.lastAt) > s.staleness {
		slack *= 2
	}
	return slack
}
