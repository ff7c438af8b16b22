// Package transit emits a synthetic position stream for accepted dispatches.
// The feed is purely cosmetic: it drives dashboards and has no bearing on
// resource state.
package transit

import (
	"context"
	"sync"
	"time"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/events"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/logger"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/model"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/internal/eventbus"
)

// Arrivals receives the terminal notification of a feed. Implemented by the
// allocation engine.
type Arrivals interface {
	MarkArrived(ctx context.Context, dispatchID, requestID string) error
}

// Config holds the feed cadence.
type Config struct {
	// Tick is the interval between position samples.
	Tick time.Duration
	// Steps is the number of samples from origin to destination.
	Steps int
}

// SetDefaults applies the standard cadence.
func (c *Config) SetDefaults() {
	if c.Tick <= 0 {
		c.Tick = 5 * time.Second
	}
	if c.Steps <= 0 {
		c.Steps = 20
	}
}

// Simulator runs one goroutine per active dispatch, interpolating positions
// between the emergency location and the hospital and publishing progress on
// the dispatch's topics.
type Simulator struct {
	bus      *eventbus.Bus
	arrivals Arrivals
	log      logger.Logger
	cfg      Config

	mu     sync.Mutex
	wg     sync.WaitGroup
	stop   chan struct{}
	closed bool
}

// New creates a Simulator.
func New(bus *eventbus.Bus, arrivals Arrivals, log logger.Logger, cfg Config) *Simulator {
	cfg.SetDefaults()
	return &Simulator{
		bus:      bus,
		arrivals: arrivals,
		log:      log,
		cfg:      cfg,
		stop:     make(chan struct{}),
	}
}

// StartTransit launches the position feed for a new dispatch.
func (s *Simulator) StartTransit(d model.Dispatch, req *model.EmergencyRequest, dest model.Location) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	go s.run(d, req, dest)
}

func (s *Simulator) run(d model.Dispatch, req *model.EmergencyRequest, dest model.Location) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()
	origin := req.Location
	for step := 1; step <= s.cfg.Steps; step++ {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}
		frac := float64(step) / float64(s.cfg.Steps)
		events.Publish(s.bus, events.TransitUpdate{
			DispatchID:  d.ID,
			RequestID:   d.RequestID,
			RequesterID: req.RequesterID,
			HolderID:    req.HolderID,
			Lat:         origin.Lat + (dest.Lat-origin.Lat)*frac,
			Lng:         origin.Lng + (dest.Lng-origin.Lng)*frac,
			Progress:    int(frac * 100),
		})
	}
	if s.arrivals != nil {
		if err := s.arrivals.MarkArrived(context.Background(), d.ID, d.RequestID); err != nil {
			s.log.Errorf("transit %s: mark arrived: %v", d.ID, err)
		}
	}
}

// Close stops all running feeds and waits for them to exit.
func (s *Simulator) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.stop)
	s.mu.Unlock()
	s.wg.Wait()
}
