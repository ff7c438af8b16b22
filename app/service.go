// Package app wires the coordinator together from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/api/emergency"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/config"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/allocation"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/ledger"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/reconciler"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/storage"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/transit"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/journal"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/logger"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/mqtt"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/store"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/internal/eventbus"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/metrics"
)

// Service orchestrates the ledger, allocation engine, reconciler, transit
// feed and the outward-facing surfaces.
type Service struct {
	Engine  *allocation.Engine
	Ledger  *ledger.Ledger
	bus     *eventbus.Bus
	store   storage.Store
	rec     *reconciler.Reconciler
	sim     *transit.Simulator
	bridge  *mqtt.Bridge
	pub     mqtt.Publisher
	journal *journal.Journal
	cfg     *config.Config
	log     logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	led := ledger.New(st, logger.New("ledger"))
	if err := led.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	var sinks []metrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(nil)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink metrics.Sink = metrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	eng, err := allocation.New(led, st, bus, sink, logger.New("allocation"), cfg.Dispatch.Engine())
	if err != nil {
		return nil, fmt.Errorf("allocation engine: %w", err)
	}
	sim := transit.New(bus, eng, logger.New("transit"), cfg.Transit.Feed())
	eng.SetTransitFeed(sim)
	rec := reconciler.New(eng, led, cfg.Reconciler.Interval(), logger.New("reconciler"))

	svc := &Service{
		Engine: eng,
		Ledger: led,
		bus:    bus,
		store:  st,
		rec:    rec,
		sim:    sim,
		cfg:    cfg,
		log:    logg,
	}
	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.pub = pub
		svc.bridge = mqtt.NewBridge(bus, pub, logger.New("mqtt-bridge"), "")
	}
	if cfg.Journal.Enabled {
		svc.journal = journal.New(bus, logger.New("journal"), cfg.Journal)
	}
	return svc, nil
}

// Run starts the background workers and the HTTP API, blocking until the
// context is canceled.
func (s *Service) Run(ctx context.Context) error {
	go s.rec.Run(ctx)
	if s.bridge != nil {
		go s.bridge.Run(ctx)
	}
	if s.journal != nil {
		go s.journal.Run(ctx)
	}
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	handler := emergency.NewHandler(s.Engine, s.Ledger, logger.New("api"))
	srv := &http.Server{Addr: s.cfg.API.Addr, Handler: handler.Routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("coordinator listening on %s", s.cfg.API.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.sim.Close()
	s.bus.Close()
	if s.pub != nil {
		s.pub.Disconnect()
	}
	return s.store.Close()
}
