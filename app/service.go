package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	batteryapi "github.com/kilianp07/battsim/api/battery"
	"github.com/kilianp07/battsim/config"
	"github.com/kilianp07/battsim/core/control"
	"github.com/kilianp07/battsim/core/journal"
	coremetrics "github.com/kilianp07/battsim/core/metrics"
	"github.com/kilianp07/battsim/core/simulator"
	"github.com/kilianp07/battsim/infra/logger"
	"github.com/kilianp07/battsim/infra/metrics"
	"github.com/kilianp07/battsim/infra/mqtt"
)

// Service wires the simulator to its HTTP API, MQTT bridge, metrics sinks
// and schedule.
type Service struct {
	Sim        *simulator.Simulator
	Controller *control.Controller

	cfg    *config.Config
	sink   coremetrics.MetricsSink
	client *mqtt.PahoClient
	store  journal.Store
	log    logger.Logger

	// ctx bounds background work started on behalf of requests.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Service from the configuration. It connects to the MQTT
// broker when one is configured.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	opts := []simulator.Option{
		simulator.WithLogger(logger.New("simulator")),
		simulator.WithDefaults(cfg.Simulator.DefaultDuration(), cfg.Simulator.DefaultSteps),
	}
	if rr, ok := sink.(coremetrics.RampRecorder); ok {
		opts = append(opts, simulator.WithRampRecorder(rr))
	}
	sim, err := simulator.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	svc := &Service{
		Sim:        sim,
		Controller: control.New(ctx, sim, logger.New("control")),
		cfg:        cfg,
		sink:       sink,
		log:        logg,
		ctx:        ctx,
		cancel:     cancel,
	}
	if cfg.Journal.Enabled() {
		store, err := journal.NewStore(cfg.Journal.Store)
		if err != nil {
			cancel()
			return nil, err
		}
		svc.store = store
	}
	if cfg.MQTT.Enabled() {
		client, err := mqtt.NewPahoClient(cfg.MQTT, svc.Controller.Execute)
		if err != nil {
			cancel()
			if svc.store != nil {
				_ = svc.store.Close()
			}
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.client = client
	}
	return svc, nil
}

// Handler returns the battery HTTP API.
func (s *Service) Handler() http.Handler {
	return batteryapi.NewHandler(s.Sim, s.Controller, s.store, s.cfg.HTTP.Token)
}

// Run starts the service and blocks until the context is cancelled or the
// HTTP server fails.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.Sim.Acquire(), s.sink)
	if s.store != nil {
		journal.StartRecorder(ctx, s.Sim.Acquire(), s.store, logger.New("journal"))
	}

	if addr := s.cfg.Metrics.PrometheusAddress; addr != "" && s.cfg.Metrics.HasSink("prometheus") {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	if s.client != nil {
		bridge := mqtt.NewBridge(s.client, logger.New("mqtt_bridge"))
		go func() {
			if err := bridge.Run(ctx, s.Sim.Acquire()); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Errorf("mqtt bridge: %v", err)
			}
		}()
	}

	if s.cfg.Schedule.Enabled() {
		sched, _, err := StartSchedule(ctx, s.Sim, s.cfg.Schedule.IntervalSeconds, logger.New("schedule"))
		if err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
		defer sched.Stop()
		s.log.Infof("simulation scheduled every %s", s.cfg.Schedule.Interval())
	}

	errCh := make(chan error, 1)
	if s.cfg.HTTP.Enabled() {
		srv := &http.Server{Addr: s.cfg.HTTP.Address, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			s.log.Infof("battery API listening on %s", s.cfg.HTTP.Address)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.log.Errorf("http shutdown: %v", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Close stops background sequences and disconnects from the broker.
func (s *Service) Close() error {
	s.cancel()
	s.Controller.Wait()
	if s.client != nil {
		s.client.Disconnect()
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
