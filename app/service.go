package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/kilianp07/evdash/api/dashboard"
	"github.com/kilianp07/evdash/config"
	"github.com/kilianp07/evdash/core/control"
	coremetrics "github.com/kilianp07/evdash/core/metrics"
	coremqtt "github.com/kilianp07/evdash/core/mqtt"
	"github.com/kilianp07/evdash/core/telemetry"
	"github.com/kilianp07/evdash/infra/logger"
	"github.com/kilianp07/evdash/infra/metrics"
	"github.com/kilianp07/evdash/infra/mqtt"
	"github.com/kilianp07/evdash/internal/eventbus"
)

var newSession = func(cfg mqtt.Config, topic string, h coremqtt.Handler) (coremqtt.Session, error) {
	return mqtt.NewSession(cfg, topic, h)
}

// Service wires the broker session, the telemetry dispatcher and the
// dashboard HTTP server.
type Service struct {
	Dispatcher *telemetry.Dispatcher
	Controller *control.Controller
	Session    coremqtt.Session

	bus      *eventbus.TypedBus[telemetry.Update]
	sink     coremetrics.MetricsSink
	server   *http.Server
	shutdown time.Duration
	log      logger.Logger
}

// New creates a Service from the configuration and connects to the broker.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	bus := eventbus.NewTypedWithBuffer[telemetry.Update](cfg.Dashboard.StreamBuffer)
	disp := telemetry.NewDispatcher(
		telemetry.WithPrefix(cfg.Dashboard.Prefix),
		telemetry.WithDefaultCenter(cfg.Dashboard.CenterLatitude, cfg.Dashboard.CenterLongitude, cfg.Dashboard.Zoom),
		telemetry.WithObserver(bus.Publish),
	)

	svc := &Service{
		Dispatcher: disp,
		bus:        bus,
		sink:       sink,
		shutdown:   time.Duration(cfg.HTTP.ShutdownSeconds) * time.Second,
		log:        logg,
	}

	session, err := newSession(cfg.MQTT, telemetry.Wildcard(disp.Prefix()), svc.ingest)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("mqtt session: %w", err)
	}
	svc.Session = session
	svc.Controller = control.NewController(session, coremetrics.ControlRecorder(sink))

	svc.server = &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: dashboard.NewRouter(dashboard.Deps{
			State:          disp,
			Preferences:    disp,
			Commander:      svc.Controller,
			Bus:            bus,
			Broker:         session,
			Token:          cfg.HTTP.Token,
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return svc, nil
}

// ingest applies one broker message and counts its outcome.
func (s *Service) ingest(topic, payload string) {
	applied, err := s.Dispatcher.Handle(topic, payload)
	switch {
	case err != nil:
		s.log.Warnf("invalid telemetry: %v", err)
		coremetrics.RecordMessage(s.sink, topic, coremetrics.ResultInvalid)
	case applied:
		coremetrics.RecordMessage(s.sink, topic, coremetrics.ResultApplied)
	default:
		s.log.Debugf("ignored topic %s", topic)
		coremetrics.RecordMessage(s.sink, topic, coremetrics.ResultIgnored)
	}
}

// Handler returns the dashboard HTTP handler.
func (s *Service) Handler() http.Handler { return s.server.Handler }

// Run serves the dashboard and records metrics until the context is
// cancelled, then shuts the HTTP server down gracefully.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	collected := metrics.StartEventCollector(ctx, s.bus, s.sink)
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("dashboard listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("http shutdown: %v", err)
	}
	s.bus.Close()
	<-collected
	return runErr
}

// Close disconnects from the broker and releases the metrics sink.
func (s *Service) Close() error {
	s.bus.Close()
	err := s.Session.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return err
}
