package metrics

import (
	"sync"

	coremetrics "github.com/kilianp07/evdash/core/metrics"
	"github.com/kilianp07/evdash/core/telemetry"
	"github.com/kilianp07/evdash/core/view"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink exposes the live vehicle state as Prometheus metrics.
type PromSink struct {
	values     *prometheus.GaugeVec
	messages   *prometheus.CounterVec
	commands   *prometheus.CounterVec
	history    prometheus.Gauge
	power      prometheus.Gauge
	lastUpdate prometheus.Gauge
	streamSubs prometheus.Gauge
	streamDrop prometheus.Counter

	mu          sync.Mutex
	seenDropped uint64
}

// NewPromSink registers telemetry metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	values, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evdash_telemetry_value",
		Help: "Latest numeric value received per telemetry channel",
	}, []string{"channel"}))
	if err != nil {
		return nil, err
	}
	messages, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evdash_messages_total",
		Help: "Inbound broker messages by outcome",
	}, []string{"result"}))
	if err != nil {
		return nil, err
	}
	commands, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evdash_commands_total",
		Help: "Display commands published by topic and status",
	}, []string{"topic", "status"}))
	if err != nil {
		return nil, err
	}
	history, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "evdash_current_history_samples",
		Help: "Number of samples in the pack current history window",
	}))
	if err != nil {
		return nil, err
	}
	power, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "evdash_pack_power_kw",
		Help: "Pack power in kW, positive while discharging",
	}))
	if err != nil {
		return nil, err
	}
	lastUpdate, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "evdash_last_update_timestamp_seconds",
		Help: "Unix time of the last applied telemetry message",
	}))
	if err != nil {
		return nil, err
	}
	streamSubs, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "evdash_stream_subscribers",
		Help: "Subscribers of the live update bus, recorders included",
	}))
	if err != nil {
		return nil, err
	}
	streamDrop, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "evdash_stream_dropped_total",
		Help: "Updates skipped for subscribers that were not keeping up",
	}))
	if err != nil {
		return nil, err
	}
	return &PromSink{
		values:     values,
		messages:   messages,
		commands:   commands,
		history:    history,
		power:      power,
		lastUpdate: lastUpdate,
		streamSubs: streamSubs,
		streamDrop: streamDrop,
	}, nil
}

// register adds c to reg, reusing the existing collector when one with the
// same descriptor is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// RecordReading sets the channel gauge. Text readings are skipped.
func (s *PromSink) RecordReading(r telemetry.Reading) error {
	if !r.Numeric {
		return nil
	}
	s.values.WithLabelValues(r.Topic).Set(r.Value)
	return nil
}

// RecordMessage increments the message counter for result.
func (s *PromSink) RecordMessage(_ string, result coremetrics.Result) error {
	s.messages.WithLabelValues(string(result)).Inc()
	return nil
}

// RecordCommand increments the command counter.
func (s *PromSink) RecordCommand(ev coremetrics.CommandEvent) error {
	status := "ok"
	if ev.Error != "" {
		status = "error"
	}
	s.commands.WithLabelValues(ev.Topic, status).Inc()
	return nil
}

// RecordSnapshot updates the gauges derived from the full state.
func (s *PromSink) RecordSnapshot(st telemetry.State) error {
	s.history.Set(float64(len(st.CurrentHistory)))
	s.power.Set(view.Power(st.PackVoltage, st.PackCurrent))
	if !st.UpdatedAt.IsZero() {
		s.lastUpdate.Set(float64(st.UpdatedAt.UnixNano()) / 1e9)
	}
	return nil
}

// RecordStream sets the subscriber gauge and adds the drops seen since the
// previous call.
func (s *PromSink) RecordStream(subscribers int, dropped uint64) error {
	s.streamSubs.Set(float64(subscribers))
	s.mu.Lock()
	defer s.mu.Unlock()
	if dropped > s.seenDropped {
		s.streamDrop.Add(float64(dropped - s.seenDropped))
		s.seenDropped = dropped
	}
	return nil
}
