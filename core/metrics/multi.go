package metrics

import (
	"errors"

	"github.com/kilianp07/evdash/core/telemetry"
)

// MultiSink fans out records to multiple sinks. Every sink receives every
// record; failures are joined. Optional recorder interfaces are forwarded only
// to the sinks implementing them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordReading forwards the reading to all sinks.
func (m *MultiSink) RecordReading(r telemetry.Reading) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordReading(r))
	}
	return errors.Join(errs...)
}

// RecordMessage forwards message outcomes.
func (m *MultiSink) RecordMessage(topic string, result Result) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(MessageRecorder); ok {
			errs = append(errs, rec.RecordMessage(topic, result))
		}
	}
	return errors.Join(errs...)
}

// RecordCommand forwards command events.
func (m *MultiSink) RecordCommand(ev CommandEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(CommandRecorder); ok {
			errs = append(errs, rec.RecordCommand(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordSnapshot forwards state snapshots.
func (m *MultiSink) RecordSnapshot(st telemetry.State) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(SnapshotRecorder); ok {
			errs = append(errs, rec.RecordSnapshot(st))
		}
	}
	return errors.Join(errs...)
}

// RecordStream forwards bus statistics.
func (m *MultiSink) RecordStream(subscribers int, dropped uint64) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(StreamRecorder); ok {
			errs = append(errs, rec.RecordStream(subscribers, dropped))
		}
	}
	return errors.Join(errs...)
}

// Close releases the sinks that hold resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
