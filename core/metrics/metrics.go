package metrics

import (
	"time"

	"github.com/kilianp07/evdash/core/control"
	"github.com/kilianp07/evdash/core/telemetry"
)

// Result classifies an inbound broker message.
type Result string

const (
	// ResultApplied means the message produced a state transition.
	ResultApplied Result = "applied"
	// ResultInvalid means the payload could not be parsed.
	ResultInvalid Result = "invalid"
	// ResultIgnored means the topic is not part of the telemetry table.
	ResultIgnored Result = "ignored"
)

// MetricsSink records applied telemetry readings.
type MetricsSink interface {
	RecordReading(r telemetry.Reading) error
}

// MessageRecorder counts inbound messages by outcome.
type MessageRecorder interface {
	RecordMessage(topic string, result Result) error
}

// CommandEvent is a display command and the outcome of publishing it.
type CommandEvent struct {
	Topic   string
	Payload string
	Error   string
	Time    time.Time
}

// CommandRecorder records published display commands.
type CommandRecorder interface {
	RecordCommand(ev CommandEvent) error
}

// SnapshotRecorder records derived values of a full state snapshot.
type SnapshotRecorder interface {
	RecordSnapshot(s telemetry.State) error
}

// StreamRecorder records the fan-out state of the live update bus.
type StreamRecorder interface {
	RecordStream(subscribers int, dropped uint64) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordReading(telemetry.Reading) error { return nil }
func (NopSink) RecordMessage(string, Result) error    { return nil }
func (NopSink) RecordCommand(CommandEvent) error      { return nil }
func (NopSink) RecordSnapshot(telemetry.State) error  { return nil }
func (NopSink) RecordStream(int, uint64) error        { return nil }

// RecordMessage forwards to sink when it counts messages.
func RecordMessage(sink MetricsSink, topic string, result Result) {
	if r, ok := sink.(MessageRecorder); ok {
		_ = r.RecordMessage(topic, result)
	}
}

type commandAdapter struct {
	sink MetricsSink
	now  func() time.Time
}

// ControlRecorder adapts sink to the control.Recorder interface. Sinks that do
// not record commands are skipped.
func ControlRecorder(sink MetricsSink) control.Recorder {
	return commandAdapter{sink: sink, now: time.Now}
}

func (a commandAdapter) RecordCommand(cmd control.Command, err error) {
	r, ok := a.sink.(CommandRecorder)
	if !ok {
		return
	}
	ev := CommandEvent{Topic: cmd.Topic, Payload: cmd.Payload, Time: a.now()}
	if err != nil {
		ev.Error = err.Error()
	}
	_ = r.RecordCommand(ev)
}
