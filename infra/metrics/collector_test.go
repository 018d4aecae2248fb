package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evdash/core/telemetry"
	"github.com/kilianp07/evdash/internal/eventbus"
)

type captureSink struct {
	mu        sync.Mutex
	readings  []telemetry.Reading
	snapshots int
}

func (c *captureSink) RecordReading(r telemetry.Reading) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readings = append(c.readings, r)
	return nil
}

func (c *captureSink) RecordSnapshot(telemetry.State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots++
	return nil
}

func (c *captureSink) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.readings), c.snapshots
}

func TestStartEventCollector(t *testing.T) {
	bus := eventbus.NewTyped[telemetry.Update]()
	sink := &captureSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := StartEventCollector(ctx, bus, sink)

	d := telemetry.NewDispatcher(telemetry.WithObserver(func(u telemetry.Update) { bus.Publish(u) }))
	_, err := d.Handle("live/gps/speed", "12")
	require.NoError(t, err)
	_, err = d.Toggle(telemetry.PrefDarkMode)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		r, s := sink.counts()
		return r == 1 && s == 2
	}, time.Second, 5*time.Millisecond)

	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after bus close")
	}
}

func TestStartEventCollectorNilBus(t *testing.T) {
	done := StartEventCollector(context.Background(), nil, &captureSink{})
	_, open := <-done
	assert.False(t, open)
}

type streamSink struct {
	captureSink
	subscribers int
	dropped     uint64
}

func (s *streamSink) RecordStream(subscribers int, dropped uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers, s.dropped = subscribers, dropped
	return nil
}

func (s *streamSink) stream() (int, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribers, s.dropped
}

func TestStartEventCollectorRecordsBusStats(t *testing.T) {
	bus := eventbus.NewTypedWithBuffer[telemetry.Update](1)
	sink := &streamSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := StartEventCollector(ctx, bus, sink)

	// never drained: everything past its one-slot buffer is dropped
	stalled := bus.Subscribe()
	defer bus.Unsubscribe(stalled)
	assert.Eventually(t, func() bool {
		bus.Publish(telemetry.Update{})
		subs, dropped := sink.stream()
		return subs == 2 && dropped >= 3
	}, time.Second, 5*time.Millisecond)

	bus.Close()
	<-done
}
