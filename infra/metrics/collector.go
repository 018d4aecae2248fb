package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/evdash/core/metrics"
	"github.com/kilianp07/evdash/core/telemetry"
	"github.com/kilianp07/evdash/infra/logger"
	"github.com/kilianp07/evdash/internal/eventbus"
)

// StartEventCollector subscribes to the update bus and records every applied
// reading, the resulting snapshot and the bus fan-out statistics. It stops when the context is canceled
// or the bus is closed.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[telemetry.Update], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	snap, _ := sink.(coremetrics.SnapshotRecorder)
	stream, _ := sink.(coremetrics.StreamRecorder)
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case up, ok := <-sub:
				if !ok {
					return
				}
				if up.Reading != nil {
					if err := sink.RecordReading(*up.Reading); err != nil {
						log.Warnf("record reading %s: %v", up.Reading.Topic, err)
					}
				}
				if snap != nil {
					if err := snap.RecordSnapshot(up.State); err != nil {
						log.Warnf("record snapshot: %v", err)
					}
				}
				if stream != nil {
					if err := stream.RecordStream(bus.Subscribers(), bus.Dropped()); err != nil {
						log.Warnf("record stream: %v", err)
					}
				}
			}
		}
	}()
	return done
}
