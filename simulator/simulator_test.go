package simulator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evdash/core/telemetry"
)

func TestBatteryApplyPower(t *testing.T) {
	b := &Battery{CapacityKWh: 10, Soc: 0.5, ChargeRateKW: 2, DischargeRateKW: 5}

	assert.Equal(t, 5.0, b.ApplyPower(8, 1))
	assert.InDelta(t, 0.0, b.Soc, 1e-9)
	// empty pack cannot deliver anything
	assert.Equal(t, 0.0, b.ApplyPower(1, 1))

	assert.Equal(t, -2.0, b.ApplyPower(-3, 1))
	assert.InDelta(t, 0.2, b.Soc, 1e-9)

	b.Soc = 0.95
	assert.InDelta(t, -0.5, b.ApplyPower(-2, 1), 1e-9)
	assert.InDelta(t, 1.0, b.Soc, 1e-9)
	assert.Equal(t, 0.0, b.ApplyPower(1, 0))
}

func TestConfigDefaultsAndProfile(t *testing.T) {
	cfg := Config{Profile: "large", ChargeRateKW: 7}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10.4, cfg.CapacityKWh)
	assert.Equal(t, 7.0, cfg.ChargeRateKW)
	assert.Equal(t, "live", cfg.Prefix)
	assert.Equal(t, telemetry.DefaultLatitude, cfg.CenterLatitude)

	bad := Config{Profile: "huge"}
	bad.SetDefaults()
	assert.Error(t, bad.Validate())

	inverted := Config{ChargeBelow: 0.9, ChargeUntil: 0.5}
	inverted.SetDefaults()
	assert.Error(t, inverted.Validate())
}

func TestStepFeedsDispatcher(t *testing.T) {
	sim, err := New(Config{Seed: 1}, nil)
	require.NoError(t, err)
	d := telemetry.NewDispatcher()

	frame := sim.Step(time.Second)
	require.Len(t, frame, 20)
	seen := map[string]bool{}
	for _, m := range frame {
		ok, err := d.Handle(m.Topic, m.Payload)
		require.NoError(t, err, m.Topic)
		require.True(t, ok, m.Topic)
		seen[m.Topic] = true
	}
	assert.Len(t, seen, 20)

	st := d.Snapshot()
	assert.Greater(t, st.Speed, 0.0)
	assert.Less(t, st.PackCurrent, 0.0, "driving draws current")
	assert.InDelta(t, 80, st.StateOfCharge, 1)
	assert.InDelta(t, telemetry.DefaultLatitude, st.Position.Latitude, 0.01)
	assert.Equal(t, "Disconnected", st.ChargePlugState)
	assert.Equal(t, 100.0, st.ThrottleMax)
}

func TestStepChargesWhenLow(t *testing.T) {
	sim, err := New(Config{Seed: 2, InitialSoC: 0.1}, nil)
	require.NoError(t, err)
	frame := sim.Step(time.Minute)
	assert.True(t, sim.Charging())

	values := map[string]string{}
	for _, m := range frame {
		values[strings.TrimPrefix(m.Topic, "live/")] = m.Payload
	}
	assert.Equal(t, "0.0", values[telemetry.TopicSpeed])
	assert.Equal(t, "Active", values[telemetry.TopicChargePlugState])
	assert.Equal(t, "Bulk", values[telemetry.TopicChargeState])
	assert.False(t, strings.HasPrefix(values[telemetry.TopicPackCurrent], "-"), "charging current is positive")
	assert.NotEqual(t, "0.00", values[telemetry.TopicChargeKwh])
}

func TestHeadingFollowsCircle(t *testing.T) {
	sim, err := New(Config{Seed: 3}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 90, sim.heading(), 1e-9)
	lat, lon := sim.position()
	assert.Greater(t, lat, telemetry.DefaultLatitude)
	assert.InDelta(t, telemetry.DefaultLongitude, lon, 1e-9)
}

type recordPublisher struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (r *recordPublisher) Publish(_ context.Context, topic, payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Message{topic, payload})
	return r.err
}

func (r *recordPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func TestRunPublishesUntilCancelled(t *testing.T) {
	pub := &recordPublisher{err: errors.New("flaky")}
	sim, err := New(Config{Seed: 4, IntervalMS: 5}, pub)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	assert.Eventually(t, func() bool { return pub.count() >= 40 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
