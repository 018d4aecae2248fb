package test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evdash/app"
	"github.com/kilianp07/evdash/config"
	"github.com/kilianp07/evdash/core/factory"
	"github.com/kilianp07/evdash/core/telemetry"
	"github.com/kilianp07/evdash/infra/mqtt"
	"github.com/kilianp07/evdash/simulator"
	"github.com/kilianp07/evdash/test/util"
)

func startBroker(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("mosquitto unavailable: %v", err)
	}
	t.Cleanup(cleanup)
	return broker
}

func getJSON(url string, v any) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(v)
}

func TestSimulatorToDashboard(t *testing.T) {
	broker := startBroker(t)

	cfg := &config.Config{}
	cfg.MQTT.Broker = broker
	cfg.Simulator.IntervalMS = 50
	cfg.Simulator.Seed = 7
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "prometheus"}}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	svc, err := app.New(cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx, ln) }()

	pub, err := mqtt.NewSession(cfg.MQTT, "", nil)
	require.NoError(t, err)
	defer func() { _ = pub.Close() }()
	sim, err := simulator.New(cfg.Simulator, pub)
	require.NoError(t, err)
	go func() { _ = sim.Run(ctx) }()

	base := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		var s telemetry.State
		return getJSON(base+"/api/state", &s) == nil && s.Messages > 20 && s.StateOfCharge > 0
	}, 10*time.Second, 100*time.Millisecond)

	mctx, mcancel := context.WithTimeout(ctx, util.MetricTimeout)
	defer mcancel()
	assert.NoError(t, util.WaitForMetric(mctx, base+"/metrics", `evdash_messages_total{result="applied"}`))

	var health struct {
		Status string `json:"status"`
	}
	require.NoError(t, getJSON(base+"/healthz", &health))
	assert.Equal(t, "ok", health.Status)
}

func TestDisplayCommandRoundTrip(t *testing.T) {
	broker := startBroker(t)

	got := make(chan string, 16)
	cfg := mqtt.Config{Broker: broker}
	sub, err := mqtt.NewSession(cfg, "display/control/#", func(topic, payload string) {
		select {
		case got <- topic + "=" + payload:
		default:
		}
	})
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	pub, err := mqtt.NewSession(cfg, "", nil)
	require.NoError(t, err)
	defer func() { _ = pub.Close() }()

	// the subscription is made asynchronously on connect
	var msg string
	require.Eventually(t, func() bool {
		if err := pub.Publish(context.Background(), "display/control/brightness", "60"); err != nil {
			return false
		}
		select {
		case msg = <-got:
			return true
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 50*time.Millisecond)
	assert.Equal(t, "display/control/brightness=60", msg)
}
