package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `mqtt:
  broker: "ws://broker.local:9001"
  username: "dash"
  qos:
    telemetry: 1
http:
  addr: "127.0.0.1:9090"
  token: "secret"
dashboard:
  prefix: "/car/"
  zoom: 14
metrics:
  sinks:
    - type: "prometheus"
    - type: "influx"
      conf:
        url: "http://influx:8086"
        bucket: "telemetry"
logging:
  level: "debug"
sentry:
  dsn: "https://key@sentry.example/1"
simulator:
  profile: "small"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"broker", cfg.MQTT.Broker, "ws://broker.local:9001"},
		{"username", cfg.MQTT.Username, "dash"},
		{"qos", cfg.MQTT.QoS["telemetry"], byte(1)},
		{"keep_alive default", cfg.MQTT.KeepAliveSeconds, 20},
		{"addr", cfg.HTTP.Addr, "127.0.0.1:9090"},
		{"token", cfg.HTTP.Token, "secret"},
		{"prefix trimmed", cfg.Dashboard.Prefix, "car"},
		{"zoom", cfg.Dashboard.Zoom, 14.0},
		{"centre default", cfg.Dashboard.CenterLatitude, 48.4},
		{"sinks", len(cfg.Metrics.Sinks), 2},
		{"influx bucket", cfg.Metrics.Sinks[1].Conf["bucket"], "telemetry"},
		{"log level", cfg.Logging.Level, "debug"},
		{"sentry", cfg.Sentry.DSN, "https://key@sentry.example/1"},
		{"sim capacity", cfg.Simulator.CapacityKWh, 2.6},
		{"sim prefix", cfg.Simulator.Prefix, "car"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"http":{"addr":":8181"},"dashboard":{"center_latitude":45.5,"center_longitude":-73.6}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8181", cfg.HTTP.Addr)
	assert.Equal(t, 45.5, cfg.Dashboard.CenterLatitude)
	assert.Equal(t, "ws://127.0.0.1:9001", cfg.MQTT.Broker)
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "live", cfg.Dashboard.Prefix)
	assert.Equal(t, 16.0, cfg.Dashboard.Zoom)
	assert.Equal(t, 5, cfg.HTTP.ShutdownSeconds)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("EVDASH_MQTT__BROKER", "ws://env:9001")
	t.Setenv("EVDASH_HTTP__SHUTDOWN_SECONDS", "9")
	cfg, err := Load(writeFile(t, "c.yaml", "mqtt:\n  broker: \"ws://file:9001\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "ws://env:9001", cfg.MQTT.Broker)
	assert.Equal(t, 9, cfg.HTTP.ShutdownSeconds)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "c.toml", ""))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "c.yaml", "http:\n  addr: \"nohostport\"\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "c.yaml", "dashboard:\n  center_latitude: 123\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "c.yaml", "simulator:\n  profile: \"huge\"\n"))
	assert.Error(t, err)
}
