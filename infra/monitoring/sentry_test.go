package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/evdash/core/monitoring"
)

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(Config{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestNewSentryMonitorInvalidDSN(t *testing.T) {
	_, err := NewSentryMonitor(Config{DSN: "not a dsn"})
	assert.Error(t, err)
}

func TestSentryMonitorCapture(t *testing.T) {
	m, err := NewSentryMonitor(Config{DSN: "https://public@127.0.0.1:1/1", Environment: "test"})
	require.NoError(t, err)
	m.CaptureException(nil, nil)
	m.CaptureException(errors.New("subscribe failed"), map[string]string{"topic": "live/#"})
	m.Flush(10 * time.Millisecond)
}
