package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerComponentAndLevel(t *testing.T) {
	t.Setenv("APP_ENV", "")
	require.NoError(t, Configure(Config{Level: "warn"}))
	t.Cleanup(func() { _ = Configure(Config{}) })

	var buf bytes.Buffer
	l := newZerolog("dispatcher", &buf)
	l.Infof("dropped")
	l.Warnf("kept %d", 1)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "dispatcher", entry["component"])
	assert.Equal(t, "kept 1", entry["message"])
}

func TestConfigureFileOutput(t *testing.T) {
	t.Setenv("APP_ENV", "")
	path := filepath.Join(t.TempDir(), "evdash.log")
	require.NoError(t, Configure(Config{File: path}))
	t.Cleanup(func() { _ = Configure(Config{}) })

	var buf bytes.Buffer
	newZerolog("file", &buf).Infof("to file")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Contains(t, buf.String(), "to file")
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	assert.Equal(t, "info", cfg.Level)
	assert.NoError(t, cfg.Validate())
	assert.Error(t, Config{Level: "loud"}.Validate())
	assert.Error(t, Configure(Config{Level: "loud"}))
}
