package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/evdash/core/metrics"
	"github.com/kilianp07/evdash/infra/logger"
	"github.com/kilianp07/evdash/infra/monitoring"
	"github.com/kilianp07/evdash/infra/mqtt"
	"github.com/kilianp07/evdash/simulator"
)

// EnvPrefix marks environment overrides, e.g. EVDASH_MQTT__BROKER.
const EnvPrefix = "EVDASH_"

// Config is the full evdash configuration, one field per file section.
type Config struct {
	MQTT      mqtt.Config       `json:"mqtt"`
	HTTP      HTTPConfig        `json:"http"`
	Dashboard DashboardConfig   `json:"dashboard"`
	Metrics   metrics.Config    `json:"metrics"`
	Logging   logger.Config     `json:"logging"`
	Sentry    monitoring.Config `json:"sentry"`
	Simulator simulator.Config  `json:"simulator"`
}

// Load reads the YAML or JSON file at path, applies environment overrides and
// defaults, then validates every section. An empty path loads defaults and
// environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps EVDASH_SECTION__KEY to section.key.
func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.MQTT.SetDefaults()
	c.HTTP.SetDefaults()
	c.Dashboard.SetDefaults()
	c.Logging.SetDefaults()
	if c.Simulator.Prefix == "" {
		c.Simulator.Prefix = c.Dashboard.Prefix
	}
	c.Simulator.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := c.Dashboard.Validate(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Simulator.Validate(); err != nil {
		return fmt.Errorf("simulator: %w", err)
	}
	return nil
}
