package config

import (
	"fmt"
	"net"
)

// HTTPConfig defines the dashboard HTTP server.
type HTTPConfig struct {
	Addr string `json:"addr"`
	// Token protects the control and preference endpoints when set.
	Token           string   `json:"token"`
	AllowedOrigins  []string `json:"allowed_origins"`
	ShutdownSeconds int      `json:"shutdown_seconds"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ShutdownSeconds <= 0 {
		c.ShutdownSeconds = 5
	}
}

// Validate checks the listen address.
func (c HTTPConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid addr %q: %w", c.Addr, err)
	}
	return nil
}
