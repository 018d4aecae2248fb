package config

import (
	"fmt"
	"strings"

	"github.com/kilianp07/evdash/core/telemetry"
)

// DashboardConfig defines the telemetry topic space and the map defaults.
type DashboardConfig struct {
	Prefix          string  `json:"prefix"`
	CenterLatitude  float64 `json:"center_latitude"`
	CenterLongitude float64 `json:"center_longitude"`
	Zoom            float64 `json:"zoom"`
	// StreamBuffer is the number of updates a live stream client may lag
	// behind before updates are dropped for it.
	StreamBuffer int `json:"stream_buffer"`
}

// SetDefaults applies sane defaults.
func (c *DashboardConfig) SetDefaults() {
	c.Prefix = strings.Trim(c.Prefix, "/")
	if c.Prefix == "" {
		c.Prefix = telemetry.DefaultPrefix
	}
	if c.CenterLatitude == 0 && c.CenterLongitude == 0 {
		c.CenterLatitude = telemetry.DefaultLatitude
		c.CenterLongitude = telemetry.DefaultLongitude
	}
	if c.Zoom == 0 {
		c.Zoom = telemetry.DefaultZoom
	}
	if c.StreamBuffer <= 0 {
		c.StreamBuffer = 32
	}
}

// Validate checks the map defaults.
func (c DashboardConfig) Validate() error {
	if c.CenterLatitude < -90 || c.CenterLatitude > 90 || c.CenterLongitude < -180 || c.CenterLongitude > 180 {
		return fmt.Errorf("invalid centre %.6f,%.6f", c.CenterLatitude, c.CenterLongitude)
	}
	if c.Zoom < 0 || c.Zoom > 22 {
		return fmt.Errorf("zoom must be within [0,22]")
	}
	if strings.ContainsAny(c.Prefix, "#+") {
		return fmt.Errorf("prefix must not contain wildcards")
	}
	return nil
}
