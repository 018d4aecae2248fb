package simulator

import (
	"fmt"

	"github.com/kilianp07/evdash/core/telemetry"
)

// Config holds parameters for the simulator.
type Config struct {
	Prefix          string  `json:"prefix"`
	IntervalMS      int     `json:"interval_ms"`
	Profile         string  `json:"profile"`
	CapacityKWh     float64 `json:"capacity_kwh"`
	ChargeRateKW    float64 `json:"charge_rate_kw"`
	DischargeRateKW float64 `json:"discharge_rate_kw"`
	InitialSoC      float64 `json:"initial_soc"`
	ChargeBelow     float64 `json:"charge_below"`
	ChargeUntil     float64 `json:"charge_until"`
	CenterLatitude  float64 `json:"center_latitude"`
	CenterLongitude float64 `json:"center_longitude"`
	RadiusM         float64 `json:"radius_m"`
	SpeedKmh        float64 `json:"speed_kmh"`
	Seed            int64   `json:"seed"`
}

// SetDefaults applies the battery profile and fills unset fields.
func (c *Config) SetDefaults() {
	c.applyProfile()
	if c.Prefix == "" {
		c.Prefix = telemetry.DefaultPrefix
	}
	if c.IntervalMS <= 0 {
		c.IntervalMS = 1000
	}
	if c.CapacityKWh == 0 {
		c.CapacityKWh = 5.2
	}
	if c.ChargeRateKW == 0 {
		c.ChargeRateKW = 1.5
	}
	if c.DischargeRateKW == 0 {
		c.DischargeRateKW = 10
	}
	if c.InitialSoC == 0 {
		c.InitialSoC = 0.8
	}
	if c.ChargeBelow == 0 {
		c.ChargeBelow = 0.2
	}
	if c.ChargeUntil == 0 {
		c.ChargeUntil = 0.9
	}
	if c.CenterLatitude == 0 && c.CenterLongitude == 0 {
		c.CenterLatitude = telemetry.DefaultLatitude
		c.CenterLongitude = telemetry.DefaultLongitude
	}
	if c.RadiusM == 0 {
		c.RadiusM = 250
	}
	if c.SpeedKmh == 0 {
		c.SpeedKmh = 35
	}
}

// applyProfile sets pack parameters for a predefined battery size. Explicit
// values are kept.
func (c *Config) applyProfile() {
	var capacity, charge, discharge float64
	switch c.Profile {
	case "small":
		capacity, charge, discharge = 2.6, 0.8, 5
	case "medium":
		capacity, charge, discharge = 5.2, 1.5, 10
	case "large":
		capacity, charge, discharge = 10.4, 3.3, 20
	default:
		return
	}
	if c.CapacityKWh == 0 {
		c.CapacityKWh = capacity
	}
	if c.ChargeRateKW == 0 {
		c.ChargeRateKW = charge
	}
	if c.DischargeRateKW == 0 {
		c.DischargeRateKW = discharge
	}
}

// Validate checks the simulation parameters.
func (c Config) Validate() error {
	switch c.Profile {
	case "", "small", "medium", "large":
	default:
		return fmt.Errorf("unknown battery profile %s", c.Profile)
	}
	if c.CapacityKWh <= 0 || c.ChargeRateKW <= 0 || c.DischargeRateKW <= 0 {
		return fmt.Errorf("battery capacity and rates must be positive")
	}
	if c.InitialSoC < 0 || c.InitialSoC > 1 {
		return fmt.Errorf("initial_soc must be within [0,1]")
	}
	if c.ChargeBelow >= c.ChargeUntil || c.ChargeUntil > 1 {
		return fmt.Errorf("charge_below must be lower than charge_until, both within [0,1]")
	}
	if c.RadiusM <= 0 || c.SpeedKmh < 0 {
		return fmt.Errorf("radius_m must be positive and speed_kmh not negative")
	}
	return nil
}
