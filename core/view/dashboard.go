package view

import (
	"time"

	"github.com/kilianp07/evdash/core/telemetry"
)

// PlugDisconnected hides the charging panel.
const PlugDisconnected = "Disconnected"

// Gauge is a value with its display range.
type Gauge struct {
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Unit  string  `json:"unit"`
}

// Readout is a formatted label/value pair.
type Readout struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// ChargingPanel summarises the charger state.
type ChargingPanel struct {
	Visible   bool   `json:"visible"`
	State     string `json:"state"`
	PlugState string `json:"plug_state"`
	Charged   string `json:"charged"`
}

// Theme selects the palette.
type Theme struct {
	Mode string `json:"mode"`
}

// Buttons holds the labels of the toggle buttons, which name the action they
// will perform.
type Buttons struct {
	Center      string `json:"center"`
	Theme       string `json:"theme"`
	Orientation string `json:"orientation"`
}

// Dashboard is the full display model for one frame.
type Dashboard struct {
	Power         Gauge                 `json:"power"`
	Speed         Gauge                 `json:"speed"`
	Throttle      Gauge                 `json:"throttle"`
	StateOfCharge SoCIndicator          `json:"state_of_charge"`
	Readouts      []Readout             `json:"readouts"`
	Charging      ChargingPanel         `json:"charging"`
	Map           MapView               `json:"map"`
	Theme         Theme                 `json:"theme"`
	Buttons       Buttons               `json:"buttons"`
	Current       HistorySummary        `json:"current"`
	Preferences   telemetry.Preferences `json:"preferences"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// Build derives the dashboard from a state snapshot.
func Build(s telemetry.State) Dashboard {
	return Dashboard{
		Power:         Gauge{Value: PowerGauge(s.PackVoltage, s.PackCurrent), Max: PowerGaugeMax, Unit: "kW"},
		Speed:         Gauge{Value: SpeedGauge(s.Speed), Max: SpeedGaugeMax, Unit: "km/h"},
		Throttle:      Gauge{Value: ThrottlePercent(s.ThrottlePointer, s.ThrottleMax), Max: 100, Unit: "%"},
		StateOfCharge: StateOfCharge(s.StateOfCharge),
		Readouts:      readouts(s),
		Charging:      charging(s),
		Map:           Map(s),
		Theme:         theme(s.Preferences),
		Buttons:       buttons(s.Preferences),
		Current:       Summarize(s.CurrentHistory),
		Preferences:   s.Preferences,
		UpdatedAt:     s.UpdatedAt,
	}
}

func readouts(s telemetry.State) []Readout {
	return []Readout{
		{Label: "Voltage", Text: Format(s.PackVoltage, 2) + " V"},
		{Label: "Current", Text: Format(s.PackCurrent, 1) + " A"},
		{Label: "Throttle", Text: Format(s.ThrottlePointer, 0) + " / " + Format(s.ThrottleMax, 0)},
		{Label: "Battery Temp", Text: Format(s.PackLowTemp, 0) + "° / " + Format(s.PackHighTemp, 0) + "°"},
		{Label: "Solar Power", Text: Format(s.SolarPower, 0) + " W"},
	}
}

func charging(s telemetry.State) ChargingPanel {
	return ChargingPanel{
		Visible:   s.ChargePlugState != PlugDisconnected,
		State:     s.ChargeState,
		PlugState: s.ChargePlugState,
		Charged:   Format(s.ChargeKwh, 2) + " kWh",
	}
}

func theme(p telemetry.Preferences) Theme {
	if p.DarkMode {
		return Theme{Mode: "dark"}
	}
	return Theme{Mode: "light"}
}

func buttons(p telemetry.Preferences) Buttons {
	b := Buttons{Center: "Auto Center", Theme: "Dark Mode", Orientation: "North Up"}
	if p.AutoCenter {
		b.Center = "Manual Center"
	}
	if p.DarkMode {
		b.Theme = "Light Mode"
	}
	if p.NorthUp {
		b.Orientation = "Vehicle Up"
	}
	return b
}
