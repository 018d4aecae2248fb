package telemetry

import "time"

// Default map centre and zoom used before the first position fix.
const (
	DefaultLatitude  = 48.4
	DefaultLongitude = -123.3
	DefaultZoom      = 16
)

// SeriesCells is the number of cells wired in series in the traction pack.
const SeriesCells = 20

// Position is a WGS84 coordinate.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Viewport is the centre and zoom of the map widget.
type Viewport struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
}

// Preferences are the user toggles of the dashboard. They are not persisted.
type Preferences struct {
	DarkMode   bool `json:"dark_mode"`
	AutoCenter bool `json:"auto_center"`
	NorthUp    bool `json:"north_up"`
}

// DefaultPreferences returns the toggles the dashboard starts with.
func DefaultPreferences() Preferences {
	return Preferences{DarkMode: true, AutoCenter: true}
}

// State is the latest known value of every telemetry channel.
type State struct {
	Altitude         float64   `json:"altitude"`
	Speed            float64   `json:"speed"`
	Bearing          float64   `json:"bearing"`
	Position         Position  `json:"position"`
	PackVoltage      float64   `json:"pack_voltage"`
	PackCurrent      float64   `json:"pack_current"`
	LowCellVoltage   float64   `json:"low_cell_voltage"`
	MeanCellVoltage  float64   `json:"mean_cell_voltage"`
	HighCellVoltage  float64   `json:"high_cell_voltage"`
	StateOfCharge    float64   `json:"state_of_charge"`
	PackKwhCurrent   float64   `json:"pack_kwh_current"`
	PackKwhMax       float64   `json:"pack_kwh_max"`
	ChargeState      string    `json:"charge_state"`
	ChargePlugState  string    `json:"charge_plug_state"`
	ChargeKwh        float64   `json:"charge_kwh"`
	PackLowTemp      float64   `json:"pack_low_temp"`
	PackHighTemp     float64   `json:"pack_high_temp"`
	ThrottlePointer  float64   `json:"throttle_pointer"`
	ThrottlePosition float64   `json:"throttle_position"`
	ThrottleMax      float64   `json:"throttle_max"`
	SolarPower       float64   `json:"solar_power"`
	CurrentHistory   []float64 `json:"current_history"`

	Preferences Preferences `json:"preferences"`
	Viewport    Viewport    `json:"viewport"`

	UpdatedAt time.Time `json:"updated_at"`
	Messages  uint64    `json:"messages"`
}

// NewState returns a zeroed state centred on the given coordinate.
func NewState(center Viewport) State {
	return State{
		Position:       Position{Latitude: center.Latitude, Longitude: center.Longitude},
		Viewport:       center,
		Preferences:    DefaultPreferences(),
		CurrentHistory: []float64{},
	}
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	c := s
	c.CurrentHistory = append(make([]float64, 0, len(s.CurrentHistory)), s.CurrentHistory...)
	return c
}
