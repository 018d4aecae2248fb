package telemetry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Reading is a single applied telemetry value.
type Reading struct {
	Topic   string    `json:"topic"`
	Value   float64   `json:"value"`
	Text    string    `json:"text,omitempty"`
	Numeric bool      `json:"numeric"`
	Time    time.Time `json:"time"`
}

// Update is emitted after every applied transition. Reading is nil for user
// actions such as preference toggles or viewport moves.
type Update struct {
	Reading *Reading `json:"reading,omitempty"`
	State   State    `json:"state"`
}

// Observer receives updates in the order they were applied. It is called while
// the dispatcher lock is held and must neither block nor call back into the
// dispatcher.
type Observer func(Update)

type transition func(s *State, payload string) (Reading, error)

// Dispatcher reduces broker messages and user actions into a single State.
// All mutations are serialised by one mutex.
type Dispatcher struct {
	mu       sync.Mutex
	state    State
	table    map[string]transition
	prefix   string
	center   Viewport
	now      func() time.Time
	observer Observer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPrefix sets the topic prefix stripped before table lookup.
func WithPrefix(prefix string) Option {
	return func(d *Dispatcher) { d.prefix = strings.Trim(prefix, "/") }
}

// WithDefaultCenter sets the initial map centre and the zoom used when the map
// follows the vehicle.
func WithDefaultCenter(lat, lon, zoom float64) Option {
	return func(d *Dispatcher) { d.center = Viewport{Latitude: lat, Longitude: lon, Zoom: zoom} }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithObserver registers the update observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// NewDispatcher creates a dispatcher with an empty state.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		prefix: DefaultPrefix,
		center: Viewport{Latitude: DefaultLatitude, Longitude: DefaultLongitude, Zoom: DefaultZoom},
		now:    time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	d.state = NewState(d.center)
	d.table = d.transitions()
	return d
}

// Prefix returns the topic prefix handled by the dispatcher.
func (d *Dispatcher) Prefix() string { return d.prefix }

// Topics lists the relative topics the dispatcher understands.
func (d *Dispatcher) Topics() []string {
	out := make([]string, 0, len(d.table))
	for t := range d.table {
		out = append(out, t)
	}
	return out
}

// Handle applies the transition registered for topic. Unknown topics are
// ignored and report false. A payload that cannot be parsed leaves the state
// unchanged and returns an error wrapping ErrInvalidPayload.
func (d *Dispatcher) Handle(topic, payload string) (bool, error) {
	rel, ok := d.relative(topic)
	if !ok {
		return false, nil
	}
	tr, ok := d.table[rel]
	if !ok {
		return false, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	next := d.state
	rd, err := tr(&next, payload)
	if err != nil {
		return false, fmt.Errorf("%s %q: %w", rel, payload, err)
	}
	rd.Topic = rel
	rd.Time = d.now()
	next.UpdatedAt = rd.Time
	next.Messages++
	d.state = next
	d.emit(&rd)
	return true, nil
}

// Snapshot returns a copy of the current state.
func (d *Dispatcher) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Clone()
}

// Toggle flips a preference and returns the resulting set.
func (d *Dispatcher) Toggle(p Preference) (Preferences, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cur, err := p.get(d.state.Preferences)
	if err != nil {
		return d.state.Preferences, err
	}
	if err := p.set(&d.state.Preferences, !cur); err != nil {
		return d.state.Preferences, err
	}
	d.emit(nil)
	return d.state.Preferences, nil
}

// SetPreference sets a preference to an explicit value.
func (d *Dispatcher) SetPreference(p Preference, v bool) (Preferences, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := p.set(&d.state.Preferences, v); err != nil {
		return d.state.Preferences, err
	}
	d.emit(nil)
	return d.state.Preferences, nil
}

// MoveViewport sets the map centre as done by a user panning the map.
// A zero zoom keeps the current zoom level.
func (d *Dispatcher) MoveViewport(v Viewport) error {
	if !validCoordinate(v.Latitude, v.Longitude) || v.Zoom < 0 || math.IsNaN(v.Zoom) {
		return fmt.Errorf("%w: %.6f,%.6f zoom %.1f", ErrInvalidViewport, v.Latitude, v.Longitude, v.Zoom)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if v.Zoom == 0 {
		v.Zoom = d.state.Viewport.Zoom
	}
	d.state.Viewport = v
	d.emit(nil)
	return nil
}

func (d *Dispatcher) emit(rd *Reading) {
	if d.observer == nil {
		return
	}
	d.observer(Update{Reading: rd, State: d.state.Clone()})
}

func (d *Dispatcher) relative(topic string) (string, bool) {
	if d.prefix == "" {
		return topic, true
	}
	rel, ok := strings.CutPrefix(topic, d.prefix+"/")
	return rel, ok
}

func (d *Dispatcher) transitions() map[string]transition {
	zoom := d.center.Zoom
	return map[string]transition{
		TopicAltitude: numeric(func(s *State, v float64) { s.Altitude = v }),
		TopicSpeed:    numeric(func(s *State, v float64) { s.Speed = v }),
		TopicBearing: numeric(func(s *State, v float64) {
			s.Bearing = s.Bearing*0.5 + v*0.5
		}),
		TopicPosition: func(s *State, payload string) (Reading, error) {
			lat, lon, err := parsePosition(payload)
			if err != nil {
				return Reading{}, err
			}
			s.Position = Position{Latitude: lat, Longitude: lon}
			if s.Preferences.AutoCenter {
				s.Viewport = Viewport{Latitude: lat, Longitude: lon, Zoom: zoom}
			}
			return Reading{Text: strings.TrimSpace(payload)}, nil
		},
		TopicChargeKwh:       numeric(func(s *State, v float64) { s.ChargeKwh = v }),
		TopicChargeState:     label(func(s *State, v string) { s.ChargeState = v }),
		TopicChargePlugState: label(func(s *State, v string) { s.ChargePlugState = v }),
		TopicPackCurrent: numeric(func(s *State, v float64) {
			s.PackCurrent = v
			s.CurrentHistory = pushWindow(s.CurrentHistory, v, HistoryLen)
		}),
		TopicCellVoltageLow: numeric(func(s *State, v float64) { s.LowCellVoltage = v }),
		TopicCellVoltageMean: numeric(func(s *State, v float64) {
			s.MeanCellVoltage = v
			s.PackVoltage = v * SeriesCells
		}),
		TopicCellVoltageHigh:  numeric(func(s *State, v float64) { s.HighCellVoltage = v }),
		TopicSoC:              numeric(func(s *State, v float64) { s.StateOfCharge = v }),
		TopicPackKwhCurrent:   numeric(func(s *State, v float64) { s.PackKwhCurrent = v }),
		TopicPackKwhMax:       numeric(func(s *State, v float64) { s.PackKwhMax = v }),
		TopicPackTempLow:      numeric(func(s *State, v float64) { s.PackLowTemp = v }),
		TopicPackTempHigh:     numeric(func(s *State, v float64) { s.PackHighTemp = v }),
		TopicSolarPower:       numeric(func(s *State, v float64) { s.SolarPower = v }),
		TopicThrottlePointer:  numeric(func(s *State, v float64) { s.ThrottlePointer = v }),
		TopicThrottlePosition: numeric(func(s *State, v float64) { s.ThrottlePosition = v }),
		TopicOvertempCap:      numeric(func(s *State, v float64) { s.ThrottleMax = v }),
	}
}

func numeric(apply func(*State, float64)) transition {
	return func(s *State, payload string) (Reading, error) {
		v, err := parseNumber(payload)
		if err != nil {
			return Reading{}, err
		}
		apply(s, v)
		return Reading{Value: v, Numeric: true}, nil
	}
}

func label(apply func(*State, string)) transition {
	return func(s *State, payload string) (Reading, error) {
		apply(s, payload)
		return Reading{Text: payload}, nil
	}
}

func parseNumber(payload string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(payload), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidPayload
	}
	return v, nil
}

func parsePosition(payload string) (float64, float64, error) {
	parts := strings.Split(payload, ",")
	if len(parts) != 2 {
		return 0, 0, ErrInvalidPayload
	}
	lat, err := parseNumber(parts[0])
	if err != nil {
		return 0, 0, err
	}
	lon, err := parseNumber(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if !validCoordinate(lat, lon) {
		return 0, 0, ErrInvalidPayload
	}
	return lat, lon, nil
}

func validCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
