package telemetry

import (
	"errors"
	"fmt"
)

// Preference names a dashboard toggle.
type Preference string

const (
	PrefDarkMode   Preference = "dark_mode"
	PrefAutoCenter Preference = "auto_center"
	PrefNorthUp    Preference = "north_up"
)

// ErrUnknownPreference is returned for an unsupported preference name.
var ErrUnknownPreference = errors.New("unknown preference")

// ParsePreference validates a preference name.
func ParsePreference(name string) (Preference, error) {
	p := Preference(name)
	if _, err := p.get(Preferences{}); err != nil {
		return "", err
	}
	return p, nil
}

func (p Preference) get(prefs Preferences) (bool, error) {
	switch p {
	case PrefDarkMode:
		return prefs.DarkMode, nil
	case PrefAutoCenter:
		return prefs.AutoCenter, nil
	case PrefNorthUp:
		return prefs.NorthUp, nil
	}
	return false, fmt.Errorf("%w: %s", ErrUnknownPreference, string(p))
}

func (p Preference) set(prefs *Preferences, v bool) error {
	switch p {
	case PrefDarkMode:
		prefs.DarkMode = v
	case PrefAutoCenter:
		prefs.AutoCenter = v
	case PrefNorthUp:
		prefs.NorthUp = v
	default:
		return fmt.Errorf("%w: %s", ErrUnknownPreference, string(p))
	}
	return nil
}
