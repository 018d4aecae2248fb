package view

import "github.com/kilianp07/evdash/core/telemetry"

// Map styles per theme.
const (
	MapStyleDay   = "mapbox://styles/mapbox/navigation-day-v1"
	MapStyleNight = "mapbox://styles/mapbox/navigation-night-v1"
)

const (
	headingUpPitch    = 50
	northUpIconSize   = 65
	headingUpIconSize = 75
)

// Marker is the vehicle marker drawn on the map.
type Marker struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Rotation  float64 `json:"rotation"`
	IconSize  int     `json:"icon_size"`
}

// MapView is everything the map widget needs for one frame.
type MapView struct {
	Viewport telemetry.Viewport `json:"viewport"`
	Bearing  float64            `json:"bearing"`
	Pitch    float64            `json:"pitch"`
	Style    string             `json:"style"`
	Marker   Marker             `json:"marker"`
}

// Map derives the map view. North-up keeps the map still and rotates the
// marker; heading-up rotates and tilts the map under a fixed marker.
func Map(s telemetry.State) MapView {
	mv := MapView{
		Viewport: s.Viewport,
		Style:    MapStyleNight,
		Marker: Marker{
			Latitude:  s.Position.Latitude,
			Longitude: s.Position.Longitude,
		},
	}
	if !s.Preferences.DarkMode {
		mv.Style = MapStyleDay
	}
	if s.Preferences.NorthUp {
		mv.Marker.Rotation = s.Bearing
		mv.Marker.IconSize = northUpIconSize
	} else {
		mv.Bearing = s.Bearing
		mv.Pitch = headingUpPitch
		mv.Marker.IconSize = headingUpIconSize
	}
	return mv
}
