// Package dashboard exposes the vehicle state, the derived dashboard and the
// user actions over HTTP, plus a WebSocket stream of live updates.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kilianp07/evdash/core/control"
	"github.com/kilianp07/evdash/core/telemetry"
	"github.com/kilianp07/evdash/core/view"
	"github.com/kilianp07/evdash/pkg/export"
)

// StateSource returns a consistent copy of the vehicle state.
type StateSource interface {
	Snapshot() telemetry.State
}

// PreferenceStore applies user actions to the state.
type PreferenceStore interface {
	Toggle(p telemetry.Preference) (telemetry.Preferences, error)
	MoveViewport(v telemetry.Viewport) error
}

// Commander publishes display commands.
type Commander interface {
	Send(ctx context.Context, cmd control.Command) error
}

// NewStateHandler returns the raw state via GET /api/state.
func NewStateHandler(src StateSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, src.Snapshot())
	})
}

// NewDashboardHandler returns the derived display model via GET /api/dashboard.
func NewDashboardHandler(src StateSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, view.Build(src.Snapshot()))
	})
}

// NewHistoryHandler exports the pack current history via GET /api/history.
// The format query parameter selects csv or json.
func NewHistoryHandler(src StateSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := r.URL.Query().Get("format")
		h := export.NewHistory(src.Snapshot().CurrentHistory, time.Now().UTC())
		switch format {
		case "", export.FormatJSON:
			w.Header().Set("Content-Type", "application/json")
		case export.FormatCSV:
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", `attachment; filename="current_history.csv"`)
		default:
			writeError(w, http.StatusBadRequest, errors.New("format must be csv or json"))
			return
		}
		if err := export.Write(w, format, h); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

type powerRequest struct {
	State string `json:"state"`
}

// NewPowerHandler turns the display on or off via POST /api/control/power.
func NewPowerHandler(cmd Commander) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req powerRequest
		if !decode(w, r, &req) {
			return
		}
		on, err := control.ParsePower(req.State)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		send(w, r, cmd, control.DisplayPower(on))
	})
}

type brightnessRequest struct {
	Level int `json:"level"`
}

// NewBrightnessHandler sets the backlight via POST /api/control/brightness.
func NewBrightnessHandler(cmd Commander) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req brightnessRequest
		if !decode(w, r, &req) {
			return
		}
		c, err := control.Brightness(req.Level)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		send(w, r, cmd, c)
	})
}

// NewToggleHandler flips a preference via POST /api/preferences/{name}/toggle.
func NewToggleHandler(store PreferenceStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := telemetry.ParsePreference(r.PathValue("name"))
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		prefs, err := store.Toggle(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, prefs)
	})
}

// NewViewportHandler moves the map via PUT /api/map/viewport.
func NewViewportHandler(store PreferenceStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var v telemetry.Viewport
		if !decode(w, r, &v) {
			return
		}
		if err := store.MoveViewport(v); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func send(w http.ResponseWriter, r *http.Request, cmd Commander, c control.Command) {
	if err := cmd.Send(r.Context(), c); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusAccepted, c)
}

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
