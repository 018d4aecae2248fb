package dashboard

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/evdash/core/telemetry"
	"github.com/kilianp07/evdash/internal/eventbus"
)

// ConnChecker reports the broker connection state.
type ConnChecker interface {
	IsConnected() bool
}

// Deps groups what the router needs. Gatherer defaults to the global
// Prometheus registry, Token protects the mutating endpoints when set.
type Deps struct {
	State          StateSource
	Preferences    PreferenceStore
	Commander      Commander
	Bus            *eventbus.TypedBus[telemetry.Update]
	Broker         ConnChecker
	Gatherer       prometheus.Gatherer
	Token          string
	AllowedOrigins []string
}

// NewRouter registers every dashboard route on a new mux.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /api/state", NewStateHandler(d.State))
	mux.Handle("GET /api/dashboard", NewDashboardHandler(d.State))
	mux.Handle("GET /api/history", NewHistoryHandler(d.State))
	mux.Handle("GET /api/chart/current", NewChartHandler(d.State))
	if d.Commander != nil {
		mux.Handle("POST /api/control/power", auth(d.Token, NewPowerHandler(d.Commander)))
		mux.Handle("POST /api/control/brightness", auth(d.Token, NewBrightnessHandler(d.Commander)))
	}
	if d.Preferences != nil {
		mux.Handle("POST /api/preferences/{name}/toggle", auth(d.Token, NewToggleHandler(d.Preferences)))
		mux.Handle("PUT /api/map/viewport", auth(d.Token, NewViewportHandler(d.Preferences)))
	}
	if d.Bus != nil {
		mux.Handle("GET /ws", NewStream(d.State, d.Bus, d.AllowedOrigins))
	}
	g := d.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.Handle("GET /healthz", NewHealthHandler(d.Broker))
	return mux
}

// auth requires "Authorization: Bearer <token>" when token is non-empty.
func auth(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type health struct {
	Status        string `json:"status"`
	MQTTConnected bool   `json:"mqtt_connected"`
}

// NewHealthHandler reports liveness and the broker state. It answers 200 even
// while the broker is down.
func NewHealthHandler(broker ConnChecker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := health{Status: "ok"}
		if broker != nil {
			h.MQTTConnected = broker.IsConnected()
			if !h.MQTTConnected {
				h.Status = "degraded"
			}
		}
		writeJSON(w, http.StatusOK, h)
	})
}
