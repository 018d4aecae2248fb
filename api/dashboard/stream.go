package dashboard

import (
	"net/http"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/kilianp07/evdash/core/telemetry"
	"github.com/kilianp07/evdash/core/view"
	"github.com/kilianp07/evdash/infra/logger"
	"github.com/kilianp07/evdash/internal/eventbus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Frame is one message of the live stream.
type Frame struct {
	Reading   *telemetry.Reading `json:"reading,omitempty"`
	Dashboard view.Dashboard     `json:"dashboard"`
}

// Stream pushes the derived dashboard to WebSocket clients: once on connect,
// then after every update published on the bus.
type Stream struct {
	src      StateSource
	bus      *eventbus.TypedBus[telemetry.Update]
	upgrader ws.Upgrader
	log      logger.Logger
}

// NewStream creates a Stream handler for GET /ws.
func NewStream(src StateSource, bus *eventbus.TypedBus[telemetry.Update], allowedOrigins []string) *Stream {
	s := &Stream{src: src, bus: bus, log: logger.New("dashboard-stream")}
	s.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return s
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.Header.Get("Origin")]
		return ok
	}
}

func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)

	closed := make(chan struct{})
	go s.readLoop(conn, closed)

	if err := write(conn, Frame{Dashboard: view.Build(s.src.Snapshot())}); err != nil {
		s.log.Debugf("initial frame: %v", err)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case up, ok := <-sub:
			if !ok {
				_ = conn.WriteControl(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseGoingAway, "shutdown"), time.Now().Add(writeWait))
				return
			}
			if err := write(conn, Frame{Reading: up.Reading, Dashboard: view.Build(up.State)}); err != nil {
				s.log.Debugf("write frame: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(ws.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readLoop discards client messages and signals when the peer goes away.
func (s *Stream) readLoop(conn *ws.Conn, closed chan<- struct{}) {
	defer close(closed)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func write(conn *ws.Conn, f Frame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(f)
}
