// internal/app/features/alerts/stream.go
package alerts

import (
	"net/http"
	"time"

	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/authz"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/notify"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Stream frame types.
const (
	FrameSnapshot = "snapshot"
	FrameRaised   = notify.AlertRaised
	FrameResolved = notify.AlertResolved
)

const maxClientMessage = 1 << 10

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Callers are authenticated before the upgrade; clients may be served
	// from another origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Frame is one message written to a stream client.
type Frame struct {
	Type    string         `json:"type"`
	EventID string         `json:"event_id,omitempty"`
	Alert   *models.Alert  `json:"alert,omitempty"`
	Alerts  []models.Alert `json:"alerts,omitempty"`
}

// relay decides which events reach one connection. An alert rings at most
// once, and resolves are only sent for alerts the connection has seen.
type relay struct {
	rung     map[string]bool
	resolved map[string]bool
}

func newRelay(snapshot []models.Alert) *relay {
	rl := &relay{rung: map[string]bool{}, resolved: map[string]bool{}}
	for _, a := range snapshot {
		rl.rung[a.ID.Hex()] = true
	}
	return rl
}

func (rl *relay) admit(ev notify.Event) bool {
	switch ev.Type {
	case notify.AlertRaised:
		if rl.rung[ev.AlertID] || rl.resolved[ev.AlertID] {
			return false
		}
		rl.rung[ev.AlertID] = true
		return true
	case notify.AlertResolved:
		if !rl.rung[ev.AlertID] || rl.resolved[ev.AlertID] {
			return false
		}
		rl.resolved[ev.AlertID] = true
		return true
	}
	return false
}

// ServeStream handles GET /alerts/stream. The connection receives a snapshot
// of the caller's active alerts, then live raise and resolve events. A
// connection that falls behind is closed; the client reconnects for a fresh
// snapshot.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		unauthorized(w)
		return
	}

	// Subscribe before loading the snapshot so nothing raised in between is lost.
	sub := h.Hub.Subscribe(uid.Hex())
	defer sub.Close()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "stream snapshot")
	snapshot, err := h.Alerts.Active(ctx, uid)
	cancel()
	if err != nil {
		h.ErrLog.LogServerError(w, r, "stream snapshot failed", err, "Unable to load alerts.")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.Log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := h.Log.With(zap.String("user_id", uid.Hex()), zap.String("subscription_id", sub.ID))
	log.Debug("alert stream opened", zap.Int("snapshot", len(snapshot)))

	if err := h.write(conn, Frame{Type: FrameSnapshot, Alerts: snapshot}); err != nil {
		log.Debug("snapshot write failed", zap.Error(err))
		return
	}

	done := make(chan struct{})
	go h.readPump(conn, done)

	rl := newRelay(snapshot)
	ticker := time.NewTicker(h.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				reason := "server shutting down"
				if sub.Lagged() {
					reason = "too slow; reconnect"
					log.Info("alert stream dropped slow client")
				}
				h.closeWith(conn, websocket.CloseTryAgainLater, reason)
				return
			}
			if !rl.admit(ev) {
				continue
			}
			if err := h.write(conn, Frame{Type: ev.Type, EventID: ev.ID, Alert: ev.Alert}); err != nil {
				log.Debug("alert stream write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(timeouts.Write()))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("alert stream ping failed", zap.Error(err))
				return
			}
		case <-done:
			log.Debug("alert stream closed by client")
			return
		case <-r.Context().Done():
			return
		}
	}
}

// readPump discards client messages and keeps the read deadline moving on
// pongs. It closes done when the connection ends.
func (h *Handler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	pongWait := 2 * h.PingInterval
	conn.SetReadLimit(maxClientMessage)
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

func (h *Handler) write(conn *websocket.Conn, f Frame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(timeouts.Write()))
	return conn.WriteJSON(f)
}

func (h *Handler) closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(timeouts.Write()))
}
