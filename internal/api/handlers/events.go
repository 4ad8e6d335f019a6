package handlers

import (
	"log"
	"net/http"
	"time"

	"wealth-planner/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	eventBuffer  = 256
	pingInterval = 45 * time.Second
	readTimeout  = 90 * time.Second
	writeTimeout = 10 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin:       func(*http.Request) bool { return true },
	EnableCompression: true,
}

// Events handles GET /api/v1/sessions/:id/events. The socket first receives
// a "change" event carrying the current snapshot, then every session event
// as it happens. A client that falls behind loses events rather than
// stalling the session; the next change event carries a full snapshot.
func (h *SessionHandler) Events(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	out := make(chan session.Event, eventBuffer)
	done := make(chan struct{})

	// Runs on the session goroutine, sometimes under the session lock.
	sub := s.Events().Subscribe(func(ev session.Event) {
		select {
		case out <- ev:
		default:
		}
	})
	defer s.Events().Unsubscribe(sub)

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("SessionHandler: websocket upgrade for %s failed: %v", s.ID, err)
		return
	}
	defer conn.Close()

	// Initial frames go straight to the socket; anything published meanwhile
	// waits in out.
	snap := s.Snapshot()
	initial := []session.Event{{Type: session.EventChange, Snapshot: &snap}}
	if view, ok := s.View(); ok {
		initial = append(initial, session.Event{Type: session.EventResult, Generation: view.Generation, View: &view})
	}
	for _, ev := range initial {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			log.Printf("SessionHandler: event stream for %s: %v", s.ID, err)
			return
		}
	}

	go func() {
		ping := time.NewTicker(pingInterval)
		defer ping.Stop()
		for {
			select {
			case ev := <-out:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
				if ev.Type == session.EventClosed {
					_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
					return
				}
			case <-ping.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// reader: only pongs and close frames are expected
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	close(done)
	log.Printf("SessionHandler: event stream for %s closed", s.ID)
}
