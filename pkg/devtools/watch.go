package devtools

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/vango-dev/observable/pkg/observable"
)

// writeWait bounds each WebSocket write.
const writeWait = 10 * time.Second

// handleWatch streams the changes of one cell over a WebSocket. The first
// message carries the current value with hasOldValue false; every later
// message is one committed change.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := s.config.Store.Lookup(name); !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "cell not found: " + name})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	logger := s.logger.With("cell", name, "remote", r.RemoteAddr)
	logger.Info("watcher connected")

	// The listener runs while the store is held, so it only queues.
	changes := make(chan observable.AnyChange, watchBuffer)
	dispose, err := s.config.Store.Watch(name, func(c observable.AnyChange) {
		select {
		case changes <- c:
		default:
			logger.Warn("watch buffer full, dropping change")
		}
	}, true)

	defer func() {
		if dispose != nil {
			dispose()
		}
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
		logger.Info("watcher disconnected")
	}()

	if err != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()))
		return
	}

	// Keep reading so close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case c := <-changes:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(c); err != nil {
				logger.Error("write error", "error", err)
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
