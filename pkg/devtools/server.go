package devtools

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/vango-dev/observable/pkg/observable"
	"github.com/vango-dev/observable/pkg/snapshot"
	"github.com/vango-dev/observable/pkg/store"
)

// maxBodyBytes bounds the size of a value written through PUT.
const maxBodyBytes = 1 << 20

// watchBuffer is the number of changes queued per watcher before new ones
// are dropped.
const watchBuffer = 64

// Config configures the devtools server.
type Config struct {
	// Store holds the cells to expose. Required.
	Store *store.Store

	// Logger receives request and connection logs.
	// Default: slog.Default()
	Logger *slog.Logger

	// ReadOnly rejects writes, snapshot restores and deletes with 403.
	ReadOnly bool

	// Metrics is mounted at /metrics when set, typically a promhttp handler.
	Metrics http.Handler

	// Snapshots enables the /snapshots routes when set.
	Snapshots snapshot.Backend
}

// CellInfo describes a cell in API responses.
type CellInfo struct {
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Value        json.RawMessage `json:"value"`
	Observed     bool            `json:"observed"`
	HasListeners bool            `json:"hasListeners"`
}

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
}

// Server is an HTTP inspector over a store.Store.
//
// Routes:
//
//	GET    /healthz
//	GET    /cells
//	GET    /cells/{name}
//	PUT    /cells/{name}
//	GET    /cells/{name}/watch         (WebSocket)
//	GET    /snapshots                  (when Snapshots is set)
//	GET    /snapshots/{key}
//	PUT    /snapshots/{key}
//	DELETE /snapshots/{key}
//	POST   /snapshots/{key}/restore
//	GET    /metrics                    (when Metrics is set)
type Server struct {
	config   Config
	logger   *slog.Logger
	router   chi.Router
	upgrader websocket.Upgrader

	clients map[*websocket.Conn]struct{}
	mu      sync.RWMutex
}

// New creates a devtools server.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:  config,
		logger:  logger.With("component", "devtools"),
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local inspection tool
			},
		},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/cells", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/{name}", s.handleGet)
		r.Put("/{name}", s.handlePut)
		r.Get("/{name}/watch", s.handleWatch)
	})

	if s.config.Snapshots != nil {
		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.handleSnapshotList)
			r.Get("/{key}", s.handleSnapshotGet)
			r.Put("/{key}", s.handleSnapshotSave)
			r.Delete("/{key}", s.handleSnapshotDelete)
			r.Post("/{key}/restore", s.handleSnapshotRestore)
		})
	}

	if s.config.Metrics != nil {
		r.Handle("/metrics", s.config.Metrics)
	}
	return r
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// requestLogger logs each request with its status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) cellInfo(name string) (CellInfo, error) {
	cell, ok := s.config.Store.Lookup(name)
	if !ok {
		return CellInfo{}, store.ErrNotFound
	}

	var (
		info CellInfo
		err  error
	)
	s.config.Store.Do(func() {
		info = CellInfo{
			Name:         name,
			Type:         cell.TypeName(),
			Observed:     cell.IsObserved(),
			HasListeners: cell.HasListeners(),
		}
		info.Value, err = cell.MarshalJSON()
	})
	return info, err
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	names := s.config.Store.Names()
	cells := make([]CellInfo, 0, len(names))
	for _, name := range names {
		info, err := s.cellInfo(name)
		if errors.Is(err, store.ErrNotFound) {
			continue // removed concurrently
		}
		if err != nil {
			s.writeError(w, err)
			return
		}
		cells = append(cells, info)
	}
	writeJSON(w, http.StatusOK, cells)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	info, err := s.cellInfo(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	if s.config.ReadOnly {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "devtools is read-only"})
		return
	}

	name := chi.URLParam(r, "name")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.config.Store.WriteJSON(name, body); err != nil {
		s.logger.Warn("write rejected", "name", name, "error", err)
		s.writeError(w, err)
		return
	}

	info, err := s.cellInfo(name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// writeError maps store and cell errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var (
		mismatch  *observable.TypeMismatchError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		modifyErr *observable.ModificationError
	)
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, snapshot.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &modifyErr):
		status = http.StatusConflict
	case errors.As(err, &mismatch), errors.As(err, &syntaxErr), errors.As(err, &typeErr),
		errors.Is(err, snapshot.ErrVersion):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ClientCount returns the number of connected watchers.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close closes all watcher connections.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for client := range s.clients {
		client.Close()
		delete(s.clients, client)
	}
}
