// Package server exposes a placer workspace over HTTP: previews as images,
// brush and selection changes, commits, undo and a live log console.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/df07/go-scatter-placer/pkg/core"
	"github.com/df07/go-scatter-placer/pkg/host"
)

// Server handles web requests for one placer workspace
type Server struct {
	port    int
	ws      *host.Workspace
	console *Console
	router  *mux.Router

	// The placer session is single-threaded; mu serialises every request
	// that touches it
	mu sync.Mutex
}

// NewServer creates a web server for the workspace
func NewServer(port int, ws *host.Workspace, console *Console) *Server {
	s := &Server{
		port:    port,
		ws:      ws,
		console: console,
		router:  mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/scenes", s.handleScenes).Methods(http.MethodGet)
	s.router.HandleFunc("/api/items", s.handleItems).Methods(http.MethodGet)
	s.router.HandleFunc("/api/items/{id}/toggle", s.handleToggleItem).Methods(http.MethodPost)
	s.router.HandleFunc("/api/selection", s.handleSelection).Methods(http.MethodPut)
	s.router.HandleFunc("/api/brush", s.handleBrush).Methods(http.MethodGet, http.MethodPut)
	s.router.HandleFunc("/api/preview", s.handlePreview).Methods(http.MethodGet)
	s.router.HandleFunc("/api/commit", s.handleCommit).Methods(http.MethodPost)
	s.router.HandleFunc("/api/undo", s.handleUndo).Methods(http.MethodPost)
	s.router.HandleFunc("/api/redo", s.handleRedo).Methods(http.MethodPost)
	s.router.HandleFunc("/api/inspect", s.handleInspect).Methods(http.MethodGet)
	s.router.HandleFunc("/api/instances", s.handleInstances).Methods(http.MethodGet)
	s.router.HandleFunc("/api/console", s.handleConsole).Methods(http.MethodGet)
	s.router.HandleFunc("/ws/console", s.console.HandleWebSocket)

	// Serve static files
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir("static/")))
}

// Handler returns the request router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.ws.Logger.Infof("Starting web server on http://localhost%s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.ws.Logger.Infof("Web server stopped")
	return nil
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes v as the JSON response body
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": message}
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parsePointParams reads the optional x and z query parameters. Both or
// neither must be present.
func parsePointParams(values url.Values) (*core.Vec2, error) {
	xs, zs := values.Get("x"), values.Get("z")
	if xs == "" && zs == "" {
		return nil, nil
	}
	if xs == "" || zs == "" {
		return nil, errors.New("x and z must be given together")
	}
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid x: %s", xs)
	}
	z, err := strconv.ParseFloat(zs, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid z: %s", zs)
	}
	p := core.NewVec2(x, z)
	return &p, nil
}
