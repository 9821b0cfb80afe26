// Package server provides the HTTP server for the air canvas.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/aircanvas/internal/app"
	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/server/api"
	"github.com/ayusman/aircanvas/internal/session"
	"github.com/ayusman/aircanvas/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	// Sessions backs the session API and the /ws endpoint.
	Sessions *session.Manager
	// App is the local camera pipeline. When set, the MJPEG streams and the
	// compatibility routes are served from its session.
	App *app.App
	// Detector runs on raw frames received over /ws.
	Detector detector.Detector
}

// Server represents the HTTP server for the air canvas.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Sessions != nil {
		sessionHandler := api.NewSessionHandler(s.config.Sessions, s.config.Store)
		s.mux.Handle("/api/sessions", sessionHandler)
		s.mux.Handle("/api/sessions/", sessionHandler)

		s.mux.Handle("/ws", NewDrawHandler(s.config.Sessions, s.config.Detector))
	}

	if s.config.Store != nil {
		snapshotHandler := api.NewSnapshotHandler(s.config.Store)
		s.mux.Handle("/api/snapshots", snapshotHandler)
		s.mux.Handle("/api/snapshots/", snapshotHandler)
	}

	// Local pipeline routes
	if s.config.App != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App.Overlay()))
		s.mux.Handle("/video_feed", NewStreamHandler(s.config.App.Overlay()))
		s.mux.Handle("/api/stream/camera", NewStreamHandler(s.config.App.Preview()))
		s.mux.HandleFunc("/api/local", s.handleLocalStatus)
		s.mux.HandleFunc("/api/local/snapshot", s.handleLocalSnapshot)
		s.mux.HandleFunc("/clear_canvas", s.handleClearCanvas)
		s.mux.HandleFunc("/set_color", s.handleSetColor)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

var successResponse = map[string]string{"status": "success"}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}
	if s.config.Sessions != nil {
		response["sessions"] = s.config.Sessions.Len()
	}
	if s.config.App != nil {
		response["pipeline"] = s.config.App.Running()
	}

	writeJSON(w, http.StatusOK, response)
}

// handleLocalStatus handles GET /api/local with the local session status.
func (s *Server) handleLocalStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.config.App.Session().Status())
}

// handleLocalSnapshot handles POST /api/local/snapshot.
func (s *Server) handleLocalSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap, err := s.config.App.SaveSnapshot()
	if err != nil {
		if errors.Is(err, app.ErrNoStore) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save snapshot"})
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// handleClearCanvas handles POST /clear_canvas against the local session.
func (s *Server) handleClearCanvas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.config.App.ClearCanvas()
	writeJSON(w, http.StatusOK, successResponse)
}

// handleSetColor handles POST /set_color with a {"r","g","b"} body. Missing
// channels are zero.
func (s *Server) handleSetColor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var channels map[string]int
	if err := json.NewDecoder(r.Body).Decode(&channels); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}
	s.config.App.Session().SetColor(channels["r"], channels["g"], channels["b"])
	writeJSON(w, http.StatusOK, successResponse)
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
