// Package server provides the HTTP server for the Aabharan virtual try-on
// system.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/aabharan/internal/app"
	"github.com/ayusman/aabharan/internal/server/api"
	"github.com/ayusman/aabharan/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
}

// Server represents the HTTP server for the Aabharan application.
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

	// Register catalog and analytics handlers if Store is configured
	if s.config.Store != nil {
		jewelryHandler := api.NewJewelryHandler(s.config.Store, s.config.App)
		analyticsHandler := api.NewAnalyticsHandler(s.config.Store)

		s.mux.Handle("/api/jewelry", jewelryHandler)
		s.mux.Handle("/api/jewelry/", jewelryHandler)
		s.mux.Handle("/api/analytics", analyticsHandler)
		s.mux.Handle("/api/analytics/", analyticsHandler)

		// Public share links resolve to the item behind the short code
		s.mux.HandleFunc("/try-on/", s.handleShareLink)
	}

	// Register live try-on endpoints if the pipeline is configured
	if s.config.App != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App))
		s.mux.Handle("/api/anchors", NewAnchorsHandler(s.config.App))
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

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// handleShareLink resolves /try-on/{code} to the catalog item behind the
// share code and records a view.
func (s *Server) handleShareLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code := strings.TrimPrefix(r.URL.Path, "/try-on/")
	if code == "" {
		http.Error(w, "Missing share code", http.StatusBadRequest)
		return
	}

	item, err := s.config.Store.Jewelry().GetByShareCode(code)
	if err != nil {
		if err == store.ErrNotFound {
			http.Error(w, "Unknown share code", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to resolve share code", http.StatusInternalServerError)
		return
	}

	if err := s.config.Store.Jewelry().IncrementCounter(item.ID, string(store.EventView)); err == nil {
		item.Views++
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(api.ItemResponse(item))
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
