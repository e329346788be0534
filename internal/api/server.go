// Package api exposes the workspace store and launch engine over HTTP.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/engine"
	"github.com/stagehand-dev/stagehand/internal/logger"
	"github.com/stagehand-dev/stagehand/internal/progress"
	"github.com/stagehand-dev/stagehand/internal/store"
	"github.com/stagehand-dev/stagehand/internal/track"
)

// Server represents the HTTP API server
type Server struct {
	router       *mux.Router
	store        *store.Store
	configMgr    *config.Manager
	scheduler    *engine.Scheduler
	orchestrator *engine.Orchestrator
	hub          *Hub
	upgrader     websocket.Upgrader
	log          *zerolog.Logger
}

// NewServer creates a new API server
func NewServer(st *store.Store, configMgr *config.Manager, scheduler *engine.Scheduler, orchestrator *engine.Orchestrator) *Server {
	s := &Server{
		router:       mux.NewRouter(),
		store:        st,
		configMgr:    configMgr,
		scheduler:    scheduler,
		orchestrator: orchestrator,
		hub:          NewHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		log: logger.WithComponent("api"),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Workspace management
	api.HandleFunc("/workspaces", s.handleListWorkspaces).Methods("GET")
	api.HandleFunc("/workspaces", s.handleSaveWorkspace).Methods("POST")
	api.HandleFunc("/workspaces/{name}", s.handleGetWorkspace).Methods("GET")
	api.HandleFunc("/workspaces/{name}", s.handleDeleteWorkspace).Methods("DELETE")
	api.HandleFunc("/workspaces/{name}/items", s.handleAddItem).Methods("POST")

	// Launch lifecycle
	api.HandleFunc("/workspaces/{name}/launch", s.handleLaunch).Methods("POST")
	api.HandleFunc("/workspaces/{name}/close", s.handleClose).Methods("POST")
	api.HandleFunc("/workspaces/{name}/verify", s.handleVerify).Methods("GET")
	api.HandleFunc("/workspaces/{name}/artifacts", s.handleArtifacts).Methods("GET")

	// Progress stream
	api.HandleFunc("/progress/stream", s.handleProgressStream)

	// Configuration
	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")

	// Health check
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start starts the HTTP server
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.log.Info().Str("addr", addr).Msg("starting server")
	return http.ListenAndServe(addr, s.Handler())
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HTTP Handlers

func (s *Server) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	workspaces, err := s.store.Workspaces()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if workspaces == nil {
		workspaces = []config.Workspace{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(workspaces)
}

func (s *Server) handleSaveWorkspace(w http.ResponseWriter, r *http.Request) {
	var ws config.Workspace
	if err := json.NewDecoder(r.Body).Decode(&ws); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.SaveWorkspace(ws); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	ws, err := s.store.Workspace(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ws)
}

func (s *Server) handleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := s.store.DeleteWorkspace(name); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var item config.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stored, err := s.store.AddItem(name, item)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stored)
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	ws, err := s.store.Workspace(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	sink := progress.Multi{progress.NewLogSink(name), s.hub.Sink(name)}
	report := s.scheduler.Launch(r.Context(), ws.Items, name, sink)

	// Tracked artifacts survive the request so a later close can act on
	// exactly what this launch produced.
	if err := s.store.SaveArtifacts(name, report.Artifacts); err != nil {
		s.log.Error().Err(err).Str("workspace", name).Msg("failed to persist artifacts")
	}

	resp := map[string]interface{}{
		"succeeded": report.Succeeded,
		"total":     report.Total,
		"artifacts": report.Artifacts,
	}
	if report.FirstErr != nil {
		resp["error"] = report.FirstErr.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	artifacts, err := s.store.Artifacts(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.orchestrator.Close(r.Context(), artifacts)
	if err := s.store.ClearArtifacts(name); err != nil {
		s.log.Warn().Err(err).Str("workspace", name).Msg("failed to clear artifact state")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "success",
		"closed": len(artifacts),
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	artifacts, err := s.store.Artifacts(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	alive := s.orchestrator.Verify(r.Context(), artifacts)
	if alive == nil {
		alive = []track.Artifact{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"tracked":   len(artifacts),
		"alive":     len(alive),
		"artifacts": alive,
	})
}

func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	artifacts, err := s.store.Artifacts(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if artifacts == nil {
		artifacts = []track.Artifact{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(artifacts)
}

func (s *Server) handleProgressStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.hub.register(conn)
	defer s.hub.unregister(conn)

	// Drain reads so close frames and pings are handled; the server never
	// expects client messages.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.configMgr.Get()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
