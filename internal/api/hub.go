package api

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stagehand-dev/stagehand/internal/logger"
)

// ProgressEvent is the wire form of a launch progress update.
type ProgressEvent struct {
	Type      string `json:"type"` // "progress" or "finished"
	Workspace string `json:"workspace"`
	Succeeded int    `json:"succeeded"`
	Total     int    `json:"total"`
	Error     string `json:"error,omitempty"`
}

// Hub broadcasts progress events to every connected websocket client.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	log     *zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		log:     logger.WithComponent("hub"),
	}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Broadcast sends an event to all clients, dropping any whose write
// fails.
func (h *Hub) Broadcast(event ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(event); err != nil {
			h.log.Debug().Err(err).Msg("dropping websocket client")
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// workspaceSink adapts the hub to the progress sink the engine feeds.
type workspaceSink struct {
	hub       *Hub
	workspace string
}

// Sink returns a progress sink that broadcasts under a workspace label.
func (h *Hub) Sink(workspace string) *workspaceSink {
	return &workspaceSink{hub: h, workspace: workspace}
}

func (s *workspaceSink) Update(succeeded, total int) {
	s.hub.Broadcast(ProgressEvent{
		Type:      "progress",
		Workspace: s.workspace,
		Succeeded: succeeded,
		Total:     total,
	})
}

func (s *workspaceSink) Finish(succeeded, total int, err error) {
	event := ProgressEvent{
		Type:      "finished",
		Workspace: s.workspace,
		Succeeded: succeeded,
		Total:     total,
	}
	if err != nil {
		event.Error = err.Error()
	}
	s.hub.Broadcast(event)
}
