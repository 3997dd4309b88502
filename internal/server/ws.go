package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/aabharan/internal/app"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// AnchorsHandler broadcasts the pipeline's current smoothed anchors and
// measurements via WebSocket, so external viewers can render their own
// overlays.
type AnchorsHandler struct {
	app     *app.App
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewAnchorsHandler creates a new AnchorsHandler over the given pipeline.
func NewAnchorsHandler(a *app.App) *AnchorsHandler {
	h := &AnchorsHandler{
		app:     a,
		clients: make(map[*websocket.Conn]bool),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *AnchorsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// broadcast sends anchor data to all connected clients.
func (h *AnchorsHandler) broadcast() {
	ticker := time.NewTicker(50 * time.Millisecond) // ~20 FPS
	defer ticker.Stop()

	for range ticker.C {
		h.mu.RLock()
		if len(h.clients) == 0 {
			h.mu.RUnlock()
			continue
		}
		h.mu.RUnlock()

		session := h.app.Session()
		measurements, measureOK := session.Measurements()

		payload := map[string]any{
			"face":      session.FacePresent(),
			"anchors":   session.Anchors(),
			"item":      h.app.CurrentItem(),
			"timestamp": time.Now().UnixMilli(),
		}
		if measureOK {
			payload["measurements"] = measurements
		}

		msg, _ := json.Marshal(payload)

		h.mu.RLock()
		for conn := range h.clients {
			conn.WriteMessage(websocket.TextMessage, msg)
		}
		h.mu.RUnlock()
	}
}
