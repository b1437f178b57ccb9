package websocket

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/solenne-dev/nightjar/internal/models"
	"github.com/solenne-dev/nightjar/internal/services"
)

// upgrader upgrades HTTP connections to WebSocket.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow connections from any origin (CORS handled by middleware)
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler handles WebSocket upgrade requests.
type Handler struct {
	hub         *Hub
	router      *Router
	coordinator *services.Coordinator
	log         *slog.Logger
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *Hub, router *Router, coordinator *services.Coordinator, log *slog.Logger) *Handler {
	return &Handler{hub: hub, router: router, coordinator: coordinator, log: log}
}

// ServeWS handles WebSocket upgrade requests at /ws.
// Query params: participant_id (optional, one is issued if absent),
// display_name.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	participantID := r.URL.Query().Get("participant_id")
	if participantID == "" {
		participantID = uuid.New().String()
	}
	displayName := r.URL.Query().Get("display_name")
	if displayName == "" {
		displayName = "anonymous"
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "err", err)
		return
	}

	h.log.Info("new connection", "participant", participantID, "display_name", displayName)

	client := NewClient(h.hub, h.router, conn, participantID, displayName, h.log)
	h.hub.Register(client)

	// Start the pumps before the INIT_STATE snapshot so the send buffer
	// is being drained when it lands.
	go client.WritePump()
	go client.ReadPump()

	h.coordinator.Connect(models.UserInfo{
		ID:          participantID,
		DisplayName: displayName,
	})
}
