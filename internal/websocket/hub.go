package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/solenne-dev/nightjar/internal/models"
)

// Hub maintains the set of connected clients and fans coordinator events
// out to them. There is one hub for the whole process: the community is a
// single shared channel and private-room delivery is addressed per
// participant, so no per-room client sets are needed.
//
// Registration is synchronous so a client is reachable before its
// INIT_STATE snapshot is sent.
type Hub struct {
	// clients maps participant ID to its connection
	clients map[string]*Client

	// mutex for thread-safe client map access
	mu sync.RWMutex

	log *slog.Logger

	// OnDisconnect is invoked after a client is removed, so the
	// coordinator can drop its presence entry. Set once at wiring time.
	OnDisconnect func(participantID string)
}

// NewHub creates a new Hub instance.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		log:     log,
	}
}

// Register adds a client. A reconnect under the same participant ID
// replaces the old connection; the stale one is closed out.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	if old, ok := h.clients[client.ParticipantID]; ok {
		close(old.send)
	}
	h.clients[client.ParticipantID] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Info("client connected", "participant", client.ParticipantID, "total", total)
}

// Unregister removes a client when its connection closes. A client that
// was already replaced by a fresh connection is ignored.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.ParticipantID]
	if ok && current == client {
		delete(h.clients, client.ParticipantID)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok && current == client {
		h.log.Info("client disconnected", "participant", client.ParticipantID, "remaining", total)
		if h.OnDisconnect != nil {
			h.OnDisconnect(client.ParticipantID)
		}
	}
}

// Broadcast delivers an event to every connected client. Implements the
// coordinator's sink contract; delivery is fire-and-forget.
func (h *Hub) Broadcast(evt models.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		h.log.Error("failed to marshal event", "type", evt.Type, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		h.deliver(client, data)
	}
}

// Send delivers an event to a single participant. Unknown recipients are a
// silent no-op.
func (h *Hub) Send(participantID string, evt models.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		h.log.Error("failed to marshal event", "type", evt.Type, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if client, ok := h.clients[participantID]; ok {
		h.deliver(client, data)
	}
}

// deliver enqueues data on a client's send buffer, dropping the payload if
// the client cannot keep up. The slow client's read loop will eventually
// fail its ping deadline and trigger a clean unregister.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.log.Warn("client send buffer full, dropping event", "participant", client.ParticipantID)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
