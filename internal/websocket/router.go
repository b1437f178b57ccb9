package websocket

import (
	"encoding/json"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/solenne-dev/nightjar/internal/models"
	"github.com/solenne-dev/nightjar/internal/services"
)

// Router decodes inbound event envelopes and routes them to the
// coordinator. Malformed envelopes and payloads that fail validation are
// dropped silently; they never crash the coordinator or earn a reply.
type Router struct {
	coordinator *services.Coordinator
	validate    *validator.Validate
	log         *slog.Logger
}

// NewRouter creates a Router bound to the coordinator.
func NewRouter(coordinator *services.Coordinator, log *slog.Logger) *Router {
	return &Router{
		coordinator: coordinator,
		validate:    validator.New(),
		log:         log,
	}
}

// Dispatch handles one inbound frame from a client.
func (r *Router) Dispatch(c *Client, raw []byte) {
	var evt models.RawEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		r.log.Debug("dropping malformed envelope", "participant", c.ParticipantID, "err", err)
		return
	}

	switch evt.Type {
	case models.EventHeartbeat:
		var payload models.HeartbeatPayload
		if !r.decode(evt.Payload, &payload) || payload.User.ID == "" {
			return
		}
		// The connection identity is authoritative over the payload.
		payload.User.ID = c.ParticipantID
		r.coordinator.Heartbeat(payload)

	case models.EventMessage:
		var payload models.SendMessagePayload
		if !r.decode(evt.Payload, &payload) {
			return
		}
		r.coordinator.PostMessage(c.ParticipantID, payload)

	case models.EventChatRequest:
		var payload models.ChatRequestPayload
		if !r.decode(evt.Payload, &payload) {
			return
		}
		r.coordinator.RequestInvite(c.ParticipantID, payload)

	case models.EventChatAccept:
		var payload models.ChatAcceptPayload
		if !r.decode(evt.Payload, &payload) {
			return
		}
		r.coordinator.AcceptInvite(c.ParticipantID, payload)

	case models.EventChatExit:
		var payload models.ChatExitPayload
		if !r.decode(evt.Payload, &payload) {
			return
		}
		r.coordinator.Exit(c.ParticipantID, payload)

	case models.EventExtensionDecision:
		var payload models.ExtensionDecisionPayload
		if !r.decode(evt.Payload, &payload) {
			return
		}
		r.coordinator.ExtensionDecision(c.ParticipantID, payload)

	case models.EventChatRejoin:
		var payload models.RejoinPayload
		if !r.decode(evt.Payload, &payload) {
			return
		}
		r.coordinator.Rejoin(c.ParticipantID, c.DisplayName, payload)

	default:
		r.log.Debug("dropping unknown event type", "type", evt.Type, "participant", c.ParticipantID)
	}
}

// decode unmarshals and validates a payload, reporting whether it is usable.
func (r *Router) decode(raw json.RawMessage, out any) bool {
	if err := json.Unmarshal(raw, out); err != nil {
		r.log.Debug("dropping malformed payload", "err", err)
		return false
	}
	if err := r.validate.Struct(out); err != nil {
		r.log.Debug("dropping invalid payload", "err", err)
		return false
	}
	return true
}
