package models

import "encoding/json"

// EventType names every event that crosses the realtime channel.
// Client and server share the same envelope in both directions.
type EventType string

const (
	// Bidirectional events
	EventHeartbeat         EventType = "HEARTBEAT"
	EventMessage           EventType = "MESSAGE"
	EventChatRequest       EventType = "CHAT_REQUEST"
	EventChatAccept        EventType = "CHAT_ACCEPT"
	EventChatExit          EventType = "CHAT_EXIT"
	EventExtensionDecision EventType = "CHAT_EXTENSION_DECISION"
	EventChatRejoin        EventType = "CHAT_REJOIN"

	// Server -> client only
	EventInitState       EventType = "INIT_STATE"
	EventResetCommunity  EventType = "RESET_COMMUNITY"
	EventResetSite       EventType = "RESET_SITE"
	EventChatClosed      EventType = "CHAT_CLOSED"
	EventChatExtended    EventType = "CHAT_EXTENDED"
	EventExtensionPrompt EventType = "CHAT_EXTENSION_PROMPT"
	EventError           EventType = "ERROR"
)

// Event is the outbound envelope sent to clients.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// RawEvent is the inbound envelope; the payload is decoded lazily once the
// type is known. Malformed payloads are dropped, never errored back.
type RawEvent struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorPayload is sent to a single participant when an operation is
// rejected (unknown reconnect code, stale invitation, ...).
type ErrorPayload struct {
	Message string `json:"message"`
}
