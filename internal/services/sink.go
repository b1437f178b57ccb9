package services

import "github.com/solenne-dev/nightjar/internal/models"

// Sink is where the coordinator fans out resulting state changes. The
// websocket hub implements it in production; tests substitute a recorder.
// Delivery is fire-and-forget: a sink must never block the coordinator.
type Sink interface {
	// Broadcast delivers an event to every connected participant.
	Broadcast(evt models.Event)

	// Send delivers an event to a single participant. Unknown or
	// disconnected recipients are a silent no-op.
	Send(participantID string, evt models.Event)
}
