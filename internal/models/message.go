package models

import "time"

// SystemSenderID marks messages generated by the coordinator itself
// (quiet-moment notices, moderation warnings, extension outcomes).
const SystemSenderID = "system"

// Message represents a chat message in either the community channel or a
// private room. Messages are immutable once created; community messages age
// out of visibility, private messages live only as long as their room.
type Message struct {
	// ID is the unique identifier for this message
	ID string `json:"id"`

	// SenderID is the sender's participant ID
	SenderID string `json:"sender_id"`

	// SenderName is the sender's display name at send time
	SenderName string `json:"sender_name"`

	// Text is the message body
	Text string `json:"text"`

	// Timestamp is when the message was accepted by the coordinator
	Timestamp time.Time `json:"timestamp"`

	// RoomID is empty for community messages, the private room ID otherwise
	RoomID string `json:"room_id,omitempty"`

	// ReplyToSummary is an optional short preview of the replied-to message
	ReplyToSummary string `json:"reply_to_summary,omitempty"`
}

// SendMessagePayload is the inbound payload of a MESSAGE event. The sender
// identity comes from the connection, never from the payload.
type SendMessagePayload struct {
	Text           string `json:"text" validate:"required"`
	RoomID         string `json:"room_id,omitempty"`
	ReplyToSummary string `json:"reply_to_summary,omitempty"`
}

// SystemMessage builds a coordinator-authored message.
func SystemMessage(id, text, roomID string, at time.Time) Message {
	return Message{
		ID:         id,
		SenderID:   SystemSenderID,
		SenderName: "system",
		Text:       text,
		RoomID:     roomID,
		Timestamp:  at,
	}
}
