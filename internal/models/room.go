package models

import "time"

// UserInfo is the public view of a connected participant. It carries no
// durable identity; the ID lives only as long as the connection.
type UserInfo struct {
	ID                   string `json:"id"`
	DisplayName          string `json:"display_name"`
	AcceptingInvitations bool   `json:"accepting_invitations"`
}

// Invitation is a pending request for a one-to-one session. It lives at
// most the invite TTL and is consumed by acceptance.
type Invitation struct {
	ID        string    `json:"id"`
	FromID    string    `json:"from_id"`
	FromName  string    `json:"from_name"`
	ToID      string    `json:"to_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Stage identifies one of the two extension negotiation checkpoints before
// a private room expires.
type Stage string

const (
	StageFiveMin Stage = "5min"
	StageTwoMin  Stage = "2min"
)

// Decision is a participant's answer to an extension prompt.
type Decision string

const (
	DecisionExtend Decision = "EXTEND"
	DecisionLater  Decision = "LATER"
	DecisionEnd    Decision = "END"
)

// Close reasons carried by CHAT_CLOSED events.
const (
	CloseReasonExpired       = "expired"
	CloseReasonRejoinExpired = "rejoin_expired"
	CloseReasonLeft          = "left"
	CloseReasonModeration    = "moderation"
	CloseReasonSiteReset     = "site_reset"
)

// RoomInfo is the wire view of a private room. ReconnectCode and Token are
// only ever set on copies sent privately to a room member; broadcasts carry
// neither.
type RoomInfo struct {
	ID            string    `json:"id"`
	Participants  []string  `json:"participants"`
	ReconnectCode string    `json:"reconnect_code,omitempty"`
	Token         string    `json:"token,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	Extended      bool      `json:"extended"`
}

// QuietWindow is the scheduled span during which community messages are
// withheld from broadcast.
type QuietWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Inbound payloads for room lifecycle events.

type HeartbeatPayload struct {
	User UserInfo `json:"user"`
}

// HeartbeatBroadcast is the server-side rebroadcast of a heartbeat,
// annotated with the current timer boundaries.
type HeartbeatBroadcast struct {
	User          UserInfo  `json:"user"`
	WindowEnd     time.Time `json:"window_end"`
	SiteWindowEnd time.Time `json:"site_window_end"`
}

type ChatRequestPayload struct {
	ToID string `json:"to_id" validate:"required"`
}

type ChatAcceptPayload struct {
	InviteID string `json:"invite_id" validate:"required"`
}

type ChatExitPayload struct {
	RoomID string `json:"room_id" validate:"required"`
}

type ExtensionDecisionPayload struct {
	RoomID   string   `json:"room_id" validate:"required"`
	Stage    Stage    `json:"stage" validate:"required,oneof=5min 2min"`
	Decision Decision `json:"decision" validate:"required,oneof=EXTEND LATER END"`
}

type RejoinPayload struct {
	ReconnectCode string `json:"reconnect_code" validate:"required"`
	Token         string `json:"token" validate:"required"`
}

// Server -> client payloads.

type InitStatePayload struct {
	Messages      []Message   `json:"messages"`
	WindowEnd     time.Time   `json:"window_end"`
	SiteWindowEnd time.Time   `json:"site_window_end"`
	Topic         string      `json:"topic"`
	SessionStyle  string      `json:"session_style"`
	QuietWindow   QuietWindow `json:"quiet_window"`
	Users         []UserInfo  `json:"users"`
}

type ResetCommunityPayload struct {
	NextReset    time.Time   `json:"next_reset"`
	Topic        string      `json:"topic"`
	SessionStyle string      `json:"session_style"`
	QuietWindow  QuietWindow `json:"quiet_window"`
}

type ResetSitePayload struct {
	NextReset time.Time `json:"next_reset"`
}

type ChatClosedPayload struct {
	RoomID        string   `json:"room_id"`
	Reason        string   `json:"reason"`
	SystemMessage *Message `json:"system_message,omitempty"`
}

type ChatExtendedPayload struct {
	Room RoomInfo `json:"room"`
}

type ExtensionPromptPayload struct {
	RoomID    string    `json:"room_id"`
	Stage     Stage     `json:"stage"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ChatAcceptedPayload is sent when mutual acceptance creates a room. The
// broadcast form omits code and token; each member additionally receives a
// private copy with their own secret filled in.
type ChatAcceptedPayload struct {
	Room RoomInfo `json:"room"`
}

// ChatRejoinedPayload re-delivers a room and its buffered messages to a
// participant that came back through a reconnect code.
type ChatRejoinedPayload struct {
	Room     RoomInfo  `json:"room"`
	Messages []Message `json:"messages"`
}
