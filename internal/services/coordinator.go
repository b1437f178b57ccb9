package services

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/solenne-dev/nightjar/internal/config"
	"github.com/solenne-dev/nightjar/internal/models"
	"github.com/solenne-dev/nightjar/internal/moderation"
)

// Coordinator is the single authoritative owner of all transient state:
// presence, the community channel, invitations and private rooms. Every
// inbound event and the 1-second tick take the same mutex, so state
// transitions observe a fully serialized order. No other component mutates
// this state; collaborators receive read-only views or transition results.
type Coordinator struct {
	mu sync.Mutex

	cfg     *config.Config
	log     *slog.Logger
	sink    Sink
	gateway moderation.Gateway

	presence  *PresenceRegistry
	community *Community

	rooms      map[string]*PrivateRoom // room ID -> room
	roomByCode map[string]*PrivateRoom // reconnect code -> room
	memberRoom map[string]string       // participant ID -> room ID
	invites    map[string]*models.Invitation

	// clock is swapped out by tests; Tick always receives an explicit now.
	clock func() time.Time
}

// NewCoordinator assembles a coordinator around the given sink and
// moderation gateway. All timing behaviour comes from cfg.
func NewCoordinator(cfg *config.Config, log *slog.Logger, gateway moderation.Gateway, sink Sink) *Coordinator {
	now := time.Now().UTC()
	return &Coordinator{
		cfg:        cfg,
		log:        log,
		sink:       sink,
		gateway:    gateway,
		presence:   NewPresenceRegistry(cfg.PresenceTTL),
		community:  NewCommunity(cfg.CommunityPeriod, cfg.SitePeriod, cfg.MessageTTL, cfg.QuietLength, cfg.BufferCap, now),
		rooms:      make(map[string]*PrivateRoom),
		roomByCode: make(map[string]*PrivateRoom),
		memberRoom: make(map[string]string),
		invites:    make(map[string]*models.Invitation),
		clock:      func() time.Time { return time.Now().UTC() },
	}
}

// Connect registers a participant and delivers the INIT_STATE snapshot:
// the visible buffer, timer boundaries, topic, quiet window and everyone
// online. Malformed info is dropped.
func (c *Coordinator) Connect(info models.UserInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	p := c.presence.Heartbeat(info, now)
	if p == nil {
		return
	}

	c.sink.Send(p.ID, models.Event{
		Type: models.EventInitState,
		Payload: models.InitStatePayload{
			Messages:      c.community.Visible(now),
			WindowEnd:     c.community.WindowEnd(),
			SiteWindowEnd: c.community.SiteWindowEnd(),
			Topic:         c.community.Topic(),
			SessionStyle:  string(c.community.Style()),
			QuietWindow:   c.community.Quiet(),
			Users:         c.presence.Snapshot(),
		},
	})
	c.broadcastHeartbeat(p)
}

// Heartbeat refreshes a participant's presence and rebroadcasts its public
// info together with the current timer boundaries.
func (c *Coordinator) Heartbeat(payload models.HeartbeatPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.presence.Heartbeat(payload.User, c.clock())
	if p == nil {
		return
	}
	c.broadcastHeartbeat(p)
}

func (c *Coordinator) broadcastHeartbeat(p *Participant) {
	c.sink.Broadcast(models.Event{
		Type: models.EventHeartbeat,
		Payload: models.HeartbeatBroadcast{
			User:          p.Info(),
			WindowEnd:     c.community.WindowEnd(),
			SiteWindowEnd: c.community.SiteWindowEnd(),
		},
	})
}

// Disconnect removes a participant when their connection closes. Any room
// they belonged to degrades toward its rejoin window on the next tick.
func (c *Coordinator) Disconnect(participantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.presence.Remove(participantID) {
		c.log.Debug("participant disconnected", "participant", participantID)
	}
}

// PostMessage routes a MESSAGE event: community channel when RoomID is
// empty, private room otherwise. The sender identity comes from the
// connection, never from the payload.
func (c *Coordinator) PostMessage(senderID string, payload models.SendMessagePayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sender := c.presence.Get(senderID)
	if sender == nil || payload.Text == "" {
		return
	}

	if payload.RoomID == "" {
		c.postCommunityMessage(sender, payload)
		return
	}
	c.postRoomMessage(sender, payload)
}

func (c *Coordinator) postCommunityMessage(sender *Participant, payload models.SendMessagePayload) {
	now := c.clock()

	// During a quiet moment nothing is broadcast; the sender alone learns
	// why their message went nowhere.
	if c.community.InQuietWindow(now) {
		c.sendSystem(sender.ID, "", "A quiet moment is in progress. Messages resume shortly.")
		return
	}

	msg := models.Message{
		ID:             uuid.New().String(),
		SenderID:       sender.ID,
		SenderName:     sender.DisplayName,
		Text:           payload.Text,
		Timestamp:      now,
		ReplyToSummary: payload.ReplyToSummary,
	}

	limited := sender.ShadowLimited
	switch c.gateway.Moderate(payload.Text) {
	case moderation.Blocked:
		// Echo-to-sender: the sender sees their message, nobody else does.
		c.sink.Send(sender.ID, models.Event{Type: models.EventMessage, Payload: msg})
		return
	case moderation.Borderline:
		c.recordBorderline(sender)
	}

	if limited {
		c.sink.Send(sender.ID, models.Event{Type: models.EventMessage, Payload: msg})
		return
	}

	c.community.Append(msg)
	c.sink.Broadcast(models.Event{Type: models.EventMessage, Payload: msg})
}

func (c *Coordinator) postRoomMessage(sender *Participant, payload models.SendMessagePayload) {
	room, ok := c.rooms[payload.RoomID]
	if !ok || !room.HasMember(sender.ID) {
		return
	}
	now := c.clock()

	limited := sender.ShadowLimited
	switch c.gateway.Moderate(payload.Text) {
	case moderation.Blocked:
		// A moderation violation ends the session unconditionally.
		c.closeRoom(room, models.CloseReasonModeration,
			"This conversation was closed by moderation.")
		return
	case moderation.Borderline:
		c.recordBorderline(sender)
	}

	msg := models.Message{
		ID:             uuid.New().String(),
		SenderID:       sender.ID,
		SenderName:     sender.DisplayName,
		Text:           payload.Text,
		Timestamp:      now,
		RoomID:         room.ID,
		ReplyToSummary: payload.ReplyToSummary,
	}

	if limited {
		c.sink.Send(sender.ID, models.Event{Type: models.EventMessage, Payload: msg})
		return
	}

	room.Messages = append(room.Messages, msg)
	for _, id := range room.Participants {
		c.sink.Send(id, models.Event{Type: models.EventMessage, Payload: msg})
	}
}

// recordBorderline applies the standing per-connection penalty: one soft
// warning ever, shadow limiting from the threshold verdict onward.
func (c *Coordinator) recordBorderline(p *Participant) {
	p.BorderlineCount++
	if !p.Warned {
		p.Warned = true
		c.sendSystem(p.ID, "", "Please keep it civil. This is a one-time reminder.")
	}
	if p.BorderlineCount >= c.cfg.BorderlineThreshold {
		p.ShadowLimited = true
	}
}

// RequestInvite opens a private-session invitation from fromID toward the
// payload's recipient. Both sides take a decision lock so neither can be
// courted twice at once.
func (c *Coordinator) RequestInvite(fromID string, payload models.ChatRequestPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	from := c.presence.Get(fromID)
	if from == nil || payload.ToID == "" || payload.ToID == fromID {
		return
	}
	if from.IsDeciding {
		// An invitation involving the inviter is already pending.
		return
	}
	if _, busy := c.memberRoom[fromID]; busy {
		c.sendError(fromID, ErrAlreadyInRoom.Error())
		return
	}
	if _, busy := c.memberRoom[payload.ToID]; busy || !c.presence.IsAvailable(payload.ToID) {
		c.sendError(fromID, ErrInviteeUnavailable.Error())
		return
	}

	now := c.clock()
	invite := &models.Invitation{
		ID:        uuid.New().String(),
		FromID:    from.ID,
		FromName:  from.DisplayName,
		ToID:      payload.ToID,
		CreatedAt: now,
		ExpiresAt: now.Add(c.cfg.InviteTTL),
	}
	c.invites[invite.ID] = invite
	from.IsDeciding = true
	c.presence.Get(payload.ToID).IsDeciding = true

	// Broadcast; the recipient filters locally.
	c.sink.Broadcast(models.Event{Type: models.EventChatRequest, Payload: invite})
}

// AcceptInvite consumes a pending invitation and creates the private room.
// A late acceptance after the invite record was cleared is rejected; so is
// any acceptance that would put a participant in a second active room.
func (c *Coordinator) AcceptInvite(accepterID string, payload models.ChatAcceptPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	invite, ok := c.invites[payload.InviteID]
	if !ok {
		c.sendError(accepterID, ErrInviteExpired.Error())
		return
	}
	if invite.ToID != accepterID {
		return
	}

	now := c.clock()
	if !now.Before(invite.ExpiresAt) {
		c.clearInvite(invite)
		c.sendError(accepterID, ErrInviteExpired.Error())
		return
	}
	if _, busy := c.memberRoom[accepterID]; busy {
		c.clearInvite(invite)
		c.sendError(accepterID, ErrAlreadyInRoom.Error())
		return
	}
	if _, busy := c.memberRoom[invite.FromID]; busy || c.presence.Get(invite.FromID) == nil {
		c.clearInvite(invite)
		c.sendError(accepterID, ErrInviterGone.Error())
		return
	}

	room, err := NewPrivateRoom(invite.FromID, accepterID, c.cfg.RoomDuration, now)
	if err != nil {
		c.log.Error("failed to create private room", "err", err)
		c.clearInvite(invite)
		return
	}
	c.rooms[room.ID] = room
	c.roomByCode[room.ReconnectCode] = room
	c.memberRoom[invite.FromID] = room.ID
	c.memberRoom[accepterID] = room.ID
	c.clearInvite(invite)

	// Everyone learns the invite resolved; only the two members receive
	// their reconnect code and personal token, each on their own copy.
	c.sink.Broadcast(models.Event{
		Type:    models.EventChatAccept,
		Payload: models.ChatAcceptedPayload{Room: room.Info("")},
	})
	for _, id := range room.Participants {
		c.sink.Send(id, models.Event{
			Type:    models.EventChatAccept,
			Payload: models.ChatAcceptedPayload{Room: room.Info(id)},
		})
	}
	c.log.Info("private room created", "room", room.ID)
}

// clearInvite releases the decision locks and forgets the invitation.
func (c *Coordinator) clearInvite(invite *models.Invitation) {
	delete(c.invites, invite.ID)
	if p := c.presence.Get(invite.FromID); p != nil {
		p.IsDeciding = false
	}
	if p := c.presence.Get(invite.ToID); p != nil {
		p.IsDeciding = false
	}
}

// ExtensionDecision records one participant's answer for an extension
// stage. Stale answers (already-resolved stage, already-extended room,
// unknown room) are discarded idempotently.
func (c *Coordinator) ExtensionDecision(participantID string, payload models.ExtensionDecisionPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[payload.RoomID]
	if !ok {
		return
	}

	outcome, dissent := room.RecordDecision(payload.Stage, participantID, payload.Decision, c.cfg.RoomDuration, c.clock())
	switch outcome {
	case OutcomeExtended:
		for _, id := range room.Participants {
			c.sink.Send(id, models.Event{
				Type:    models.EventChatExtended,
				Payload: models.ChatExtendedPayload{Room: room.Info(id)},
			})
		}
		c.sendRoomSystem(room, "You both chose to continue. Thirty more minutes on the clock.")
	case OutcomeDeclined:
		text := "One of you chose to let the conversation end at its scheduled time."
		if dissent == models.DecisionLater {
			text = "One of you prefers to see this conversation through to its scheduled end."
		}
		c.sendRoomSystem(room, text)
	}
}

// Exit closes a room unconditionally at one member's request.
func (c *Coordinator) Exit(participantID string, payload models.ChatExitPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[payload.RoomID]
	if !ok || !room.HasMember(participantID) {
		return
	}
	c.closeRoom(room, models.CloseReasonLeft, "Your conversation partner has left.")
}

// Rejoin looks a room up by reconnect code and re-admits the caller into
// the slot whose token matches. Unknown codes and token mismatches both
// yield an explicit error, never a silent no-op.
func (c *Coordinator) Rejoin(callerID, callerName string, payload models.RejoinPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	code := strings.ToUpper(strings.TrimSpace(payload.ReconnectCode))
	room, ok := c.roomByCode[code]
	if !ok || room.Closed {
		c.sendError(callerID, ErrInvalidReconnectKey.Error())
		return
	}
	member, ok := room.MemberByToken(payload.Token)
	if !ok {
		c.sendError(callerID, ErrInvalidReconnectKey.Error())
		return
	}
	if other, busy := c.memberRoom[callerID]; busy && other != room.ID {
		c.sendError(callerID, ErrAlreadyInRoom.Error())
		return
	}

	now := c.clock()
	if member != callerID {
		delete(c.memberRoom, member)
		room.ReplaceMember(member, callerID)
	}
	c.memberRoom[callerID] = room.ID
	room.RejoinStartedAt = time.Time{}

	// The rejoiner counts as present immediately; a later heartbeat will
	// fill in their invitation preferences.
	c.presence.Heartbeat(models.UserInfo{ID: callerID, DisplayName: callerName}, now)

	c.sink.Send(callerID, models.Event{
		Type: models.EventChatRejoin,
		Payload: models.ChatRejoinedPayload{
			Room:     room.Info(callerID),
			Messages: room.Messages,
		},
	})
	for _, id := range room.Participants {
		if id != callerID {
			c.sendSystem(id, room.ID, "Your conversation partner reconnected.")
		}
	}
}

// Tick drives every time-based transition. It runs to completion under the
// coordinator lock before the next tick can begin. Order: stale presence,
// community boundaries, invitation expiry, room lifecycle.
func (c *Coordinator) Tick(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.presence.SweepStale(now) {
		c.log.Debug("presence evicted", "participant", p.ID)
	}

	result := c.community.Tick(now)
	if result.SiteReset {
		c.siteReset(now)
	}
	if result.Reset {
		c.sink.Broadcast(models.Event{
			Type: models.EventResetCommunity,
			Payload: models.ResetCommunityPayload{
				NextReset:    c.community.WindowEnd(),
				Topic:        c.community.Topic(),
				SessionStyle: string(c.community.Style()),
				QuietWindow:  c.community.Quiet(),
			},
		})
	}

	for _, invite := range c.invites {
		if !now.Before(invite.ExpiresAt) {
			c.clearInvite(invite)
			c.sendError(invite.FromID, ErrInviteExpired.Error())
		}
	}

	for _, room := range c.rooms {
		c.tickRoom(room, now)
	}
}

// tickRoom applies expiry, extension prompting and the rejoin window to a
// single room.
func (c *Coordinator) tickRoom(room *PrivateRoom, now time.Time) {
	if room.Expired(now) {
		c.closeRoom(room, models.CloseReasonExpired, "Time is up. The conversation has ended.")
		return
	}

	if stage, due := room.DueStage(now); due {
		for _, id := range room.Participants {
			c.sink.Send(id, models.Event{
				Type: models.EventExtensionPrompt,
				Payload: models.ExtensionPromptPayload{
					RoomID:    room.ID,
					Stage:     stage,
					ExpiresAt: room.ExpiresAt,
				},
			})
		}
		c.sendRoomSystem(room, "This conversation is almost over. Would you like to extend it?")
	}

	present := 0
	for _, id := range room.Participants {
		if c.presence.Contains(id) {
			present++
		}
	}
	switch {
	case present >= 2:
		room.RejoinStartedAt = time.Time{}
	case room.RejoinStartedAt.IsZero():
		room.RejoinStartedAt = now
	case now.Sub(room.RejoinStartedAt) > c.cfg.RejoinWindow:
		c.closeRoom(room, models.CloseReasonRejoinExpired, "Your conversation partner did not return in time.")
	}
}

// siteReset clears all presence, invitations and private rooms, then tells
// every client to discard its local state.
func (c *Coordinator) siteReset(now time.Time) {
	for _, room := range c.rooms {
		room.Closed = true
	}
	c.rooms = make(map[string]*PrivateRoom)
	c.roomByCode = make(map[string]*PrivateRoom)
	c.memberRoom = make(map[string]string)
	c.invites = make(map[string]*models.Invitation)
	c.presence.Clear()

	c.sink.Broadcast(models.Event{
		Type:    models.EventResetSite,
		Payload: models.ResetSitePayload{NextReset: c.community.SiteWindowEnd()},
	})
	c.log.Info("site reset", "next", c.community.SiteWindowEnd())
}

// closeRoom finalizes a room: releases its reconnect code, tokens and
// member slots, and notifies both participants with the reason.
func (c *Coordinator) closeRoom(room *PrivateRoom, reason, systemText string) {
	if room.Closed {
		return
	}
	room.Closed = true
	delete(c.rooms, room.ID)
	delete(c.roomByCode, room.ReconnectCode)
	room.Tokens = map[string]string{}

	sys := models.SystemMessage(uuid.New().String(), systemText, room.ID, c.clock())
	for _, id := range room.Participants {
		if c.memberRoom[id] == room.ID {
			delete(c.memberRoom, id)
		}
		c.sink.Send(id, models.Event{
			Type: models.EventChatClosed,
			Payload: models.ChatClosedPayload{
				RoomID:        room.ID,
				Reason:        reason,
				SystemMessage: &sys,
			},
		})
	}
	c.log.Info("private room closed", "room", room.ID, "reason", reason)
}

// sendError delivers a typed ERROR event to one participant.
func (c *Coordinator) sendError(participantID, message string) {
	c.sink.Send(participantID, models.Event{
		Type:    models.EventError,
		Payload: models.ErrorPayload{Message: message},
	})
}

// sendSystem delivers a coordinator-authored message to one participant.
func (c *Coordinator) sendSystem(participantID, roomID, text string) {
	msg := models.SystemMessage(uuid.New().String(), text, roomID, c.clock())
	c.sink.Send(participantID, models.Event{Type: models.EventMessage, Payload: msg})
}

// sendRoomSystem delivers a coordinator-authored message to both members of
// a room and records it in the room buffer.
func (c *Coordinator) sendRoomSystem(room *PrivateRoom, text string) {
	msg := models.SystemMessage(uuid.New().String(), text, room.ID, c.clock())
	room.Messages = append(room.Messages, msg)
	for _, id := range room.Participants {
		c.sink.Send(id, models.Event{Type: models.EventMessage, Payload: msg})
	}
}
