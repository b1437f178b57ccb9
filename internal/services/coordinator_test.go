package services

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/solenne-dev/nightjar/internal/config"
	"github.com/solenne-dev/nightjar/internal/models"
	"github.com/solenne-dev/nightjar/internal/moderation"
)

// recordSink captures fan-out for assertions.
type recordSink struct {
	broadcasts []models.Event
	sends      map[string][]models.Event
}

func newRecordSink() *recordSink {
	return &recordSink{sends: make(map[string][]models.Event)}
}

func (s *recordSink) Broadcast(evt models.Event) {
	s.broadcasts = append(s.broadcasts, evt)
}

func (s *recordSink) Send(participantID string, evt models.Event) {
	s.sends[participantID] = append(s.sends[participantID], evt)
}

func (s *recordSink) sentTo(id string, t models.EventType) []models.Event {
	var out []models.Event
	for _, evt := range s.sends[id] {
		if evt.Type == t {
			out = append(out, evt)
		}
	}
	return out
}

func (s *recordSink) broadcastsOf(t models.EventType) []models.Event {
	var out []models.Event
	for _, evt := range s.broadcasts {
		if evt.Type == t {
			out = append(out, evt)
		}
	}
	return out
}

func (s *recordSink) reset() {
	s.broadcasts = nil
	s.sends = make(map[string][]models.Event)
}

// stubGateway returns a fixed verdict per marker substring, Allowed
// otherwise.
type stubGateway struct{}

func (stubGateway) Moderate(text string) moderation.Verdict {
	switch {
	case strings.Contains(text, "BLOCKME"):
		return moderation.Blocked
	case strings.Contains(text, "EDGY"):
		return moderation.Borderline
	default:
		return moderation.Allowed
	}
}

func testConfig() *config.Config {
	return &config.Config{
		PresenceTTL:         15 * time.Second,
		MessageTTL:          5 * time.Minute,
		CommunityPeriod:     30 * time.Minute,
		SitePeriod:          2 * time.Hour,
		QuietLength:         2 * time.Minute,
		RoomDuration:        30 * time.Minute,
		InviteTTL:           30 * time.Second,
		RejoinWindow:        15 * time.Minute,
		BufferCap:           200,
		BorderlineThreshold: 5,
		TickInterval:        time.Second,
	}
}

type fixture struct {
	coord *Coordinator
	sink  *recordSink
	now   time.Time
}

// newFixture builds a coordinator frozen at a boundary-aligned instant
// with a manually driven clock.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sink: newRecordSink(),
		now:  time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC),
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	f.coord = NewCoordinator(testConfig(), log, stubGateway{}, f.sink)
	f.coord.clock = func() time.Time { return f.now }
	// Rebuild the community against the frozen clock so window boundaries
	// are deterministic.
	f.coord.community = NewCommunity(30*time.Minute, 2*time.Hour, 5*time.Minute, 2*time.Minute, 200, f.now)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) join(id, name string) {
	f.coord.Connect(models.UserInfo{ID: id, DisplayName: name, AcceptingInvitations: true})
}

// pair walks two participants through invite and acceptance, returning the
// created room.
func (f *fixture) pair(t *testing.T, a, b string) *PrivateRoom {
	t.Helper()
	f.coord.RequestInvite(a, models.ChatRequestPayload{ToID: b})
	requests := f.sink.broadcastsOf(models.EventChatRequest)
	require.NotEmpty(t, requests)
	invite := requests[len(requests)-1].Payload.(*models.Invitation)
	f.coord.AcceptInvite(b, models.ChatAcceptPayload{InviteID: invite.ID})

	roomID, ok := f.coord.memberRoom[a]
	require.True(t, ok, "room was not created")
	return f.coord.rooms[roomID]
}

func TestCoordinator_ConnectDeliversInitState(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.join("b", "Bea")

	inits := f.sink.sentTo("b", models.EventInitState)
	require.Len(t, inits, 1)
	init := inits[0].Payload.(models.InitStatePayload)
	require.Len(t, init.Users, 2)
	require.NotEmpty(t, init.Topic)
	require.Equal(t, f.coord.community.WindowEnd(), init.WindowEnd)
}

func TestCoordinator_HeartbeatRebroadcastsWithBoundaries(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.sink.reset()

	f.coord.Heartbeat(models.HeartbeatPayload{User: models.UserInfo{ID: "a", DisplayName: "Ava", AcceptingInvitations: true}})

	beats := f.sink.broadcastsOf(models.EventHeartbeat)
	require.Len(t, beats, 1)
	hb := beats[0].Payload.(models.HeartbeatBroadcast)
	require.Equal(t, "a", hb.User.ID)
	require.Equal(t, f.coord.community.WindowEnd(), hb.WindowEnd)
	require.Equal(t, f.coord.community.SiteWindowEnd(), hb.SiteWindowEnd)
}

func TestCoordinator_CommunityMessageBroadcast(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.sink.reset()

	f.coord.PostMessage("a", models.SendMessagePayload{Text: "hello all"})

	msgs := f.sink.broadcastsOf(models.EventMessage)
	require.Len(t, msgs, 1)
	msg := msgs[0].Payload.(models.Message)
	require.Equal(t, "a", msg.SenderID)
	require.Equal(t, "Ava", msg.SenderName)
	require.Empty(t, msg.RoomID)
	require.Equal(t, 1, f.coord.community.Len())
}

func TestCoordinator_QuietWindowRoutesToSenderOnly(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.sink.reset()

	f.coord.community.quiet = models.QuietWindow{Start: f.now.Add(-time.Minute), End: f.now.Add(time.Minute)}
	f.coord.PostMessage("a", models.SendMessagePayload{Text: "anyone?"})

	require.Empty(t, f.sink.broadcastsOf(models.EventMessage))
	echoes := f.sink.sentTo("a", models.EventMessage)
	require.Len(t, echoes, 1)
	require.Equal(t, models.SystemSenderID, echoes[0].Payload.(models.Message).SenderID)
	require.Equal(t, 0, f.coord.community.Len())
}

func TestCoordinator_BlockedCommunityMessageEchoesToSenderOnly(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.sink.reset()

	f.coord.PostMessage("a", models.SendMessagePayload{Text: "BLOCKME now"})

	require.Empty(t, f.sink.broadcastsOf(models.EventMessage))
	echoes := f.sink.sentTo("a", models.EventMessage)
	require.Len(t, echoes, 1)
	require.Equal(t, "a", echoes[0].Payload.(models.Message).SenderID)
	require.Equal(t, 0, f.coord.community.Len())
}

func TestCoordinator_BorderlineWarnsOnceThenShadowLimits(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.sink.reset()

	// First borderline: broadcast goes out, plus a single soft warning.
	f.coord.PostMessage("a", models.SendMessagePayload{Text: "EDGY 1"})
	require.Len(t, f.sink.broadcastsOf(models.EventMessage), 1)
	warnings := f.sink.sentTo("a", models.EventMessage)
	require.Len(t, warnings, 1)
	require.Equal(t, models.SystemSenderID, warnings[0].Payload.(models.Message).SenderID)

	// Borderline 2..5: still broadcast, no further warnings.
	for i := 2; i <= 5; i++ {
		f.coord.PostMessage("a", models.SendMessagePayload{Text: "EDGY again"})
	}
	require.Len(t, f.sink.broadcastsOf(models.EventMessage), 5)
	require.Len(t, f.sink.sentTo("a", models.EventMessage), 1)

	p := f.coord.presence.Get("a")
	require.Equal(t, 5, p.BorderlineCount)
	require.True(t, p.ShadowLimited)

	// The standing penalty withholds subsequent messages, even clean ones,
	// while still acknowledging them to the sender.
	f.sink.reset()
	f.coord.PostMessage("a", models.SendMessagePayload{Text: "perfectly fine"})
	require.Empty(t, f.sink.broadcastsOf(models.EventMessage))
	require.Len(t, f.sink.sentTo("a", models.EventMessage), 1)
}

func TestCoordinator_InviteLifecycle(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.join("b", "Bea")
	f.sink.reset()

	f.coord.RequestInvite("a", models.ChatRequestPayload{ToID: "b"})

	requests := f.sink.broadcastsOf(models.EventChatRequest)
	require.Len(t, requests, 1)
	invite := requests[0].Payload.(*models.Invitation)
	require.Equal(t, "a", invite.FromID)
	require.Equal(t, "b", invite.ToID)
	require.Equal(t, f.now.Add(30*time.Second), invite.ExpiresAt)

	require.True(t, f.coord.presence.Get("a").IsDeciding)
	require.True(t, f.coord.presence.Get("b").IsDeciding)
	require.False(t, f.coord.presence.IsAvailable("b"))

	// A third participant cannot court either of them now.
	f.join("c", "Cyd")
	f.sink.reset()
	f.coord.RequestInvite("c", models.ChatRequestPayload{ToID: "b"})
	errs := f.sink.sentTo("c", models.EventError)
	require.Len(t, errs, 1)
	require.Equal(t, ErrInviteeUnavailable.Error(), errs[0].Payload.(models.ErrorPayload).Message)
}

func TestCoordinator_AcceptCreatesRoomAndDeliversSecretsPrivately(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.join("b", "Bea")
	f.sink.reset()

	room := f.pair(t, "a", "b")
	require.Equal(t, f.now.Add(30*time.Minute), room.ExpiresAt)
	require.False(t, f.coord.presence.Get("a").IsDeciding)
	require.False(t, f.coord.presence.Get("b").IsDeciding)

	// The broadcast copy never carries the code or any token.
	accepts := f.sink.broadcastsOf(models.EventChatAccept)
	require.Len(t, accepts, 1)
	public := accepts[0].Payload.(models.ChatAcceptedPayload).Room
	require.Empty(t, public.ReconnectCode)
	require.Empty(t, public.Token)

	for _, id := range []string{"a", "b"} {
		private := f.sink.sentTo(id, models.EventChatAccept)
		require.Len(t, private, 1)
		info := private[0].Payload.(models.ChatAcceptedPayload).Room
		require.Equal(t, room.ReconnectCode, info.ReconnectCode)
		require.Equal(t, room.Tokens[id], info.Token)
	}
}

func TestCoordinator_AtMostOneActiveRoomPerParticipant(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.join("b", "Bea")
	f.join("c", "Cyd")
	f.pair(t, "a", "b")
	f.sink.reset()

	// a is in a room; a fresh invitation attempt from them is refused.
	f.coord.RequestInvite("a", models.ChatRequestPayload{ToID: "c"})
	errs := f.sink.sentTo("a", models.EventError)
	require.Len(t, errs, 1)
	require.Equal(t, ErrAlreadyInRoom.Error(), errs[0].Payload.(models.ErrorPayload).Message)

	// And nobody can rope a room member into a second room.
	f.sink.reset()
	f.coord.RequestInvite("c", models.ChatRequestPayload{ToID: "b"})
	errs = f.sink.sentTo("c", models.EventError)
	require.Len(t, errs, 1)
	require.Equal(t, ErrInviteeUnavailable.Error(), errs[0].Payload.(models.ErrorPayload).Message)
}

func TestCoordinator_LateAcceptanceRejected(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.join("b", "Bea")
	f.sink.reset()

	f.coord.RequestInvite("a", models.ChatRequestPayload{ToID: "b"})
	invite := f.sink.broadcastsOf(models.EventChatRequest)[0].Payload.(*models.Invitation)

	// The tick clears the invite once its 30 seconds run out.
	f.advance(31 * time.Second)
	f.heartbeatBoth()
	f.coord.Tick(f.now)
	require.Empty(t, f.coord.invites)
	require.False(t, f.coord.presence.Get("a").IsDeciding)
	require.False(t, f.coord.presence.Get("b").IsDeciding)
	require.NotEmpty(t, f.sink.sentTo("a", models.EventError))

	// Acceptance after the record is gone is rejected, not applied.
	f.sink.reset()
	f.coord.AcceptInvite("b", models.ChatAcceptPayload{InviteID: invite.ID})
	errs := f.sink.sentTo("b", models.EventError)
	require.Len(t, errs, 1)
	require.Equal(t, ErrInviteExpired.Error(), errs[0].Payload.(models.ErrorPayload).Message)
	require.Empty(t, f.coord.rooms)
}

func TestCoordinator_PrivateMessagesStayPrivate(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.join("b", "Bea")
	f.join("c", "Cyd")
	room := f.pair(t, "a", "b")
	f.sink.reset()

	f.coord.PostMessage("a", models.SendMessagePayload{Text: "just us", RoomID: room.ID})

	require.Empty(t, f.sink.broadcastsOf(models.EventMessage))
	require.Len(t, f.sink.sentTo("a", models.EventMessage), 1)
	require.Len(t, f.sink.sentTo("b", models.EventMessage), 1)
	require.Empty(t, f.sink.sentTo("c", models.EventMessage))
	require.Len(t, room.Messages, 1)

	// Outsiders cannot post into the room.
	f.sink.reset()
	f.coord.PostMessage("c", models.SendMessagePayload{Text: "let me in", RoomID: room.ID})
	require.Empty(t, f.sink.sentTo("a", models.EventMessage))
	require.Len(t, room.Messages, 1)
}

func TestCoordinator_BlockedPrivateMessageClosesRoom(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.join("b", "Bea")
	room := f.pair(t, "a", "b")
	f.sink.reset()

	f.coord.PostMessage("a", models.SendMessagePayload{Text: "BLOCKME", RoomID: room.ID})

	require.True(t, room.Closed)
	require.Empty(t, f.coord.rooms)
	require.Empty(t, f.coord.memberRoom)
	for _, id := range []string{"a", "b"} {
		closed := f.sink.sentTo(id, models.EventChatClosed)
		require.Len(t, closed, 1)
		payload := closed[0].Payload.(models.ChatClosedPayload)
		require.Equal(t, models.CloseReasonModeration, payload.Reason)
		require.NotNil(t, payload.SystemMessage)
	}
}

func TestCoordinator_ExitClosesUnconditionally(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.join("b", "Bea")
	room := f.pair(t, "a", "b")
	f.sink.reset()

	f.coord.Exit("b", models.ChatExitPayload{RoomID: room.ID})

	require.True(t, room.Closed)
	closed := f.sink.sentTo("a", models.EventChatClosed)
	require.Len(t, closed, 1)
	require.Equal(t, models.CloseReasonLeft, closed[0].Payload.(models.ChatClosedPayload).Reason)

	// Both members are free again.
	f.sink.reset()
	f.join("c", "Cyd")
	f.coord.RequestInvite("a", models.ChatRequestPayload{ToID: "c"})
	require.Empty(t, f.sink.sentTo("a", models.EventError))
}

func TestCoordinator_ExtensionScenario(t *testing.T) {
	// Full lifecycle: invite at t=0, accept at t=1s, both EXTEND at 25min,
	// close at the pushed-out deadline.
	f := newFixture(t)
	f.join("a", "Ava")
	f.join("b", "Bea")

	f.coord.RequestInvite("a", models.ChatRequestPayload{ToID: "b"})
	invite := f.sink.broadcastsOf(models.EventChatRequest)[0].Payload.(*models.Invitation)

	f.advance(time.Second)
	f.coord.AcceptInvite("b", models.ChatAcceptPayload{InviteID: invite.ID})
	room := f.coord.rooms[f.coord.memberRoom["a"]]
	require.NotNil(t, room)
	accepted := f.now
	require.Equal(t, accepted.Add(30*time.Minute), room.ExpiresAt)

	// Keep both participants fresh and let the 5-minute prompt fire.
	f.advance(25 * time.Minute)
	f.heartbeatBoth()
	f.sink.reset()
	f.coord.Tick(f.now)
	require.NotEmpty(t, f.sink.sentTo("a", models.EventExtensionPrompt))
	require.NotEmpty(t, f.sink.sentTo("b", models.EventExtensionPrompt))

	f.sink.reset()
	f.coord.ExtensionDecision("a", models.ExtensionDecisionPayload{RoomID: room.ID, Stage: models.StageFiveMin, Decision: models.DecisionExtend})
	f.coord.ExtensionDecision("b", models.ExtensionDecisionPayload{RoomID: room.ID, Stage: models.StageFiveMin, Decision: models.DecisionExtend})

	require.True(t, room.Extended)
	require.Equal(t, f.now.Add(30*time.Minute), room.ExpiresAt)
	require.NotEmpty(t, f.sink.sentTo("a", models.EventChatExtended))
	require.NotEmpty(t, f.sink.sentTo("b", models.EventChatExtended))

	// No further stage prompts for an extended room.
	f.advance(26 * time.Minute)
	f.heartbeatBoth()
	f.sink.reset()
	f.coord.Tick(f.now)
	require.Empty(t, f.sink.sentTo("a", models.EventExtensionPrompt))

	// At the new deadline the room closes with reason expired.
	f.advance(4 * time.Minute)
	f.heartbeatBoth()
	f.sink.reset()
	f.coord.Tick(f.now)
	closed := f.sink.sentTo("a", models.EventChatClosed)
	require.Len(t, closed, 1)
	require.Equal(t, models.CloseReasonExpired, closed[0].Payload.(models.ChatClosedPayload).Reason)
	require.Empty(t, f.coord.rooms)
}

func (f *fixture) heartbeatBoth() {
	f.coord.Heartbeat(models.HeartbeatPayload{User: models.UserInfo{ID: "a", DisplayName: "Ava", AcceptingInvitations: false}})
	f.coord.Heartbeat(models.HeartbeatPayload{User: models.UserInfo{ID: "b", DisplayName: "Bea", AcceptingInvitations: false}})
}

func TestCoordinator_RejoinUnknownCodeIsExplicitError(t *testing.T) {
	f := newFixture(t)
	f.join("x", "Xan")
	f.sink.reset()

	f.coord.Rejoin("x", "Xan", models.RejoinPayload{ReconnectCode: "ZZZZZZ", Token: "whatever"})

	errs := f.sink.sentTo("x", models.EventError)
	require.Len(t, errs, 1)
	require.Equal(t, ErrInvalidReconnectKey.Error(), errs[0].Payload.(models.ErrorPayload).Message)
}

func TestCoordinator_RejoinRequiresMatchingToken(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.join("b", "Bea")
	room := f.pair(t, "a", "b")
	f.sink.reset()

	f.coord.Rejoin("b2", "Bea", models.RejoinPayload{ReconnectCode: room.ReconnectCode, Token: "forged"})

	errs := f.sink.sentTo("b2", models.EventError)
	require.Len(t, errs, 1)
	require.Equal(t, ErrInvalidReconnectKey.Error(), errs[0].Payload.(models.ErrorPayload).Message)
	require.True(t, room.HasMember("b"))
}

func TestCoordinator_RejoinWindowAndReturn(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.join("b", "Bea")
	room := f.pair(t, "a", "b")
	tokenB := room.Tokens["b"]
	f.coord.PostMessage("a", models.SendMessagePayload{Text: "hello b", RoomID: room.ID})

	// b vanishes; the next tick opens the rejoin window.
	f.coord.Disconnect("b")
	f.coord.Heartbeat(models.HeartbeatPayload{User: models.UserInfo{ID: "a", DisplayName: "Ava"}})
	f.coord.Tick(f.now)
	require.Equal(t, f.now, room.RejoinStartedAt)

	// Just inside the deadline b comes back under a new connection ID.
	f.advance(15*time.Minute - time.Millisecond)
	f.coord.Heartbeat(models.HeartbeatPayload{User: models.UserInfo{ID: "a", DisplayName: "Ava"}})
	f.sink.reset()
	f.coord.Rejoin("b2", "Bea", models.RejoinPayload{ReconnectCode: room.ReconnectCode, Token: tokenB})

	require.True(t, room.RejoinStartedAt.IsZero())
	require.True(t, room.HasMember("b2"))
	require.False(t, room.HasMember("b"))
	require.Equal(t, room.ID, f.coord.memberRoom["b2"])

	rejoined := f.sink.sentTo("b2", models.EventChatRejoin)
	require.Len(t, rejoined, 1)
	payload := rejoined[0].Payload.(models.ChatRejoinedPayload)
	require.Equal(t, tokenB, payload.Room.Token)
	require.Len(t, payload.Messages, 1)
	require.Equal(t, "hello b", payload.Messages[0].Text)

	// The would-be deadline passes without incident.
	f.advance(2 * time.Minute)
	f.coord.Heartbeat(models.HeartbeatPayload{User: models.UserInfo{ID: "a", DisplayName: "Ava"}})
	f.coord.Heartbeat(models.HeartbeatPayload{User: models.UserInfo{ID: "b2", DisplayName: "Bea"}})
	f.sink.reset()
	f.coord.Tick(f.now)
	require.False(t, room.Closed)
}

func TestCoordinator_RejoinWindowExpires(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.join("b", "Bea")
	room := f.pair(t, "a", "b")

	f.coord.Disconnect("b")
	f.coord.Tick(f.now)
	require.Equal(t, f.now, room.RejoinStartedAt)

	// Room expiry would interfere at 30min; the rejoin deadline comes
	// first at 15min.
	f.advance(15*time.Minute + time.Second)
	f.coord.Heartbeat(models.HeartbeatPayload{User: models.UserInfo{ID: "a", DisplayName: "Ava"}})
	f.sink.reset()
	f.coord.Tick(f.now)

	require.True(t, room.Closed)
	closed := f.sink.sentTo("a", models.EventChatClosed)
	require.Len(t, closed, 1)
	require.Equal(t, models.CloseReasonRejoinExpired, closed[0].Payload.(models.ChatClosedPayload).Reason)

	// The reconnect code is released with the room.
	f.sink.reset()
	f.coord.Rejoin("b2", "Bea", models.RejoinPayload{ReconnectCode: room.ReconnectCode, Token: "anything"})
	errs := f.sink.sentTo("b2", models.EventError)
	require.Len(t, errs, 1)
	require.Equal(t, ErrInvalidReconnectKey.Error(), errs[0].Payload.(models.ErrorPayload).Message)
}

func TestCoordinator_StalePresenceOpensRejoinWindow(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.join("b", "Bea")
	room := f.pair(t, "a", "b")

	// b stops heartbeating; a keeps going. The sweep evicts b and the
	// same tick opens the rejoin window.
	f.advance(16 * time.Second)
	f.coord.Heartbeat(models.HeartbeatPayload{User: models.UserInfo{ID: "a", DisplayName: "Ava"}})
	f.coord.Tick(f.now)

	require.False(t, f.coord.presence.Contains("b"))
	require.Equal(t, f.now, room.RejoinStartedAt)
}

func TestCoordinator_CommunityResetBroadcast(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.coord.PostMessage("a", models.SendMessagePayload{Text: "pre-reset"})
	f.sink.reset()

	// Fixture starts at 12:01; the next period boundary is 12:30.
	f.advance(29 * time.Minute)
	f.coord.Tick(f.now)

	resets := f.sink.broadcastsOf(models.EventResetCommunity)
	require.Len(t, resets, 1)
	payload := resets[0].Payload.(models.ResetCommunityPayload)
	require.Equal(t, f.now.Add(30*time.Minute), payload.NextReset)
	require.NotEmpty(t, payload.Topic)
	require.Equal(t, 0, f.coord.community.Len())
}

func TestCoordinator_SiteResetClearsEverything(t *testing.T) {
	f := newFixture(t)
	f.join("a", "Ava")
	f.join("b", "Bea")
	f.join("c", "Cyd")
	f.pair(t, "a", "b")
	f.coord.RequestInvite("c", models.ChatRequestPayload{ToID: "a"}) // refused, but exercise the path
	f.sink.reset()

	// Fixture starts at 12:01; the site boundary is 14:00.
	f.advance(2 * time.Hour)
	f.coord.Tick(f.now)

	require.Len(t, f.sink.broadcastsOf(models.EventResetSite), 1)
	require.Empty(t, f.coord.rooms)
	require.Empty(t, f.coord.roomByCode)
	require.Empty(t, f.coord.memberRoom)
	require.Empty(t, f.coord.invites)
	require.Equal(t, 0, f.coord.presence.Len())
}
