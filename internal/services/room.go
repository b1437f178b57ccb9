package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/solenne-dev/nightjar/internal/models"
)

// codeAlphabet excludes visually ambiguous characters (0/O, 1/I/L) so the
// reconnect code survives being read aloud or retyped.
const (
	codeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
	codeLength   = 6
)

// PrivateRoom is a time-bounded one-to-one session. All mutation happens
// under the coordinator's lock; methods either mutate directly or return a
// transition result for the coordinator to apply.
type PrivateRoom struct {
	ID            string
	Participants  [2]string
	ReconnectCode string

	// Tokens maps participant ID to the per-participant rejoin secret.
	// Rejoining requires matching a token, not just the shared code.
	Tokens map[string]string

	CreatedAt time.Time
	ExpiresAt time.Time
	Extended  bool

	// StageDecisions records each participant's answer per extension stage.
	// A stage resolves only once both members have answered.
	StageDecisions map[models.Stage]map[string]models.Decision

	// prompted gates each stage so a prompt fires exactly once; resolved
	// gates each stage so a late decision after resolution is dropped.
	prompted map[models.Stage]bool
	resolved map[models.Stage]bool

	// RejoinStartedAt is set when the room's present member count drops
	// below two, and cleared when the missing member returns.
	RejoinStartedAt time.Time

	// Messages buffers the room's conversation for re-delivery on rejoin.
	// They live exactly as long as the room.
	Messages []models.Message

	Closed bool
}

// NewPrivateRoom creates a room for two mutually consenting participants,
// with a fresh reconnect code and per-participant secrets.
func NewPrivateRoom(a, b string, duration time.Duration, now time.Time) (*PrivateRoom, error) {
	code, err := generateReconnectCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate reconnect code: %w", err)
	}
	tokenA, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	tokenB, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &PrivateRoom{
		ID:            uuid.New().String(),
		Participants:  [2]string{a, b},
		ReconnectCode: code,
		Tokens:        map[string]string{a: tokenA, b: tokenB},
		CreatedAt:     now,
		ExpiresAt:     now.Add(duration),
		StageDecisions: map[models.Stage]map[string]models.Decision{
			models.StageFiveMin: {},
			models.StageTwoMin:  {},
		},
		prompted: map[models.Stage]bool{},
		resolved: map[models.Stage]bool{},
	}, nil
}

// HasMember reports whether the participant belongs to this room.
func (r *PrivateRoom) HasMember(participantID string) bool {
	return r.Participants[0] == participantID || r.Participants[1] == participantID
}

// Expired reports whether the room has outlived its deadline.
func (r *PrivateRoom) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// DueStage returns the extension stage that should be offered at now, if
// any. The 5-minute stage fires once in (2min, 5min] before expiry, the
// 2-minute stage once in (0, 2min]. An extended room offers no stages.
func (r *PrivateRoom) DueStage(now time.Time) (models.Stage, bool) {
	if r.Extended || r.Closed {
		return "", false
	}
	remaining := r.ExpiresAt.Sub(now)
	switch {
	case remaining <= 0:
		return "", false
	case remaining <= 2*time.Minute:
		if !r.prompted[models.StageTwoMin] {
			r.prompted[models.StageTwoMin] = true
			return models.StageTwoMin, true
		}
	case remaining <= 5*time.Minute:
		if !r.prompted[models.StageFiveMin] {
			r.prompted[models.StageFiveMin] = true
			return models.StageFiveMin, true
		}
	}
	return "", false
}

// ExtensionOutcome is the result of recording a decision.
type ExtensionOutcome int

const (
	// OutcomePending means the other participant has not answered yet.
	OutcomePending ExtensionOutcome = iota
	// OutcomeExtended means both answered EXTEND and the deadline moved.
	OutcomeExtended
	// OutcomeDeclined means the stage resolved without an extension.
	OutcomeDeclined
	// OutcomeIgnored means the decision was stale or invalid and dropped.
	OutcomeIgnored
)

// RecordDecision stores one participant's answer for a stage and resolves
// the stage once both answers are in. Resubmitting a decision after the
// stage resolved is idempotent: an already-extended room never extends
// twice, and a resolved decline stays resolved.
func (r *PrivateRoom) RecordDecision(stage models.Stage, participantID string, decision models.Decision, duration time.Duration, now time.Time) (ExtensionOutcome, models.Decision) {
	if r.Closed || !r.HasMember(participantID) {
		return OutcomeIgnored, ""
	}
	decisions, ok := r.StageDecisions[stage]
	if !ok {
		return OutcomeIgnored, ""
	}
	if r.Extended || r.resolved[stage] {
		// One extension maximum; late or duplicate decisions are stale.
		return OutcomeIgnored, ""
	}

	decisions[participantID] = decision
	if len(decisions) < 2 {
		return OutcomePending, ""
	}
	r.resolved[stage] = true

	// Both answered: unanimity extends, anything else declines. The first
	// dissent found in member order names the reported reason.
	for _, id := range r.Participants {
		if d, ok := decisions[id]; ok && d != models.DecisionExtend {
			return OutcomeDeclined, d
		}
	}

	r.Extended = true
	r.ExpiresAt = now.Add(duration)
	return OutcomeExtended, ""
}

// ReplaceMember swaps oldID for newID, carrying the rejoin token over.
// Used when a participant comes back under a fresh connection identity.
func (r *PrivateRoom) ReplaceMember(oldID, newID string) {
	if oldID == newID {
		return
	}
	for i, id := range r.Participants {
		if id == oldID {
			r.Participants[i] = newID
		}
	}
	if token, ok := r.Tokens[oldID]; ok {
		delete(r.Tokens, oldID)
		r.Tokens[newID] = token
	}
	for _, decisions := range r.StageDecisions {
		if d, ok := decisions[oldID]; ok {
			delete(decisions, oldID)
			decisions[newID] = d
		}
	}
}

// MemberByToken returns the participant slot matching a rejoin secret.
func (r *PrivateRoom) MemberByToken(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	for id, t := range r.Tokens {
		if t == token {
			return id, true
		}
	}
	return "", false
}

// Info renders the wire view. Code and token are filled in only for copies
// sent privately to forID; broadcast copies pass an empty forID.
func (r *PrivateRoom) Info(forID string) models.RoomInfo {
	info := models.RoomInfo{
		ID:           r.ID,
		Participants: append([]string(nil), r.Participants[:]...),
		CreatedAt:    r.CreatedAt,
		ExpiresAt:    r.ExpiresAt,
		Extended:     r.Extended,
	}
	if r.HasMember(forID) {
		info.ReconnectCode = r.ReconnectCode
		info.Token = r.Tokens[forID]
	}
	return info
}

// generateReconnectCode draws codeLength characters from the unambiguous
// alphabet using crypto/rand.
func generateReconnectCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, codeLength)
	for i, b := range buf {
		code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(code), nil
}

// generateToken returns a 32-hex-character participant secret.
func generateToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
