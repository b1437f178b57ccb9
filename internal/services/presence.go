package services

import (
	"time"

	"github.com/samber/lo"

	"github.com/solenne-dev/nightjar/internal/models"
)

// Participant is the coordinator's record of a connected user. Everything
// here lives only as long as the connection; nothing survives a restart.
type Participant struct {
	ID                   string
	DisplayName          string
	LastHeartbeatAt      time.Time
	AcceptingInvitations bool

	// IsDeciding is true while an invitation involving this participant is
	// pending, preventing two simultaneous invitations.
	IsDeciding bool

	// Moderation counters, per connection. BorderlineCount tracks soft
	// verdicts; once ShadowLimited is set the participant's messages are
	// echoed back but withheld from everyone else.
	BorderlineCount int
	ShadowLimited   bool
	Warned          bool
}

// Info returns the public view broadcast to other participants.
func (p *Participant) Info() models.UserInfo {
	return models.UserInfo{
		ID:                   p.ID,
		DisplayName:          p.DisplayName,
		AcceptingInvitations: p.AcceptingInvitations,
	}
}

// PresenceRegistry tracks connected participants and their availability for
// private invitations. It holds no lock of its own: the coordinator
// serializes all access.
type PresenceRegistry struct {
	participants map[string]*Participant
	ttl          time.Duration
}

// NewPresenceRegistry creates a registry evicting entries whose heartbeat
// is older than ttl.
func NewPresenceRegistry(ttl time.Duration) *PresenceRegistry {
	return &PresenceRegistry{
		participants: make(map[string]*Participant),
		ttl:          ttl,
	}
}

// Heartbeat upserts a participant and refreshes its heartbeat timestamp.
// Returns the stored entry, or nil when the info is unusable (malformed
// input is dropped, not errored).
func (r *PresenceRegistry) Heartbeat(info models.UserInfo, now time.Time) *Participant {
	if info.ID == "" {
		return nil
	}

	p, ok := r.participants[info.ID]
	if !ok {
		p = &Participant{ID: info.ID}
		r.participants[info.ID] = p
	}
	p.DisplayName = info.DisplayName
	p.AcceptingInvitations = info.AcceptingInvitations
	p.LastHeartbeatAt = now
	return p
}

// SweepStale removes participants whose last heartbeat is older than the
// registry TTL and returns the removed entries so the coordinator can
// degrade any room they belonged to.
func (r *PresenceRegistry) SweepStale(now time.Time) []*Participant {
	var removed []*Participant
	for id, p := range r.participants {
		if now.Sub(p.LastHeartbeatAt) > r.ttl {
			removed = append(removed, p)
			delete(r.participants, id)
		}
	}
	return removed
}

// IsAvailable reports whether the participant exists, accepts invitations,
// and is not already deciding on one.
func (r *PresenceRegistry) IsAvailable(participantID string) bool {
	p, ok := r.participants[participantID]
	return ok && p.AcceptingInvitations && !p.IsDeciding
}

// Get returns the participant or nil.
func (r *PresenceRegistry) Get(participantID string) *Participant {
	return r.participants[participantID]
}

// Remove deletes a participant, reporting whether it existed.
func (r *PresenceRegistry) Remove(participantID string) bool {
	_, ok := r.participants[participantID]
	delete(r.participants, participantID)
	return ok
}

// Contains reports whether a participant is currently present.
func (r *PresenceRegistry) Contains(participantID string) bool {
	_, ok := r.participants[participantID]
	return ok
}

// Snapshot returns the public info of everyone online.
func (r *PresenceRegistry) Snapshot() []models.UserInfo {
	return lo.Map(lo.Values(r.participants), func(p *Participant, _ int) models.UserInfo {
		return p.Info()
	})
}

// Clear drops every entry. Used by the site-wide reset.
func (r *PresenceRegistry) Clear() {
	r.participants = make(map[string]*Participant)
}

// Len returns the number of tracked participants.
func (r *PresenceRegistry) Len() int {
	return len(r.participants)
}
