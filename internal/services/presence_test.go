package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/solenne-dev/nightjar/internal/models"
)

func TestPresence_HeartbeatUpserts(t *testing.T) {
	r := NewPresenceRegistry(15 * time.Second)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	p := r.Heartbeat(models.UserInfo{ID: "a", DisplayName: "Ava", AcceptingInvitations: true}, now)
	require.NotNil(t, p)
	require.Equal(t, now, p.LastHeartbeatAt)
	require.Equal(t, 1, r.Len())

	// A later heartbeat refreshes the timestamp and info but keeps the
	// same entry, including its moderation counters.
	p.BorderlineCount = 3
	later := now.Add(5 * time.Second)
	p2 := r.Heartbeat(models.UserInfo{ID: "a", DisplayName: "Ava2"}, later)
	require.Same(t, p, p2)
	require.Equal(t, later, p2.LastHeartbeatAt)
	require.Equal(t, "Ava2", p2.DisplayName)
	require.Equal(t, 3, p2.BorderlineCount)
}

func TestPresence_HeartbeatDropsMalformed(t *testing.T) {
	r := NewPresenceRegistry(15 * time.Second)
	require.Nil(t, r.Heartbeat(models.UserInfo{}, time.Now()))
	require.Equal(t, 0, r.Len())
}

func TestPresence_SweepStale(t *testing.T) {
	r := NewPresenceRegistry(15 * time.Second)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	r.Heartbeat(models.UserInfo{ID: "fresh", DisplayName: "F"}, now)
	r.Heartbeat(models.UserInfo{ID: "stale", DisplayName: "S"}, now.Add(-16*time.Second))
	r.Heartbeat(models.UserInfo{ID: "edge", DisplayName: "E"}, now.Add(-15*time.Second))

	removed := r.SweepStale(now)
	require.Len(t, removed, 1)
	require.Equal(t, "stale", removed[0].ID)

	// Exactly at the threshold survives; the check is strictly older-than.
	require.True(t, r.Contains("edge"))
	require.True(t, r.Contains("fresh"))
	require.False(t, r.Contains("stale"))
}

func TestPresence_IsAvailable(t *testing.T) {
	r := NewPresenceRegistry(15 * time.Second)
	now := time.Now()

	require.False(t, r.IsAvailable("ghost"))

	r.Heartbeat(models.UserInfo{ID: "closed", DisplayName: "C", AcceptingInvitations: false}, now)
	require.False(t, r.IsAvailable("closed"))

	open := r.Heartbeat(models.UserInfo{ID: "open", DisplayName: "O", AcceptingInvitations: true}, now)
	require.True(t, r.IsAvailable("open"))

	// A pending invitation locks the participant.
	open.IsDeciding = true
	require.False(t, r.IsAvailable("open"))
}

func TestPresence_SnapshotAndClear(t *testing.T) {
	r := NewPresenceRegistry(15 * time.Second)
	now := time.Now()
	r.Heartbeat(models.UserInfo{ID: "a", DisplayName: "A"}, now)
	r.Heartbeat(models.UserInfo{ID: "b", DisplayName: "B"}, now)

	snapshot := r.Snapshot()
	require.Len(t, snapshot, 2)

	r.Clear()
	require.Equal(t, 0, r.Len())
	require.Empty(t, r.Snapshot())
}
