package services

import "errors"

// Invariant violations surfaced to the originating participant as typed
// ERROR events. Nothing here ever terminates the coordinator.
var (
	// ErrInvalidReconnectKey deliberately covers both unknown codes and
	// token mismatches so rejoin attempts cannot probe which part failed.
	ErrInvalidReconnectKey = errors.New("Invalid or Expired Key")

	ErrInviteeUnavailable = errors.New("participant is not available for invitations")
	ErrInviteExpired      = errors.New("invitation expired")
	ErrAlreadyInRoom      = errors.New("already in a private conversation")
	ErrInviterGone        = errors.New("the inviter is no longer online")
)
