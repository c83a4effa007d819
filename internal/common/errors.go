// Package common defines shared constants and sentinel errors used across
// the on-tab client, daemon and sync layers. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Ownership: the record exists but belongs to a different identity.
	ErrorNotOwner = errors.New("record owned by another identity")

	// Sync-specific errors.
	ErrSyncLocked       = errors.New("sync already in progress")
	ErrDanglingRef      = errors.New("dangling category reference")
	ErrSessionMalformed = errors.New("malformed session token")
)

// GuestOwnerID is the anonymous sentinel identity shared by all
// unauthenticated activity on a device. Guest-owned records are re-owned
// to the authenticated user id on the first successful sync after login.
const GuestOwnerID = "local-user"
