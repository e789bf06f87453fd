package domain

import (
	"time"
)

// SyncStatus is the per-user sync state machine value.
type SyncStatus string

const (
	// SyncNever means no sync has ever been attempted for the user.
	SyncNever SyncStatus = "NEVER_SYNCED"
	// SyncRunning means a sync cycle is currently in flight.
	SyncRunning SyncStatus = "SYNCING"
	// SyncOK means the last cycle reconciled successfully.
	SyncOK SyncStatus = "SYNCED"
	// SyncError means the last cycle failed for a retryable reason.
	SyncError SyncStatus = "ERROR"
	// SyncTokenExpired means the provider credential is invalid and the
	// user must re-authorize; never retried automatically.
	SyncTokenExpired SyncStatus = "TOKEN_EXPIRED"
)

// User is the root aggregate. Accounts, transactions, budgets, goals and
// category rules are all scoped to exactly one user and removed with it.
type User struct {
	ID    string
	Email string

	// Provider connection. AccessToken and ItemID are set by the token
	// exchange and cleared on disconnect.
	AccessToken     string
	ItemID          string
	InstitutionName string

	SyncStatus   SyncStatus
	SyncMessage  string // last failure message, empty after a clean cycle
	LastSyncedAt *time.Time

	CreatedAt time.Time
}

// Connected reports whether the user has a live provider link.
func (u *User) Connected() bool {
	return u.AccessToken != ""
}
