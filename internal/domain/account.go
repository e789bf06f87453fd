package domain

import (
	"time"
)

// Account represents one linked bank account. ExternalID is the provider's
// stable account identifier: re-syncs update balances and metadata in
// place, keyed by it, and never create a duplicate row.
type Account struct {
	ID         string // local UUID
	ExternalID string // provider account id, immutable once stored
	UserID     string

	Name         string
	OfficialName string // optional
	Type         string
	Subtype      string
	Mask         string // last digits, optional

	CurrentBalance   float64
	AvailableBalance *float64
	CreditLimit      *float64

	Active    bool
	UpdatedAt time.Time
	CreatedAt time.Time
}
