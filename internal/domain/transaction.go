package domain

import (
	"time"
)

// Transaction represents one financial movement pulled from the provider.
// Amount keeps the provider's sign convention: positive = money out
// (expense), negative = money in (income). Aggregation depends on this
// convention, so it must never be flipped during normalization.
type Transaction struct {
	ID         string // local UUID
	ExternalID string // provider transaction id, immutable once stored
	UserID     string
	AccountID  string // local account UUID

	MerchantName   string // optional
	Name           string // display name / description
	Amount         float64
	Date           time.Time
	AuthorizedDate *time.Time

	// ProviderCategories is the raw provider category path, most general
	// level first (e.g. ["Food and Drink", "Restaurants"]).
	ProviderCategories []string

	// Category is the derived display category. Once set it is only
	// overwritten by a re-categorization, never silently cleared.
	Category    string
	Subcategory string

	Pending bool

	LocationCity   string
	LocationRegion string

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PrimaryProviderCategory returns the most general provider category level,
// or "" when the provider sent none.
func (t *Transaction) PrimaryProviderCategory() string {
	if len(t.ProviderCategories) == 0 {
		return ""
	}
	return t.ProviderCategories[0]
}

// IsIncome reports whether the amount sign indicates money in.
func (t *Transaction) IsIncome() bool {
	return t.Amount < 0
}
