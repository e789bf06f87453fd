package domain

import (
	"time"
)

// CategoryRule is a per-user learned categorization override. Literal
// rules match by case-insensitive substring containment; pattern rules
// compile MatchText as a case-insensitive regular expression. Rules are
// applied highest priority first, then most recent first.
type CategoryRule struct {
	ID        string
	UserID    string
	MatchText string
	IsPattern bool
	Category  string
	Priority  int
	CreatedAt time.Time
}
