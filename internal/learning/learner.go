// Package learning turns user category corrections into persistent
// per-user rules that take precedence on future resolutions.
package learning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
	"github.com/christufur/MazzyMoney-sub001/internal/storage"
)

const (
	// merchantRulePriority ranks learned merchant rules above learned
	// keyword rules so the precise association wins.
	merchantRulePriority = 10
	keywordRulePriority  = 1

	// minKeywordLen filters short connective words out of the keyword
	// learning pass.
	minKeywordLen = 4
)

// Learner writes correction feedback into the rule repository.
type Learner struct {
	rules storage.RuleRepository
	log   zerolog.Logger
}

// NewLearner creates a Learner over the given rule repository.
func NewLearner(rules storage.RuleRepository, log zerolog.Logger) *Learner {
	return &Learner{rules: rules, log: log}
}

// Learn records a correction: the merchant (when present) maps to the
// corrected category as a literal rule, and every sufficiently long word
// of the transaction name becomes a keyword rule. Rules persist until a
// later correction overwrites the same key.
func (l *Learner) Learn(ctx context.Context, userID, merchant, name, correctedCategory string) error {
	correctedCategory = strings.TrimSpace(correctedCategory)
	if correctedCategory == "" {
		return fmt.Errorf("learn: corrected category is required")
	}

	now := time.Now()
	if m := strings.TrimSpace(merchant); m != "" {
		rule := &domain.CategoryRule{
			ID:        uuid.New().String(),
			UserID:    userID,
			MatchText: m,
			Category:  correctedCategory,
			Priority:  merchantRulePriority,
			CreatedAt: now,
		}
		if err := l.rules.UpsertRule(ctx, rule); err != nil {
			return fmt.Errorf("learn: upsert merchant rule: %w", err)
		}
	}

	for _, word := range keywords(name) {
		rule := &domain.CategoryRule{
			ID:        uuid.New().String(),
			UserID:    userID,
			MatchText: word,
			Category:  correctedCategory,
			Priority:  keywordRulePriority,
			CreatedAt: now,
		}
		if err := l.rules.UpsertRule(ctx, rule); err != nil {
			// A failed keyword is not worth failing the correction over.
			l.log.Warn().Err(err).Str("user_id", userID).Str("keyword", word).
				Msg("Failed to persist keyword rule")
		}
	}

	return nil
}

// Warm seeds the rule set from the user's already-categorized history:
// each merchant with a stored category becomes a literal rule. This is
// best-effort cache priming and tolerates empty history.
func (l *Learner) Warm(ctx context.Context, userID string, transactions storage.TransactionRepository) error {
	end := time.Now()
	start := end.AddDate(-1, 0, 0)
	history, err := transactions.QueryByDateRange(ctx, userID, start, end)
	if err != nil {
		return fmt.Errorf("warm: query history: %w", err)
	}

	seen := map[string]bool{}
	var seeded int
	for _, tx := range history {
		merchant := strings.TrimSpace(tx.MerchantName)
		if merchant == "" || tx.Category == "" {
			continue
		}
		key := strings.ToLower(merchant)
		if seen[key] {
			continue
		}
		seen[key] = true
		rule := &domain.CategoryRule{
			ID:        uuid.New().String(),
			UserID:    userID,
			MatchText: merchant,
			Category:  tx.Category,
			Priority:  keywordRulePriority,
			CreatedAt: time.Now(),
		}
		if err := l.rules.UpsertRule(ctx, rule); err != nil {
			l.log.Warn().Err(err).Str("merchant", merchant).Msg("Warm seeding skipped a merchant")
			continue
		}
		seeded++
	}

	l.log.Info().Str("user_id", userID).Int("seeded", seeded).Msg("Warmed category rules from history")
	return nil
}

// keywords extracts the learnable words of a transaction name: lowered,
// stripped of non-letter edges, longer than three characters, deduped.
func keywords(name string) []string {
	var out []string
	seen := map[string]bool{}
	for _, f := range strings.Fields(name) {
		w := strings.ToLower(strings.Trim(f, `.,;:!?#*()"'`))
		if len([]rune(w)) < minKeywordLen || seen[w] {
			continue
		}
		if isNumeric(w) {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
