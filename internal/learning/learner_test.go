package learning

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
)

// mockRuleRepo captures upserts keyed the way the real repositories do:
// by (user, match text).
type mockRuleRepo struct {
	rules map[string]*domain.CategoryRule
	fail  bool
}

func newMockRuleRepo() *mockRuleRepo {
	return &mockRuleRepo{rules: map[string]*domain.CategoryRule{}}
}

func (m *mockRuleRepo) ListRules(ctx context.Context, userID string) ([]*domain.CategoryRule, error) {
	var out []*domain.CategoryRule
	for _, r := range m.rules {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRuleRepo) UpsertRule(ctx context.Context, rule *domain.CategoryRule) error {
	if m.fail {
		return context.DeadlineExceeded
	}
	m.rules[rule.UserID+"|"+strings.ToLower(rule.MatchText)] = rule
	return nil
}

func (m *mockRuleRepo) DeleteRulesForUser(ctx context.Context, userID string) error {
	for k, r := range m.rules {
		if r.UserID == userID {
			delete(m.rules, k)
		}
	}
	return nil
}

func TestLearn_MerchantAndKeywords(t *testing.T) {
	repo := newMockRuleRepo()
	l := NewLearner(repo, zerolog.Nop())

	err := l.Learn(context.Background(), "u1", "Acme Co", "ACME PURCHASE #123 of goods", "Shopping")
	if err != nil {
		t.Fatalf("Learn failed: %v", err)
	}

	merchant, ok := repo.rules["u1|acme co"]
	if !ok {
		t.Fatal("expected a literal merchant rule")
	}
	if merchant.Category != "Shopping" || merchant.IsPattern {
		t.Errorf("merchant rule = %+v", merchant)
	}
	if merchant.Priority <= keywordRulePriority {
		t.Errorf("merchant rule priority %d should outrank keyword priority", merchant.Priority)
	}

	// Words longer than 3 chars become keyword rules; "of" and the
	// numeric token do not.
	for _, want := range []string{"acme", "purchase", "goods"} {
		if _, ok := repo.rules["u1|"+want]; !ok {
			t.Errorf("expected keyword rule for %q", want)
		}
	}
	for _, wantAbsent := range []string{"of", "123", "#123"} {
		if _, ok := repo.rules["u1|"+wantAbsent]; ok {
			t.Errorf("did not expect keyword rule for %q", wantAbsent)
		}
	}
}

func TestLearn_NoMerchant(t *testing.T) {
	repo := newMockRuleRepo()
	l := NewLearner(repo, zerolog.Nop())

	if err := l.Learn(context.Background(), "u1", "", "COFFEE SHOP", "Food & Dining"); err != nil {
		t.Fatalf("Learn failed: %v", err)
	}
	if _, ok := repo.rules["u1|coffee"]; !ok {
		t.Error("expected keyword rule without a merchant present")
	}
}

func TestLearn_RequiresCategory(t *testing.T) {
	l := NewLearner(newMockRuleRepo(), zerolog.Nop())
	if err := l.Learn(context.Background(), "u1", "Acme", "X", "  "); err == nil {
		t.Error("expected error for empty corrected category")
	}
}

func TestLearn_LaterCorrectionOverwrites(t *testing.T) {
	repo := newMockRuleRepo()
	l := NewLearner(repo, zerolog.Nop())
	ctx := context.Background()

	if err := l.Learn(ctx, "u1", "Acme Co", "ACME", "Shopping"); err != nil {
		t.Fatal(err)
	}
	if err := l.Learn(ctx, "u1", "Acme Co", "ACME", "Entertainment"); err != nil {
		t.Fatal(err)
	}

	if got := repo.rules["u1|acme co"].Category; got != "Entertainment" {
		t.Errorf("later correction should overwrite, got %q", got)
	}
}

// mockTxRepo implements only the query the warm pass needs.
type mockTxRepo struct {
	history []*domain.Transaction
}

func (m *mockTxRepo) GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	return nil, nil
}
func (m *mockTxRepo) FindByExternalIDs(ctx context.Context, userID string, ids []string) (map[string]*domain.Transaction, error) {
	return nil, nil
}
func (m *mockTxRepo) InsertTransaction(ctx context.Context, tx *domain.Transaction) error { return nil }
func (m *mockTxRepo) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error { return nil }
func (m *mockTxRepo) SetCategory(ctx context.Context, userID, id, category string) error  { return nil }
func (m *mockTxRepo) QueryByDateRange(ctx context.Context, userID string, start, end time.Time) ([]*domain.Transaction, error) {
	return m.history, nil
}
func (m *mockTxRepo) QueryByCategory(ctx context.Context, userID, category string, start, end time.Time) ([]*domain.Transaction, error) {
	return nil, nil
}
func (m *mockTxRepo) CountForUser(ctx context.Context, userID string) (int64, error) { return 0, nil }
func (m *mockTxRepo) DeleteTransactionsForUser(ctx context.Context, userID string) error {
	return nil
}

func TestWarm_SeedsFromHistory(t *testing.T) {
	repo := newMockRuleRepo()
	l := NewLearner(repo, zerolog.Nop())

	txs := &mockTxRepo{history: []*domain.Transaction{
		{MerchantName: "Starbucks", Category: "Food & Dining"},
		{MerchantName: "Starbucks", Category: "Food & Dining"}, // dupe, seeded once
		{MerchantName: "", Category: "Shopping"},               // no merchant, skipped
		{MerchantName: "Delta", Category: ""},                  // uncategorized, skipped
	}}

	if err := l.Warm(context.Background(), "u1", txs); err != nil {
		t.Fatalf("Warm failed: %v", err)
	}
	if len(repo.rules) != 1 {
		t.Fatalf("expected exactly one seeded rule, got %d", len(repo.rules))
	}
	if _, ok := repo.rules["u1|starbucks"]; !ok {
		t.Error("expected seeded starbucks rule")
	}
}

func TestWarm_EmptyHistory(t *testing.T) {
	l := NewLearner(newMockRuleRepo(), zerolog.Nop())
	if err := l.Warm(context.Background(), "u1", &mockTxRepo{}); err != nil {
		t.Errorf("Warm must tolerate empty history: %v", err)
	}
}
