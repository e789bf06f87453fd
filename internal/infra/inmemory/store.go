// Package inmemory is a map-backed implementation of the storage
// interfaces. It is safe for concurrent use; data is lost on restart.
// Used for local development and tests, with the BigQuery store as the
// production backend.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
	"github.com/christufur/MazzyMoney-sub001/internal/storage"
)

// Store keeps all records in process memory.
type Store struct {
	mu           sync.RWMutex
	users        map[string]*domain.User
	accounts     map[string]*domain.Account
	transactions map[string]*domain.Transaction
	rules        map[string]*domain.CategoryRule
	budgets      map[string]*domain.Budget
	goals        map[string]*domain.SavingsGoal
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:        make(map[string]*domain.User),
		accounts:     make(map[string]*domain.Account),
		transactions: make(map[string]*domain.Transaction),
		rules:        make(map[string]*domain.CategoryRule),
		budgets:      make(map[string]*domain.Budget),
		goals:        make(map[string]*domain.SavingsGoal),
	}
}

// Bundle wraps the store as a storage.Store with every repository
// backed by the same instance.
func (s *Store) Bundle() *storage.Store {
	return &storage.Store{
		Users:        s,
		Accounts:     s,
		Transactions: s,
		Rules:        s,
		Budgets:      s,
		Goals:        s,
	}
}

var (
	_ storage.UserRepository        = (*Store)(nil)
	_ storage.AccountRepository     = (*Store)(nil)
	_ storage.TransactionRepository = (*Store)(nil)
	_ storage.RuleRepository        = (*Store)(nil)
	_ storage.BudgetRepository      = (*Store)(nil)
	_ storage.GoalRepository        = (*Store)(nil)
)

// --- users ---

func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	out := *u
	return &out, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SaveUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		return fmt.Errorf("user ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (s *Store) SetSyncStatus(ctx context.Context, userID string, status domain.SyncStatus, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	u.SyncStatus = status
	u.SyncMessage = message
	return nil
}

func (s *Store) SetLastSyncedAt(ctx context.Context, userID string, at *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	if at == nil {
		u.LastSyncedAt = nil
		return nil
	}
	t := *at
	u.LastSyncedAt = &t
	return nil
}

// --- accounts ---

func (s *Store) ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Account
	for _, a := range s.accounts {
		if a.UserID != userID {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) InsertAccount(ctx context.Context, account *domain.Account) error {
	if account.ID == "" {
		return fmt.Errorf("account ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.ID]; exists {
		return fmt.Errorf("account %s already exists", account.ID)
	}
	c := *account
	s.accounts[account.ID] = &c
	return nil
}

func (s *Store) UpdateAccount(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.ID]; !ok {
		return fmt.Errorf("account %s: %w", account.ID, storage.ErrNotFound)
	}
	c := *account
	s.accounts[account.ID] = &c
	return nil
}

func (s *Store) DeleteAccountsForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.accounts {
		if a.UserID == userID {
			delete(s.accounts, id)
		}
	}
	return nil
}

// --- transactions ---

func (s *Store) GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[transactionID]
	if !ok || t.UserID != userID {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, storage.ErrNotFound)
	}
	out := *t
	return &out, nil
}

func (s *Store) FindByExternalIDs(ctx context.Context, userID string, externalIDs []string) (map[string]*domain.Transaction, error) {
	wanted := make(map[string]bool, len(externalIDs))
	for _, id := range externalIDs {
		wanted[id] = true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*domain.Transaction)
	for _, t := range s.transactions {
		if t.UserID == userID && wanted[t.ExternalID] {
			c := *t
			out[t.ExternalID] = &c
		}
	}
	return out, nil
}

func (s *Store) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("transaction ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transactions[tx.ID]; exists {
		return fmt.Errorf("transaction %s already exists", tx.ID)
	}
	c := *tx
	s.transactions[tx.ID] = &c
	return nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[tx.ID]; !ok {
		return fmt.Errorf("transaction %s: %w", tx.ID, storage.ErrNotFound)
	}
	c := *tx
	s.transactions[tx.ID] = &c
	return nil
}

func (s *Store) SetCategory(ctx context.Context, userID, transactionID, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[transactionID]
	if !ok || t.UserID != userID {
		return fmt.Errorf("transaction %s: %w", transactionID, storage.ErrNotFound)
	}
	t.Category = category
	t.UpdatedAt = time.Now()
	return nil
}

func (s *Store) QueryByDateRange(ctx context.Context, userID string, start, end time.Time) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Transaction
	for _, t := range s.transactions {
		if t.UserID != userID {
			continue
		}
		if t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	sortByDateDesc(out)
	return out, nil
}

func (s *Store) QueryByCategory(ctx context.Context, userID, category string, start, end time.Time) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Transaction
	for _, t := range s.transactions {
		if t.UserID != userID || !strings.EqualFold(t.Category, category) {
			continue
		}
		if t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	sortByDateDesc(out)
	return out, nil
}

func (s *Store) CountForUser(ctx context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, t := range s.transactions {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteTransactionsForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.transactions {
		if t.UserID == userID {
			delete(s.transactions, id)
		}
	}
	return nil
}

func sortByDateDesc(txs []*domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
}

// --- category rules ---

func (s *Store) ListRules(ctx context.Context, userID string) ([]*domain.CategoryRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.CategoryRule
	for _, r := range s.rules {
		if r.UserID != userID {
			continue
		}
		c := *r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpsertRule(ctx context.Context, rule *domain.CategoryRule) error {
	if rule.UserID == "" || rule.MatchText == "" {
		return fmt.Errorf("rule user ID and match text are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rule.UserID + "|" + strings.ToLower(rule.MatchText)
	if existing, ok := s.rules[key]; ok {
		existing.Category = rule.Category
		existing.Priority = rule.Priority
		existing.IsPattern = rule.IsPattern
		return nil
	}
	c := *rule
	s.rules[key] = &c
	return nil
}

func (s *Store) DeleteRulesForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, r := range s.rules {
		if r.UserID == userID {
			delete(s.rules, key)
		}
	}
	return nil
}

// --- budgets ---

func (s *Store) GetBudget(ctx context.Context, userID, budgetID string) (*domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[budgetID]
	if !ok || b.UserID != userID {
		return nil, fmt.Errorf("budget %s: %w", budgetID, storage.ErrNotFound)
	}
	out := *b
	return &out, nil
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]*domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Budget
	for _, b := range s.budgets {
		if b.UserID != userID {
			continue
		}
		c := *b
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListActiveByCategory(ctx context.Context, userID, category string) ([]*domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Budget
	for _, b := range s.budgets {
		if b.UserID != userID || !b.Active || !strings.EqualFold(b.Category, category) {
			continue
		}
		c := *b
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) InsertBudget(ctx context.Context, budget *domain.Budget) error {
	if budget.ID == "" {
		return fmt.Errorf("budget ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.budgets[budget.ID]; exists {
		return fmt.Errorf("budget %s already exists", budget.ID)
	}
	c := *budget
	s.budgets[budget.ID] = &c
	return nil
}

func (s *Store) UpdateBudget(ctx context.Context, budget *domain.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[budget.ID]; !ok {
		return fmt.Errorf("budget %s: %w", budget.ID, storage.ErrNotFound)
	}
	c := *budget
	s.budgets[budget.ID] = &c
	return nil
}

func (s *Store) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[budgetID]
	if !ok || b.UserID != userID {
		return fmt.Errorf("budget %s: %w", budgetID, storage.ErrNotFound)
	}
	delete(s.budgets, budgetID)
	return nil
}

func (s *Store) DeleteBudgetsForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, b := range s.budgets {
		if b.UserID == userID {
			delete(s.budgets, id)
		}
	}
	return nil
}

// --- savings goals ---

func (s *Store) GetGoal(ctx context.Context, userID, goalID string) (*domain.SavingsGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[goalID]
	if !ok || g.UserID != userID {
		return nil, fmt.Errorf("goal %s: %w", goalID, storage.ErrNotFound)
	}
	out := *g
	return &out, nil
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]*domain.SavingsGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.SavingsGoal
	for _, g := range s.goals {
		if g.UserID != userID {
			continue
		}
		c := *g
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) InsertGoal(ctx context.Context, goal *domain.SavingsGoal) error {
	if goal.ID == "" {
		return fmt.Errorf("goal ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.goals[goal.ID]; exists {
		return fmt.Errorf("goal %s already exists", goal.ID)
	}
	c := *goal
	s.goals[goal.ID] = &c
	return nil
}

func (s *Store) UpdateGoal(ctx context.Context, goal *domain.SavingsGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[goal.ID]; !ok {
		return fmt.Errorf("goal %s: %w", goal.ID, storage.ErrNotFound)
	}
	c := *goal
	s.goals[goal.ID] = &c
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, userID, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[goalID]
	if !ok || g.UserID != userID {
		return fmt.Errorf("goal %s: %w", goalID, storage.ErrNotFound)
	}
	delete(s.goals, goalID)
	return nil
}

func (s *Store) DeleteGoalsForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, g := range s.goals {
		if g.UserID == userID {
			delete(s.goals, id)
		}
	}
	return nil
}
