// Package storage defines the repository contracts the pipeline runs
// against. Implementations live under internal/infra: BigQuery for the
// real deployment, an in-memory store for tests and local runs.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
)

// ErrNotFound is returned when a record does not exist or belongs to a
// different user. Callers distinguish it from validation failures.
var ErrNotFound = errors.New("record not found")

// UserRepository persists users and their provider connection state.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	SaveUser(ctx context.Context, user *domain.User) error

	// SetSyncStatus writes the sync state machine value and the last
	// failure message ("" after a clean cycle).
	SetSyncStatus(ctx context.Context, userID string, status domain.SyncStatus, message string) error

	// SetLastSyncedAt records the last successful sync time; nil clears
	// it, forcing the next cycle back onto the full 365-day window.
	SetLastSyncedAt(ctx context.Context, userID string, t *time.Time) error
}

// AccountRepository persists linked accounts keyed by external id.
type AccountRepository interface {
	ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error)
	InsertAccount(ctx context.Context, account *domain.Account) error
	UpdateAccount(ctx context.Context, account *domain.Account) error
	DeleteAccountsForUser(ctx context.Context, userID string) error
}

// TransactionRepository persists transactions keyed by external id.
type TransactionRepository interface {
	GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error)

	// FindByExternalIDs returns the stored transactions for the given
	// external ids, keyed by external id. Missing ids are absent from
	// the map, not an error.
	FindByExternalIDs(ctx context.Context, userID string, externalIDs []string) (map[string]*domain.Transaction, error)

	InsertTransaction(ctx context.Context, tx *domain.Transaction) error
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error

	// SetCategory overwrites the display category of one transaction.
	// Used by the correction path only.
	SetCategory(ctx context.Context, userID, id, category string) error

	QueryByDateRange(ctx context.Context, userID string, start, end time.Time) ([]*domain.Transaction, error)
	QueryByCategory(ctx context.Context, userID, category string, start, end time.Time) ([]*domain.Transaction, error)
	CountForUser(ctx context.Context, userID string) (int64, error)
	DeleteTransactionsForUser(ctx context.Context, userID string) error
}

// RuleRepository persists learned categorization rules. Upserts are keyed
// by (user, match text): a later correction for the same key overwrites
// the earlier one.
type RuleRepository interface {
	// ListRules returns the user's rules ordered by priority descending,
	// then creation time descending.
	ListRules(ctx context.Context, userID string) ([]*domain.CategoryRule, error)
	UpsertRule(ctx context.Context, rule *domain.CategoryRule) error
	DeleteRulesForUser(ctx context.Context, userID string) error
}

// BudgetRepository persists budgets.
type BudgetRepository interface {
	GetBudget(ctx context.Context, userID, id string) (*domain.Budget, error)
	ListBudgets(ctx context.Context, userID string) ([]*domain.Budget, error)
	// ListActiveByCategory returns the user's active budgets for one
	// category; used by the overlap check.
	ListActiveByCategory(ctx context.Context, userID, category string) ([]*domain.Budget, error)
	InsertBudget(ctx context.Context, budget *domain.Budget) error
	UpdateBudget(ctx context.Context, budget *domain.Budget) error
	DeleteBudget(ctx context.Context, userID, id string) error
	DeleteBudgetsForUser(ctx context.Context, userID string) error
}

// GoalRepository persists savings goals.
type GoalRepository interface {
	GetGoal(ctx context.Context, userID, id string) (*domain.SavingsGoal, error)
	ListGoals(ctx context.Context, userID string) ([]*domain.SavingsGoal, error)
	InsertGoal(ctx context.Context, goal *domain.SavingsGoal) error
	UpdateGoal(ctx context.Context, goal *domain.SavingsGoal) error
	DeleteGoal(ctx context.Context, userID, id string) error
	DeleteGoalsForUser(ctx context.Context, userID string) error
}

// Store bundles the repositories for wiring.
type Store struct {
	Users        UserRepository
	Accounts     AccountRepository
	Transactions TransactionRepository
	Rules        RuleRepository
	Budgets      BudgetRepository
	Goals        GoalRepository
}
