// Package bigquery implements the storage interfaces on BigQuery. One
// Store shares a single client across all repositories; every mutation
// is a parameterized DML job and every read drains a query iterator.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/christufur/MazzyMoney-sub001/internal/storage"
)

const (
	usersTable        = "users"
	accountsTable     = "accounts"
	transactionsTable = "transactions"
	rulesTable        = "category_rules"
	budgetsTable      = "budgets"
	goalsTable        = "savings_goals"
)

// Store holds the shared BigQuery client and dataset coordinates.
type Store struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewStore creates a BigQuery-backed store with a shared client.
func NewStore(ctx context.Context, projectID, datasetID string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewStore: creating client: %w", err)
	}
	return NewStoreWithClient(client, projectID, datasetID), nil
}

// NewStoreWithClient wraps an existing client, which the caller owns.
func NewStoreWithClient(client *bigquery.Client, projectID, datasetID string) *Store {
	return &Store{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}
}

// Close closes the shared client.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Bundle exposes the store as the repository bundle the services wire
// against.
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

// table returns the fully qualified backtick-quoted table name.
func (s *Store) table(name string) string {
	return "`" + s.projectID + "." + s.datasetID + "." + name + "`"
}

// runDML runs a mutation query and waits for the job to finish.
func (s *Store) runDML(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
