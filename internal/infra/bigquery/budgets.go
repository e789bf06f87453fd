package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
	"github.com/christufur/MazzyMoney-sub001/internal/storage"
)

const budgetColumns = `
	budget_id,
	user_id,
	name,
	category,
	amount,
	period,
	start_ts,
	end_ts,
	is_active,
	created_ts,
	updated_ts
`

func (s *Store) GetBudget(ctx context.Context, userID, id string) (*domain.Budget, error) {
	q := s.client.Query(`
		SELECT ` + budgetColumns + `
		FROM ` + s.table(budgetsTable) + `
		WHERE user_id = @user_id AND budget_id = @budget_id
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "budget_id", Value: id},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetBudget: reading query: %w", err)
	}

	var row BudgetRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetBudget %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetBudget: iterating: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]*domain.Budget, error) {
	q := s.client.Query(`
		SELECT ` + budgetColumns + `
		FROM ` + s.table(budgetsTable) + `
		WHERE user_id = @user_id
		ORDER BY created_ts
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}
	return s.readBudgets(ctx, q, "ListBudgets")
}

func (s *Store) ListActiveByCategory(ctx context.Context, userID, category string) ([]*domain.Budget, error) {
	q := s.client.Query(`
		SELECT ` + budgetColumns + `
		FROM ` + s.table(budgetsTable) + `
		WHERE user_id = @user_id
		  AND is_active
		  AND LOWER(category) = LOWER(@category)
		ORDER BY created_ts
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "category", Value: category},
	}
	return s.readBudgets(ctx, q, "ListActiveByCategory")
}

func (s *Store) InsertBudget(ctx context.Context, budget *domain.Budget) error {
	q := s.client.Query(`
		INSERT INTO ` + s.table(budgetsTable) + ` (
			budget_id, user_id, name, category, amount, period,
			start_ts, end_ts, is_active, created_ts, updated_ts
		) VALUES (
			@budget_id, @user_id, @name, @category, @amount, @period,
			@start_ts, @end_ts, @is_active, @created_ts, @updated_ts
		)
	`)
	q.Parameters = budgetParams(budget)

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("InsertBudget: %w", err)
	}
	return nil
}

func (s *Store) UpdateBudget(ctx context.Context, budget *domain.Budget) error {
	q := s.client.Query(`
		UPDATE ` + s.table(budgetsTable) + `
		SET name = @name,
		    category = @category,
		    amount = @amount,
		    period = @period,
		    start_ts = @start_ts,
		    end_ts = @end_ts,
		    is_active = @is_active,
		    updated_ts = @updated_ts
		WHERE budget_id = @budget_id AND user_id = @user_id
	`)
	q.Parameters = budgetParams(budget)

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("UpdateBudget: %w", err)
	}
	return nil
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id string) error {
	q := s.client.Query(`
		DELETE FROM ` + s.table(budgetsTable) + `
		WHERE budget_id = @budget_id AND user_id = @user_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "budget_id", Value: id},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("DeleteBudget: %w", err)
	}
	return nil
}

func (s *Store) DeleteBudgetsForUser(ctx context.Context, userID string) error {
	q := s.client.Query(`
		DELETE FROM ` + s.table(budgetsTable) + `
		WHERE user_id = @user_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("DeleteBudgetsForUser: %w", err)
	}
	return nil
}

func (s *Store) readBudgets(ctx context.Context, q *bigquery.Query, op string) ([]*domain.Budget, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: reading query: %w", op, err)
	}

	var budgets []*domain.Budget
	for {
		var row BudgetRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iterating: %w", op, err)
		}
		budgets = append(budgets, row.toDomain())
	}
	return budgets, nil
}

func budgetParams(b *domain.Budget) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "budget_id", Value: b.ID},
		{Name: "user_id", Value: b.UserID},
		{Name: "name", Value: b.Name},
		{Name: "category", Value: b.Category},
		{Name: "amount", Value: b.Amount},
		{Name: "period", Value: string(b.Period)},
		{Name: "start_ts", Value: b.StartDate},
		{Name: "end_ts", Value: b.EndDate},
		{Name: "is_active", Value: b.Active},
		{Name: "created_ts", Value: b.CreatedAt},
		{Name: "updated_ts", Value: b.UpdatedAt},
	}
}
