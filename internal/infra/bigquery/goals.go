package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
	"github.com/christufur/MazzyMoney-sub001/internal/storage"
)

const goalColumns = `
	goal_id,
	user_id,
	name,
	target_amount,
	current_amount,
	deadline_ts,
	created_ts,
	updated_ts
`

func (s *Store) GetGoal(ctx context.Context, userID, id string) (*domain.SavingsGoal, error) {
	q := s.client.Query(`
		SELECT ` + goalColumns + `
		FROM ` + s.table(goalsTable) + `
		WHERE user_id = @user_id AND goal_id = @goal_id
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "goal_id", Value: id},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetGoal: reading query: %w", err)
	}

	var row GoalRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetGoal %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetGoal: iterating: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]*domain.SavingsGoal, error) {
	q := s.client.Query(`
		SELECT ` + goalColumns + `
		FROM ` + s.table(goalsTable) + `
		WHERE user_id = @user_id
		ORDER BY created_ts
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListGoals: reading query: %w", err)
	}

	var goals []*domain.SavingsGoal
	for {
		var row GoalRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListGoals: iterating: %w", err)
		}
		goals = append(goals, row.toDomain())
	}
	return goals, nil
}

func (s *Store) InsertGoal(ctx context.Context, goal *domain.SavingsGoal) error {
	q := s.client.Query(`
		INSERT INTO ` + s.table(goalsTable) + ` (
			goal_id, user_id, name, target_amount, current_amount,
			deadline_ts, created_ts, updated_ts
		) VALUES (
			@goal_id, @user_id, @name, @target_amount, @current_amount,
			@deadline_ts, @created_ts, @updated_ts
		)
	`)
	q.Parameters = goalParams(goal)

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("InsertGoal: %w", err)
	}
	return nil
}

func (s *Store) UpdateGoal(ctx context.Context, goal *domain.SavingsGoal) error {
	q := s.client.Query(`
		UPDATE ` + s.table(goalsTable) + `
		SET name = @name,
		    target_amount = @target_amount,
		    current_amount = @current_amount,
		    deadline_ts = @deadline_ts,
		    updated_ts = @updated_ts
		WHERE goal_id = @goal_id AND user_id = @user_id
	`)
	q.Parameters = goalParams(goal)

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("UpdateGoal: %w", err)
	}
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	q := s.client.Query(`
		DELETE FROM ` + s.table(goalsTable) + `
		WHERE goal_id = @goal_id AND user_id = @user_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "goal_id", Value: id},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("DeleteGoal: %w", err)
	}
	return nil
}

func (s *Store) DeleteGoalsForUser(ctx context.Context, userID string) error {
	q := s.client.Query(`
		DELETE FROM ` + s.table(goalsTable) + `
		WHERE user_id = @user_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("DeleteGoalsForUser: %w", err)
	}
	return nil
}

func goalParams(g *domain.SavingsGoal) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "goal_id", Value: g.ID},
		{Name: "user_id", Value: g.UserID},
		{Name: "name", Value: g.Name},
		{Name: "target_amount", Value: g.TargetAmount},
		{Name: "current_amount", Value: g.CurrentAmount},
		{Name: "deadline_ts", Value: g.Deadline},
		{Name: "created_ts", Value: g.CreatedAt},
		{Name: "updated_ts", Value: g.UpdatedAt},
	}
}
