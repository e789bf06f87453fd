package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
)

func (s *Store) ListRules(ctx context.Context, userID string) ([]*domain.CategoryRule, error) {
	q := s.client.Query(`
		SELECT
			rule_id,
			user_id,
			match_text,
			is_pattern,
			category,
			priority,
			created_ts
		FROM ` + s.table(rulesTable) + `
		WHERE user_id = @user_id
		ORDER BY priority DESC, created_ts DESC
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRules: reading query: %w", err)
	}

	var rules []*domain.CategoryRule
	for {
		var row RuleRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRules: iterating: %w", err)
		}
		rules = append(rules, row.toDomain())
	}
	return rules, nil
}

// UpsertRule is keyed by (user_id, match_text), case-insensitive: a
// later correction for the same text overwrites the earlier rule.
func (s *Store) UpsertRule(ctx context.Context, rule *domain.CategoryRule) error {
	if rule.UserID == "" || rule.MatchText == "" {
		return fmt.Errorf("UpsertRule: user ID and match text are required")
	}

	q := s.client.Query(`
		MERGE ` + s.table(rulesTable) + ` t
		USING (SELECT @user_id AS user_id, @match_text AS match_text) src
		ON t.user_id = src.user_id AND LOWER(t.match_text) = LOWER(src.match_text)
		WHEN MATCHED THEN UPDATE SET
			category = @category,
			priority = @priority,
			is_pattern = @is_pattern
		WHEN NOT MATCHED THEN INSERT (
			rule_id, user_id, match_text, is_pattern, category, priority, created_ts
		) VALUES (
			@rule_id, @user_id, @match_text, @is_pattern, @category, @priority, @created_ts
		)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "rule_id", Value: rule.ID},
		{Name: "user_id", Value: rule.UserID},
		{Name: "match_text", Value: rule.MatchText},
		{Name: "is_pattern", Value: rule.IsPattern},
		{Name: "category", Value: rule.Category},
		{Name: "priority", Value: int64(rule.Priority)},
		{Name: "created_ts", Value: rule.CreatedAt},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("UpsertRule: %w", err)
	}
	return nil
}

func (s *Store) DeleteRulesForUser(ctx context.Context, userID string) error {
	q := s.client.Query(`
		DELETE FROM ` + s.table(rulesTable) + `
		WHERE user_id = @user_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("DeleteRulesForUser: %w", err)
	}
	return nil
}
