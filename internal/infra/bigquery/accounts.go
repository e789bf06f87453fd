package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
)

const accountColumns = `
	account_id,
	external_account_id,
	user_id,
	name,
	official_name,
	type,
	subtype,
	mask,
	current_balance,
	available_balance,
	credit_limit,
	is_active,
	created_ts,
	updated_ts
`

func (s *Store) ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	q := s.client.Query(`
		SELECT ` + accountColumns + `
		FROM ` + s.table(accountsTable) + `
		WHERE user_id = @user_id
		ORDER BY name
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: reading query: %w", err)
	}

	var accounts []*domain.Account
	for {
		var row AccountRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAccounts: iterating: %w", err)
		}
		accounts = append(accounts, row.toDomain())
	}
	return accounts, nil
}

func (s *Store) InsertAccount(ctx context.Context, account *domain.Account) error {
	q := s.client.Query(`
		INSERT INTO ` + s.table(accountsTable) + ` (
			account_id, external_account_id, user_id, name, official_name,
			type, subtype, mask, current_balance, available_balance,
			credit_limit, is_active, created_ts, updated_ts
		) VALUES (
			@account_id, @external_account_id, @user_id, @name, @official_name,
			@type, @subtype, @mask, @current_balance, @available_balance,
			@credit_limit, @is_active, @created_ts, @updated_ts
		)
	`)
	q.Parameters = accountParams(account)

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("InsertAccount: %w", err)
	}
	return nil
}

func (s *Store) UpdateAccount(ctx context.Context, account *domain.Account) error {
	q := s.client.Query(`
		UPDATE ` + s.table(accountsTable) + `
		SET name = @name,
		    official_name = @official_name,
		    type = @type,
		    subtype = @subtype,
		    mask = @mask,
		    current_balance = @current_balance,
		    available_balance = @available_balance,
		    credit_limit = @credit_limit,
		    is_active = @is_active,
		    updated_ts = @updated_ts
		WHERE account_id = @account_id AND user_id = @user_id
	`)
	q.Parameters = accountParams(account)

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("UpdateAccount: %w", err)
	}
	return nil
}

func (s *Store) DeleteAccountsForUser(ctx context.Context, userID string) error {
	q := s.client.Query(`
		DELETE FROM ` + s.table(accountsTable) + `
		WHERE user_id = @user_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("DeleteAccountsForUser: %w", err)
	}
	return nil
}

func accountParams(a *domain.Account) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "account_id", Value: a.ID},
		{Name: "external_account_id", Value: a.ExternalID},
		{Name: "user_id", Value: a.UserID},
		{Name: "name", Value: a.Name},
		{Name: "official_name", Value: nullString(a.OfficialName)},
		{Name: "type", Value: a.Type},
		{Name: "subtype", Value: nullString(a.Subtype)},
		{Name: "mask", Value: nullString(a.Mask)},
		{Name: "current_balance", Value: a.CurrentBalance},
		{Name: "available_balance", Value: nullFloat(a.AvailableBalance)},
		{Name: "credit_limit", Value: nullFloat(a.CreditLimit)},
		{Name: "is_active", Value: a.Active},
		{Name: "created_ts", Value: a.CreatedAt},
		{Name: "updated_ts", Value: a.UpdatedAt},
	}
}
