package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
	"github.com/christufur/MazzyMoney-sub001/internal/storage"
)

const transactionColumns = `
	transaction_id,
	external_transaction_id,
	user_id,
	account_id,
	merchant_name,
	name,
	amount,
	transaction_date,
	authorized_date,
	provider_categories,
	category,
	subcategory,
	is_pending,
	location_city,
	location_region,
	notes,
	created_ts,
	updated_ts
`

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	q := s.client.Query(`
		SELECT ` + transactionColumns + `
		FROM ` + s.table(transactionsTable) + `
		WHERE user_id = @user_id AND transaction_id = @transaction_id
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "transaction_id", Value: id},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: reading query: %w", err)
	}

	var row TransactionRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetTransaction %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: iterating: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) FindByExternalIDs(ctx context.Context, userID string, externalIDs []string) (map[string]*domain.Transaction, error) {
	out := make(map[string]*domain.Transaction)
	if len(externalIDs) == 0 {
		return out, nil
	}

	q := s.client.Query(`
		SELECT ` + transactionColumns + `
		FROM ` + s.table(transactionsTable) + `
		WHERE user_id = @user_id
		  AND external_transaction_id IN UNNEST(@external_ids)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "external_ids", Value: externalIDs},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindByExternalIDs: reading query: %w", err)
	}

	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("FindByExternalIDs: iterating: %w", err)
		}
		out[row.ExternalTransactionID] = row.toDomain()
	}
	return out, nil
}

func (s *Store) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	q := s.client.Query(`
		INSERT INTO ` + s.table(transactionsTable) + ` (
			transaction_id, external_transaction_id, user_id, account_id,
			merchant_name, name, amount, transaction_date, authorized_date,
			provider_categories, category, subcategory, is_pending,
			location_city, location_region, notes, created_ts, updated_ts
		) VALUES (
			@transaction_id, @external_transaction_id, @user_id, @account_id,
			@merchant_name, @name, @amount, @transaction_date, @authorized_date,
			@provider_categories, @category, @subcategory, @is_pending,
			@location_city, @location_region, @notes, @created_ts, @updated_ts
		)
	`)
	q.Parameters = transactionParams(tx)

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("InsertTransaction: %w", err)
	}
	return nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	q := s.client.Query(`
		UPDATE ` + s.table(transactionsTable) + `
		SET account_id = @account_id,
		    merchant_name = @merchant_name,
		    name = @name,
		    amount = @amount,
		    transaction_date = @transaction_date,
		    authorized_date = @authorized_date,
		    provider_categories = @provider_categories,
		    category = @category,
		    subcategory = @subcategory,
		    is_pending = @is_pending,
		    location_city = @location_city,
		    location_region = @location_region,
		    notes = @notes,
		    updated_ts = @updated_ts
		WHERE transaction_id = @transaction_id AND user_id = @user_id
	`)
	q.Parameters = transactionParams(tx)

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("UpdateTransaction: %w", err)
	}
	return nil
}

func (s *Store) SetCategory(ctx context.Context, userID, id, category string) error {
	q := s.client.Query(`
		UPDATE ` + s.table(transactionsTable) + `
		SET category = @category,
		    updated_ts = CURRENT_TIMESTAMP()
		WHERE transaction_id = @transaction_id AND user_id = @user_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "transaction_id", Value: id},
		{Name: "category", Value: category},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("SetCategory: %w", err)
	}
	return nil
}

func (s *Store) QueryByDateRange(ctx context.Context, userID string, start, end time.Time) ([]*domain.Transaction, error) {
	q := s.client.Query(`
		SELECT ` + transactionColumns + `
		FROM ` + s.table(transactionsTable) + `
		WHERE user_id = @user_id
		  AND transaction_date >= @start_date
		  AND transaction_date <= @end_date
		ORDER BY transaction_date DESC, created_ts DESC
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "start_date", Value: civil.DateOf(start)},
		{Name: "end_date", Value: civil.DateOf(end)},
	}
	return s.readTransactions(ctx, q, "QueryByDateRange")
}

func (s *Store) QueryByCategory(ctx context.Context, userID, category string, start, end time.Time) ([]*domain.Transaction, error) {
	q := s.client.Query(`
		SELECT ` + transactionColumns + `
		FROM ` + s.table(transactionsTable) + `
		WHERE user_id = @user_id
		  AND LOWER(category) = LOWER(@category)
		  AND transaction_date >= @start_date
		  AND transaction_date <= @end_date
		ORDER BY transaction_date DESC, created_ts DESC
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "category", Value: category},
		{Name: "start_date", Value: civil.DateOf(start)},
		{Name: "end_date", Value: civil.DateOf(end)},
	}
	return s.readTransactions(ctx, q, "QueryByCategory")
}

func (s *Store) CountForUser(ctx context.Context, userID string) (int64, error) {
	q := s.client.Query(`
		SELECT COUNT(*) AS n
		FROM ` + s.table(transactionsTable) + `
		WHERE user_id = @user_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("CountForUser: reading query: %w", err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil {
		return 0, fmt.Errorf("CountForUser: iterating: %w", err)
	}
	return row.N, nil
}

func (s *Store) DeleteTransactionsForUser(ctx context.Context, userID string) error {
	q := s.client.Query(`
		DELETE FROM ` + s.table(transactionsTable) + `
		WHERE user_id = @user_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("DeleteTransactionsForUser: %w", err)
	}
	return nil
}

func (s *Store) readTransactions(ctx context.Context, q *bigquery.Query, op string) ([]*domain.Transaction, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: reading query: %w", op, err)
	}

	var txs []*domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iterating: %w", op, err)
		}
		txs = append(txs, row.toDomain())
	}
	return txs, nil
}

func transactionParams(tx *domain.Transaction) []bigquery.QueryParameter {
	authorized := bigquery.NullDate{}
	if tx.AuthorizedDate != nil {
		authorized = bigquery.NullDate{Date: civil.DateOf(*tx.AuthorizedDate), Valid: true}
	}
	categories := tx.ProviderCategories
	if categories == nil {
		categories = []string{}
	}
	return []bigquery.QueryParameter{
		{Name: "transaction_id", Value: tx.ID},
		{Name: "external_transaction_id", Value: tx.ExternalID},
		{Name: "user_id", Value: tx.UserID},
		{Name: "account_id", Value: tx.AccountID},
		{Name: "merchant_name", Value: nullString(tx.MerchantName)},
		{Name: "name", Value: tx.Name},
		{Name: "amount", Value: tx.Amount},
		{Name: "transaction_date", Value: civil.DateOf(tx.Date)},
		{Name: "authorized_date", Value: authorized},
		{Name: "provider_categories", Value: categories},
		{Name: "category", Value: tx.Category},
		{Name: "subcategory", Value: nullString(tx.Subcategory)},
		{Name: "is_pending", Value: tx.Pending},
		{Name: "location_city", Value: nullString(tx.LocationCity)},
		{Name: "location_region", Value: nullString(tx.LocationRegion)},
		{Name: "notes", Value: nullString(tx.Notes)},
		{Name: "created_ts", Value: tx.CreatedAt},
		{Name: "updated_ts", Value: tx.UpdatedAt},
	}
}
