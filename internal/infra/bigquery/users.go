package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
	"github.com/christufur/MazzyMoney-sub001/internal/storage"
)

const userColumns = `
	user_id,
	email,
	access_token,
	item_id,
	institution_name,
	sync_status,
	sync_message,
	last_synced_ts,
	created_ts
`

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	q := s.client.Query(`
		SELECT ` + userColumns + `
		FROM ` + s.table(usersTable) + `
		WHERE user_id = @user_id
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: id},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetUser: reading query: %w", err)
	}

	var row UserRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetUser %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetUser: iterating: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	q := s.client.Query(`
		SELECT ` + userColumns + `
		FROM ` + s.table(usersTable) + `
		ORDER BY created_ts
	`)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: reading query: %w", err)
	}

	var users []*domain.User
	for {
		var row UserRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListUsers: iterating: %w", err)
		}
		users = append(users, row.toDomain())
	}
	return users, nil
}

// SaveUser upserts the full user record keyed by user_id.
func (s *Store) SaveUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		return fmt.Errorf("SaveUser: user ID is required")
	}

	q := s.client.Query(`
		MERGE ` + s.table(usersTable) + ` t
		USING (SELECT @user_id AS user_id) src
		ON t.user_id = src.user_id
		WHEN MATCHED THEN UPDATE SET
			email = @email,
			access_token = @access_token,
			item_id = @item_id,
			institution_name = @institution_name,
			sync_status = @sync_status,
			sync_message = @sync_message,
			last_synced_ts = @last_synced_ts
		WHEN NOT MATCHED THEN INSERT (
			user_id, email, access_token, item_id, institution_name,
			sync_status, sync_message, last_synced_ts, created_ts
		) VALUES (
			@user_id, @email, @access_token, @item_id, @institution_name,
			@sync_status, @sync_message, @last_synced_ts, @created_ts
		)
	`)

	createdTS := user.CreatedAt
	if createdTS.IsZero() {
		createdTS = time.Now()
	}
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: user.ID},
		{Name: "email", Value: user.Email},
		{Name: "access_token", Value: nullString(user.AccessToken)},
		{Name: "item_id", Value: nullString(user.ItemID)},
		{Name: "institution_name", Value: nullString(user.InstitutionName)},
		{Name: "sync_status", Value: string(user.SyncStatus)},
		{Name: "sync_message", Value: nullString(user.SyncMessage)},
		{Name: "last_synced_ts", Value: nullTimestamp(user.LastSyncedAt)},
		{Name: "created_ts", Value: createdTS},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("SaveUser: %w", err)
	}
	return nil
}

func (s *Store) SetSyncStatus(ctx context.Context, userID string, status domain.SyncStatus, message string) error {
	q := s.client.Query(`
		UPDATE ` + s.table(usersTable) + `
		SET sync_status = @sync_status,
		    sync_message = @sync_message
		WHERE user_id = @user_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "sync_status", Value: string(status)},
		{Name: "sync_message", Value: nullString(message)},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("SetSyncStatus: %w", err)
	}
	return nil
}

func (s *Store) SetLastSyncedAt(ctx context.Context, userID string, t *time.Time) error {
	q := s.client.Query(`
		UPDATE ` + s.table(usersTable) + `
		SET last_synced_ts = @last_synced_ts
		WHERE user_id = @user_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "last_synced_ts", Value: nullTimestamp(t)},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("SetLastSyncedAt: %w", err)
	}
	return nil
}

func nullTimestamp(t *time.Time) bigquery.NullTimestamp {
	if t == nil {
		return bigquery.NullTimestamp{}
	}
	return bigquery.NullTimestamp{Timestamp: *t, Valid: true}
}
