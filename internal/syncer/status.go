package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
	"github.com/christufur/MazzyMoney-sub001/internal/logger"
)

// StatusInfo is the connection and sync snapshot for one user.
type StatusInfo struct {
	Connected        bool              `json:"connected"`
	InstitutionName  string            `json:"institution_name,omitempty"`
	SyncStatus       domain.SyncStatus `json:"sync_status"`
	SyncMessage      string            `json:"sync_message,omitempty"`
	LastSyncedAt     *time.Time        `json:"last_synced_at,omitempty"`
	AccountCount     int               `json:"account_count"`
	TransactionCount int64             `json:"transaction_count"`
}

// Status reports the current sync state without touching the provider.
func (o *Orchestrator) Status(ctx context.Context, userID string) (*StatusInfo, error) {
	user, err := o.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	info := &StatusInfo{
		Connected:       user.Connected(),
		InstitutionName: user.InstitutionName,
		SyncStatus:      user.SyncStatus,
		SyncMessage:     user.SyncMessage,
		LastSyncedAt:    user.LastSyncedAt,
	}

	accounts, err := o.engine.accounts.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count accounts: %w", err)
	}
	info.AccountCount = len(accounts)

	count, err := o.engine.transactions.CountForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}
	info.TransactionCount = count

	return info, nil
}

// Disconnect revokes the provider item and removes the user's accounts
// and transactions. Budgets, goals and learned rules survive so they
// apply again after a re-link. Provider revocation failure is logged
// and the local teardown proceeds anyway.
func (o *Orchestrator) Disconnect(ctx context.Context, userID string) error {
	log := logger.FromContext(ctx).With().Str("user_id", userID).Logger()

	user, err := o.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if user.Connected() {
		if err := o.client.RemoveItem(ctx, user.AccessToken); err != nil {
			log.Warn().Err(err).Msg("Provider item revocation failed, removing local data anyway")
		}
	}

	if err := o.engine.transactions.DeleteTransactionsForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}
	if err := o.engine.accounts.DeleteAccountsForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete accounts: %w", err)
	}

	user.AccessToken = ""
	user.ItemID = ""
	user.InstitutionName = ""
	user.SyncStatus = domain.SyncNever
	user.SyncMessage = ""
	user.LastSyncedAt = nil
	if err := o.users.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("clear provider link: %w", err)
	}

	log.Info().Msg("Disconnected provider item")
	return nil
}

// Link exchanges a public token for an access credential and stores it
// on the user, resetting sync state so the next sync starts fresh.
func (o *Orchestrator) Link(ctx context.Context, userID, publicToken, institutionID string) error {
	log := logger.FromContext(ctx).With().Str("user_id", userID).Logger()

	user, err := o.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	exchange, err := o.client.ExchangeToken(ctx, publicToken)
	if err != nil {
		return fmt.Errorf("exchange token: %w", err)
	}

	institutionName := ""
	if institutionID != "" {
		if inst, err := o.client.GetInstitution(ctx, institutionID); err != nil {
			log.Warn().Err(err).Str("institution_id", institutionID).Msg("Institution lookup failed")
		} else {
			institutionName = inst.Name
		}
	}

	user.AccessToken = exchange.AccessToken
	user.ItemID = exchange.ItemID
	user.InstitutionName = institutionName
	user.SyncStatus = domain.SyncNever
	user.SyncMessage = ""
	user.LastSyncedAt = nil
	if err := o.users.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("store provider link: %w", err)
	}

	log.Info().Str("institution", institutionName).Msg("Linked provider item")
	return nil
}
