// Package syncer pulls provider data into the store: the reconciliation
// engine computes insert/update deltas keyed by external ids, and the
// orchestrator drives the per-user sync cycle around it.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/category"
	"github.com/christufur/MazzyMoney-sub001/internal/domain"
	"github.com/christufur/MazzyMoney-sub001/internal/provider"
	"github.com/christufur/MazzyMoney-sub001/internal/storage"
)

// Engine reconciles fetched provider batches against stored state.
type Engine struct {
	accounts     storage.AccountRepository
	transactions storage.TransactionRepository
	rules        storage.RuleRepository
	log          zerolog.Logger
}

// NewEngine creates a reconciliation engine.
func NewEngine(accounts storage.AccountRepository, transactions storage.TransactionRepository, rules storage.RuleRepository, log zerolog.Logger) *Engine {
	return &Engine{
		accounts:     accounts,
		transactions: transactions,
		rules:        rules,
		log:          log,
	}
}

// ReconcileResult reports what one batch changed. RecordErrors holds
// per-record failures; they never abort the batch and the counts
// reflect only successfully processed records.
type ReconcileResult struct {
	NewAccounts         int
	UpdatedAccounts     int
	NewTransactions     int
	UpdatedTransactions int
	SkippedTransactions int
	RecordErrors        []error
}

// Reconcile upserts the fetched batch for one user. Accounts are keyed
// by external account id, transactions by external transaction id;
// external ids and ownership are immutable after creation. Re-running
// the same batch yields zero new inserts.
func (e *Engine) Reconcile(ctx context.Context, userID string, fetchedAccounts []provider.RawAccount, fetchedTransactions []provider.RawTransaction) (*ReconcileResult, error) {
	result := &ReconcileResult{}

	userRules, err := e.rules.ListRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reconcile: load rules: %w", err)
	}
	ruleSet := category.NewRuleSet(userRules, e.log)

	existing, err := e.accounts.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reconcile: load accounts: %w", err)
	}
	byExternalID := make(map[string]*domain.Account, len(existing))
	for _, a := range existing {
		byExternalID[a.ExternalID] = a
	}

	now := time.Now()
	for _, raw := range fetchedAccounts {
		if err := e.upsertAccount(ctx, userID, raw, byExternalID, now, result); err != nil {
			result.RecordErrors = append(result.RecordErrors, err)
			e.log.Warn().Err(err).Str("account_external_id", raw.ExternalID).
				Msg("Account reconciliation failed, continuing batch")
		}
	}

	// The account map is built from the now-current set so transactions
	// fetched in the same batch resolve against fresh account rows.
	accountIDs := make(map[string]string, len(byExternalID))
	for extID, a := range byExternalID {
		accountIDs[extID] = a.ID
	}

	externalIDs := make([]string, 0, len(fetchedTransactions))
	for _, raw := range fetchedTransactions {
		externalIDs = append(externalIDs, raw.ExternalID)
	}
	stored, err := e.transactions.FindByExternalIDs(ctx, userID, externalIDs)
	if err != nil {
		return nil, fmt.Errorf("reconcile: load transactions: %w", err)
	}

	for _, raw := range fetchedTransactions {
		localAccountID, ok := accountIDs[raw.AccountExternalID]
		if !ok {
			// Signals a sync ordering bug or a not-yet-synced account.
			result.SkippedTransactions++
			e.log.Warn().
				Str("transaction_external_id", raw.ExternalID).
				Str("account_external_id", raw.AccountExternalID).
				Msg("Skipping transaction referencing unmapped account")
			continue
		}

		if err := e.upsertTransaction(ctx, userID, localAccountID, raw, stored[raw.ExternalID], ruleSet, now, result); err != nil {
			result.RecordErrors = append(result.RecordErrors, err)
			e.log.Warn().Err(err).Str("transaction_external_id", raw.ExternalID).
				Msg("Transaction reconciliation failed, continuing batch")
		}
	}

	return result, nil
}

func (e *Engine) upsertAccount(ctx context.Context, userID string, raw provider.RawAccount, byExternalID map[string]*domain.Account, now time.Time, result *ReconcileResult) error {
	if raw.ExternalID == "" {
		return fmt.Errorf("account with empty external id")
	}

	if current, ok := byExternalID[raw.ExternalID]; ok {
		// Mutable fields only; external id and owner never change.
		current.Name = raw.Name
		current.OfficialName = raw.OfficialName
		current.Type = raw.Type
		current.Subtype = raw.Subtype
		current.Mask = raw.Mask
		current.CurrentBalance = raw.CurrentBalance
		current.AvailableBalance = raw.AvailableBalance
		current.CreditLimit = raw.CreditLimit
		current.Active = true
		current.UpdatedAt = now
		if err := e.accounts.UpdateAccount(ctx, current); err != nil {
			return fmt.Errorf("update account %s: %w", raw.ExternalID, err)
		}
		result.UpdatedAccounts++
		return nil
	}

	account := &domain.Account{
		ID:               uuid.New().String(),
		ExternalID:       raw.ExternalID,
		UserID:           userID,
		Name:             raw.Name,
		OfficialName:     raw.OfficialName,
		Type:             raw.Type,
		Subtype:          raw.Subtype,
		Mask:             raw.Mask,
		CurrentBalance:   raw.CurrentBalance,
		AvailableBalance: raw.AvailableBalance,
		CreditLimit:      raw.CreditLimit,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.accounts.InsertAccount(ctx, account); err != nil {
		return fmt.Errorf("insert account %s: %w", raw.ExternalID, err)
	}
	byExternalID[raw.ExternalID] = account
	result.NewAccounts++
	return nil
}

func (e *Engine) upsertTransaction(ctx context.Context, userID, accountID string, raw provider.RawTransaction, current *domain.Transaction, ruleSet *category.RuleSet, now time.Time, result *ReconcileResult) error {
	if raw.ExternalID == "" {
		return fmt.Errorf("transaction with empty external id")
	}

	// Categorization may legitimately change between syncs when the
	// learned rule set changed; for an unchanged rule set it is stable.
	resolved := category.Resolve(category.Input{
		ProviderCategories: raw.Categories,
		MerchantName:       raw.MerchantName,
		Name:               raw.Name,
		Amount:             raw.Amount,
	}, ruleSet)

	if current != nil {
		current.AccountID = accountID
		current.MerchantName = raw.MerchantName
		current.Name = raw.Name
		current.Amount = raw.Amount
		current.Date = raw.When()
		current.AuthorizedDate = raw.Authorized()
		current.ProviderCategories = raw.Categories
		current.Category = resolved
		current.Pending = raw.Pending
		current.LocationCity = raw.LocationCity
		current.LocationRegion = raw.LocationRegion
		current.UpdatedAt = now
		if err := e.transactions.UpdateTransaction(ctx, current); err != nil {
			return fmt.Errorf("update transaction %s: %w", raw.ExternalID, err)
		}
		result.UpdatedTransactions++
		return nil
	}

	tx := &domain.Transaction{
		ID:                 uuid.New().String(),
		ExternalID:         raw.ExternalID,
		UserID:             userID,
		AccountID:          accountID,
		MerchantName:       raw.MerchantName,
		Name:               raw.Name,
		Amount:             raw.Amount,
		Date:               raw.When(),
		AuthorizedDate:     raw.Authorized(),
		ProviderCategories: raw.Categories,
		Category:           resolved,
		Pending:            raw.Pending,
		LocationCity:       raw.LocationCity,
		LocationRegion:     raw.LocationRegion,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := e.transactions.InsertTransaction(ctx, tx); err != nil {
		return fmt.Errorf("insert transaction %s: %w", raw.ExternalID, err)
	}
	result.NewTransactions++
	return nil
}
