package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
	"github.com/christufur/MazzyMoney-sub001/internal/logger"
	"github.com/christufur/MazzyMoney-sub001/internal/provider"
	"github.com/christufur/MazzyMoney-sub001/internal/storage"
)

const (
	// Fetch window overlap, to pick up late mutations to recently
	// synced transactions.
	resyncOverlap = 24 * time.Hour

	// First sync and forced resyncs go back a full year.
	initialLookback = 365 * 24 * time.Hour
)

// BudgetRecomputer refreshes derived budget state after a sync lands
// new transactions.
type BudgetRecomputer interface {
	RecomputeForUser(ctx context.Context, userID string) error
}

// Archiver persists the raw provider payload of a sync for audit and
// replay. Archival is best effort.
type Archiver interface {
	ArchiveSync(ctx context.Context, userID string, accounts []provider.RawAccount, transactions []provider.RawTransaction) (string, error)
}

// SyncResult is the structured outcome of one sync attempt. A sync
// never surfaces a bare error: failures land in Status and Message.
type SyncResult struct {
	UserID              string            `json:"user_id"`
	Status              domain.SyncStatus `json:"status"`
	Message             string            `json:"message,omitempty"`
	Conflict            bool              `json:"conflict,omitempty"`
	NewAccounts         int               `json:"new_accounts"`
	UpdatedAccounts     int               `json:"updated_accounts"`
	NewTransactions     int               `json:"new_transactions"`
	UpdatedTransactions int               `json:"updated_transactions"`
	SyncedAt            time.Time         `json:"synced_at"`
}

// Orchestrator drives per-user sync cycles through the state machine
// NEVER_SYNCED -> SYNCING -> {SYNCED, ERROR, TOKEN_EXPIRED}.
type Orchestrator struct {
	users    storage.UserRepository
	engine   *Engine
	client   provider.Client
	budgets  BudgetRecomputer
	archiver Archiver

	// Guards the check-then-set on the SYNCING flag within this
	// process. The stored flag itself is advisory across processes.
	mu      sync.Mutex
	running map[string]bool
}

// NewOrchestrator creates a sync orchestrator. budgets and archiver are
// optional; pass nil to skip the corresponding post-sync step.
func NewOrchestrator(users storage.UserRepository, engine *Engine, client provider.Client, budgets BudgetRecomputer, archiver Archiver) *Orchestrator {
	return &Orchestrator{
		users:    users,
		engine:   engine,
		client:   client,
		budgets:  budgets,
		archiver: archiver,
		running:  make(map[string]bool),
	}
}

// Sync runs one full sync cycle for the user. When forced, the last
// sync timestamp is cleared first so the fetch window covers the full
// lookback and every transaction is re-reconciled.
func (o *Orchestrator) Sync(ctx context.Context, userID string, forced bool) *SyncResult {
	log := logger.FromContext(ctx).With().Str("user_id", userID).Bool("forced", forced).Logger()
	result := &SyncResult{UserID: userID, SyncedAt: time.Now()}

	user, err := o.users.GetUser(ctx, userID)
	if err != nil {
		result.Status = domain.SyncError
		result.Message = fmt.Sprintf("load user: %v", err)
		return result
	}
	if !user.Connected() {
		result.Status = domain.SyncError
		result.Message = "user has no linked provider item"
		return result
	}

	if !o.acquire(userID) {
		return o.conflict(result, log)
	}
	defer o.release(userID)
	if user.SyncStatus == domain.SyncRunning {
		return o.conflict(result, log)
	}

	if forced {
		if err := o.users.SetLastSyncedAt(ctx, userID, nil); err != nil {
			result.Status = domain.SyncError
			result.Message = fmt.Sprintf("clear last sync timestamp: %v", err)
			return result
		}
		user.LastSyncedAt = nil
	}

	if err := o.users.SetSyncStatus(ctx, userID, domain.SyncRunning, ""); err != nil {
		result.Status = domain.SyncError
		result.Message = fmt.Sprintf("mark sync running: %v", err)
		return result
	}

	end := time.Now()
	start := end.Add(-initialLookback)
	if user.LastSyncedAt != nil {
		start = user.LastSyncedAt.Add(-resyncOverlap)
	}
	log.Info().Time("window_start", start).Time("window_end", end).Msg("Starting sync")

	accounts, err := o.client.GetAccounts(ctx, user.AccessToken)
	if err != nil {
		return o.fail(ctx, result, log, "fetch accounts", err)
	}
	transactions, err := o.client.GetTransactions(ctx, user.AccessToken, start, end)
	if err != nil {
		return o.fail(ctx, result, log, "fetch transactions", err)
	}

	if o.archiver != nil {
		if loc, err := o.archiver.ArchiveSync(ctx, userID, accounts, transactions); err != nil {
			log.Warn().Err(err).Msg("Raw payload archival failed, continuing")
		} else {
			log.Debug().Str("location", loc).Msg("Archived raw sync payload")
		}
	}

	rec, err := o.engine.Reconcile(ctx, userID, accounts, transactions)
	if err != nil {
		return o.fail(ctx, result, log, "reconcile", err)
	}

	syncedAt := time.Now()
	if err := o.users.SetSyncStatus(ctx, userID, domain.SyncOK, ""); err != nil {
		return o.fail(ctx, result, log, "mark synced", err)
	}
	if err := o.users.SetLastSyncedAt(ctx, userID, &syncedAt); err != nil {
		return o.fail(ctx, result, log, "record sync timestamp", err)
	}

	// Recompute failures do not fail an otherwise successful sync.
	if o.budgets != nil {
		if err := o.budgets.RecomputeForUser(ctx, userID); err != nil {
			log.Warn().Err(err).Msg("Budget recompute failed after sync")
		}
	}

	result.Status = domain.SyncOK
	result.NewAccounts = rec.NewAccounts
	result.UpdatedAccounts = rec.UpdatedAccounts
	result.NewTransactions = rec.NewTransactions
	result.UpdatedTransactions = rec.UpdatedTransactions
	result.SyncedAt = syncedAt

	log.Info().
		Int("new_accounts", rec.NewAccounts).
		Int("updated_accounts", rec.UpdatedAccounts).
		Int("new_transactions", rec.NewTransactions).
		Int("updated_transactions", rec.UpdatedTransactions).
		Int("skipped_transactions", rec.SkippedTransactions).
		Int("record_errors", len(rec.RecordErrors)).
		Msg("Sync complete")
	return result
}

// fail records the terminal error state and fills the result. A
// credential failure lands in TOKEN_EXPIRED; the sweep never retries
// it until the user re-links.
func (o *Orchestrator) fail(ctx context.Context, result *SyncResult, log zerolog.Logger, stage string, err error) *SyncResult {
	status := domain.SyncError
	if errors.Is(err, provider.ErrInvalidToken) {
		status = domain.SyncTokenExpired
	}
	message := fmt.Sprintf("%s: %v", stage, err)

	if setErr := o.users.SetSyncStatus(ctx, result.UserID, status, message); setErr != nil {
		log.Error().Err(setErr).Msg("Failed to record sync error state")
	}
	log.Error().Err(err).Str("stage", stage).Str("status", string(status)).Msg("Sync failed")

	result.Status = status
	result.Message = message
	return result
}

func (o *Orchestrator) conflict(result *SyncResult, log zerolog.Logger) *SyncResult {
	log.Info().Msg("Sync already in progress, skipping")
	result.Status = domain.SyncRunning
	result.Message = "sync already in progress"
	result.Conflict = true
	return result
}

func (o *Orchestrator) acquire(userID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running[userID] {
		return false
	}
	o.running[userID] = true
	return true
}

func (o *Orchestrator) release(userID string) {
	o.mu.Lock()
	delete(o.running, userID)
	o.mu.Unlock()
}
