package syncer

import (
	"context"
	"time"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
	"github.com/christufur/MazzyMoney-sub001/internal/logger"
)

// SweepResult summarizes one pass over the user base.
type SweepResult struct {
	Eligible int `json:"eligible"`
	Synced   int `json:"synced"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

// Sweep syncs every connected user whose last sync is older than
// staleAfter, pausing delay between users to stay inside provider rate
// limits. staleAfter zero means sync everyone regardless of freshness.
// Users in TOKEN_EXPIRED are skipped until they re-link.
func (o *Orchestrator) Sweep(ctx context.Context, staleAfter, delay time.Duration) (*SweepResult, error) {
	log := logger.FromContext(ctx)
	result := &SweepResult{}

	users, err := o.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	first := true
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !eligible(u, staleAfter) {
			continue
		}
		result.Eligible++

		if !first && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
		first = false

		switch sr := o.Sync(ctx, u.ID, false); sr.Status {
		case domain.SyncOK:
			result.Synced++
		case domain.SyncRunning:
			result.Skipped++
		default:
			result.Failed++
		}
	}

	log.Info().
		Int("eligible", result.Eligible).
		Int("synced", result.Synced).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("Sweep complete")
	return result, nil
}

func eligible(u *domain.User, staleAfter time.Duration) bool {
	if !u.Connected() {
		return false
	}
	switch u.SyncStatus {
	case domain.SyncRunning, domain.SyncTokenExpired:
		return false
	}
	if u.LastSyncedAt == nil || staleAfter == 0 {
		return true
	}
	return time.Since(*u.LastSyncedAt) >= staleAfter
}
