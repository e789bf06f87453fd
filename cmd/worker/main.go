package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/budget"
	"github.com/christufur/MazzyMoney-sub001/internal/gcsarchive"
	infraBQ "github.com/christufur/MazzyMoney-sub001/internal/infra/bigquery"
	"github.com/christufur/MazzyMoney-sub001/internal/logger"
	"github.com/christufur/MazzyMoney-sub001/internal/provider"
	"github.com/christufur/MazzyMoney-sub001/internal/syncer"
)

// The worker sweeps all connected users on a schedule. The hourly sweep
// only picks up users whose data has gone stale; the daily sweep
// revisits everyone, with a wider gap between users to smooth provider
// load.
func main() {
	var (
		project     = flag.String("project", os.Getenv("GCP_PROJECT"), "GCP project ID (required)")
		dataset     = flag.String("dataset", envOr("BQ_DATASET", "mazzymoney"), "BigQuery dataset ID")
		bucket      = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for raw sync archives (empty disables archiving)")
		providerURL = flag.String("provider-url", envOr("PROVIDER_URL", "https://sandbox.plaid.com"), "Transaction provider base URL")

		sweepEvery = flag.Duration("sweep-every", time.Hour, "Interval between stale-user sweeps")
		staleAfter = flag.Duration("stale-after", 6*time.Hour, "Age after which a user's data counts as stale")
		fullEvery  = flag.Duration("full-every", 24*time.Hour, "Interval between full sweeps of all users")
		userDelay  = flag.Duration("user-delay", 2*time.Second, "Pause between users within a sweep")
	)
	flag.Parse()

	log := logger.New()

	if *project == "" {
		log.Fatal().Msg("GCP project is required (set -project or GCP_PROJECT)")
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	bqStore, err := infraBQ.NewStore(ctx, *project, *dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery store")
	}
	defer bqStore.Close()
	store := bqStore.Bundle()

	client := provider.NewHTTPClient(*providerURL, os.Getenv("PROVIDER_CLIENT_ID"), os.Getenv("PROVIDER_SECRET"), log)

	var archiver syncer.Archiver
	if *bucket != "" {
		archive, err := gcsarchive.New(ctx, *bucket, log)
		if err != nil {
			log.Fatal().Err(err).Str("bucket", *bucket).Msg("Failed to create sync archive")
		}
		defer archive.Close()
		archiver = archive
	}

	budgets := budget.NewService(store.Budgets, store.Transactions, log)
	engine := syncer.NewEngine(store.Accounts, store.Transactions, store.Rules, log)
	orchestrator := syncer.NewOrchestrator(store.Users, engine, client, budgets, archiver)

	log.Info().
		Dur("sweep_every", *sweepEvery).
		Dur("stale_after", *staleAfter).
		Dur("full_every", *fullEvery).
		Msg("Starting sync worker")

	go runSweeps(ctx, orchestrator, log, *sweepEvery, *staleAfter, *fullEvery, *userDelay)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down sync worker...")
	cancel()
	log.Info().Msg("Sync worker exited")
}

// runSweeps alternates stale sweeps on the short interval with full
// sweeps on the long one. Sweeps never overlap; a slow sweep delays the
// next tick rather than stacking.
func runSweeps(ctx context.Context, orchestrator *syncer.Orchestrator, log zerolog.Logger, sweepEvery, staleAfter, fullEvery, userDelay time.Duration) {
	staleTicker := time.NewTicker(sweepEvery)
	defer staleTicker.Stop()
	fullTicker := time.NewTicker(fullEvery)
	defer fullTicker.Stop()

	// A full pass on startup brings everyone current before the
	// steady-state cadence takes over.
	sweep(ctx, orchestrator, log, "full", 0, userDelay)

	for {
		select {
		case <-ctx.Done():
			return
		case <-fullTicker.C:
			sweep(ctx, orchestrator, log, "full", 0, userDelay)
		case <-staleTicker.C:
			sweep(ctx, orchestrator, log, "stale", staleAfter, userDelay)
		}
	}
}

func sweep(ctx context.Context, orchestrator *syncer.Orchestrator, log zerolog.Logger, kind string, staleAfter, userDelay time.Duration) {
	start := time.Now()
	result, err := orchestrator.Sweep(ctx, staleAfter, userDelay)
	if err != nil {
		log.Error().Err(err).Str("sweep", kind).Msg("Sweep failed")
		return
	}

	log.Info().
		Str("sweep", kind).
		Int("eligible", result.Eligible).
		Int("synced", result.Synced).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Dur("duration", time.Since(start)).
		Msg("Sweep completed")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
