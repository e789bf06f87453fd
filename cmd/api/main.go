package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/christufur/MazzyMoney-sub001/internal/advisor"
	"github.com/christufur/MazzyMoney-sub001/internal/analytics"
	"github.com/christufur/MazzyMoney-sub001/internal/api/handlers"
	"github.com/christufur/MazzyMoney-sub001/internal/api/middleware"
	"github.com/christufur/MazzyMoney-sub001/internal/budget"
	"github.com/christufur/MazzyMoney-sub001/internal/domain"
	"github.com/christufur/MazzyMoney-sub001/internal/gcsarchive"
	infraBQ "github.com/christufur/MazzyMoney-sub001/internal/infra/bigquery"
	infraMem "github.com/christufur/MazzyMoney-sub001/internal/infra/inmemory"
	"github.com/christufur/MazzyMoney-sub001/internal/jobs"
	jobsinmemory "github.com/christufur/MazzyMoney-sub001/internal/jobs/inmemory"
	"github.com/christufur/MazzyMoney-sub001/internal/learning"
	"github.com/christufur/MazzyMoney-sub001/internal/logger"
	"github.com/christufur/MazzyMoney-sub001/internal/provider"
	"github.com/christufur/MazzyMoney-sub001/internal/storage"
	"github.com/christufur/MazzyMoney-sub001/internal/syncer"
)

func main() {
	var (
		port        = flag.String("port", "8080", "HTTP server port")
		project     = flag.String("project", os.Getenv("GCP_PROJECT"), "GCP project ID (empty runs the in-memory store)")
		dataset     = flag.String("dataset", envOr("BQ_DATASET", "mazzymoney"), "BigQuery dataset ID")
		bucket      = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for raw sync archives (empty disables archiving)")
		providerURL = flag.String("provider-url", envOr("PROVIDER_URL", "https://sandbox.plaid.com"), "Transaction provider base URL")
	)
	flag.Parse()

	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)

	// Store: BigQuery when a project is configured, in-memory otherwise.
	var store *storage.Store
	if *project != "" {
		bqStore, err := infraBQ.NewStore(ctx, *project, *dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery store")
		}
		defer bqStore.Close()
		store = bqStore.Bundle()
		log.Info().Str("project", *project).Str("dataset", *dataset).Msg("Using BigQuery store")
	} else {
		store = infraMem.New().Bundle()
		log.Warn().Msg("No GCP project configured, using in-memory store")
	}

	client := provider.NewHTTPClient(*providerURL, os.Getenv("PROVIDER_CLIENT_ID"), os.Getenv("PROVIDER_SECRET"), log)

	var archiver syncer.Archiver
	if *bucket != "" {
		archive, err := gcsarchive.New(ctx, *bucket, log)
		if err != nil {
			log.Fatal().Err(err).Str("bucket", *bucket).Msg("Failed to create sync archive")
		}
		defer archive.Close()
		archiver = archive
		log.Info().Str("bucket", *bucket).Msg("Raw sync archiving enabled")
	} else {
		log.Warn().Msg("No GCS bucket configured, raw sync archiving disabled")
	}

	budgets := budget.NewService(store.Budgets, store.Transactions, log)
	engine := syncer.NewEngine(store.Accounts, store.Transactions, store.Rules, log)
	orchestrator := syncer.NewOrchestrator(store.Users, engine, client, budgets, archiver)
	analyticsService := analytics.NewService(store.Transactions, log)
	learner := learning.NewLearner(store.Rules, log)

	// Model-backed category suggestions are optional.
	var categoryAdvisor handlers.CategoryAdvisor
	if os.Getenv("GEMINI_API_KEY") != "" {
		adv, err := advisor.New(ctx, log)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create category advisor, continuing without it")
		} else {
			categoryAdvisor = adv
			log.Info().Msg("Model-backed category suggestions enabled")
		}
	}

	// Job infrastructure. Sync runs off the request path; the API
	// enqueues and returns 202.
	jobStore := jobsinmemory.NewStore()
	jobQueue := jobsinmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		syncJob, ok := job.(*jobs.SyncUserJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", syncJob.JobID).
			Str("user_id", syncJob.UserID).
			Bool("forced", syncJob.Forced).
			Msg("Processing sync job")

		result := orchestrator.Sync(ctx, syncJob.UserID, syncJob.Forced)
		if result.Status == domain.SyncOK {
			log.Info().
				Str("job_id", syncJob.JobID).
				Int("new_transactions", result.NewTransactions).
				Int("updated_transactions", result.UpdatedTransactions).
				Msg("Sync job completed")
			return nil
		}
		if result.Conflict {
			// Another cycle is in flight; nothing to retry.
			log.Info().Str("job_id", syncJob.JobID).Msg("Sync already running, job dropped")
			return nil
		}
		return fmt.Errorf("sync failed (%s): %s", result.Status, result.Message)
	}

	go func() {
		log.Info().Msg("Starting sync job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Sync job worker stopped with error")
		}
	}()

	// Handlers
	syncHandler := handlers.NewSyncHandler(orchestrator, jobQueue, log)
	transactionsHandler := handlers.NewTransactionsHandler(store.Transactions, store.Rules, learner, categoryAdvisor, log)
	budgetsHandler := handlers.NewBudgetsHandler(budgets, log)
	goalsHandler := handlers.NewGoalsHandler(store.Goals, log)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	// Provider link and sync endpoints
	mux.HandleFunc("/api/link", post(syncHandler.Link))
	mux.HandleFunc("/api/sync", post(syncHandler.Trigger))
	mux.HandleFunc("/api/sync/now", post(syncHandler.SyncNow))
	mux.HandleFunc("/api/sync/status", get(syncHandler.Status))
	mux.HandleFunc("/api/disconnect", post(syncHandler.Disconnect))

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", get(transactionsHandler.List))
	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/suggestions"):
			transactionsHandler.Suggestions(w, r)
		case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/category"):
			transactionsHandler.SetCategory(w, r)
		case r.Method == http.MethodGet:
			transactionsHandler.Get(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Budgets endpoints
	mux.HandleFunc("/api/budgets", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			budgetsHandler.List(w, r)
		case http.MethodPost:
			budgetsHandler.Create(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})
	mux.HandleFunc("/api/budgets/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			budgetsHandler.Get(w, r)
		case http.MethodPut:
			budgetsHandler.Update(w, r)
		case http.MethodDelete:
			budgetsHandler.Delete(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Goals endpoints
	mux.HandleFunc("/api/goals", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			goalsHandler.List(w, r)
		case http.MethodPost:
			goalsHandler.Create(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})
	mux.HandleFunc("/api/goals/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			goalsHandler.Get(w, r)
		case http.MethodPut:
			goalsHandler.Update(w, r)
		case http.MethodDelete:
			goalsHandler.Delete(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Analytics endpoints
	mux.HandleFunc("/api/analytics/monthly", get(analyticsHandler.Monthly))
	mux.HandleFunc("/api/analytics/insights", get(analyticsHandler.Insights))
	mux.HandleFunc("/api/analytics/merchants", get(analyticsHandler.Merchants))
	mux.HandleFunc("/api/analytics/weekdays", get(analyticsHandler.Weekdays))
	mux.HandleFunc("/api/analytics/yearly", get(analyticsHandler.Yearly))
	mux.HandleFunc("/api/analytics/forecast", get(analyticsHandler.Forecast))

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", get(jobsHandler.List))
	mux.HandleFunc("/api/jobs/", get(jobsHandler.Get))

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.UserID(mux),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func get(h http.HandlerFunc) http.HandlerFunc {
	return methodOnly(http.MethodGet, h)
}

func post(h http.HandlerFunc) http.HandlerFunc {
	return methodOnly(http.MethodPost, h)
}

func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}
