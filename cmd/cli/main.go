package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/budget"
	"github.com/christufur/MazzyMoney-sub001/internal/category"
	"github.com/christufur/MazzyMoney-sub001/internal/domain"
	"github.com/christufur/MazzyMoney-sub001/internal/gcsarchive"
	infraBQ "github.com/christufur/MazzyMoney-sub001/internal/infra/bigquery"
	"github.com/christufur/MazzyMoney-sub001/internal/learning"
	"github.com/christufur/MazzyMoney-sub001/internal/logger"
	"github.com/christufur/MazzyMoney-sub001/internal/provider"
	"github.com/christufur/MazzyMoney-sub001/internal/storage"
	"github.com/christufur/MazzyMoney-sub001/internal/syncer"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create-user":
		runCreateUser(log)
	case "sync":
		runSync(log)
	case "status":
		runStatus(log)
	case "transactions":
		runTransactions(log)
	case "resolve":
		runResolve(log)
	case "warm-rules":
		runWarmRules(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("MazzyMoney CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  create-user   Create a user record")
	fmt.Println("  sync          Run one sync cycle for a user")
	fmt.Println("  status        Show a user's connection and sync status")
	fmt.Println("  transactions  List a user's recent transactions")
	fmt.Println("  resolve       Resolve a category for a merchant/description")
	fmt.Println("  warm-rules    Seed learned rules from a user's categorized history")
	fmt.Println("  help          Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// openStore connects to BigQuery using the standard project/dataset
// flags registered on fs.
func openStore(ctx context.Context, log zerolog.Logger, project, dataset string) (*storage.Store, func()) {
	if project == "" {
		log.Fatal().Msg("Error: -project is required (or set GCP_PROJECT)")
	}
	bqStore, err := infraBQ.NewStore(ctx, project, dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery store")
	}
	return bqStore.Bundle(), func() { bqStore.Close() }
}

func storeFlags(fs *flag.FlagSet) (project, dataset *string) {
	project = fs.String("project", os.Getenv("GCP_PROJECT"), "GCP project ID")
	dataset = fs.String("dataset", "mazzymoney", "BigQuery dataset ID")
	return project, dataset
}

func runCreateUser(log zerolog.Logger) {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	project, dataset := storeFlags(fs)
	email := fs.String("email", "", "User email")
	fs.Parse(os.Args[2:])

	if *email == "" {
		log.Fatal().Msg("Error: -email is required")
	}

	ctx := logger.WithContext(context.Background(), log)
	store, closeStore := openStore(ctx, log, *project, *dataset)
	defer closeStore()

	user := &domain.User{
		ID:         uuid.New().String(),
		Email:      *email,
		SyncStatus: domain.SyncNever,
		CreatedAt:  time.Now(),
	}
	if err := store.Users.SaveUser(ctx, user); err != nil {
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("Created user %s (%s)\n", user.ID, user.Email)
}

func runSync(log zerolog.Logger) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	project, dataset := storeFlags(fs)
	userID := fs.String("user-id", "", "User ID to sync")
	forced := fs.Bool("forced", false, "Clear the last sync time and re-pull the full window")
	providerURL := fs.String("provider-url", envOr("PROVIDER_URL", "https://sandbox.plaid.com"), "Transaction provider base URL")
	bucket := fs.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for raw sync archives")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: -user-id is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store, closeStore := openStore(ctx, log, *project, *dataset)
	defer closeStore()

	client := provider.NewHTTPClient(*providerURL, os.Getenv("PROVIDER_CLIENT_ID"), os.Getenv("PROVIDER_SECRET"), log)

	var archiver syncer.Archiver
	if *bucket != "" {
		archive, err := gcsarchive.New(ctx, *bucket, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create sync archive")
		}
		defer archive.Close()
		archiver = archive
	}

	budgets := budget.NewService(store.Budgets, store.Transactions, log)
	engine := syncer.NewEngine(store.Accounts, store.Transactions, store.Rules, log)
	orchestrator := syncer.NewOrchestrator(store.Users, engine, client, budgets, archiver)

	result := orchestrator.Sync(ctx, *userID, *forced)

	fmt.Printf("Status:               %s\n", result.Status)
	if result.Message != "" {
		fmt.Printf("Message:              %s\n", result.Message)
	}
	fmt.Printf("New accounts:         %d\n", result.NewAccounts)
	fmt.Printf("Updated accounts:     %d\n", result.UpdatedAccounts)
	fmt.Printf("New transactions:     %d\n", result.NewTransactions)
	fmt.Printf("Updated transactions: %d\n", result.UpdatedTransactions)
}

func runStatus(log zerolog.Logger) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	project, dataset := storeFlags(fs)
	userID := fs.String("user-id", "", "User ID to inspect")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: -user-id is required")
	}

	ctx := logger.WithContext(context.Background(), log)
	store, closeStore := openStore(ctx, log, *project, *dataset)
	defer closeStore()

	engine := syncer.NewEngine(store.Accounts, store.Transactions, store.Rules, log)
	orchestrator := syncer.NewOrchestrator(store.Users, engine, nil, nil, nil)

	info, err := orchestrator.Status(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query status")
	}

	fmt.Println("\n=== Sync Status ===")
	fmt.Printf("Connected:    %v\n", info.Connected)
	if info.InstitutionName != "" {
		fmt.Printf("Institution:  %s\n", info.InstitutionName)
	}
	fmt.Printf("Status:       %s\n", info.SyncStatus)
	if info.SyncMessage != "" {
		fmt.Printf("Message:      %s\n", info.SyncMessage)
	}
	if info.LastSyncedAt != nil {
		fmt.Printf("Last synced:  %s\n", info.LastSyncedAt.Format(time.RFC3339))
	}
	fmt.Printf("Accounts:     %d\n", info.AccountCount)
	fmt.Printf("Transactions: %d\n", info.TransactionCount)
}

func runTransactions(log zerolog.Logger) {
	fs := flag.NewFlagSet("transactions", flag.ExitOnError)
	project, dataset := storeFlags(fs)
	userID := fs.String("user-id", "", "User ID")
	days := fs.Int("days", 30, "How many days back to list")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: -user-id is required")
	}

	ctx := logger.WithContext(context.Background(), log)
	store, closeStore := openStore(ctx, log, *project, *dataset)
	defer closeStore()

	end := time.Now()
	start := end.AddDate(0, 0, -*days)

	txs, err := store.Transactions.QueryByDateRange(ctx, *userID, start, end)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query transactions")
	}

	fmt.Printf("\n=== Transactions (%d) ===\n", len(txs))
	for i, tx := range txs {
		name := tx.MerchantName
		if name == "" {
			name = tx.Name
		}
		fmt.Printf("\n%d. %s\n", i+1, name)
		fmt.Printf("   Date:     %s\n", tx.Date.Format("2006-01-02"))
		fmt.Printf("   Amount:   %.2f\n", tx.Amount)
		fmt.Printf("   Category: %s\n", tx.Category)
		if tx.Pending {
			fmt.Printf("   Pending:  yes\n")
		}
	}
	fmt.Println()
}

// runResolve is a dry-run of the category resolver. With -user-id it
// loads the user's learned rules first; without, only built-in patterns
// apply.
func runResolve(log zerolog.Logger) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	project, dataset := storeFlags(fs)
	userID := fs.String("user-id", "", "User ID whose learned rules to apply (optional)")
	merchant := fs.String("merchant", "", "Merchant name")
	name := fs.String("name", "", "Transaction description")
	providerCat := fs.String("provider-category", "", "Raw provider category")
	fs.Parse(os.Args[2:])

	if *merchant == "" && *name == "" {
		log.Fatal().Msg("Error: -merchant or -name is required")
	}

	ctx := logger.WithContext(context.Background(), log)

	var overrides *category.RuleSet
	if *userID != "" {
		store, closeStore := openStore(ctx, log, *project, *dataset)
		defer closeStore()

		rules, err := store.Rules.ListRules(ctx, *userID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load rules")
		}
		overrides = category.NewRuleSet(rules, log)
	}

	in := category.Input{
		MerchantName: *merchant,
		Name:         *name,
	}
	if *providerCat != "" {
		in.ProviderCategories = []string{*providerCat}
	}

	fmt.Printf("Resolved: %s\n", category.Resolve(in, overrides))

	fmt.Println("Suggestions:")
	for _, s := range category.Suggest(in, overrides) {
		fmt.Printf("  %-20s %.2f\n", s.Category, s.Confidence)
	}
}

func runWarmRules(log zerolog.Logger) {
	fs := flag.NewFlagSet("warm-rules", flag.ExitOnError)
	project, dataset := storeFlags(fs)
	userID := fs.String("user-id", "", "User ID whose history to seed from")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: -user-id is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store, closeStore := openStore(ctx, log, *project, *dataset)
	defer closeStore()

	learner := learning.NewLearner(store.Rules, log)
	if err := learner.Warm(ctx, *userID, store.Transactions); err != nil {
		log.Fatal().Err(err).Msg("Warm seeding failed")
	}

	fmt.Println("Warm seeding completed.")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
