// Command rtdb-import copies the old Firebase Realtime Database tree into
// the SQL store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"sitebooks/internal/config"
	"sitebooks/internal/database"
	"sitebooks/internal/legacy"
	"sitebooks/internal/logger"
	"sitebooks/internal/repository"

	"go.uber.org/zap"
)

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	databaseURL := flag.String("url", cfg.FirebaseDatabaseURL, "Realtime Database URL")
	credentials := flag.String("credentials", cfg.FirebaseCredentials, "service account JSON file")
	dryRun := flag.Bool("dry-run", false, "convert everything and roll back")
	flag.Parse()

	zlog, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if *databaseURL == "" {
		zlog.Fatal("no database URL, set FIREBASE_DATABASE_URL or -url")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.DBDriver, cfg.DSN(), zlog)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}

	reader, err := legacy.DialFirebase(ctx, *databaseURL, *credentials)
	if err != nil {
		zlog.Fatal("firebase connection failed", zap.Error(err))
	}

	importer := legacy.NewImporter(
		reader,
		repository.NewTransactionManager(db),
		repository.NewProjectRepository(db),
		repository.NewPartnerRepository(db),
		repository.NewInventoryRepository(db),
		repository.NewEmployeeRepository(db),
		repository.NewPurchaseRepository(db),
		repository.NewExpenseRepository(db),
		repository.NewAuditRepository(db),
		zlog,
	)

	counts, err := importer.Import(ctx, legacy.Options{DryRun: *dryRun})
	if err != nil {
		zlog.Fatal("import failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(counts)
}
