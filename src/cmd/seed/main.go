// Command seed creates the demo accounts and optionally loads a legacy JSON dataset.
package main

import (
	"context"
	"flag"
	"os"

	"finance-dashboard/src/config"
	"finance-dashboard/src/importer"
	"finance-dashboard/src/logging"
	"finance-dashboard/src/store"
)

func main() {
	datasetPath := flag.String("dataset", "", "path to a JSON array of legacy transactions")
	password := flag.String("password", "password123", "password for every demo account")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(logging.Config{
		Level:     logging.ParseLevel(cfg.LogLevel),
		Component: logging.ComponentSeed,
		Output:    os.Stdout,
	})

	if cfg.DataBackend == config.BackendMemory {
		logger.Error("Seeding the memory backend has no effect", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open data store", logging.FieldError, err)
		os.Exit(1)
	}
	defer st.Close()

	s := seeder{store: st, password: *password, loc: cfg.Location, logger: logger}
	owners, err := s.ensureUsers(ctx)
	if err != nil {
		logger.Error("Failed to seed users", logging.FieldError, err)
		os.Exit(1)
	}

	if *datasetPath == "" {
		logger.Info("No dataset given, users only")
		return
	}

	f, err := os.Open(*datasetPath)
	if err != nil {
		logger.Error("Failed to open dataset", logging.FieldError, err, "path", *datasetPath)
		os.Exit(1)
	}
	defer f.Close()

	records, err := importer.ReadDataset(f)
	if err != nil {
		logger.Error("Failed to read dataset", logging.FieldError, err, "path", *datasetPath)
		os.Exit(1)
	}

	inserted, skipped, err := s.importDataset(ctx, records, owners)
	if err != nil {
		logger.Error("Failed to import dataset", logging.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Dataset seeded", "records", len(records), "inserted", inserted, "skipped", skipped)
}
