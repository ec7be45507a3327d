package main

import (
	"context"
	"flag"
	"time"

	"github.com/dustin/go-humanize"

	"dbdwatch/internal/adapters/config"
	pgclient "dbdwatch/internal/adapters/postgres"
	filerepo "dbdwatch/internal/repository/file"
	pgrepo "dbdwatch/internal/repository/postgres"
	"dbdwatch/pkg/logger"
)

// importer loads a CSV/XLSX dataset into the dengue_observations table so
// the dashboard can run with DATASET_SOURCE=postgres
func main() {
	path := flag.String("file", "", "Dataset file (csv or xlsx); defaults to DATASET_PATH")
	dryRun := flag.Bool("dry-run", false, "Parse the file without writing to the database")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	source := *path
	if source == "" {
		source = cfg.Data.Path
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dataset, err := filerepo.NewRepository(source, log).Load(ctx)
	if err != nil {
		log.Fatalf("Failed to read dataset: %v", err)
	}

	log.Infow("Dataset parsed",
		"file", source,
		"rows", humanize.Comma(int64(dataset.Len())),
		"regions", len(dataset.Regions()),
		"dry_run", *dryRun,
	)

	if *dryRun {
		log.Info("✅ Dry-run mode: dataset validated")
		return
	}

	if cfg.Postgres.Host == "" {
		log.Fatal("POSTGRES_HOST is required to import")
	}

	pg, err := pgclient.NewClient(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = pg.Close() }()

	if err := pg.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	repo := pgrepo.NewObservationRepository(pg.DB())
	if err := repo.Upsert(ctx, dataset.Rows()); err != nil {
		log.Fatalf("Failed to import observations: %v", err)
	}

	log.Infow("✅ Import complete", "rows", dataset.Len())
}
