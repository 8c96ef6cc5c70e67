package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"joreca_dedup/config"
	"joreca_dedup/dedup"
	"joreca_dedup/logging"
	"joreca_dedup/mockdata"
	"joreca_dedup/scheduler"
	"joreca_dedup/services"
	"joreca_dedup/storage"
	"joreca_dedup/workers"
)

var (
	detectNow = flag.Bool("detect", false, "Run one detection batch and exit")
	exportNow = flag.Bool("export", false, "Write the cross-source diff report and exit")
	seedCount = flag.Int("seed", 0, "Seed N mock listings before anything else")
	seedRatio = flag.Float64("seed-dup-ratio", 0.3, "Duplicate ratio for seeded mock data")
	seedValue = flag.Int64("seed-value", 42, "RNG seed for mock data")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("dedup.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting joreca_dedup...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	var store services.Store
	if cfg.DatabaseURL != "" {
		pgStore, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pgStore.Close()
		log.Println("Connected to Postgres")
		store = pgStore
	} else {
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			os.MkdirAll(dir, 0755)
		}
		sqliteStore, err := storage.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open SQLite: %v", err)
		}
		defer sqliteStore.Close()
		log.Printf("SQLite database: %s", cfg.DBPath)
		store = sqliteStore
	}

	engine, err := dedup.New(cfg.Dedup)
	if err != nil {
		log.Fatalf("Invalid dedup configuration: %v", err)
	}
	log.Printf("Engine ready (threshold %.2f, %d city aliases)",
		cfg.Dedup.SimilarityThreshold, len(cfg.Dedup.CityAliases))

	dedupService := services.NewDedupService(store, engine)
	diffService := services.NewDiffService(store)

	if *seedCount > 0 {
		gen := mockdata.New(*seedValue)
		rows := gen.Rows(*seedCount, *seedRatio)
		if err := store.UpsertListings(ctx, rows); err != nil {
			log.Fatalf("Failed to seed listings: %v", err)
		}
		log.Printf("Seeded %d mock listings (duplicate ratio %.2f)", len(rows), *seedRatio)
	}

	var uploader workers.Uploader
	if cfg.S3.Bucket != "" {
		up, err := storage.NewReportUploader(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		}, "reports")
		if err != nil {
			log.Fatalf("Failed to create report uploader: %v", err)
		}
		uploader = up
		log.Printf("Report uploads enabled: s3://%s", cfg.S3.Bucket)
	}

	exportWorker := workers.NewExportWorker(diffService, uploader, cfg.Export.Dir)

	if *detectNow {
		log.Println("Running detection...")
		if _, _, err := dedupService.RunOnce(ctx); err != nil {
			log.Fatalf("Detection failed: %v", err)
		}
		log.Println("Detection complete!")
		return
	}

	if *exportNow {
		if err := exportWorker.Export(ctx); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		return
	}

	// Daemon mode
	sched := scheduler.New(cfg, dedupService)
	sched.SetExportWorker(exportWorker)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	go exportWorker.Run(ctx, cfg.Export.Interval)
	log.Println("Export worker started")

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}
