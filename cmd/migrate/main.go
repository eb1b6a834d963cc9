package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"bpih-platform/internal/config"
	"bpih-platform/internal/dataset"
	"bpih-platform/internal/repository"
	"bpih-platform/pkg/database"
	"bpih-platform/pkg/logging"
	"bpih-platform/pkg/metrics"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	dir := flag.String("dir", "migrations", "Directory containing the migration files")
	seed := flag.Bool("seed", true, "Load the published Keppres figures after migrating up")
	flag.Parse()

	if *direction != "up" && *direction != "down" {
		fmt.Fprintf(os.Stderr, "Unknown direction %q, expected up or down\n", *direction)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logLevel, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewStructuredLogger("bpih-migrate", "1.0.0", logLevel)
	metricsCollector := metrics.NewCollector("bpih_migrate")

	ctx := context.Background()

	// Connect to database
	db, err := database.NewPostgresDB(cfg.Database.Connection(), logger, metricsCollector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Println("Connected to database successfully")

	// Read migration file
	migrationFile := filepath.Join(*dir, fmt.Sprintf("001_create_schema.%s.sql", *direction))
	content, err := os.ReadFile(migrationFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read migration file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Running migration: %s\n", migrationFile)

	// Execute migration
	if _, err := db.ExecContext(ctx, "migrate_"+*direction, string(content)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute migration: %v\n", err)
		os.Exit(1)
	}

	if *direction == "up" && *seed {
		records := dataset.Keppres()
		if err := repository.SeedRecords(ctx, db, records); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to seed cost records: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Seeded %d published years\n", len(records))
	}

	fmt.Println("Migration completed successfully")
}
