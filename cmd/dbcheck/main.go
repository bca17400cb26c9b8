// Command dbcheck verifies database connectivity and that the bookstore
// schema is in place. With -migrate it applies the schema first.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bookstore/internal/config"
	"bookstore/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	migrate := flag.Bool("migrate", false, "apply the schema before checking")
	flag.Parse()

	if err := run(*migrate); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(migrate bool) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	fmt.Printf("Successfully connected to database: %s\n", dbName)

	if migrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return err
		}
	}

	missing, err := database.MissingTables(ctx, pool)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tables: %s (run with -migrate)", strings.Join(missing, ", "))
	}

	fmt.Printf("Schema OK: %s\n", strings.Join(database.Tables, ", "))
	return nil
}
