package main

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"stream-market/internal/config"
	"stream-market/internal/logging"
	"stream-market/migrations"
)

func main() {
	log := logging.NewLogger("migrate")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Database.Driver != "postgres" {
		log.Fatal().Str("driver", cfg.Database.Driver).Msg("SQL migrations target postgres; sqlite uses gorm auto-migration")
	}

	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	applied, err := migrations.Apply(ctx, db, log)
	if err != nil {
		log.Fatal().Err(err).Strs("applied", applied).Msg("migration failed")
	}
	log.Info().Int("applied", len(applied)).Msg("schema up to date")
}
