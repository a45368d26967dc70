// ABOUTME: Schema migrations for the Atlas sync store
// ABOUTME: Embedded SQL applied idempotently via golang-migrate
package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"

	"github.com/jaya-mm/Atlas-daily-sync/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate runs a migration command against the store. Supported commands:
// "up", "down", "version". The orchestrator runs "up" before every sync
// run so the schema and backfill columns exist before any write.
func Migrate(log zerolog.Logger, cfg *config.Config, command string) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, DSN(cfg))
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer m.Close()
	m.Log = &migrateLogger{log: log}

	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate up: %w", err)
		}
		ver, dirty, _ := m.Version()
		log.Info().Uint("version", ver).Bool("dirty", dirty).Msg("schema up to date")

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate down: %w", err)
		}
		log.Info().Msg("all migrations rolled back")

	case "version":
		ver, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("migrate version: %w", err)
		}
		log.Info().Uint("version", ver).Bool("dirty", dirty).Msg("current version")

	default:
		return fmt.Errorf("unknown migrate command: %s (use: up, down, version)", command)
	}

	return nil
}

type migrateLogger struct {
	log zerolog.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Info().Msgf(format, v...)
}

func (l *migrateLogger) Verbose() bool { return false }
