package db

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jjudge-oj/roster/config"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// NewMigrator builds a migrator for the configured driver using the embedded migrations.
func NewMigrator(cfg config.DatabaseConfig) (*migrate.Migrate, error) {
	var dir, databaseURL string
	switch cfg.Driver {
	case "", config.DriverPostgres:
		dir = "migrations/postgres"
		databaseURL = PostgresURL(cfg)
	case config.DriverSQLite:
		if cfg.Path == "" {
			return nil, errors.New("sqlite db path is required")
		}
		dir = "migrations/sqlite"
		databaseURL = "sqlite://" + cfg.Path
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("open migrations %s: %w", dir, err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("init migrator failed: %w", err)
	}
	return m, nil
}

// MigrateUp applies all up migrations. Being up to date is not an error.
func MigrateUp(cfg config.DatabaseConfig) error {
	return runMigrator(cfg, func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown reverts all migrations.
func MigrateDown(cfg config.DatabaseConfig) error {
	return runMigrator(cfg, func(m *migrate.Migrate) error { return m.Down() })
}

func runMigrator(cfg config.DatabaseConfig, step func(*migrate.Migrate) error) error {
	m, err := NewMigrator(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := step(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migrate failed: %w", err)
	}
	return nil
}
