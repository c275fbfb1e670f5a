package postgres

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator wraps golang-migrate with the embedded migration set
type Migrator struct {
	db *sql.DB
	m  *migrate.Migrate
}

// NewMigrator opens a dedicated connection for running migrations
func NewMigrator(databaseURL string) (*Migrator, error) {
	// Separate connection so migrations never share the application pool
	migrateDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open migration database: %w", err)
	}

	driver, err := migratepgx.WithInstance(migrateDB, &migratepgx.Config{})
	if err != nil {
		migrateDB.Close()
		return nil, fmt.Errorf("create pgx driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		migrateDB.Close()
		return nil, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		migrateDB.Close()
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	return &Migrator{db: migrateDB, m: m}, nil
}

// Up applies all pending migrations
func (g *Migrator) Up() error {
	if err := g.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Down rolls back the given number of migrations
func (g *Migrator) Down(steps int) error {
	if err := g.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("roll back migrations: %w", err)
	}
	return nil
}

// Version returns the current schema version and dirty flag
func (g *Migrator) Version() (uint, bool, error) {
	version, dirty, err := g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close releases the migration connection
func (g *Migrator) Close() error {
	srcErr, dbErr := g.m.Close()
	return errors.Join(srcErr, dbErr, g.db.Close())
}

// RunMigrations applies all pending migrations and closes the migrator
func RunMigrations(databaseURL string) error {
	g, err := NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer g.Close()
	return g.Up()
}
