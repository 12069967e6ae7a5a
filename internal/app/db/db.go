package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"studyhive/internal/pkg/logx"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Backend opens collections on either the JSON file store or PostgreSQL.
type Backend struct {
	dataDir string
	pool    *pgxpool.Pool
}

// NewFileBackend stores collections as JSON array files under dir.
func NewFileBackend(dir string) (*Backend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &Backend{dataDir: dir}, nil
}

// NewPostgresBackend connects to dsn, applies migrations and stores
// collections as JSONB tables.
func NewPostgresBackend(dsn string) (*Backend, error) {
	pool, err := NewPool(dsn)
	if err != nil {
		return nil, err
	}
	return &Backend{pool: pool}, nil
}

// Kind names the active backend for logging.
func (b *Backend) Kind() string {
	if b.pool != nil {
		return "postgres"
	}
	return "file"
}

// Pool returns the PostgreSQL pool, or nil for the file backend.
func (b *Backend) Pool() *pgxpool.Pool {
	return b.pool
}

// Close releases the database pool, if any.
func (b *Backend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

// NewCollection opens the named collection on b. uniqueKey is enforced by the
// file backend; PostgreSQL enforces the same keys with unique indexes.
func NewCollection[T Document](b *Backend, name string, uniqueKey func(T) string) Collection[T] {
	if b.pool != nil {
		return NewPGCollection[T](b.pool, strings.ReplaceAll(name, "-", "_"))
	}
	return NewFileCollection[T](filepath.Join(b.dataDir, name+".json"), uniqueKey)
}

// NewPool initializes a new PostgreSQL connection pool and executes database migrations.
func NewPool(dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := runMigrations(sqlDB); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// runMigrations applies all pending migrations from the embedded file system.
func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logx.Info("Database migrations applied successfully")
	return nil
}
