package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/phrazzld/taskboard-api/internal/redact"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

// Environment variables consulted by DatabaseURL and IsCI.
const (
	EnvTestDatabaseURL = "TASKBOARD_TEST_DATABASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

// Timeout bounds connection checks and transaction starts.
const Timeout = 5 * time.Second

var ciVariables = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

var (
	migrateOnce sync.Once
	migrateErr  error
)

// DatabaseURL returns the configured test database URL, or "".
func DatabaseURL() string {
	if u := os.Getenv(EnvTestDatabaseURL); u != "" {
		return u
	}
	return os.Getenv(EnvDatabaseURL)
}

// IsCI reports whether the tests run under a known CI provider.
func IsCI() bool {
	for _, name := range ciVariables {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// Open connects to the test database and applies all migrations once per
// test binary. The connection is closed when t finishes.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := DatabaseURL()
	if dbURL == "" {
		if IsCI() {
			t.Fatalf("%s or %s must be set in CI", EnvTestDatabaseURL, EnvDatabaseURL)
		}
		t.Skipf("%s not set, skipping database test", EnvTestDatabaseURL)
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "failed to open %s", redact.URL(dbURL))
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "database %s unreachable", redact.URL(dbURL))

	migrateOnce.Do(func() { migrateErr = migrate(db) })
	require.NoError(t, migrateErr, "failed to apply migrations")
	return db
}

func migrate(db *sql.DB) error {
	goose.SetLogger(log.New(io.Discard, "", 0))
	goose.SetBaseFS(postgres.Migrations)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, postgres.MigrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction that is always rolled back, so tests
// can write freely without seeing each other's rows.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err, "failed to begin transaction")
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			t.Errorf("failed to roll back test transaction: %s", redact.Error(rbErr))
		}
	}()

	fn(t, tx)
}
