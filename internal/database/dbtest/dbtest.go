// Package dbtest provides throwaway databases with the ledger schema applied.
//
// SQLite databases live in the test's temp dir. Postgres databases are
// schemas created under POSTGRES_TEST_URL and dropped on cleanup; tests
// asking for one are skipped when the variable is unset.
package dbtest

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/collateral-ledger/internal/config"
	"github.com/segyhp/collateral-ledger/internal/database"
)

// PostgresURLEnv names the variable holding the Postgres server used by tests
const PostgresURLEnv = "POSTGRES_TEST_URL"

// Opener returns a migrated, empty database that is closed on cleanup
type Opener func(t testing.TB) (*sqlx.DB, config.DatabaseConfig)

// Dialect pairs a driver name with its Opener
type Dialect struct {
	Name string
	Open Opener
}

// Dialects lists every supported driver, for tests that run once per dialect
func Dialects() []Dialect {
	return []Dialect{
		{Name: config.DriverSQLite, Open: New},
		{Name: config.DriverPostgres, Open: Postgres},
	}
}

// Config returns a SQLite database config pointing at a new file in t's temp dir.
// The URL is a bare path; the connection options come from DatabaseConfig.DSN.
func Config(t testing.TB) config.DatabaseConfig {
	t.Helper()

	return config.DatabaseConfig{
		Driver:          config.DriverSQLite,
		URL:             filepath.Join(t.TempDir(), "ledger.db"),
		MaxOpenConns:    8,
		MaxIdleConns:    8,
		ConnMaxLifetime: time.Minute,
		TxTimeout:       10 * time.Second,
		AutoMigrate:     true,
	}
}

// New migrates a fresh SQLite database
func New(t testing.TB) (*sqlx.DB, config.DatabaseConfig) {
	t.Helper()

	return open(t, Config(t))
}

// Postgres creates a fresh schema on the server at POSTGRES_TEST_URL and
// migrates it. The schema is dropped on cleanup.
func Postgres(t testing.TB) (*sqlx.DB, config.DatabaseConfig) {
	t.Helper()

	base := os.Getenv(PostgresURLEnv)
	if base == "" {
		t.Skipf("%s not set", PostgresURLEnv)
	}

	ctx := context.Background()
	admin, err := sqlx.ConnectContext(ctx, config.DriverPostgres, base)
	require.NoError(t, err)

	schema := "ledger_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = admin.ExecContext(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.ExecContext(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		_ = admin.Close()
	})

	u, err := url.Parse(base)
	require.NoError(t, err, "%s must be a postgres:// URL", PostgresURLEnv)
	query := u.Query()
	query.Set("search_path", schema)
	u.RawQuery = query.Encode()

	return open(t, config.DatabaseConfig{
		Driver:          config.DriverPostgres,
		URL:             u.String(),
		MaxOpenConns:    8,
		MaxIdleConns:    8,
		ConnMaxLifetime: time.Minute,
		TxTimeout:       10 * time.Second,
		AutoMigrate:     true,
	})
}

func open(t testing.TB, cfg config.DatabaseConfig) (*sqlx.DB, config.DatabaseConfig) {
	t.Helper()

	require.NoError(t, database.Migrate(cfg))

	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db, cfg
}
