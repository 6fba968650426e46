package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type nopDriver struct{}

func (d nopDriver) Open(name string) (driver.Conn, error) {
	return nopConn{}, nil
}

type nopConn struct{}

func (nopConn) Prepare(query string) (driver.Stmt, error) { return nopStmt{}, nil }
func (nopConn) Close() error                              { return nil }
func (nopConn) Begin() (driver.Tx, error)                 { return nopTx{}, nil }
func (nopConn) Ping(ctx context.Context) error            { return nil }

type nopStmt struct{}

func (nopStmt) Close() error                                   { return nil }
func (nopStmt) NumInput() int                                  { return -1 }
func (nopStmt) Exec(args []driver.Value) (driver.Result, error) { return nopResult{}, nil }
func (nopStmt) Query(args []driver.Value) (driver.Rows, error)  { return nopRows{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

type nopResult struct{}

func (nopResult) LastInsertId() (int64, error) { return 0, nil }
func (nopResult) RowsAffected() (int64, error) { return 0, nil }

type nopRows struct{}

func (nopRows) Columns() []string              { return []string{} }
func (nopRows) Close() error                   { return nil }
func (nopRows) Next(dest []driver.Value) error { return driver.ErrBadConn }

var registerTestDriverOnce sync.Once

func ensureTestDriverRegistered() {
	registerTestDriverOnce.Do(func() {
		sql.Register("dbtest", nopDriver{})
	})
}

func withTestDriver(t *testing.T) func() {
	t.Helper()
	ensureTestDriverRegistered()
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return sql.Open("dbtest", dsn)
	}
	return func() {
		openDB = prev
	}
}

func TestOptionsFromEnvAppliesOverrides(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "1s")

	opts := OptionsFromEnv(DefaultServerOptions())
	db, err := Connect(context.Background(), "postgres://ignored/vault", opts)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()

	stats := db.Stats()
	if stats.MaxOpenConnections != 7 {
		t.Fatalf("expected MaxOpenConnections=7, got %d", stats.MaxOpenConnections)
	}
	if opts.MaxIdleConns != 3 {
		t.Fatalf("expected MaxIdleConns=3, got %d", opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime != 20*time.Minute {
		t.Fatalf("expected ConnMaxLifetime=20m, got %s", opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime != 45*time.Second {
		t.Fatalf("expected ConnMaxIdleTime=45s, got %s", opts.ConnMaxIdleTime)
	}
	if opts.PingTimeout != time.Second {
		t.Fatalf("expected PingTimeout=1s, got %s", opts.PingTimeout)
	}
}

func TestConnectRejectsUnknownScheme(t *testing.T) {
	for _, url := range []string{"", "mysql://localhost/vault", "vault.db"} {
		if _, err := Connect(context.Background(), url, DefaultServerOptions()); err == nil {
			t.Fatalf("expected error for %q", url)
		}
	}
}

func TestParseURLSQLite(t *testing.T) {
	target, err := parseURL("sqlite:/var/lib/vault.db")
	if err != nil {
		t.Fatalf("parseURL: %v", err)
	}
	if target.driver != "sqlite" || target.dialect != DialectSQLite || target.memory {
		t.Fatalf("unexpected target: %+v", target)
	}
	if !strings.HasPrefix(target.dsn, "file:/var/lib/vault.db?") {
		t.Fatalf("unexpected dsn: %s", target.dsn)
	}
	for _, pragma := range []string{"busy_timeout(5000)", "foreign_keys(1)", "journal_mode(WAL)"} {
		if !strings.Contains(target.dsn, pragma) {
			t.Fatalf("dsn %s missing %s", target.dsn, pragma)
		}
	}

	mem, err := parseURL("sqlite::memory:")
	if err != nil {
		t.Fatalf("parseURL memory: %v", err)
	}
	if !mem.memory || strings.Contains(mem.dsn, "journal_mode") {
		t.Fatalf("unexpected memory target: %+v", mem)
	}
}

func TestParseURLPostgres(t *testing.T) {
	target, err := parseURL("postgresql://u:p@localhost:5432/vault?sslmode=disable")
	if err != nil {
		t.Fatalf("parseURL: %v", err)
	}
	if target.driver != "pgx" || target.dialect != DialectPostgres {
		t.Fatalf("unexpected target: %+v", target)
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT id FROM objects WHERE owner = $1 AND id = $2"
	if got := DialectPostgres.Rebind(q); got != q {
		t.Fatalf("postgres rebind changed query: %s", got)
	}
	want := "SELECT id FROM objects WHERE owner = ?1 AND id = ?2"
	if got := DialectSQLite.Rebind(q); got != want {
		t.Fatalf("sqlite rebind = %s, want %s", got, want)
	}
}

func TestRunMigrationsSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.db")
	database, err := Connect(context.Background(), "sqlite:"+path, DefaultMigrateOptions())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer database.Close()

	if err := RunMigrations(context.Background(), database, DialectSQLite); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	// Second run is a no-op.
	if err := RunMigrations(context.Background(), database, DialectSQLite); err != nil {
		t.Fatalf("RunMigrations again: %v", err)
	}

	for _, table := range []string{"objects", "object_chunks"} {
		var name string
		err := database.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}

func TestRunMigrationsNilDB(t *testing.T) {
	if err := RunMigrations(context.Background(), nil, DialectPostgres); err != nil {
		t.Fatalf("expected nil db to be a no-op, got %v", err)
	}
}
