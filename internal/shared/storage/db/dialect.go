package db

import (
	"fmt"
	"strings"
)

// Dialect names the SQL flavour behind a *sql.DB.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DialectFor infers the dialect from a DATABASE_URL.
func DialectFor(databaseURL string) (Dialect, error) {
	raw := strings.ToLower(strings.TrimSpace(databaseURL))
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return DialectPostgres, nil
	case strings.HasPrefix(raw, "sqlite:"):
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported DATABASE_URL scheme")
	}
}

// Rebind rewrites $N placeholders into the form the dialect expects.
// Queries are written once in Postgres style; SQLite accepts the numbered ?N form.
func (d Dialect) Rebind(query string) string {
	if d != DialectSQLite {
		return query
	}
	return strings.ReplaceAll(query, "$", "?")
}

// gooseDialect maps the dialect onto goose's naming.
func (d Dialect) gooseDialect() string {
	if d == DialectSQLite {
		return "sqlite3"
	}
	return "postgres"
}
