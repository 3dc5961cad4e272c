package db

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// Dialect names the database/sql driver the repositories talk to.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "pgx"
)

// Rebind rewrites '?' placeholders into $1..$n for PostgreSQL.
// Queries must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// HasTable reports whether table exists in the current schema.
// Lookup errors are treated as "missing" so callers can report them.
func HasTable(ctx context.Context, q QueryRower, d Dialect, table string) bool {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1`
	if d == Postgres {
		query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_name = ?
		LIMIT 1`
	}

	var name sql.NullString
	if err := q.QueryRowContext(ctx, d.Rebind(query), table).Scan(&name); err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

// MissingTables returns the subset of tables that do not exist.
func MissingTables(ctx context.Context, q QueryRower, d Dialect, tables ...string) []string {
	missing := []string{}
	for _, t := range tables {
		if !HasTable(ctx, q, d, t) {
			missing = append(missing, t)
		}
	}
	return missing
}
