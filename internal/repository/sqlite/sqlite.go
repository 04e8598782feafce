// Package sqlite implements the repository interfaces on SQLite.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no CGo, no C compiler, and
// cross-compilation just works. The blank-imported driver registers itself
// with database/sql under the name "sqlite".
//
// ONE CONNECTION:
// The pool is capped at a single connection. SQLite serializes writers
// anyway, ":memory:" databases exist per connection (so tests need exactly
// one), and PRAGMAs set at open time stay in effect. Because a *sql.Rows
// holds that connection until closed, no method issues a second query while
// still iterating the rows of a first.
//
// SCHEMA:
// Migrations are plain SQL files embedded in the binary and applied with
// goose on every open; already-applied versions are skipped.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	sqlitedriver "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/sakif/videotube/internal/apperror"
	"github.com/sakif/videotube/internal/repository/sqlite/migrations"
)

// DB wraps the sql.DB handle. One *DB implements every repository interface.
type DB struct {
	conn *sql.DB
}

// New opens (creating if needed) the database at dbPath and migrates it.
//
// dbPath examples:
//   - "data/videotube.db" → file-based database
//   - ":memory:"          → in-memory database, gone on Close (tests)
func New(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: creating %s: %w", dir, err)
			}
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight; foreign keys are
	// off by default in SQLite and the cascades below depend on them.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	if err := migrate(context.Background(), conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable; used by /healthz.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate applies pending migrations through a goose Provider, which keeps
// its dialect and filesystem per instance instead of in package globals.
func migrate(ctx context.Context, conn *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, conn, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction, committing on success and rolling back
// on error or panic.
func (db *DB) withTx(ctx context.Context, fn func(tx dbtx) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(tx)
}

// now is the timestamp written to created_at/updated_at columns.
// UTC keeps the stored text lexically sortable.
func now() time.Time {
	return time.Now().UTC()
}

// uniqueViolation reports whether err is a UNIQUE constraint failure and,
// if so, which column caused it ("users.email" → "email").
func uniqueViolation(err error) (string, bool) {
	var liteErr *sqlitedriver.Error
	if !errors.As(err, &liteErr) {
		return "", false
	}
	switch liteErr.Code() {
	case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
	default:
		return "", false
	}

	// Message format: "UNIQUE constraint failed: users.email (2067)"
	msg := liteErr.Error()
	if i := strings.LastIndex(msg, "failed: "); i >= 0 {
		col := strings.Fields(msg[i+len("failed: "):])
		if len(col) > 0 {
			if dot := strings.LastIndexByte(col[0], '.'); dot >= 0 {
				return strings.TrimRight(col[0][dot+1:], ","), true
			}
		}
	}
	return "", true
}

// notFoundOr maps sql.ErrNoRows to apperror.NotFound and wraps anything else.
func notFoundOr(err error, resource, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(resource, id)
	}
	return fmt.Errorf("sqlite: getting %s %s: %w", resource, id, err)
}

// expectOne turns a zero-row UPDATE/DELETE into NotFound.
func expectOne(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
