// Package store persists the agency domain in SQLite through sqlx. Framework
// chunk embeddings are compared with the sqlite-vec extension.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/starford/agencyhub/internal/apperr"
)

func init() {
	// Registers sqlite-vec as an auto-loaded extension for every connection
	// the mattn driver opens.
	vec.Auto()
}

// DB wraps a sqlx.DB with the repository methods.
type DB struct {
	x   *sqlx.DB
	now func() time.Time
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sqlx.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{x: conn, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.x.Close()
}

// Ping checks the connection; used by the readiness endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.x.PingContext(ctx)
}

// VecVersion reports the loaded sqlite-vec version.
func (db *DB) VecVersion(ctx context.Context) (string, error) {
	var v string
	if err := db.x.GetContext(ctx, &v, `SELECT vec_version()`); err != nil {
		return "", fmt.Errorf("store: vec version: %w", err)
	}
	return v, nil
}

func newID() string {
	return uuid.NewString()
}

// inTx runs fn in a transaction, rolling back on error.
func (db *DB) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.x.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// notFound maps sql.ErrNoRows to apperr.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("store: %s: %w", what, apperr.ErrNotFound)
	}
	return fmt.Errorf("store: %s: %w", what, err)
}

// isUnique reports whether err is a UNIQUE constraint violation.
func isUnique(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// requireRow turns a zero-row update into ErrNotFound.
func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("store: %s: %w", what, apperr.ErrNotFound)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// likePrefix escapes LIKE wildcards in prefix and appends %.
func likePrefix(prefix string) string {
	return strings.TrimPrefix(likePattern(prefix), "%")
}

// likePattern escapes LIKE wildcards in q and wraps it in %...%.
func likePattern(q string) string {
	out := make([]rune, 0, len(q)+2)
	out = append(out, '%')
	for _, r := range q {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(append(out, '%'))
}
