// Package store keeps ccf-web browser sessions in SQLite. Each browser
// cookie owns one row set of session keys, exposed as a session.Store.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/me/ccfeedback/internal/logging"
	"github.com/me/ccfeedback/internal/session"

	_ "modernc.org/sqlite"
)

// ErrUnknownSession is returned for session ids the store has never issued
// or has already purged.
var ErrUnknownSession = errors.New("unknown browser session")

// SQLiteStore persists browser sessions in SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logging.Component(logger, "store"),
		now:    time.Now,
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// timeLayout is fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func (s *SQLiteStore) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

// CreateSession issues a new random browser session id.
func (s *SQLiteStore) CreateSession(ctx context.Context, userAgent string) (string, error) {
	id := uuid.NewString()
	now := s.timestamp()
	s.logger.Debug("sql", "op", "insert", "table", "browser_sessions")

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO browser_sessions (id, created_at, last_seen_at, user_agent) VALUES (?, ?, ?, ?)`,
		id, now, now, userAgent,
	)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// Touch marks session id as seen now. It returns ErrUnknownSession when
// the id does not exist.
func (s *SQLiteStore) Touch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE browser_sessions SET last_seen_at = ? WHERE id = ?`, s.timestamp(), id)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if n == 0 {
		return ErrUnknownSession
	}
	return nil
}

// DeleteSession removes a browser session and all of its keys.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "browser_sessions")
	_, err := s.deleteWhere(ctx, `id = ?`, id)
	return err
}

// DeleteStale removes browser sessions not seen for olderThan and returns
// how many were removed.
func (s *SQLiteStore) DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan).UTC().Format(timeLayout)
	n, err := s.deleteWhere(ctx, `last_seen_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("purged stale browser sessions", "count", n, "older_than", olderThan.String())
	}
	return n, nil
}

// deleteWhere deletes the browser sessions matching cond and their values.
// Values are deleted explicitly because foreign_keys is a per-connection
// pragma and pooled connections may not have it set.
func (s *SQLiteStore) deleteWhere(ctx context.Context, cond string, args ...any) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM session_values WHERE session_id IN (SELECT id FROM browser_sessions WHERE `+cond+`)`, args...,
	); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM browser_sessions WHERE `+cond, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

// CountSessions returns the number of live browser sessions.
func (s *SQLiteStore) CountSessions(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM browser_sessions`).Scan(&n)
	return n, err
}

// ForSession returns the key-value view of browser session id.
func (s *SQLiteStore) ForSession(id string) *SessionValues {
	return &SessionValues{store: s, id: id}
}

// SessionValues is one browser session's key-value store.
type SessionValues struct {
	store *SQLiteStore
	id    string
}

var _ session.Store = (*SessionValues)(nil)

// ID returns the browser session id.
func (v *SessionValues) ID() string {
	return v.id
}

// Get returns the value stored under key.
func (v *SessionValues) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := v.store.db.QueryRowContext(ctx,
		`SELECT value FROM session_values WHERE session_id = ? AND key = ?`, v.id, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, creating the browser session row if needed.
func (v *SessionValues) Set(ctx context.Context, key, value string) error {
	now := v.store.timestamp()

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO browser_sessions (id, created_at, last_seen_at) VALUES (?, ?, ?)`,
		v.id, now, now,
	); err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO session_values (session_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		v.id, key, value, now,
	); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return tx.Commit()
}

// Clear removes every key of the browser session. The session id stays
// valid.
func (v *SessionValues) Clear(ctx context.Context) error {
	v.store.logger.Debug("sql", "op", "delete", "table", "session_values")
	if _, err := v.store.db.ExecContext(ctx, `DELETE FROM session_values WHERE session_id = ?`, v.id); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
