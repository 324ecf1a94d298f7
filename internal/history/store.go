// Package history provides the append-only request log backed by SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/user/kinobot/internal/types"
)

// DefaultRecentLimit is used by Recent when no positive limit is given.
const DefaultRecentLimit = 10

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Store records user requests. It implements types.HistoryLog.
type Store struct {
	sql *sql.DB
	now func() time.Time
}

var _ types.HistoryLog = (*Store)(nil)

// Open opens (or creates) the history database at path and runs migrations.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &Store{sql: sqlDB, now: time.Now}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("history database opened", "path", path)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.sql.Close()
}

// Append adds an entry to the log. A zero CreatedAt is set to now.
func (s *Store) Append(ctx context.Context, entry types.RequestLogEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	_, err := s.sql.ExecContext(ctx,
		`INSERT INTO request_history (user_id, request_type, query, created_at)
		 VALUES (?, ?, ?, ?)`,
		int64(entry.UserID), string(entry.RequestType), entry.Query, createdAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

// Recent returns the user's last limit entries, newest first.
func (s *Store) Recent(ctx context.Context, userID types.UserID, limit int) ([]types.RequestLogEntry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := s.sql.QueryContext(ctx,
		`SELECT request_type, query, created_at
		 FROM request_history
		 WHERE user_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		int64(userID), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var entries []types.RequestLogEntry
	for rows.Next() {
		var (
			e  types.RequestLogEntry
			rt string
			ts string
		)
		if err := rows.Scan(&rt, &e.Query, &ts); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		e.UserID = userID
		e.RequestType = types.RequestType(rt)
		e.CreatedAt, _ = time.Parse(timeLayout, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries created before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.sql.ExecContext(ctx,
		`DELETE FROM request_history WHERE created_at < ?`,
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune requests: %w", err)
	}
	return res.RowsAffected()
}

// migrate runs all pending migrations.
func (s *Store) migrate() error {
	if _, err := s.sql.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	for _, m := range migrations {
		var count int
		if err := s.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.Version).Scan(&count); err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		slog.Info("applying history migration", "version", m.Version, "name", m.Name)

		tx, err := s.sql.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}
