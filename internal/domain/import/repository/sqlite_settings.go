package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteSettings stores import preferences in a local SQLite file.
type SQLiteSettings struct {
	db *sql.DB
}

// NewSQLiteSettings opens (and creates if needed) the prefs database at
// path. Use ":memory:" for a throwaway store.
func NewSQLiteSettings(ctx context.Context, path string) (*SQLiteSettings, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping settings database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS prefs (key TEXT PRIMARY KEY, value TEXT NOT NULL)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create prefs table: %w", err)
	}
	return &SQLiteSettings{db: db}, nil
}

func (s *SQLiteSettings) Load(ctx context.Context, keys []string) (map[string]string, error) {
	prefs := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return prefs, nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	query := `SELECT key, value FROM prefs WHERE key IN (?` + strings.Repeat(", ?", len(keys)-1) + `)`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load prefs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan pref: %w", err)
		}
		prefs[key] = value
	}
	return prefs, rows.Err()
}

func (s *SQLiteSettings) Save(ctx context.Context, prefs map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin prefs transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := `INSERT INTO prefs (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	for key, value := range prefs {
		if _, err := tx.ExecContext(ctx, query, key, value); err != nil {
			return fmt.Errorf("failed to save pref %s: %w", key, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteSettings) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
