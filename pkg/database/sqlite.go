package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteConfig holds the local state database settings.
type SQLiteConfig struct {
	// Path is a file path, or ":memory:" for a throwaway database.
	Path        string
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns defaults for an on-device state file.
func DefaultSQLiteConfig(path string) SQLiteConfig {
	return SQLiteConfig{Path: path, BusyTimeout: 5 * time.Second}
}

// DSN builds the modernc.org/sqlite connection string with the pragmas the
// state store relies on.
func (c SQLiteConfig) DSN() string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	q.Add("_pragma", "foreign_keys(1)")
	if c.Path != ":memory:" {
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
	}
	return "file:" + c.Path + "?" + q.Encode()
}

// OpenSQLite opens the database and verifies it answers. The pool is capped
// at one connection: local state has a single writer and an in-memory
// database would otherwise be split across connections.
func OpenSQLite(ctx context.Context, cfg SQLiteConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", cfg.Path, err)
	}
	return db, nil
}
