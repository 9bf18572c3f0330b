package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

// DB wraps the SQL connection pool
type DB struct {
	*sql.DB
}

// New opens a connection pool to the sync database and verifies it
func New(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// EnsureSchema creates the sync tables if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS synced_sessions (
			id UUID PRIMARY KEY,
			device_id TEXT NOT NULL,
			tab_id INTEGER NOT NULL,
			url TEXT NOT NULL,
			domain TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			start_time TIMESTAMPTZ NOT NULL,
			last_active TIMESTAMPTZ NOT NULL,
			total_time_ms BIGINT NOT NULL,
			received_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_synced_sessions_device_domain
			ON synced_sessions (device_id, domain)`,
		`CREATE TABLE IF NOT EXISTS daily_summaries (
			device_id TEXT NOT NULL,
			date DATE NOT NULL,
			total_time_ms BIGINT NOT NULL,
			session_count INTEGER NOT NULL,
			domains JSONB NOT NULL DEFAULT '{}',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (device_id, date)
		)`,
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
