package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var postgresTables = []string{
	`CREATE TABLE IF NOT EXISTS contents (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		caption TEXT NOT NULL DEFAULT '',
		title TEXT,
		script TEXT,
		media_url TEXT,
		format VARCHAR(32) NOT NULL,
		thumbnail_url TEXT,
		hashtags TEXT[] NOT NULL DEFAULT '{}',
		status VARCHAR(32) NOT NULL DEFAULT 'DRAFT',
		published_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS post_jobs (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		content_id TEXT NOT NULL,
		platform VARCHAR(32) NOT NULL,
		status VARCHAR(16) NOT NULL,
		scheduled_for TIMESTAMPTZ,
		attempts INT NOT NULL DEFAULT 0,
		max_attempts INT NOT NULL DEFAULT 3,
		last_error TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_post_jobs_status_scheduled ON post_jobs(status, scheduled_for)`,
	`CREATE TABLE IF NOT EXISTS social_connections (
		id BIGSERIAL PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		platform VARCHAR(32) NOT NULL,
		account_id TEXT NOT NULL,
		account_name TEXT,
		page_id TEXT,
		access_token_encrypted TEXT NOT NULL,
		refresh_token_encrypted TEXT,
		token_expiry TIMESTAMPTZ,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		scopes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (tenant_id, platform, account_id)
	)`,
	`CREATE TABLE IF NOT EXISTS tenant_members (
		tenant_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		email TEXT NOT NULL,
		name TEXT,
		role VARCHAR(16) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (tenant_id, user_id)
	)`,
}

// EnsureSchema creates the publisher tables and adds columns introduced after the first release.
// Safe to call at startup.
func EnsureSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, ddl := range postgresTables {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	checks := []struct {
		table  string
		column string
		ddl    string
	}{
		{"post_jobs", "completed_at", "ALTER TABLE post_jobs ADD COLUMN completed_at TIMESTAMPTZ"},
	}
	for _, c := range checks {
		exists, err := columnExists(ctx, db, c.table, c.column)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := db.ExecContext(ctx, c.ddl); err != nil {
				return fmt.Errorf("adding column %s.%s failed: %w", c.table, c.column, err)
			}
		}
	}
	return nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	row := db.QueryRowContext(ctx, `SELECT 1 FROM information_schema.columns WHERE table_name=$1 AND column_name=$2`, table, column)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
