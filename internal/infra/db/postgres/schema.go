package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS repo_analyses (
  id             TEXT        PRIMARY KEY,
  repository_url TEXT        NOT NULL,
  storage_model  TEXT        NOT NULL,
  provider       TEXT        NOT NULL,
  result_json    JSONB       NOT NULL,
  duration_ms    BIGINT      NOT NULL DEFAULT 0,
  created_at     TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_repo_analyses_repo ON repo_analyses (repository_url, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS repo_analysis_failures (
  id             BIGSERIAL   PRIMARY KEY,
  request_id     TEXT        NOT NULL,
  repository_url TEXT        NOT NULL,
  kind           TEXT        NOT NULL,
  message        TEXT        NOT NULL,
  raw_url        TEXT        NOT NULL DEFAULT '',
  created_at     TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_repo_analysis_failures_repo ON repo_analysis_failures (repository_url, created_at DESC)`,
}

// EnsureSchema creates the archive tables when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
