package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS repo_analyses (
  id            VARCHAR(64)   NOT NULL PRIMARY KEY,
  repository_url VARCHAR(2048) NOT NULL,
  storage_model VARCHAR(16)   NOT NULL,
  provider      VARCHAR(128)  NOT NULL,
  result_json   JSON          NOT NULL,
  duration_ms   BIGINT        NOT NULL DEFAULT 0,
  created_at    DATETIME(6)   NOT NULL,
  KEY idx_repo_analyses_repo (repository_url(255), created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS repo_analysis_failures (
  id             BIGINT        NOT NULL AUTO_INCREMENT PRIMARY KEY,
  request_id     VARCHAR(64)   NOT NULL,
  repository_url VARCHAR(2048) NOT NULL,
  kind           VARCHAR(32)   NOT NULL,
  message        TEXT          NOT NULL,
  raw_url        VARCHAR(2048) NOT NULL,
  created_at     DATETIME(6)   NOT NULL,
  KEY idx_repo_analysis_failures_repo (repository_url(255), created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
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
