package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/repo-analyzer/internal/domain/archive"
)

type FailureRepository struct {
	db *sql.DB
}

func NewFailureRepository(db *sql.DB) *FailureRepository { return &FailureRepository{db: db} }

// Save inserts a failure and fills in its generated id
func (r *FailureRepository) Save(ctx context.Context, f *domain.Failure) error {
	const q = `
INSERT INTO repo_analysis_failures
  (request_id, repository_url, kind, message, raw_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id;`
	msg := f.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return r.db.QueryRowContext(ctx, q,
		stringOrDash(f.RequestID), f.RepositoryURL, stringOrDash(f.Kind), msg, f.RawURL, created,
	).Scan(&f.ID)
}

func (r *FailureRepository) ListByRepository(ctx context.Context, repositoryURL string, limit int) ([]*domain.Failure, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, request_id, repository_url, kind, message, raw_url, created_at
FROM repo_analysis_failures
WHERE repository_url = $1
ORDER BY created_at DESC, id DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, repositoryURL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*domain.Failure{}
	for rows.Next() {
		var f domain.Failure
		if err := rows.Scan(&f.ID, &f.RequestID, &f.RepositoryURL, &f.Kind, &f.Message, &f.RawURL, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
