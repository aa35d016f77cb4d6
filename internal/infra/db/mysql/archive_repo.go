package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/bryanwahyu/repo-analyzer/internal/domain/archive"
)

type ArchiveRepository struct {
	db *sql.DB
}

func NewArchiveRepository(db *sql.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// Save inserts an archived analysis
func (r *ArchiveRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO repo_analyses
  (id, repository_url, storage_model, provider, result_json, duration_ms, created_at)
VALUES (?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  provider=VALUES(provider), result_json=VALUES(result_json), duration_ms=VALUES(duration_ms);
`
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		a.ID, a.RepositoryURL, stringOrDash(a.StorageModel), stringOrDash(a.Provider),
		jsonOrEmpty(a.Result), a.DurationMS, createdAt,
	)
	return err
}

// Paginate returns a page of archived analyses ordered by created_at desc
func (r *ArchiveRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, repository_url, storage_model, provider, result_json, duration_ms, created_at
FROM repo_analyses
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Record{}
	for rows.Next() {
		a, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// LatestByRepository returns the newest analysis of a repository, or nil
func (r *ArchiveRepository) LatestByRepository(ctx context.Context, repositoryURL string) (*domain.Record, error) {
	const q = `
SELECT id, repository_url, storage_model, provider, result_json, duration_ms, created_at
FROM repo_analyses
WHERE repository_url=?
ORDER BY created_at DESC, id DESC
LIMIT 1;`
	a, err := scanRecord(r.db.QueryRowContext(ctx, q, repositoryURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*domain.Record, error) {
	var a domain.Record
	if err := row.Scan(&a.ID, &a.RepositoryURL, &a.StorageModel, &a.Provider, &a.Result, &a.DurationMS, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
