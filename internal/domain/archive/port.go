package archive

import "context"

// Repository port for persisting and querying completed analyses
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Paginate(ctx context.Context, page, pageSize int) ([]*Record, error)
	LatestByRepository(ctx context.Context, repositoryURL string) (*Record, error)
}

// FailureRepository defines persistence for analysis failures
type FailureRepository interface {
	Save(ctx context.Context, f *Failure) error
	ListByRepository(ctx context.Context, repositoryURL string, limit int) ([]*Failure, error)
}
