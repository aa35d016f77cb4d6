package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/repo-analyzer/internal/application"
	domain "github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/archive"
)

// persistTimeout bounds archive and diagnostics writes, which run detached
// from the caller's context.
const persistTimeout = 5 * time.Second

// Service runs one analysis: build the prompt, call the generator once,
// validate the answer. Archive, Failures and Diagnostics are optional and
// their failures never change the outcome.
// Service is safe for concurrent use.
type Service struct {
	Prompts     domain.PromptBuilder
	Generator   domain.Generator
	Decoder     domain.Decoder
	Archive     archive.Repository
	Failures    archive.FailureRepository
	Diagnostics domain.RawStore
	Clock       application.Clock
	Log         *zap.Logger
	Timeout     time.Duration
}

// Analyze returns either a validated result or one of the domain errors.
// There is no retry.
func (s *Service) Analyze(ctx context.Context, req domain.Request) (*domain.Result, error) {
	log := s.logger().With(
		zap.String("request_id", req.ID),
		zap.String("repository", req.RepositoryURL),
		zap.String("storage", string(req.StorageModel)),
	)
	start := s.now()

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	prompt := s.Prompts.Build(req)
	raw, err := s.Generator.Generate(ctx, prompt)
	if err != nil {
		err = normalize(ctx, err)
		log.Warn("generation failed", zap.Error(err))
		s.recordFailure(ctx, req, err, "")
		return nil, err
	}

	res, err := s.Decoder.Decode(raw)
	if err != nil {
		rawURL := ""
		var pe *domain.ParseError
		if errors.As(err, &pe) {
			rawURL = s.keepRaw(ctx, req, pe.Raw, log)
		}
		log.Warn("response rejected", zap.Error(err), zap.Int("raw_bytes", len(raw)))
		s.recordFailure(ctx, req, err, rawURL)
		return nil, err
	}

	elapsed := s.now().Sub(start)
	log.Info("analysis complete", zap.Duration("duration", elapsed), zap.String("provider", s.Generator.Name()))
	s.archive(ctx, req, res, elapsed, log)
	return res, nil
}

// History pages through archived analyses, newest first.
func (s *Service) History(ctx context.Context, page, pageSize int) ([]*archive.Record, error) {
	if s.Archive == nil {
		return []*archive.Record{}, nil
	}
	return s.Archive.Paginate(ctx, page, pageSize)
}

// Latest returns the newest archived analysis of a repository, or nil.
func (s *Service) Latest(ctx context.Context, repositoryURL string) (*archive.Record, error) {
	if s.Archive == nil {
		return nil, nil
	}
	return s.Archive.LatestByRepository(ctx, repositoryURL)
}

// RecentFailures lists recorded failures for a repository.
func (s *Service) RecentFailures(ctx context.Context, repositoryURL string, limit int) ([]*archive.Failure, error) {
	if s.Failures == nil {
		return []*archive.Failure{}, nil
	}
	return s.Failures.ListByRepository(ctx, repositoryURL, limit)
}

// normalize turns a bare error from a generator into a GenerationError so
// callers only ever see domain errors. Context errors keep their identity for
// the presenter and carry no message of their own.
func normalize(ctx context.Context, err error) error {
	var (
		ce *domain.ConfigurationError
		ge *domain.GenerationError
	)
	if errors.As(err, &ce) || errors.As(err, &ge) {
		return err
	}
	if !errors.Is(err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = errors.Join(context.DeadlineExceeded, err)
	}
	return &domain.GenerationError{Err: err}
}

func failureKind(err error) string {
	var (
		ce *domain.ConfigurationError
		pe *domain.ParseError
	)
	switch {
	case errors.As(err, &ce):
		return archive.KindConfiguration
	case errors.As(err, &pe):
		return archive.KindParse
	}
	return archive.KindGeneration
}

func (s *Service) keepRaw(ctx context.Context, req domain.Request, raw string, log *zap.Logger) string {
	if s.Diagnostics == nil || raw == "" {
		return ""
	}
	ctx, cancel := detached(ctx)
	defer cancel()
	url, err := s.Diagnostics.PutRaw(ctx, req.ID, []byte(raw))
	if err != nil {
		log.Warn("keep raw payload", zap.Error(err))
		return ""
	}
	return url
}

func (s *Service) recordFailure(ctx context.Context, req domain.Request, err error, rawURL string) {
	if s.Failures == nil {
		return
	}
	ctx, cancel := detached(ctx)
	defer cancel()
	f := &archive.Failure{
		RequestID:     req.ID,
		RepositoryURL: req.RepositoryURL,
		Kind:          failureKind(err),
		Message:       err.Error(),
		RawURL:        rawURL,
		CreatedAt:     s.now(),
	}
	if serr := s.Failures.Save(ctx, f); serr != nil {
		s.logger().Warn("save failure record", zap.String("request_id", req.ID), zap.Error(serr))
	}
}

func (s *Service) archive(ctx context.Context, req domain.Request, res *domain.Result, elapsed time.Duration, log *zap.Logger) {
	if s.Archive == nil {
		return
	}
	body, err := json.Marshal(res)
	if err != nil {
		log.Warn("encode result for archive", zap.Error(err))
		return
	}
	ctx, cancel := detached(ctx)
	defer cancel()
	rec := &archive.Record{
		ID:            archive.RecordID(req.ID),
		RepositoryURL: req.RepositoryURL,
		StorageModel:  string(req.StorageModel),
		Provider:      s.Generator.Name(),
		Result:        string(body),
		DurationMS:    elapsed.Milliseconds(),
		CreatedAt:     s.now(),
	}
	if err := s.Archive.Save(ctx, rec); err != nil {
		log.Warn("archive analysis", zap.Error(err))
	}
}

func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
