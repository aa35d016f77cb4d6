package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bryanwahyu/repo-analyzer/internal/application"
	appanalysis "github.com/bryanwahyu/repo-analyzer/internal/application/analysis"
	"github.com/bryanwahyu/repo-analyzer/internal/config"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/repo-analyzer/internal/infra/ai/gemini"
	"github.com/bryanwahyu/repo-analyzer/internal/infra/ai/openai"
	"github.com/bryanwahyu/repo-analyzer/internal/infra/ai/prompt"
	"github.com/bryanwahyu/repo-analyzer/internal/infra/ai/response"
	mysqlp "github.com/bryanwahyu/repo-analyzer/internal/infra/db/mysql"
	"github.com/bryanwahyu/repo-analyzer/internal/infra/db/postgres"
	"github.com/bryanwahyu/repo-analyzer/internal/infra/diagram"
	minioStore "github.com/bryanwahyu/repo-analyzer/internal/infra/storage"
	"github.com/bryanwahyu/repo-analyzer/internal/middleware"
	"github.com/bryanwahyu/repo-analyzer/internal/presentation"
)

// app holds the wired components shared by the serve and analyze commands.
type app struct {
	generator analysis.Generator
	service   *appanalysis.Service
	presenter *presentation.Presenter
	messages  presentation.Messages
	health    map[string]middleware.HealthChecker
	db        *sql.DB
}

func buildApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	dec, err := response.New(prompt.OutputSchema(), cfg.Generation.MaxResponseBytes)
	if err != nil {
		return nil, err
	}

	a := &app{
		generator: newGenerator(cfg, log),
		messages:  presentation.Locale(cfg.UI.Locale),
		health:    map[string]middleware.HealthChecker{},
	}
	a.service = &appanalysis.Service{
		Prompts:   prompt.NewBuilder(cfg.Generation.Language),
		Generator: a.generator,
		Decoder:   dec,
		Clock:     application.SystemClock{},
		Log:       log,
		Timeout:   cfg.Generation.Timeout,
	}

	// archive database, optional
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("mysql connect error: %w", err)
		}
		if err := mysqlp.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		a.service.Archive = mysqlp.NewArchiveRepository(db)
		a.service.Failures = mysqlp.NewFailureRepository(db)
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("postgres connect error: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		a.service.Archive = postgres.NewArchiveRepository(db)
		a.service.Failures = postgres.NewFailureRepository(db)
	}
	if a.db != nil {
		a.health["database"] = &middleware.DatabaseHealthChecker{DB: a.db}
	}

	// init minio, optional
	if cfg.MinioEnabled() {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("minio init error: %w", err)
		}
		a.service.Diagnostics = store
		a.health["diagnostics"] = store
	}

	a.health["generation"] = middleware.CheckFunc(func(context.Context) error {
		if cfg.APIKey() == "" {
			return errors.New(cfg.Generation.APIKeyEnv + " is not set")
		}
		return nil
	})

	renderer := diagram.NewKroki(cfg.Diagram.Endpoint, cfg.Diagram.Timeout, cfg.Diagram.MaxBytes)
	a.presenter = presentation.NewPresenter(renderer, a.messages, cfg.Diagram.Timeout, log)
	a.presenter.OnRenderError = middleware.IncrementRenderFailures

	log.Info("components ready",
		zap.String("provider", a.generator.Name()),
		zap.String("database", cfg.Database.Driver),
		zap.Bool("diagnostics", cfg.MinioEnabled()),
		zap.Bool("search", cfg.SearchEnabled()),
	)
	return a, nil
}

func newGenerator(cfg *config.Config, log *zap.Logger) analysis.Generator {
	if cfg.Generation.Provider == "openai" {
		return openai.NewClient(openai.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Generation.Model,
			BaseURL: cfg.Generation.BaseURL,
			Search:  cfg.SearchEnabled(),
		}, log)
	}
	return gemini.NewClient(gemini.Config{
		APIKey:  cfg.APIKey,
		Model:   cfg.Generation.Model,
		BaseURL: cfg.Generation.BaseURL,
		Search:  cfg.SearchEnabled(),
		Timeout: cfg.Generation.Timeout,
	}, log)
}

func (a *app) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if cfg.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
