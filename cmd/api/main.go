package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/repo-analyzer/internal/config"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/repo-analyzer/internal/infra/ai/prompt"
	"github.com/bryanwahyu/repo-analyzer/internal/infra/httpserver"
	"github.com/bryanwahyu/repo-analyzer/internal/middleware"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "repo-analyzer",
		Short:        "Turn a repository URL into a product and data-model analysis",
		SilenceUsage: true,
	}
	// path config.yaml
	root.PersistentFlags().StringVar(&configPath, "config", envOr("CONFIG_PATH", "config.yaml"), "path to config.yaml")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI and JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.RunE = serve.RunE

	var repo, storage string
	analyze := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one repository and print the result as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd.Context(), configPath, repo, storage, cmd.OutOrStdout())
		},
	}
	analyze.Flags().StringVar(&repo, "repo", "", "repository URL")
	analyze.Flags().StringVar(&storage, "storage", string(analysis.StorageRelational), "RELATIONAL or DOCUMENT")
	_ = analyze.MarkFlagRequired("repo")

	schema := &cobra.Command{
		Use:   "schema",
		Short: "Print the response schema sent to the generation service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(prompt.OutputSchema())
		},
	}

	root.AddCommand(serve, analyze, schema)
	return root
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Capacity > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSecond)
		defer limiter.Close()
	}

	handler := httpserver.NewRouter(httpserver.Options{
		Analyzer:     a.service,
		Presenter:    a.presenter,
		Messages:     a.messages,
		Schema:       prompt.OutputSchema(),
		Log:          log,
		AllowedHosts: cfg.Analysis.AllowedHosts,
		SessionTTL:   cfg.UI.SessionTTL,
		MaxSessions:  cfg.UI.MaxSessions,
		APIKeys:      cfg.Auth.APIKeys,
		RateLimiter:  limiter,
		Health:       a.health,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// run server
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr), zap.String("provider", a.generator.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}
	return nil
}

func runAnalyze(ctx context.Context, configPath, repo, storage string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	url, err := middleware.ValidateRepositoryURL(repo, cfg.Analysis.AllowedHosts)
	if err != nil {
		return err
	}
	model, err := analysis.ParseStorageModel(storage)
	if err != nil {
		return err
	}

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.service.Analyze(ctx, analysis.NewRequest(url, model, time.Now()))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
