package httpserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"github.com/bryanwahyu/repo-analyzer/internal/application"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/archive"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/session"
	"github.com/bryanwahyu/repo-analyzer/internal/middleware"
	"github.com/bryanwahyu/repo-analyzer/internal/presentation"
)

// Analyzer is the use case behind both the page and the JSON API.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
	History(ctx context.Context, page, pageSize int) ([]*archive.Record, error)
	Latest(ctx context.Context, repositoryURL string) (*archive.Record, error)
	RecentFailures(ctx context.Context, repositoryURL string, limit int) ([]*archive.Failure, error)
}

type Options struct {
	Analyzer     Analyzer
	Presenter    *presentation.Presenter
	Messages     presentation.Messages
	Schema       *jsonschema.Schema
	Log          *zap.Logger
	Clock        application.Clock
	AllowedHosts []string
	SessionTTL   time.Duration
	MaxSessions  int
	APIKeys      map[string]string
	CORSOrigins  []string
	RateLimiter  *middleware.RateLimiter
	Health       map[string]middleware.HealthChecker
}

type Router struct {
	analyzer     Analyzer
	presenter    *presentation.Presenter
	msgs         presentation.Messages
	schema       *jsonschema.Schema
	log          *zap.Logger
	clock        application.Clock
	allowedHosts []string
	sessions     *sessionStore
}

func NewRouter(opts Options) http.Handler {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = application.SystemClock{}
	}
	if opts.Health == nil {
		opts.Health = map[string]middleware.HealthChecker{}
	}
	r := &Router{
		analyzer:     opts.Analyzer,
		presenter:    opts.Presenter,
		msgs:         opts.Messages,
		schema:       opts.Schema,
		log:          opts.Log,
		clock:        opts.Clock,
		allowedHosts: opts.AllowedHosts,
		sessions:     newSessionStore(opts.MaxSessions, opts.SessionTTL),
	}

	limit := func(next http.Handler) http.Handler { return next }
	if opts.RateLimiter != nil {
		limit = middleware.RateLimit(opts.RateLimiter)
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RealIP)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Logging(opts.Log))
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/health", middleware.HealthHandler(opts.Health))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Get("/", r.wrap(r.handlePage))
	mux.With(limit).Post("/analyze", r.wrap(r.handleSubmit))

	mux.Route("/api/v1", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
		api.Use(middleware.APIKeyAuth(opts.APIKeys))
		api.Get("/schema", r.wrap(r.handleSchema))
		api.Get("/analyses", r.wrap(r.handleHistory))
		api.Get("/failures", r.wrap(r.handleFailures))
		api.With(limit).Post("/analyze", r.wrap(r.handleAPIAnalyze))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, analysis.ErrQuotaExceeded) {
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
				return
			}
			r.log.Error("handler failed", zap.String("path", req.URL.Path), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// run calls the analyzer and keeps the counters.
func (r *Router) run(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	middleware.AnalysisStarted()
	res, err := r.analyzer.Analyze(ctx, req)
	middleware.AnalysisFinished(err != nil)
	var pe *analysis.ParseError
	if errors.As(err, &pe) {
		middleware.IncrementParseFailures()
	}
	return res, err
}

// GET /?tab=
func (r *Router) handlePage(w http.ResponseWriter, req *http.Request) error {
	sess := r.sessions.get(w, req)
	page := r.pageFor(req.Context(), sess, req.URL.Query().Get("tab"))
	return r.render(w, http.StatusOK, page)
}

// POST /analyze
// Form: repository=<url>&storage=RELATIONAL|DOCUMENT
func (r *Router) handleSubmit(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, 64<<10)
	if err := req.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return nil
	}
	sess := r.sessions.get(w, req)

	rawURL := req.PostFormValue("repository")
	areq, err := r.newRequest(rawURL, req.PostFormValue("storage"))
	if err != nil {
		page := r.pageFor(req.Context(), sess, "")
		page.Repository = rawURL
		page.InputError = r.msgs.ErrorText(err)
		return r.render(w, http.StatusUnprocessableEntity, page)
	}

	ticket, err := sess.machine.Submit(areq)
	if err != nil {
		page := r.pageFor(req.Context(), sess, "")
		page.Error = r.msgs.ErrorText(err)
		return r.render(w, http.StatusConflict, page)
	}

	// The session outlives the request, so a dropped connection still settles it.
	res, aerr := r.run(context.WithoutCancel(req.Context()), areq)
	if err := sess.machine.Arrive(ticket, res, aerr); err != nil {
		r.log.Warn("discarding analysis outcome", zap.String("request_id", areq.ID), zap.Error(err))
		sess.machine.Cancel(ticket)
	}

	http.Redirect(w, req, "/", http.StatusSeeOther)
	return nil
}

func (r *Router) newRequest(rawURL, rawModel string) (analysis.Request, error) {
	url, err := middleware.ValidateRepositoryURL(rawURL, r.allowedHosts)
	if err != nil {
		return analysis.Request{}, err
	}
	model, err := analysis.ParseStorageModel(rawModel)
	if err != nil {
		return analysis.Request{}, err
	}
	return analysis.NewRequest(url, model, r.clock.Now()), nil
}

func (r *Router) pageFor(ctx context.Context, sess *browserSession, tab string) presentation.Page {
	snap := sess.machine.Snapshot()
	page := presentation.Page{
		Msg:       r.msgs,
		Storage:   analysis.StorageRelational,
		ActiveTab: tab,
	}
	if snap.Request != nil {
		page.Repository = snap.Request.RepositoryURL
		page.Storage = snap.Request.StorageModel
	}
	switch snap.Phase {
	case session.PhasePending:
		page.Pending = true
	case session.PhaseSettled:
		if snap.Err != nil {
			page.Error = r.msgs.ErrorText(snap.Err)
		} else {
			page.View = sess.viewFor(ctx, snap, r.presenter)
		}
	}
	return page
}

func (r *Router) render(w http.ResponseWriter, status int, page presentation.Page) error {
	var buf bytes.Buffer
	if err := presentation.RenderPage(&buf, page); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

type analyzeBody struct {
	RepositoryURL string `json:"repositoryUrl"`
	StorageModel  string `json:"storageModel"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// POST /api/v1/analyze
// Body: {"repositoryUrl": "...", "storageModel": "RELATIONAL"}
func (r *Router) handleAPIAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body analyzeBody
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, 64<<10)).Decode(&body); err != nil {
		return writeJSON(w, http.StatusBadRequest, apiError{Code: "invalid_input", Message: "body must be a JSON object"})
	}
	areq, err := r.newRequest(body.RepositoryURL, body.StorageModel)
	if err != nil {
		return writeJSON(w, http.StatusBadRequest, apiError{Code: "invalid_input", Message: err.Error()})
	}
	res, err := r.run(req.Context(), areq)
	if err != nil {
		status, code := apiStatus(err)
		return writeJSON(w, status, apiError{Code: code, Message: r.msgs.ErrorText(err)})
	}
	return writeJSON(w, http.StatusOK, res)
}

func apiStatus(err error) (int, string) {
	var (
		ive *analysis.InputValidationError
		ce  *analysis.ConfigurationError
		pe  *analysis.ParseError
		ge  *analysis.GenerationError
	)
	switch {
	case errors.As(err, &ive):
		return http.StatusBadRequest, "invalid_input"
	case errors.As(err, &ce):
		return http.StatusServiceUnavailable, "configuration"
	case errors.Is(err, analysis.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "quota_exceeded"
	case errors.As(err, &pe):
		return http.StatusBadGateway, "parse_error"
	case errors.As(err, &ge):
		return http.StatusBadGateway, "generation_failed"
	}
	return http.StatusInternalServerError, "internal"
}

// GET /api/v1/schema
func (r *Router) handleSchema(w http.ResponseWriter, req *http.Request) error {
	if r.schema == nil {
		return sql.ErrNoRows
	}
	return writeJSON(w, http.StatusOK, r.schema)
}

// GET /api/v1/analyses?page=1&pageSize=20
// GET /api/v1/analyses?repository=<url> returns only the newest analysis of it.
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	if req.URL.Query().Has("repository") {
		return r.handleLatest(w, req)
	}
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("pageSize"))
	page = middleware.ValidatePage(page)
	size = middleware.ValidateLimit(size)

	records, err := r.analyzer.History(req.Context(), page, size)
	if err != nil {
		return err
	}
	if records == nil {
		records = []*archive.Record{}
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"data":     records,
		"page":     page,
		"pageSize": size,
	})
}

func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	url, err := middleware.ValidateRepositoryURL(req.URL.Query().Get("repository"), r.allowedHosts)
	if err != nil {
		return writeJSON(w, http.StatusBadRequest, apiError{Code: "invalid_input", Message: err.Error()})
	}
	rec, err := r.analyzer.Latest(req.Context(), url)
	if err != nil {
		return err
	}
	if rec == nil {
		return sql.ErrNoRows
	}
	return writeJSON(w, http.StatusOK, map[string]any{"data": []*archive.Record{rec}})
}

// GET /api/v1/failures?repository=<url>&limit=20
func (r *Router) handleFailures(w http.ResponseWriter, req *http.Request) error {
	url, err := middleware.ValidateRepositoryURL(req.URL.Query().Get("repository"), r.allowedHosts)
	if err != nil {
		return writeJSON(w, http.StatusBadRequest, apiError{Code: "invalid_input", Message: err.Error()})
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	failures, err := r.analyzer.RecentFailures(req.Context(), url, limit)
	if err != nil {
		return err
	}
	if failures == nil {
		failures = []*archive.Failure{}
	}
	return writeJSON(w, http.StatusOK, map[string]any{"data": failures, "limit": limit})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
