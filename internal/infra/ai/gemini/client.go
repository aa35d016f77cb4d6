package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
)

const DefaultModel = "gemini-3-pro-preview"

// Config for the Gemini adapter. APIKey is read on every call so a key
// rotated in the environment is picked up without restart.
type Config struct {
	APIKey     func() string
	Model      string
	BaseURL    string
	APIVersion string
	Search     bool
	HTTPClient *http.Client
	Timeout    time.Duration
}

type Client struct {
	cfg Config
	log *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.APIKey == nil {
		cfg.APIKey = func() string { return "" }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{cfg: cfg, log: log}
}

func (c *Client) Name() string { return "gemini:" + c.cfg.Model }

// Generate sends one request and returns the answer text as received.
func (c *Client) Generate(ctx context.Context, p analysis.Prompt) (string, error) {
	key := strings.TrimSpace(c.cfg.APIKey())
	if key == "" {
		return "", &analysis.ConfigurationError{Reason: "the generation API key is missing"}
	}

	cc := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    c.cfg.BaseURL,
			APIVersion: c.cfg.APIVersion,
		},
	}
	if c.cfg.Timeout > 0 {
		t := c.cfg.Timeout
		cc.HTTPOptions.Timeout = &t
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return "", &analysis.ConfigurationError{Reason: err.Error()}
	}

	gc := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if p.Schema != nil {
		rs, err := toGenAISchema(p.Schema)
		if err != nil {
			return "", &analysis.ConfigurationError{Reason: "output schema: " + err.Error()}
		}
		gc.ResponseSchema = rs
	}
	if c.cfg.Search {
		gc.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	start := time.Now()
	resp, err := cli.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(p.Text), gc)
	if err != nil {
		c.log.Warn("gemini generate failed", zap.String("model", c.cfg.Model), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return "", classify(err)
	}
	text := resp.Text()
	c.log.Debug("gemini generate done",
		zap.String("model", c.cfg.Model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(text)))
	if strings.TrimSpace(text) == "" {
		return "", &analysis.GenerationError{}
	}
	return text, nil
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		ge := &analysis.GenerationError{Message: apiErr.Message, Err: err}
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
			ge.Err = errors.Join(analysis.ErrQuotaExceeded, err)
		}
		return ge
	}
	return &analysis.GenerationError{Err: err}
}
