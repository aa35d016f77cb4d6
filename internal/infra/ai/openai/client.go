package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
)

const (
	DefaultModel = "o3-2025-04-16"
	maxTokens    = 16384
	schemaName   = "repository_analysis"
)

// Config for the OpenAI adapter. APIKey is read on every call.
type Config struct {
	APIKey     func() string
	Model      string
	BaseURL    string
	Search     bool
	HTTPClient *http.Client
}

// Client talks to the chat completions API with a strict JSON schema
// response format. Chat completions have no web search tool.
type Client struct {
	cfg        Config
	log        *zap.Logger
	searchOnce sync.Once
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

func (c *Client) Name() string { return "openai:" + c.cfg.Model }

func (c *Client) Generate(ctx context.Context, p analysis.Prompt) (string, error) {
	key := strings.TrimSpace(c.cfg.APIKey())
	if key == "" {
		return "", &analysis.ConfigurationError{Reason: "the generation API key is missing"}
	}
	if c.cfg.Search {
		c.searchOnce.Do(func() {
			c.log.Warn("web search grounding is not available for chat completions; continuing without it",
				zap.String("model", c.cfg.Model))
		})
	}

	oc := openai.DefaultConfig(key)
	if c.cfg.BaseURL != "" {
		oc.BaseURL = c.cfg.BaseURL
	}
	if c.cfg.HTTPClient != nil {
		oc.HTTPClient = c.cfg.HTTPClient
	}
	cli := openai.NewClientWithConfig(oc)

	req := openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: p.Text},
		},
	}
	if p.Schema != nil {
		def, err := toDefinition(p.Schema)
		if err != nil {
			return "", &analysis.ConfigurationError{Reason: "output schema: " + err.Error()}
		}
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: &def,
				Strict: true,
			},
		}
	} else {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.cfg.Model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := cli.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &analysis.GenerationError{}
	}
	return resp.Choices[0].Message.Content, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		ge := &analysis.GenerationError{Message: apiErr.Message, Err: err}
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			ge.Err = errors.Join(analysis.ErrQuotaExceeded, err)
		}
		return ge
	}
	return &analysis.GenerationError{Err: fmt.Errorf("failed to create chat completion: %w", err)}
}
