package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/repo-analyzer/internal/infra/ai/prompt"
)

func fakeOpenAI(t *testing.T, status int, body string, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"choices": []any{map[string]any{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
	return string(b)
}

func newTestClient(url, apiKey string) *Client {
	return NewClient(Config{APIKey: func() string { return apiKey }, BaseURL: url + "/v1", Model: "gpt-4o"}, nil)
}

func TestGenerateStrictSchema(t *testing.T) {
	var got map[string]any
	srv := fakeOpenAI(t, http.StatusOK, completion(`{"summary":"x"}`), &got)

	text, err := newTestClient(srv.URL, "k").Generate(context.Background(),
		analysis.Prompt{Text: "hi", Schema: prompt.OutputSchema()})
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"x"}`, text)

	rf := got["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", rf["type"])
	js := rf["json_schema"].(map[string]any)
	assert.Equal(t, true, js["strict"])
	schema := js["schema"].(map[string]any)
	assert.Equal(t, false, schema["additionalProperties"])
}

func TestGenerateMissingKey(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:1", "").Generate(context.Background(), analysis.Prompt{Text: "hi"})
	var ce *analysis.ConfigurationError
	require.ErrorAs(t, err, &ce)
}

func TestGenerateRateLimited(t *testing.T) {
	srv := fakeOpenAI(t, http.StatusTooManyRequests,
		`{"error":{"message":"slow down","type":"requests","code":"rate_limit_exceeded"}}`, nil)

	_, err := newTestClient(srv.URL, "k").Generate(context.Background(), analysis.Prompt{Text: "hi"})
	var ge *analysis.GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "slow down", ge.Message)
	assert.ErrorIs(t, err, analysis.ErrQuotaExceeded)
}

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, isReasoningModel("o3-2025-04-16"))
	assert.True(t, isReasoningModel("gpt-5-mini"))
	assert.False(t, isReasoningModel("gpt-4o"))
}
