package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/repo-analyzer/internal/infra/ai/prompt"
)

type captured struct {
	Path string
	Body map[string]any
}

func fakeGemini(t *testing.T, status int, body string, calls *int32, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if got != nil {
			got.Path = r.URL.Path
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, &got.Body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func candidate(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
		}},
	})
	return string(b)
}

func testPrompt() analysis.Prompt {
	return analysis.Prompt{Text: "analyze https://github.com/acme/shop", Schema: prompt.OutputSchema()}
}

func key(k string) func() string { return func() string { return k } }

func TestGenerateMissingKeyDoesNotCallService(t *testing.T) {
	var calls int32
	srv := fakeGemini(t, http.StatusOK, candidate("{}"), &calls, nil)
	c := NewClient(Config{APIKey: key("  "), BaseURL: srv.URL}, nil)

	_, err := c.Generate(context.Background(), testPrompt())
	var ce *analysis.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestGenerateReturnsTextAndSendsSchema(t *testing.T) {
	var calls int32
	var got captured
	srv := fakeGemini(t, http.StatusOK, candidate(`{"summary":"x"}`), &calls, &got)
	c := NewClient(Config{APIKey: key("k"), BaseURL: srv.URL, Search: true}, nil)

	text, err := c.Generate(context.Background(), testPrompt())
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"x"}`, text)
	assert.EqualValues(t, 1, calls)

	assert.True(t, strings.HasSuffix(got.Path, "models/"+DefaultModel+":generateContent"), got.Path)
	gen, ok := got.Body["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig present")
	assert.Equal(t, "application/json", gen["responseMimeType"])
	assert.NotNil(t, gen["responseSchema"])
	tools, ok := got.Body["tools"].([]any)
	require.True(t, ok)
	assert.Len(t, tools, 1)
}

func TestGenerateWithoutSearchSendsNoTools(t *testing.T) {
	var calls int32
	var got captured
	srv := fakeGemini(t, http.StatusOK, candidate(`{}`), &calls, &got)
	c := NewClient(Config{APIKey: key("k"), BaseURL: srv.URL}, nil)

	_, err := c.Generate(context.Background(), testPrompt())
	require.NoError(t, err)
	assert.Nil(t, got.Body["tools"])
}

func TestGenerateServiceErrorCarriesMessage(t *testing.T) {
	var calls int32
	srv := fakeGemini(t, http.StatusInternalServerError,
		`{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`, &calls, nil)
	c := NewClient(Config{APIKey: key("k"), BaseURL: srv.URL}, nil)

	_, err := c.Generate(context.Background(), testPrompt())
	var ge *analysis.GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "boom", ge.Message)
	assert.False(t, errors.Is(err, analysis.ErrQuotaExceeded))
	assert.EqualValues(t, 1, calls, "no retry")
}

func TestGenerateQuotaError(t *testing.T) {
	var calls int32
	srv := fakeGemini(t, http.StatusTooManyRequests,
		`{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`, &calls, nil)
	c := NewClient(Config{APIKey: key("k"), BaseURL: srv.URL}, nil)

	_, err := c.Generate(context.Background(), testPrompt())
	assert.ErrorIs(t, err, analysis.ErrQuotaExceeded)
}

func TestGenerateEmptyAnswer(t *testing.T) {
	var calls int32
	srv := fakeGemini(t, http.StatusOK, `{"candidates":[]}`, &calls, nil)
	c := NewClient(Config{APIKey: key("k"), BaseURL: srv.URL}, nil)

	_, err := c.Generate(context.Background(), testPrompt())
	var ge *analysis.GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Empty(t, ge.Message)
}

func TestToGenAISchemaKeepsFieldOrder(t *testing.T) {
	s, err := toGenAISchema(prompt.OutputSchema())
	require.NoError(t, err)
	assert.Equal(t, prompt.FieldOrder, s.PropertyOrdering)
	crit := s.Properties["critiques"].Items
	assert.Equal(t, []string{"Critical", "Moderate", "Minor"}, crit.Properties["severity"].Enum)
}
