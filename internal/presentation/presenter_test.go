package presentation

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis/analysistest"
	"github.com/bryanwahyu/repo-analyzer/internal/infra/diagram"
)

type renderFunc func(ctx context.Context, id, source string) (string, error)

func (f renderFunc) Render(ctx context.Context, id, source string) (string, error) {
	return f(ctx, id, source)
}

var okSVG = renderFunc(func(_ context.Context, _, _ string) (string, error) {
	return `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><rect x="1" y="1" width="5" height="5"/></svg>`, nil
})

// precheckOnly fails the way the real renderer does for non-diagram text.
var precheckOnly = renderFunc(func(_ context.Context, _, source string) (string, error) {
	if err := diagram.Precheck(source); err != nil {
		return "", err
	}
	return `<svg><g/></svg>`, nil
})

func render(t *testing.T, p Page) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RenderPage(&buf, p))
	return buf.String()
}

func TestBuildAllSections(t *testing.T) {
	p := NewPresenter(okSVG, Locale("en"), 0, nil)
	res := analysistest.Result()
	v := p.Build(context.Background(), res, analysis.StorageRelational)

	require.Len(t, v.Tabs, 5)
	assert.Equal(t, TabOverview, v.Tabs[0].ID)
	assert.Equal(t, TabTechnical, v.Tabs[4].ID)
	assert.Equal(t, res.Summary, v.Overview.Summary)
	assert.Len(t, v.Overview.Features, 2)
	assert.Equal(t, "badge-high", v.Overview.Features[0].Priority.Class)
	assert.Len(t, v.Personas, 2)
	assert.Equal(t, "Etsy without the noise.", v.Sales.Pitch)
	assert.Contains(t, string(v.Sales.Strategy), "<li>")
	assert.Equal(t, "Critical", v.Critique.Critiques[0].Severity.Label)
	assert.Equal(t, "sql", v.Technical.Code.Language)
	assert.Equal(t, res.SchemaArtifact, v.Technical.Code.Code)
	assert.Contains(t, string(v.Technical.Explanation), "<strong>history</strong>")
	assert.False(t, v.Technical.Diagram.Failed)
	assert.True(t, strings.HasPrefix(string(v.Technical.Diagram.Image), "data:image/svg+xml;base64,"))
	assert.True(t, strings.HasPrefix(v.Technical.Diagram.RenderID, "mermaid-"))

	html := render(t, Page{Msg: Locale("en"), View: &v, ActiveTab: TabTechnical})
	for _, want := range []string{
		"A storefront for handmade goods.", "Artisan seller", "Etsy without the noise.",
		"No auth", "Add login", "CREATE TABLE users", "language-sql",
	} {
		assert.Contains(t, html, want)
	}
}

func TestBuildDocumentModelUsesJSONBlock(t *testing.T) {
	p := NewPresenter(okSVG, Locale("pt-BR"), 0, nil)
	v := p.Build(context.Background(), analysistest.Result(), analysis.StorageDocument)
	assert.Equal(t, "json", v.Technical.Code.Language)
	assert.Equal(t, "Estrutura & regras", v.Technical.Code.Label)
	assert.Equal(t, "Alta", v.Overview.Features[0].Priority.Label)
}

func TestBuildEmptyResult(t *testing.T) {
	p := NewPresenter(okSVG, Locale("en"), 0, nil)
	v := p.Build(context.Background(), analysistest.Empty(), analysis.StorageRelational)

	assert.Empty(t, v.Overview.Features)
	assert.Empty(t, v.Personas)
	assert.Empty(t, v.Critique.Critiques)

	for _, tab := range tabOrder {
		html := render(t, Page{Msg: Locale("en"), View: &v, ActiveTab: tab})
		assert.Contains(t, html, `id="tab-`+tab+`"`)
		assert.Contains(t, html, "Nothing listed.")
	}
}

func TestDiagramFailureIsContained(t *testing.T) {
	p := NewPresenter(precheckOnly, Locale("en"), 0, nil)
	failures := 0
	p.OnRenderError = func() { failures++ }
	res := analysistest.Result()
	res.DiagramSource = "not a diagram"

	v := p.Build(context.Background(), res, analysis.StorageRelational)
	assert.True(t, v.Technical.Diagram.Failed)
	assert.Equal(t, "not a diagram", v.Technical.Diagram.Source)
	assert.Empty(t, v.Technical.Diagram.Image)
	assert.Equal(t, 1, failures)

	html := render(t, Page{Msg: Locale("en"), View: &v, ActiveTab: TabTechnical})
	assert.Contains(t, html, "not a diagram")
	assert.Contains(t, html, "CREATE TABLE users")
	assert.Contains(t, html, "<strong>history</strong>")
	assert.Contains(t, html, Locale("en").RenderFailed)
}

func TestDiagramRendererPanicIsContained(t *testing.T) {
	p := NewPresenter(renderFunc(func(context.Context, string, string) (string, error) {
		panic("boom")
	}), Locale("en"), 0, nil)

	v := p.Build(context.Background(), analysistest.Result(), analysis.StorageRelational)
	assert.True(t, v.Technical.Diagram.Failed)
}

func TestRenderIDsAreUnique(t *testing.T) {
	p := NewPresenter(okSVG, Locale("en"), 0, nil)
	a := p.Build(context.Background(), analysistest.Result(), analysis.StorageRelational)
	b := p.Build(context.Background(), analysistest.Result(), analysis.StorageRelational)
	assert.NotEqual(t, a.Technical.Diagram.RenderID, b.Technical.Diagram.RenderID)
}

func TestModelTextIsEscaped(t *testing.T) {
	p := NewPresenter(okSVG, Locale("en"), 0, nil)
	res := analysistest.Result()
	res.Summary = `<script>alert(1)</script>`
	res.Strategy = "hello <img src=x onerror=alert(1)> [x](javascript:alert(1))"
	res.SchemaArtifact = "</code><script>alert(2)</script>"

	v := p.Build(context.Background(), res, analysis.StorageRelational)
	html := render(t, Page{Msg: Locale("en"), View: &v})
	assert.NotContains(t, html, "<script>alert")
	assert.NotContains(t, html, "onerror")
	assert.NotContains(t, html, "javascript:alert")
	assert.Contains(t, html, "&lt;script&gt;alert(1)&lt;/script&gt;")
}

func TestSanitizeSVG(t *testing.T) {
	in := `<svg viewBox="0 0 10 10" onload="alert(1)"><script>alert(1)</script>` +
		`<style>.a{fill:red}</style><g><path d="M0 0L10 10" marker-end="url(#arrow)" onclick="x()"/>` +
		`<a href="javascript:alert(1)"><text x="1" y="2">hi</text></a>` +
		`<foreignObject width="10" height="10"><div>label</div></foreignObject></g></svg>`
	out := sanitizeSVG(in)

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "onload")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "javascript")
	assert.NotContains(t, out, "href")
	assert.Contains(t, out, `viewBox="0 0 10 10"`)
	assert.Contains(t, out, `xmlns="http://www.w3.org/2000/svg"`)
	assert.Contains(t, out, ".a{fill:red}")
	assert.Contains(t, out, `marker-end="url(#arrow)"`)
	assert.Contains(t, out, "<foreignObject")
	assert.Contains(t, out, ">hi<")
}

func TestDiagramImageIsSanitized(t *testing.T) {
	evil := renderFunc(func(context.Context, string, string) (string, error) {
		return `<svg><script>alert(1)</script><rect width="1" height="1"/></svg>`, nil
	})
	v := NewPresenter(evil, Locale("en"), 0, nil).Build(context.Background(), analysistest.Result(), analysis.StorageRelational)

	b64 := strings.TrimPrefix(string(v.Technical.Diagram.Image), "data:image/svg+xml;base64,")
	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "script")
	assert.Contains(t, string(raw), "<rect")
}

func TestErrorText(t *testing.T) {
	m := Locale("pt-BR")
	assert.Equal(t, "Por favor, insira uma URL válida do GitHub.", m.ErrorText(&analysis.InputValidationError{Field: "repositoryUrl"}))
	assert.Equal(t, "quota exhausted", m.ErrorText(&analysis.GenerationError{Message: "quota exhausted"}))
	assert.Equal(t, m.GenerationFallback, m.ErrorText(&analysis.GenerationError{Err: errors.New("dial tcp")}))
	assert.Equal(t, m.ParseFailed, m.ErrorText(&analysis.ParseError{Reason: "x", Raw: "secret raw"}))
	assert.Equal(t, m.GenericError, m.ErrorText(&analysis.ConfigurationError{Reason: "key"}))
	assert.Equal(t, m.GenericError, m.ErrorText(errors.New("other")))
	assert.Empty(t, m.ErrorText(nil))
}

func TestErrorTextLocalizesContextErrors(t *testing.T) {
	pt := Locale("pt-BR")
	timeout := &analysis.GenerationError{Err: errors.Join(context.DeadlineExceeded, errors.New("dial tcp"))}
	assert.Equal(t, "A análise demorou demais. Tente novamente.", pt.ErrorText(timeout))
	assert.Equal(t, "A análise foi cancelada.", pt.ErrorText(&analysis.GenerationError{Err: context.Canceled}))

	en := Locale("en")
	assert.Equal(t, en.Timeout, en.ErrorText(timeout))
	assert.NotContains(t, pt.ErrorText(timeout), "deadline")
}

func TestPageStates(t *testing.T) {
	m := Locale("en")
	pending := render(t, Page{Msg: m, Pending: true, Repository: "https://github.com/a/b"})
	assert.Contains(t, pending, `disabled`)
	assert.Contains(t, pending, m.Analyzing)
	assert.Contains(t, pending, `http-equiv="refresh"`)

	inline := render(t, Page{Msg: m, InputError: m.InvalidURL})
	assert.Contains(t, inline, m.InvalidURL)
	assert.NotContains(t, inline, `id="submit" disabled`)

	failed := render(t, Page{Msg: m, Error: "boom", Storage: analysis.StorageDocument})
	assert.Contains(t, failed, "boom")
	assert.Contains(t, failed, `value="DOCUMENT" checked`)
}
