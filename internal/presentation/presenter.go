package presentation

import (
	"context"
	"encoding/base64"
	"errors"
	"html/template"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
)

const defaultDiagramTimeout = 15 * time.Second

var (
	errNoRenderer    = errors.New("no diagram renderer configured")
	errEmptySVG      = errors.New("renderer returned no drawable svg")
	errRendererPanic = errors.New("diagram renderer panicked")
)

// Presenter maps a validated result to a View. It never fails as a whole:
// a diagram failure is contained in the diagram panel.
type Presenter struct {
	Renderer       analysis.DiagramRenderer
	Messages       Messages
	DiagramTimeout time.Duration
	Log            *zap.Logger
	// OnRenderError is called once per failed diagram, e.g. to count it.
	OnRenderError func()
}

func NewPresenter(r analysis.DiagramRenderer, msgs Messages, timeout time.Duration, log *zap.Logger) *Presenter {
	if timeout <= 0 {
		timeout = defaultDiagramTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Presenter{Renderer: r, Messages: msgs, DiagramTimeout: timeout, Log: log}
}

func (p *Presenter) Build(ctx context.Context, res *analysis.Result, model analysis.StorageModel) View {
	m := p.Messages
	v := View{
		Tabs: []Tab{
			{ID: TabOverview, Label: m.TabOverview},
			{ID: TabPersonas, Label: m.TabPersonas},
			{ID: TabSales, Label: m.TabSales},
			{ID: TabCritique, Label: m.TabCritique},
			{ID: TabTechnical, Label: m.TabTechnical},
		},
		Overview: OverviewSection{
			Summary:   res.Summary,
			TechStack: res.TechStack,
			Features:  p.features(res.Features),
		},
		Sales: SalesSection{
			Strategy:          renderMarkdown(res.Strategy),
			Pitch:             res.Sales.Pitch,
			Channels:          res.Sales.Channels,
			MonetizationModel: res.Sales.MonetizationModel,
			TargetAudience:    res.Sales.TargetAudience,
		},
		Critique: CritiqueSection{
			Improvements: p.features(res.Improvements),
		},
		Technical: TechnicalSection{
			Explanation: renderMarkdown(res.Explanation),
			Code:        p.codeBlock(res.SchemaArtifact, model),
		},
	}
	for _, per := range res.Personas {
		v.Personas = append(v.Personas, PersonaCard{
			Role:        per.Role,
			AgeRange:    per.AgeRange,
			Description: per.Description,
			PainPoints:  per.PainPoints,
			Goals:       per.Goals,
		})
	}
	for _, c := range res.Critiques {
		v.Critique.Critiques = append(v.Critique.Critiques, CritiqueItem{
			Title:       c.Title,
			Description: c.Description,
			Severity:    Badge{Label: label(m.Severity, c.Severity), Class: severityClass(c.Severity)},
			Category:    Badge{Label: label(m.Category, c.Category), Class: "category"},
		})
	}
	v.Technical.Diagram = p.diagram(ctx, res.DiagramSource)
	return v
}

func (p *Presenter) features(in []analysis.Feature) []FeatureItem {
	out := make([]FeatureItem, 0, len(in))
	for _, f := range in {
		out = append(out, FeatureItem{
			Name:        f.Name,
			Description: f.Description,
			Priority:    Badge{Label: label(p.Messages.Priority, f.Priority), Class: priorityClass(f.Priority)},
		})
	}
	return out
}

func (p *Presenter) codeBlock(code string, model analysis.StorageModel) CodeBlock {
	cb := CodeBlock{ID: "code-" + uuid.NewString()[:8], Code: code}
	if model == analysis.StorageDocument {
		cb.Label, cb.Language = p.Messages.SchemaDoc, "json"
	} else {
		cb.Label, cb.Language = p.Messages.SchemaSQL, "sql"
	}
	return cb
}

// diagram renders source under its own id and deadline. Every failure,
// including a panic in the renderer, ends in the fallback panel.
func (p *Presenter) diagram(ctx context.Context, source string) (panel DiagramPanel) {
	panel = DiagramPanel{RenderID: "mermaid-" + uuid.NewString(), Source: source}
	fail := func(err error) {
		re := &analysis.RenderError{RenderID: panel.RenderID, Err: err}
		p.Log.Warn("diagram render failed", zap.String("render_id", panel.RenderID), zap.Error(re))
		if p.OnRenderError != nil {
			p.OnRenderError()
		}
		panel.Failed = true
		panel.Message = p.Messages.RenderFailed
		panel.Image = ""
	}
	defer func() {
		if r := recover(); r != nil {
			p.Log.Error("diagram renderer panicked", zap.Any("panic", r))
			fail(errRendererPanic)
		}
	}()

	if p.Renderer == nil {
		fail(errNoRenderer)
		return panel
	}
	rctx, cancel := context.WithTimeout(ctx, p.DiagramTimeout)
	defer cancel()
	svg, err := p.Renderer.Render(rctx, panel.RenderID, source)
	if err != nil {
		fail(err)
		return panel
	}
	clean := sanitizeSVG(svg)
	if clean == "" {
		fail(errEmptySVG)
		return panel
	}
	panel.Image = template.URL("data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(clean)))
	return panel
}

func label[K ~string](m map[K]string, k K) string {
	if s, ok := m[k]; ok {
		return s
	}
	return string(k)
}

func priorityClass(p analysis.Priority) string {
	switch p {
	case analysis.PriorityHigh:
		return "badge-high"
	case analysis.PriorityMedium:
		return "badge-medium"
	}
	return "badge-low"
}

func severityClass(s analysis.Severity) string {
	switch s {
	case analysis.SeverityCritical:
		return "badge-critical"
	case analysis.SeverityModerate:
		return "badge-moderate"
	}
	return "badge-minor"
}
