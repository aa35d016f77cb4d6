package presentation

import (
	"embed"
	"html/template"
	"io"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("page.html").ParseFS(templateFS, "templates/page.html"))

// Page is the data of one full page render.
type Page struct {
	Msg        Messages
	Repository string
	Storage    analysis.StorageModel
	Pending    bool
	InputError string
	Error      string
	View       *View
	ActiveTab  string
}

func (p Page) Relational() bool { return p.Storage != analysis.StorageDocument }

func (p Page) IsActive(tab string) bool {
	if p.ActiveTab == "" {
		return tab == TabOverview
	}
	return p.ActiveTab == tab
}

func RenderPage(w io.Writer, p Page) error {
	if !ValidTab(p.ActiveTab) {
		p.ActiveTab = TabOverview
	}
	return pageTemplate.Execute(w, p)
}
