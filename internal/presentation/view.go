package presentation

import "html/template"

// Tab identifiers in display order.
const (
	TabOverview  = "overview"
	TabPersonas  = "personas"
	TabSales     = "sales"
	TabCritique  = "critique"
	TabTechnical = "technical"
)

var tabOrder = []string{TabOverview, TabPersonas, TabSales, TabCritique, TabTechnical}

// ValidTab reports whether id names one of the five tabs.
func ValidTab(id string) bool {
	for _, t := range tabOrder {
		if t == id {
			return true
		}
	}
	return false
}

type Tab struct {
	ID    string
	Label string
}

type Badge struct {
	Label string
	Class string
}

type FeatureItem struct {
	Name        string
	Description string
	Priority    Badge
}

type PersonaCard struct {
	Role        string
	AgeRange    string
	Description string
	PainPoints  []string
	Goals       []string
}

type CritiqueItem struct {
	Title       string
	Description string
	Severity    Badge
	Category    Badge
}

type OverviewSection struct {
	Summary   string
	TechStack []string
	Features  []FeatureItem
}

type SalesSection struct {
	Strategy          template.HTML
	Pitch             string
	Channels          []string
	MonetizationModel string
	TargetAudience    string
}

type CritiqueSection struct {
	Critiques    []CritiqueItem
	Improvements []FeatureItem
}

// DiagramPanel is either a rendered image or the fallback with the raw source.
type DiagramPanel struct {
	RenderID string
	Image    template.URL
	Failed   bool
	Message  string
	Source   string
}

type CodeBlock struct {
	ID       string
	Label    string
	Language string
	Code     string
}

type TechnicalSection struct {
	Explanation template.HTML
	Diagram     DiagramPanel
	Code        CodeBlock
}

// View is everything the page needs to draw the five tabs of one result.
type View struct {
	Tabs      []Tab
	Overview  OverviewSection
	Personas  []PersonaCard
	Sales     SalesSection
	Critique  CritiqueSection
	Technical TechnicalSection
}
