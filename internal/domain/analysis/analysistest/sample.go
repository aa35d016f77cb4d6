// Package analysistest provides fixed analysis fixtures for tests.
package analysistest

import (
	"encoding/json"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
)

// Result returns a fully populated result. Each call returns a fresh value.
func Result() *analysis.Result {
	return &analysis.Result{
		Summary:       "A storefront for handmade goods.",
		TechStack:     []string{"React", "TypeScript", "Vite"},
		DiagramSource: "erDiagram\n  USER ||--o{ ORDER : places\n  ORDER ||--|{ ITEM : contains",
		SchemaArtifact: "CREATE TABLE users (id uuid PRIMARY KEY, email text NOT NULL UNIQUE);\n" +
			"CREATE TABLE orders (id uuid PRIMARY KEY, user_id uuid REFERENCES users(id));",
		Explanation: "Orders reference users so that **history** is kept.",
		Strategy:    "Start with a niche of artisans.\n\n- launch a marketplace\n- add subscriptions",
		Features: []analysis.Feature{
			{Name: "Checkout", Description: "Card payments", Priority: analysis.PriorityHigh},
			{Name: "Wishlist", Description: "Save items for later", Priority: analysis.PriorityLow},
		},
		Personas: []analysis.Persona{
			{
				Role:        "Artisan seller",
				AgeRange:    "30-45",
				Description: "Sells pottery on weekends.",
				PainPoints:  []string{"High marketplace fees"},
				Goals:       []string{"Reach more buyers"},
			},
			{
				Role:        "Gift buyer",
				AgeRange:    "25-35",
				Description: "Looks for unique presents.",
				PainPoints:  []string{"Generic products"},
				Goals:       []string{"Find something personal"},
			},
		},
		Sales: analysis.SalesPlan{
			Pitch:             "Etsy without the noise.",
			Channels:          []string{"Instagram", "Craft fairs"},
			MonetizationModel: "Commission per sale",
			TargetAudience:    "Independent artisans",
		},
		Critiques: []analysis.Critique{
			{Title: "No auth", Description: "Admin pages are public.", Severity: analysis.SeverityCritical, Category: analysis.CategoryTechnical},
			{Title: "Slow onboarding", Description: "Too many steps.", Severity: analysis.SeverityMinor, Category: analysis.CategoryUX},
		},
		Improvements: []analysis.Feature{
			{Name: "Add login", Description: "Protect admin pages", Priority: analysis.PriorityHigh},
		},
	}
}

// Empty returns a result whose lists are all empty.
func Empty() *analysis.Result {
	return &analysis.Result{
		TechStack:    []string{},
		Features:     []analysis.Feature{},
		Personas:     []analysis.Persona{},
		Sales:        analysis.SalesPlan{Channels: []string{}},
		Critiques:    []analysis.Critique{},
		Improvements: []analysis.Feature{},
	}
}

// JSON marshals r, panicking on failure.
func JSON(r *analysis.Result) string {
	b, err := json.Marshal(r)
	if err != nil {
		panic(err)
	}
	return string(b)
}
