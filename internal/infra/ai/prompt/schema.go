package prompt

import (
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
)

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
)

// OutputSchema returns the JSON schema every answer must follow. It is built
// once and shared; callers must not mutate it.
func OutputSchema() *jsonschema.Schema {
	schemaOnce.Do(func() { schema = buildSchema() })
	return schema
}

func str(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func strList(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Description: desc, Items: &jsonschema.Schema{Type: "string"}}
}

func enum(values ...string) *jsonschema.Schema {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return &jsonschema.Schema{Type: "string", Enum: out}
}

func object(desc string, props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:                 "object",
		Description:          desc,
		Properties:           props,
		Required:             required,
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}
}

func list(desc string, item *jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Description: desc, Items: item}
}

func buildSchema() *jsonschema.Schema {
	// Resolve requires a tree, so shared shapes are rebuilt per use.
	feature := func() *jsonschema.Schema {
		return object("", map[string]*jsonschema.Schema{
			"name":        str(""),
			"description": str(""),
			"priority":    enum(string(analysis.PriorityHigh), string(analysis.PriorityMedium), string(analysis.PriorityLow)),
		}, "name", "description", "priority")
	}

	return object("Repository analysis", map[string]*jsonschema.Schema{
		"summary":        str("Concise summary of the repository's purpose."),
		"techStack":      strList("Detected technologies."),
		"mermaidDiagram": str("Mermaid diagram definition of the data model."),
		"schemaCode":     str("SQL DDL, or JSON structure plus security rules for a document store."),
		"explanation":    str("Detailed technical explanation of the design choices."),
		"strategy":       str("High level technical and product strategy."),
		"features":       list("Suggested features.", feature()),
		"personas": list("Two or three target personas.", object("", map[string]*jsonschema.Schema{
			"role":        str("Role, e.g. Marketing Manager."),
			"age":         str("Approximate age range."),
			"description": str("Short biography."),
			"painPoints":  strList(""),
			"goals":       strList(""),
		}, "role", "age", "description", "painPoints", "goals")),
		"sales": object("Sales and marketing plan.", map[string]*jsonschema.Schema{
			"pitch":             str("Elevator pitch."),
			"channels":          strList("Recommended acquisition channels."),
			"monetizationModel": str("How the product makes money."),
			"targetAudience":    str("Short description of the target audience."),
		}, "pitch", "channels", "monetizationModel", "targetAudience"),
		"critiques": list("Common mistakes or weak points of the current idea.", object("", map[string]*jsonschema.Schema{
			"title":       str(""),
			"description": str(""),
			"severity": enum(string(analysis.SeverityCritical), string(analysis.SeverityModerate),
				string(analysis.SeverityMinor)),
			"type": enum(string(analysis.CategoryTechnical), string(analysis.CategoryBusiness),
				string(analysis.CategoryUX)),
		}, "title", "description", "severity", "type")),
		"improvements": list("Concrete improvements to turn the prototype into a product.", feature()),
	}, FieldOrder...)
}

// FieldOrder is the order of the top-level fields, also used as the required list.
var FieldOrder = []string{
	"summary", "techStack", "mermaidDiagram", "schemaCode", "explanation", "strategy",
	"features", "personas", "sales", "critiques", "improvements",
}
