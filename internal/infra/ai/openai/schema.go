package openai

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	oaschema "github.com/sashabaranov/go-openai/jsonschema"
)

// toDefinition translates the output schema into the SDK's definition type.
// Strict mode requires additionalProperties=false on every object.
func toDefinition(s *jsonschema.Schema) (oaschema.Definition, error) {
	d := oaschema.Definition{
		Description: s.Description,
		Required:    append([]string(nil), s.Required...),
	}
	switch s.Type {
	case "object":
		d.Type = oaschema.Object
		d.AdditionalProperties = false
		d.Properties = make(map[string]oaschema.Definition, len(s.Properties))
		for name, p := range s.Properties {
			pd, err := toDefinition(p)
			if err != nil {
				return d, fmt.Errorf("property %s: %w", name, err)
			}
			d.Properties[name] = pd
		}
	case "array":
		d.Type = oaschema.Array
		if s.Items != nil {
			item, err := toDefinition(s.Items)
			if err != nil {
				return d, fmt.Errorf("items: %w", err)
			}
			d.Items = &item
		}
	case "string":
		d.Type = oaschema.String
	case "integer":
		d.Type = oaschema.Integer
	case "number":
		d.Type = oaschema.Number
	case "boolean":
		d.Type = oaschema.Boolean
	default:
		return d, fmt.Errorf("unsupported schema type %q", s.Type)
	}
	for _, v := range s.Enum {
		str, ok := v.(string)
		if !ok {
			return d, fmt.Errorf("unsupported enum value %v", v)
		}
		d.Enum = append(d.Enum, str)
	}
	return d, nil
}
