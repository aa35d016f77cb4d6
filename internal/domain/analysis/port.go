package analysis

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// Prompt is the instruction text plus the output schema the answer must follow.
type Prompt struct {
	Text   string
	Schema *jsonschema.Schema
}

// PromptBuilder composes the prompt for a request.
type PromptBuilder interface {
	Build(req Request) Prompt
}

// Generator sends a prompt to the generation service and returns the raw text.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
	Name() string
}

// Decoder turns raw generated text into a Result, or a *ParseError.
type Decoder interface {
	Decode(raw string) (*Result, error)
}

// DiagramRenderer turns diagram source into SVG markup.
type DiagramRenderer interface {
	Render(ctx context.Context, renderID, source string) (string, error)
}

// RawStore keeps payloads that failed to parse.
type RawStore interface {
	PutRaw(ctx context.Context, key string, payload []byte) (string, error)
}
