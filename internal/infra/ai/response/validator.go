package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
)

// DefaultMaxBytes caps the accepted payload size.
const DefaultMaxBytes = 1 << 20

// Validator decodes raw generated text into a Result. It holds no mutable
// state and is safe for concurrent use.
type Validator struct {
	resolved *jsonschema.Resolved
	maxBytes int
}

// New resolves schema once. maxBytes <= 0 uses DefaultMaxBytes.
func New(schema *jsonschema.Schema, maxBytes int) (*Validator, error) {
	rs, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve output schema: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Validator{resolved: rs, maxBytes: maxBytes}, nil
}

// Decode returns a *analysis.ParseError for anything that is not a complete,
// schema-valid answer.
func (v *Validator) Decode(raw string) (*analysis.Result, error) {
	if len(raw) > v.maxBytes {
		return nil, &analysis.ParseError{Reason: fmt.Sprintf("response exceeds %d bytes", v.maxBytes), Raw: raw}
	}
	body := stripFence(raw)
	if body == "" {
		return nil, &analysis.ParseError{Reason: "empty response", Raw: raw}
	}

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, &analysis.ParseError{Reason: "invalid json", Raw: raw, Err: err}
	}
	if err := v.resolved.Validate(doc); err != nil {
		return nil, &analysis.ParseError{Reason: "schema mismatch", Raw: raw, Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()
	var res analysis.Result
	if err := dec.Decode(&res); err != nil {
		return nil, &analysis.ParseError{Reason: "decode result", Raw: raw, Err: err}
	}
	return &res, nil
}

// stripFence removes a surrounding Markdown code fence such as ```json ... ```.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
