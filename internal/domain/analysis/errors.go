package analysis

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// InputValidationError rejects a submission before anything is sent out.
type InputValidationError struct {
	Field  string
	Reason string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConfigurationError means the process is not set up to talk to the
// generation service, e.g. the credential is missing.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// GenerationError wraps a failed call to the generation service. Message is
// the provider's own message and may be empty.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	switch {
	case e.Message != "":
		return "generation failed: " + e.Message
	case e.Err != nil:
		return "generation failed: " + e.Err.Error()
	}
	return "generation failed"
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ParseError means the service answered but the payload is not a valid
// Result. Raw holds the payload for diagnostics and must not be shown to users.
type ParseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse response: %s: %v", e.Reason, e.Err)
	}
	return "parse response: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// RenderError is a diagram rendering failure. It never leaves the diagram panel.
type RenderError struct {
	RenderID string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render diagram %s: %v", e.RenderID, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
