package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StorageModel selects the persistence paradigm the generated schema targets.
type StorageModel string

const (
	StorageRelational StorageModel = "RELATIONAL"
	StorageDocument   StorageModel = "DOCUMENT"
)

// ParseStorageModel accepts the canonical names and the common aliases used by
// the form and the CLI.
func ParseStorageModel(s string) (StorageModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "relational", "postgres", "postgresql", "sql":
		return StorageRelational, nil
	case "document", "firebase", "firestore", "nosql":
		return StorageDocument, nil
	}
	return "", &InputValidationError{Field: "storageModel", Reason: fmt.Sprintf("unknown storage model %q", s)}
}

// Request is one user submission. It is built once and never mutated.
type Request struct {
	ID            string       `json:"id"`
	RepositoryURL string       `json:"repositoryUrl"`
	StorageModel  StorageModel `json:"storageModel"`
	SubmittedAt   time.Time    `json:"submittedAt"`
}

// NewRequest stamps a new request id. The repository URL is expected to be
// validated by the caller.
func NewRequest(repositoryURL string, model StorageModel, now time.Time) Request {
	return Request{
		ID:            uuid.New().String(),
		RepositoryURL: repositoryURL,
		StorageModel:  model,
		SubmittedAt:   now,
	}
}

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityModerate Severity = "Moderate"
	SeverityMinor    Severity = "Minor"
)

type Category string

const (
	CategoryTechnical Category = "Technical"
	CategoryBusiness  Category = "Business"
	CategoryUX        Category = "UX"
)

// Feature is used for both suggested features and improvements.
type Feature struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// Persona, SalesPlan and Result marshal nil lists as [] so their JSON always
// satisfies the output schema.
type Persona struct {
	Role        string   `json:"role"`
	AgeRange    string   `json:"age"`
	Description string   `json:"description"`
	PainPoints  []string `json:"painPoints"`
	Goals       []string `json:"goals"`
}

type SalesPlan struct {
	Pitch             string   `json:"pitch"`
	Channels          []string `json:"channels"`
	MonetizationModel string   `json:"monetizationModel"`
	TargetAudience    string   `json:"targetAudience"`
}

type Critique struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Category    Category `json:"type"`
}

// Result is the validated answer of the generation service. Field names on
// the wire follow the output schema.
type Result struct {
	Summary        string     `json:"summary"`
	TechStack      []string   `json:"techStack"`
	DiagramSource  string     `json:"mermaidDiagram"`
	SchemaArtifact string     `json:"schemaCode"`
	Explanation    string     `json:"explanation"`
	Strategy       string     `json:"strategy"`
	Features       []Feature  `json:"features"`
	Personas       []Persona  `json:"personas"`
	Sales          SalesPlan  `json:"sales"`
	Critiques      []Critique `json:"critiques"`
	Improvements   []Feature  `json:"improvements"`
}

func (p Persona) MarshalJSON() ([]byte, error) {
	type plain Persona
	out := plain(p)
	out.PainPoints = orEmpty(out.PainPoints)
	out.Goals = orEmpty(out.Goals)
	return json.Marshal(out)
}

func (s SalesPlan) MarshalJSON() ([]byte, error) {
	type plain SalesPlan
	out := plain(s)
	out.Channels = orEmpty(out.Channels)
	return json.Marshal(out)
}

func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	out := plain(r)
	out.TechStack = orEmpty(out.TechStack)
	out.Features = orEmpty(out.Features)
	out.Personas = orEmpty(out.Personas)
	out.Critiques = orEmpty(out.Critiques)
	out.Improvements = orEmpty(out.Improvements)
	return json.Marshal(out)
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
