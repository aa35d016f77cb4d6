package archive

import "time"

// RecordID identifier type
type RecordID string

// Record is a completed analysis kept for auditing and retrieval.
type Record struct {
	ID            RecordID  `json:"id"`
	RepositoryURL string    `json:"repository_url"`
	StorageModel  string    `json:"storage_model"`
	Provider      string    `json:"provider"`
	Result        string    `json:"result"` // JSON string of the validated result
	DurationMS    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// Failure is a persisted analysis failure entry
type Failure struct {
	ID            int64     `json:"id"`
	RequestID     string    `json:"request_id"`
	RepositoryURL string    `json:"repository_url"`
	Kind          string    `json:"kind"` // configuration | generation | parse
	Message       string    `json:"message"`
	RawURL        string    `json:"raw_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	KindConfiguration = "configuration"
	KindGeneration    = "generation"
	KindParse         = "parse"
)
