package prompt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
)

func req(model analysis.StorageModel) analysis.Request {
	return analysis.Request{
		ID:            "r-1",
		RepositoryURL: "https://github.com/acme/shop",
		StorageModel:  model,
		SubmittedAt:   time.Unix(0, 0),
	}
}

func TestBuildRelational(t *testing.T) {
	p := NewBuilder("").Build(req(analysis.StorageRelational))

	assert.Contains(t, p.Text, "https://github.com/acme/shop")
	assert.Contains(t, p.Text, "PostgreSQL")
	assert.Contains(t, p.Text, "erDiagram")
	assert.Contains(t, p.Text, "SQL DDL")
	assert.NotContains(t, p.Text, "Firestore")
	assert.Contains(t, p.Text, DefaultLanguage)
	assert.Same(t, OutputSchema(), p.Schema)
}

func TestBuildDocument(t *testing.T) {
	p := NewBuilder("English").Build(req(analysis.StorageDocument))

	assert.Contains(t, p.Text, "Firestore")
	assert.Contains(t, p.Text, "firestore.rules")
	assert.NotContains(t, p.Text, "SQL DDL")
	assert.Contains(t, p.Text, "strictly in English")
}

func TestBuildIsDeterministic(t *testing.T) {
	b := NewBuilder("")
	assert.Equal(t, b.Build(req(analysis.StorageRelational)).Text, b.Build(req(analysis.StorageRelational)).Text)
}

func TestOutputSchemaRequiresEveryField(t *testing.T) {
	s := OutputSchema()
	assert.Equal(t, FieldOrder, s.Required)
	require.Len(t, s.Properties, len(FieldOrder))

	sales := s.Properties["sales"]
	assert.ElementsMatch(t, []string{"pitch", "channels", "monetizationModel", "targetAudience"}, sales.Required)

	crit := s.Properties["critiques"].Items
	assert.Equal(t, []any{"Critical", "Moderate", "Minor"}, crit.Properties["severity"].Enum)
	assert.Equal(t, []any{"Technical", "Business", "UX"}, crit.Properties["type"].Enum)

	_, err := json.Marshal(s)
	require.NoError(t, err)
	_, err = s.Resolve(nil)
	require.NoError(t, err)
}
