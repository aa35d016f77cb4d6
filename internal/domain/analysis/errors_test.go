package analysis

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStorageModel(t *testing.T) {
	cases := map[string]StorageModel{
		"RELATIONAL": StorageRelational,
		"postgres":   StorageRelational,
		" sql ":      StorageRelational,
		"DOCUMENT":   StorageDocument,
		"firebase":   StorageDocument,
		"Firestore":  StorageDocument,
	}
	for in, want := range cases {
		got, err := ParseStorageModel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseStorageModel("graph")
	var ive *InputValidationError
	require.ErrorAs(t, err, &ive)
	assert.Equal(t, "storageModel", ive.Field)
}

func TestGenerationErrorUnwrapsQuota(t *testing.T) {
	err := fmt.Errorf("analyze: %w", &GenerationError{Message: "quota", Err: ErrQuotaExceeded})

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.True(t, errors.Is(err, ErrQuotaExceeded))
	assert.Equal(t, "generation failed: quota", ge.Error())
}

func TestParseErrorIsNotGenerationError(t *testing.T) {
	var err error = &ParseError{Reason: "invalid json", Raw: "{"}

	var ge *GenerationError
	assert.False(t, errors.As(err, &ge))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "{", pe.Raw)
}

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func TestNewRequestStampsID(t *testing.T) {
	a := NewRequest("https://github.com/a/b", StorageRelational, fixedNow)
	b := NewRequest("https://github.com/a/b", StorageRelational, fixedNow)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, fixedNow, a.SubmittedAt)
}
