package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONOrEmpty(t *testing.T) {
	assert.Equal(t, "{}", jsonOrEmpty("  "))
	assert.Equal(t, `{"a":1}`, jsonOrEmpty(`{"a":1}`))
	assert.JSONEq(t, `{"raw":"not json"}`, jsonOrEmpty("not json"))
}

func TestStringOrDash(t *testing.T) {
	assert.Equal(t, "-", stringOrDash(" "))
	assert.Equal(t, "x", stringOrDash("x"))
}
