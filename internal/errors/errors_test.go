package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	plain := New(ErrTypeValidation, "selection is empty")
	assert.Equal(t, "validation: selection is empty", plain.Error())

	cause := stderrors.New("permission denied")
	wrapped := Wrapf(cause, ErrTypeQuery, "introspection for %d tables failed", 3)
	assert.Equal(t, "query: introspection for 3 tables failed (caused by: permission denied)", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestIsTypeThroughWrapping(t *testing.T) {
	base := New(ErrTypeFormat, "missing Tables key")
	outer := fmt.Errorf("failed to load selection: %w", base)

	assert.True(t, IsType(outer, ErrTypeFormat))
	assert.False(t, IsType(outer, ErrTypeQuery))
	assert.Equal(t, ErrTypeFormat, GetType(outer))
	assert.Equal(t, ErrTypeInternal, GetType(stderrors.New("plain")))
}

func TestWithSuggestion(t *testing.T) {
	err := New(ErrTypeConnection, "database unreachable").
		WithSuggestion("Check the host and port").
		WithSuggestion("Run tabledef check")

	assert.Len(t, err.Suggestions, 2)
}
