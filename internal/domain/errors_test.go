package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := RecognitionError("oracle call failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "[recognition]")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsTypeSeesWrappedErrors(t *testing.T) {
	err := fmt.Errorf("batch 7: %w", ThrottleError("rate limit exceeded", nil))

	assert.True(t, IsThrottle(err))
	assert.True(t, IsType(err, ErrorTypeThrottle))
	assert.False(t, IsType(err, ErrorTypeValidation))
}

func TestIsTypeOnForeignError(t *testing.T) {
	require.False(t, IsType(errors.New("plain"), ErrorTypeIO))
	require.False(t, IsThrottle(nil))
}
