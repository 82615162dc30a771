package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError(ErrNotFound, "task not found")
	assert.Equal(t, "[NOT_FOUND] task not found", err.Error())

	cause := errors.New("redis: nil")
	err = NewError(ErrStoreUnavailable, "lookup failed").WithCause(cause)
	assert.Equal(t, "[STORE_UNAVAILABLE] lookup failed: redis: nil", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestErrorBuilders(t *testing.T) {
	err := NewError(ErrModelOverloaded, "busy").
		WithHTTPStatus(http.StatusServiceUnavailable).
		WithRetryable(true)

	assert.Equal(t, ErrModelOverloaded, err.Code)
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus)
	assert.True(t, err.Retryable)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewError(ErrUpstreamError, "down").WithRetryable(true)))
	assert.False(t, IsRetryable(NewError(ErrInvalidRequest, "bad")))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrConflict, GetErrorCode(NewError(ErrConflict, "conflict")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
}

func TestErrorUnwrapChain(t *testing.T) {
	root := errors.New("connection refused")
	mid := NewError(ErrUpstreamError, "call failed").WithCause(root)
	outer := fmt.Errorf("step execution: %w", mid)

	var typed *Error
	require.True(t, errors.As(outer, &typed))
	assert.Equal(t, ErrUpstreamError, typed.Code)
	assert.ErrorIs(t, outer, root)
}
