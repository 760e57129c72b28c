package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpstreamError(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("send message: %w", &UpstreamError{Op: "completion request", StatusCode: http.StatusServiceUnavailable, Err: cause})

	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrStore)

	var upstream *UpstreamError
	if assert.ErrorAs(t, err, &upstream) {
		assert.Equal(t, http.StatusServiceUnavailable, upstream.StatusCode)
	}
	assert.Contains(t, err.Error(), "upstream status 503")
}

func TestWrapStoreError(t *testing.T) {
	assert.NoError(t, WrapStoreError("op", nil))

	notFound := fmt.Errorf("conversation x: %w", ErrNotFound)
	assert.Same(t, notFound, WrapStoreError("op", notFound))

	invalid := NewValidationError(errors.New("bad role"))
	assert.ErrorIs(t, WrapStoreError("op", invalid), ErrValidation)
	assert.NotErrorIs(t, WrapStoreError("op", invalid), ErrStore)

	cause := errors.New("disk full")
	wrapped := WrapStoreError("save user message", cause)
	assert.ErrorIs(t, wrapped, ErrStore)
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "save user message")
}
