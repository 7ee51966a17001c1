package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	err := New(ErrConflict, "balance changed")
	assert.Equal(t, ErrConflict, CodeOf(err))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Equal(t, ErrConflict, CodeOf(wrapped))

	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.True(t, Is(wrapped, ErrConflict))
	assert.False(t, Is(wrapped, ErrNotFound))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrProviderFailed, "submit failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "PROVIDER_FAILED")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrInsufficientCredits, http.StatusPaymentRequired},
		{ErrConflict, http.StatusConflict},
		{ErrNotFound, http.StatusNotFound},
		{ErrProviderFailed, http.StatusInternalServerError},
		{ErrTimedOut, http.StatusInternalServerError},
		{ErrInvalidOutput, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(New(tt.code, "x")))
	}

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}
