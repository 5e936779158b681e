package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusCode(NewNotFoundError("submission not found")))
	assert.Equal(t, http.StatusBadRequest, StatusCode(fmt.Errorf("wrapped: %w", NewMissingRequiredFieldError("resume"))))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("boom")))
}

func TestSentinelsMatch(t *testing.T) {
	assert.ErrorIs(t, NewNotFoundError("file not found"), ErrNotFound)
	assert.ErrorIs(t, NewSessionError(ErrExpiredSession), ErrUnauthorized)
	assert.True(t, IsInvalidSessionError(NewSessionError(ErrExpiredSession)))
	assert.True(t, IsInvalidCredentialsError(NewInvalidCredentialsError()))
	assert.ErrorIs(t, NewValidationError([]FieldError{{Field: "bio", Message: "is required"}}), ErrValidation)
	assert.ErrorIs(t, NewFileTooLargeError("resume", 11, 10), ErrFileTooLarge)
	assert.False(t, IsInvalidSessionError(NewInvalidCredentialsError()))
}

func TestDatabaseErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, NewDatabaseError("find", "submission", errors.New("dial tcp: connection refused")).StatusCode)

	err := NewDatabaseError("find", "submission", errors.New("syntax error"))
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.True(t, err.IsServerError())
	assert.Contains(t, err.GetFullError(), "syntax error")
}

func TestMessageOmitsDetails(t *testing.T) {
	err := NewInvalidFieldError("status", "must be one of pending, in-progress, completed")
	assert.Equal(t, "invalid field", err.Message())
	assert.Contains(t, err.Error(), "must be one of")
}
