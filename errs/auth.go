package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	Unauthorized = NewApiErr(http.StatusUnauthorized, "unauthorized")
)

// Authentication & Session Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
	ErrExpiredSession     = errors.New("expired session")
)

func NewInvalidCredentialsError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrInvalidCredentials,
		Field:      "credentials",
	}
}

// NewSessionError rejects a missing, tampered or expired session. It matches both
// ErrUnauthorized and the given session sentinel.
func NewSessionError(sentinel error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        fmt.Errorf("%w: %w", ErrUnauthorized, sentinel),
	}
}

func IsInvalidCredentialsError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsInvalidSessionError(err error) bool {
	return errors.Is(err, ErrInvalidSession) || errors.Is(err, ErrExpiredSession)
}
