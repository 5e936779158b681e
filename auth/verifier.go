package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/errs"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultUsername = "admin"
	DefaultPassword = "admin123"
)

// CredentialVerifier checks a username/password pair and returns the principal it
// grants. A mismatch is reported as errs.NewInvalidCredentialsError.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (Principal, error)
}

// StaticVerifier compares against one configured pair in constant time.
type StaticVerifier struct {
	username []byte
	password []byte
}

func NewStaticVerifier(username, password string) StaticVerifier {
	return StaticVerifier{username: []byte(username), password: []byte(password)}
}

func (v StaticVerifier) Verify(ctx context.Context, username, password string) (Principal, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), v.username) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), v.password) == 1
	if !userOK || !passOK {
		return Principal{}, errs.NewInvalidCredentialsError()
	}
	return Principal{Username: username, IsAdmin: true}, nil
}

// BcryptVerifier checks the password against a bcrypt hash.
type BcryptVerifier struct {
	username []byte
	hash     []byte
}

func NewBcryptVerifier(username, passwordHash string) (BcryptVerifier, error) {
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return BcryptVerifier{}, errs.NewConfigError("ADMIN_PASSWORD_HASH", err)
	}
	return BcryptVerifier{username: []byte(username), hash: []byte(passwordHash)}, nil
}

func (v BcryptVerifier) Verify(ctx context.Context, username, password string) (Principal, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), v.username) == 1
	err := bcrypt.CompareHashAndPassword(v.hash, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || (err == nil && !userOK) {
		return Principal{}, errs.NewInvalidCredentialsError()
	}
	if err != nil {
		return Principal{}, errs.NewInternalErrorWithCause("verify credentials", err)
	}
	return Principal{Username: username, IsAdmin: true}, nil
}

// NewVerifier picks the bcrypt verifier when a hash is configured and falls back
// to the plain pair otherwise. Empty values mean the built-in defaults.
func NewVerifier(username, password, passwordHash string) (CredentialVerifier, error) {
	if username == "" {
		username = DefaultUsername
	}
	if passwordHash != "" {
		return NewBcryptVerifier(username, passwordHash)
	}
	if password == "" {
		log.Warn().Msg("ADMIN_PASSWORD is not set, using the default admin password")
		password = DefaultPassword
	}
	return NewStaticVerifier(username, password), nil
}
