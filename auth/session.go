package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/errs"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

const (
	CookieName = "portfolio_admin_session"
	DefaultTTL = 24 * time.Hour
)

// SessionStore persists session rows.
type SessionStore interface {
	Add(ctx context.Context, session *models.AdminSession) error
	FindBySID(ctx context.Context, sid string) (*models.AdminSession, error)
	Delete(ctx context.Context, sid string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionManager issues signed session tokens backed by rows in a SessionStore.
// A token is valid only while its signature checks out, it has not expired and
// its row still exists.
type SessionManager struct {
	store  SessionStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// NewSessionManager signs tokens with secret. An empty secret is replaced by a
// random one, which invalidates every cookie on restart.
func NewSessionManager(store SessionStore, secret string, ttl time.Duration) *SessionManager {
	logger := log.With().Str("component", "sessionManager").Logger()

	key := []byte(secret)
	if len(key) == 0 {
		logger.Warn().Msg("SESSION_SECRET is not set, generating a random one")
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("generate session secret: %v", err))
		}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &SessionManager{store: store, secret: key, ttl: ttl, now: time.Now, logger: logger}
}

// Issue creates a session row for p and returns the signed token and its expiry.
func (m *SessionManager) Issue(ctx context.Context, p Principal) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)
	sid := uuid.NewString()

	session := &models.AdminSession{
		SID: sid,
		Sess: datatypes.JSONMap{
			"isAdmin":  p.IsAdmin,
			"username": p.Username,
		},
		Expire: expires,
	}
	if err := m.store.Add(ctx, session); err != nil {
		return "", time.Time{}, errs.NewDatabaseError("create", "session", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        sid,
		Subject:   p.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, errs.NewInternalErrorWithCause("sign session token", err)
	}
	return signed, expires, nil
}

// Resolve turns a token into the principal of its session.
func (m *SessionManager) Resolve(ctx context.Context, token string) (Principal, error) {
	claims, err := m.parse(token, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, errs.NewSessionError(errs.ErrExpiredSession)
		}
		return Principal{}, errs.NewSessionError(errs.ErrInvalidSession)
	}

	session, err := m.store.FindBySID(ctx, claims.ID)
	if err != nil {
		return Principal{}, errs.NewDatabaseError("find", "session", err)
	}
	if session == nil {
		return Principal{}, errs.NewSessionError(errs.ErrInvalidSession)
	}
	if !session.Expire.After(m.now()) {
		return Principal{}, errs.NewSessionError(errs.ErrExpiredSession)
	}

	return Principal{
		SessionID: session.SID,
		Username:  session.Username(),
		IsAdmin:   session.IsAdmin(),
	}, nil
}

// Revoke deletes the session a token refers to. Expired tokens are still
// accepted so a stale cookie can log out; tokens with a bad signature are ignored.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	claims, err := m.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil
	}
	if err := m.store.Delete(ctx, claims.ID); err != nil {
		return errs.NewDatabaseError("delete", "session", err)
	}
	return nil
}

// PurgeExpired removes expired session rows.
func (m *SessionManager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx, m.now())
}

// RunJanitor purges expired sessions every interval until ctx is done.
func (m *SessionManager) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.PurgeExpired(ctx)
			if err != nil {
				m.logger.Error().Err(err).Msg("failed to purge expired sessions")
				continue
			}
			if n > 0 {
				m.logger.Info().Int64("count", n).Msg("purged expired sessions")
			}
		}
	}
}

func (m *SessionManager) parse(token string, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, errs.ErrInvalidSession
	}
	return claims, nil
}
