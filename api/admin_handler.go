package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/auth"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type adminHandler struct {
	responder    Responder
	logger       zerolog.Logger
	verifier     auth.CredentialVerifier
	sessions     *auth.SessionManager
	cookieSecure bool
}

func newAdminHandler(verifier auth.CredentialVerifier, sessions *auth.SessionManager, cookieSecure bool) adminHandler {
	logger := log.With().Str("handlerName", "adminHandler").Logger()

	return adminHandler{
		responder:    NewResponder(logger),
		logger:       logger,
		verifier:     verifier,
		sessions:     sessions,
		cookieSecure: cookieSecure,
	}
}

// login checks the admin credentials and starts a session
// @Summary Admin login
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /api/admin/login [post]
func (h adminHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body LoginRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&body); err != nil {
			h.responder.WriteError(w, errs.NewInvalidJSONError("body", err))
			return
		}

		principal, err := h.verifier.Verify(r.Context(), body.Username, body.Password)
		if err != nil {
			if errs.IsInvalidCredentialsError(err) {
				h.logger.Warn().Str("username", body.Username).Str("remote_addr", r.RemoteAddr).Msg("failed admin login")
			}
			h.responder.WriteError(w, err)
			return
		}

		token, expires, err := h.sessions.Issue(r.Context(), principal)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		http.SetCookie(w, h.sessionCookie(token, expires))
		h.logger.Info().Str("username", principal.Username).Msg("admin logged in")
		h.responder.WriteJSON(w, MessageResponse{Message: "Login successful"})
	}
}

// logout ends the session and clears the cookie
// @Summary Admin logout
// @Tags Admin
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /api/admin/logout [post]
func (h adminHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(auth.CookieName); err == nil && cookie.Value != "" {
			if err := h.sessions.Revoke(r.Context(), cookie.Value); err != nil {
				h.responder.WriteError(w, err)
				return
			}
		}

		expired := h.sessionCookie("", time.Unix(0, 0))
		expired.MaxAge = -1
		http.SetCookie(w, expired)
		h.responder.WriteJSON(w, MessageResponse{Message: "Logout successful"})
	}
}

// status reports whether the caller holds an admin session
// @Summary Admin session status
// @Tags Admin
// @Produce json
// @Success 200 {object} AdminStatusResponse
// @Router /api/admin/status [get]
func (h adminHandler) status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, AdminStatusResponse{IsAdmin: ctxGetPrincipal(r.Context()).IsAdmin})
	}
}

func (h adminHandler) sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
