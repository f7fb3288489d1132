package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/evmarket/evmarketd/internal/domain"
)

// AuthService is the slice of the auth service this handler needs.
type AuthService interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
	Register(ctx context.Context, name, email, password string) (domain.Session, error)
	GoogleAuthURL(ctx context.Context) (string, error)
	ExchangeCode(ctx context.Context, code string) (domain.Session, error)
	Logout(ctx context.Context, session domain.Session) error
}

// AuthHandler serves the session lifecycle endpoints.
type AuthHandler struct {
	auth   AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// sessionResponse is what every successful auth call returns. The access
// token never leaves the gateway; clients hold only the session id.
type sessionResponse struct {
	SessionID string      `json:"sessionId"`
	User      domain.User `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func toSessionResponse(s domain.Session) sessionResponse {
	return sessionResponse{
		SessionID: s.ID,
		User:      s.User,
		ExpiresAt: s.ExpiresAt,
	}
}

// Login opens a session from email/password credentials.
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(r.Context(), "handler: login failed",
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// Register creates an upstream account and opens a session.
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	session, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(r.Context(), "handler: register failed",
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

// GoogleAuthURL returns the Google OAuth consent URL for the client to open.
// GET /api/auth/google-url
func (h *AuthHandler) GoogleAuthURL(w http.ResponseWriter, r *http.Request) {
	u, err := h.auth.GoogleAuthURL(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to get sign-in url")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": u})
}

// ExchangeCode trades an OAuth authorization code for a session.
// POST /api/auth/exchange-code
func (h *AuthHandler) ExchangeCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	session, err := h.auth.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		h.logger.WarnContext(r.Context(), "handler: code exchange failed",
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "code exchange failed")
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// Logout closes the caller's session.
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	if err := h.auth.Logout(r.Context(), s); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: logout failed",
			slog.String("session_id", s.ID),
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "logout failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the authenticated user.
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}
