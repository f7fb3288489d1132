package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/peterldowns/testy/check"

	"github.com/evmarket/evmarketd/internal/domain"
	"github.com/evmarket/evmarketd/internal/server/middleware"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubAuthService returns canned sessions and records logouts.
type stubAuthService struct {
	session   domain.Session
	err       error
	loggedOut []string
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	return s.session, s.err
}

func (s *stubAuthService) Register(ctx context.Context, name, email, password string) (domain.Session, error) {
	return s.session, s.err
}

func (s *stubAuthService) GoogleAuthURL(ctx context.Context) (string, error) {
	return "https://accounts.google.com/o/oauth2/auth?client_id=test", s.err
}

func (s *stubAuthService) ExchangeCode(ctx context.Context, code string) (domain.Session, error) {
	return s.session, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, session domain.Session) error {
	s.loggedOut = append(s.loggedOut, session.ID)
	return s.err
}

func (s *stubAuthService) Authenticate(ctx context.Context, sessionID string) (domain.Session, error) {
	if s.err != nil {
		return domain.Session{}, s.err
	}
	if sessionID != s.session.ID {
		return domain.Session{}, domain.ErrUnauthorized
	}
	return s.session, nil
}

func stubSession() domain.Session {
	return domain.Session{
		ID:          "sess-1",
		UserID:      "user-1",
		User:        domain.User{ID: "user-1", Email: "buyer@example.com", Name: "Buyer One"},
		AccessToken: "secret-upstream-token",
		ExpiresAt:   time.Now().Add(time.Hour).UTC(),
	}
}

func TestLoginReturnsSessionWithoutToken(t *testing.T) {
	svc := &stubAuthService{session: stubSession()}
	h := NewAuthHandler(svc, discardLogger())

	req := httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"email":"buyer@example.com","password":"hunter2"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	check.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SessionID string      `json:"sessionId"`
		User      domain.User `json:"user"`
	}
	check.Nil(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	check.Equal(t, "sess-1", resp.SessionID)
	check.Equal(t, "buyer@example.com", resp.User.Email)
	// The upstream access token must never appear in a response.
	check.False(t, strings.Contains(rec.Body.String(), "secret-upstream-token"))
}

func TestLoginRejectsMissingCredentials(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{session: stubSession()}, discardLogger())

	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"email":"a@b.c"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	check.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRejectsUnknownFields(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{session: stubSession()}, discardLogger())

	req := httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"email":"a@b.c","password":"x","admin":true}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	check.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginMapsUpstreamUnauthorized(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{err: domain.ErrUnauthorized}, discardLogger())

	req := httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"email":"a@b.c","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	check.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterCreated(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{session: stubSession()}, discardLogger())

	req := httptest.NewRequest("POST", "/api/auth/register",
		strings.NewReader(`{"name":"Buyer","email":"a@b.c","password":"x"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	check.Equal(t, http.StatusCreated, rec.Code)
}

func TestLogoutThroughMiddleware(t *testing.T) {
	svc := &stubAuthService{session: stubSession()}
	h := NewAuthHandler(svc, discardLogger())
	protected := middleware.SessionAuth(svc)(http.HandlerFunc(h.Logout))

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer sess-1")
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	check.Equal(t, http.StatusOK, rec.Code)
	check.Equal(t, []string{"sess-1"}, svc.loggedOut)
}

func TestMeRequiresSession(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{session: stubSession()}, discardLogger())

	// Direct call without the middleware: no session in context.
	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest("GET", "/api/auth/me", nil))

	check.Equal(t, http.StatusUnauthorized, rec.Code)
}
