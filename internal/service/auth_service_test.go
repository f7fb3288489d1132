package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/peterldowns/testy/check"

	"github.com/evmarket/evmarketd/internal/crypto"
	"github.com/evmarket/evmarketd/internal/domain"
	"github.com/evmarket/evmarketd/internal/platform/evmarket"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memSessionStore is an in-memory domain.SessionStore.
type memSessionStore struct {
	mu   sync.Mutex
	recs map[string]domain.SessionRecord
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{recs: make(map[string]domain.SessionRecord)}
}

func (s *memSessionStore) Create(ctx context.Context, rec domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.ID] = rec
	return nil
}

func (s *memSessionStore) GetByID(ctx context.Context, id string) (domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	if !ok {
		return domain.SessionRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

func (s *memSessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, id)
	return nil
}

func (s *memSessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, rec := range s.recs {
		if now.After(rec.ExpiresAt) {
			delete(s.recs, id)
			n++
		}
	}
	return n, nil
}

// memSessionCache is an in-memory domain.SessionCache.
type memSessionCache struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newMemSessionCache() *memSessionCache {
	return &memSessionCache{sessions: make(map[string]domain.Session)}
}

func (c *memSessionCache) Set(ctx context.Context, session domain.Session, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[session.ID] = session
	return nil
}

func (c *memSessionCache) Get(ctx context.Context, id string) (domain.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return s, nil
}

func (c *memSessionCache) Invalidate(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
	return nil
}

// authUpstream serves the auth endpoints with a canned user and token.
func authUpstream(t *testing.T, accessToken string, logoutStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"message": "Login successful",
			"data": map[string]any{
				"user": map[string]any{
					"id":    "user-1",
					"email": "buyer@example.com",
					"name":  "Buyer One",
				},
				"accessToken": accessToken,
			},
		})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(logoutStatus)
		json.NewEncoder(w).Encode(map[string]any{"message": "Logged out"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestAuthService(t *testing.T, upstream *httptest.Server, store *memSessionStore, cache *memSessionCache, ttl time.Duration) *AuthService {
	t.Helper()
	sealer, err := crypto.NewSealer("test-passphrase")
	check.Nil(t, err)
	return NewAuthService(
		evmarket.NewClient(upstream.URL),
		store, cache, sealer,
		ttl, 5*time.Minute,
		discardLogger(),
	)
}

func TestLoginOpensSession(t *testing.T) {
	ctx := context.Background()
	store := newMemSessionStore()
	cache := newMemSessionCache()
	svc := newTestAuthService(t, authUpstream(t, "upstream-token", http.StatusOK), store, cache, time.Hour)

	session, err := svc.Login(ctx, "buyer@example.com", "hunter2")
	check.Nil(t, err)
	check.NotEqual(t, "", session.ID)
	check.Equal(t, "user-1", session.UserID)
	check.Equal(t, "upstream-token", session.AccessToken)

	rec, err := store.GetByID(ctx, session.ID)
	check.Nil(t, err)
	check.Equal(t, "user-1", rec.UserID)
	// The stored token is sealed, never the clear text.
	check.NotEqual(t, "upstream-token", string(rec.SealedToken))

	cached, err := cache.Get(ctx, session.ID)
	check.Nil(t, err)
	check.Equal(t, "upstream-token", cached.AccessToken)
}

func TestLoginRejectsMissingAccessToken(t *testing.T) {
	store := newMemSessionStore()
	svc := newTestAuthService(t, authUpstream(t, "", http.StatusOK), store, newMemSessionCache(), time.Hour)

	_, err := svc.Login(context.Background(), "buyer@example.com", "hunter2")
	check.True(t, errors.Is(err, domain.ErrUnauthorized))
	check.Equal(t, 0, len(store.recs))
}

func TestAuthenticateFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	store := newMemSessionStore()
	cache := newMemSessionCache()
	svc := newTestAuthService(t, authUpstream(t, "upstream-token", http.StatusOK), store, cache, time.Hour)

	session, err := svc.Login(ctx, "buyer@example.com", "hunter2")
	check.Nil(t, err)

	// Simulate a cache wipe; Authenticate must recover from the store and
	// unseal the token.
	check.Nil(t, cache.Invalidate(ctx, session.ID))

	got, err := svc.Authenticate(ctx, session.ID)
	check.Nil(t, err)
	check.Equal(t, session.ID, got.ID)
	check.Equal(t, "upstream-token", got.AccessToken)
	check.Equal(t, "buyer@example.com", got.User.Email)

	// The cache is back-filled.
	_, err = cache.Get(ctx, session.ID)
	check.Nil(t, err)
}

func TestAuthenticateUnknownSession(t *testing.T) {
	svc := newTestAuthService(t, authUpstream(t, "tok", http.StatusOK), newMemSessionStore(), newMemSessionCache(), time.Hour)

	_, err := svc.Authenticate(context.Background(), "nope")
	check.True(t, errors.Is(err, domain.ErrUnauthorized))

	_, err = svc.Authenticate(context.Background(), "")
	check.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestAuthenticateExpiredSession(t *testing.T) {
	ctx := context.Background()
	store := newMemSessionStore()
	cache := newMemSessionCache()
	svc := newTestAuthService(t, authUpstream(t, "tok", http.StatusOK), store, cache, -time.Minute)

	session, err := svc.Login(ctx, "buyer@example.com", "hunter2")
	check.Nil(t, err)

	// Expired in the cache.
	_, err = svc.Authenticate(ctx, session.ID)
	check.True(t, errors.Is(err, domain.ErrSessionExpired))

	// And expired via the store path too.
	check.Nil(t, cache.Invalidate(ctx, session.ID))
	_, err = svc.Authenticate(ctx, session.ID)
	check.True(t, errors.Is(err, domain.ErrSessionExpired))
}

func TestLogoutSurvivesUpstreamFailure(t *testing.T) {
	ctx := context.Background()
	store := newMemSessionStore()
	cache := newMemSessionCache()
	svc := newTestAuthService(t, authUpstream(t, "tok", http.StatusInternalServerError), store, cache, time.Hour)

	session, err := svc.Login(ctx, "buyer@example.com", "hunter2")
	check.Nil(t, err)

	// The upstream logout 500s, but the gateway session still dies.
	check.Nil(t, svc.Logout(ctx, session))

	_, err = store.GetByID(ctx, session.ID)
	check.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = cache.Get(ctx, session.ID)
	check.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	store := newMemSessionStore()
	svc := newTestAuthService(t, authUpstream(t, "tok", http.StatusOK), store, newMemSessionCache(), -time.Minute)

	_, err := svc.Login(ctx, "buyer@example.com", "hunter2")
	check.Nil(t, err)
	_, err = svc.Login(ctx, "buyer@example.com", "hunter2")
	check.Nil(t, err)

	n, err := svc.PurgeExpired(ctx)
	check.Nil(t, err)
	check.Equal(t, int64(2), n)
	check.Equal(t, 0, len(store.recs))
}
