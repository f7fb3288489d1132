// Package service composes the platform client, stores, caches, and the
// normalizer/poller cores into the operations the HTTP layer exposes.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/evmarket/evmarketd/internal/crypto"
	"github.com/evmarket/evmarketd/internal/domain"
	"github.com/evmarket/evmarketd/internal/platform/evmarket"
)

// AuthService exchanges upstream credentials for gateway sessions. The
// upstream access token is sealed before it reaches Postgres; Redis holds the
// unsealed session for the hot path.
type AuthService struct {
	client   *evmarket.Client
	sessions domain.SessionStore
	cache    domain.SessionCache
	sealer   *crypto.Sealer
	ttl      time.Duration
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	client *evmarket.Client,
	sessions domain.SessionStore,
	cache domain.SessionCache,
	sealer *crypto.Sealer,
	ttl, cacheTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		client:   client,
		sessions: sessions,
		cache:    cache,
		sealer:   sealer,
		ttl:      ttl,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Login authenticates against the upstream and opens a gateway session.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	res, err := s.client.Login(ctx, email, password)
	if err != nil {
		return domain.Session{}, fmt.Errorf("auth_service: login: %w", err)
	}
	return s.openSession(ctx, res)
}

// Register creates an upstream account and opens a gateway session.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (domain.Session, error) {
	res, err := s.client.Register(ctx, name, email, password)
	if err != nil {
		return domain.Session{}, fmt.Errorf("auth_service: register: %w", err)
	}
	return s.openSession(ctx, res)
}

// GoogleAuthURL returns the upstream's Google OAuth consent URL for the UI to
// open; the resulting authorization code comes back through ExchangeCode.
func (s *AuthService) GoogleAuthURL(ctx context.Context) (string, error) {
	u, err := s.client.GoogleAuthURL(ctx)
	if err != nil {
		return "", fmt.Errorf("auth_service: google auth url: %w", err)
	}
	return u, nil
}

// ExchangeCode trades an OAuth authorization code for a gateway session.
func (s *AuthService) ExchangeCode(ctx context.Context, code string) (domain.Session, error) {
	res, err := s.client.ExchangeCode(ctx, code)
	if err != nil {
		return domain.Session{}, fmt.Errorf("auth_service: exchange code: %w", err)
	}
	return s.openSession(ctx, res)
}

// openSession persists and caches a fresh session for an authenticated user.
func (s *AuthService) openSession(ctx context.Context, res evmarket.AuthResult) (domain.Session, error) {
	if res.AccessToken == "" {
		return domain.Session{}, fmt.Errorf("auth_service: upstream returned no access token: %w", domain.ErrUnauthorized)
	}

	now := time.Now().UTC()
	session := domain.Session{
		ID:          uuid.New().String(),
		UserID:      res.User.ID,
		User:        res.User,
		AccessToken: res.AccessToken,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}

	userJSON, err := json.Marshal(session.User)
	if err != nil {
		return domain.Session{}, fmt.Errorf("auth_service: marshal user: %w", err)
	}

	sealed, err := s.sealer.SealString(session.AccessToken)
	if err != nil {
		return domain.Session{}, fmt.Errorf("auth_service: seal token: %w", err)
	}

	if err := s.sessions.Create(ctx, domain.SessionRecord{
		ID:          session.ID,
		UserID:      session.UserID,
		UserJSON:    userJSON,
		SealedToken: sealed,
		CreatedAt:   session.CreatedAt,
		ExpiresAt:   session.ExpiresAt,
	}); err != nil {
		return domain.Session{}, fmt.Errorf("auth_service: persist session: %w", err)
	}

	// Cache errors are non-fatal; the store remains the source of truth.
	if err := s.cache.Set(ctx, session, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "auth_service: session cache set failed",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "auth_service: session opened",
		slog.String("session_id", session.ID),
		slog.String("user_id", session.UserID),
	)
	return session, nil
}

// Authenticate resolves a session id to a live session, unsealing the token
// from the store on a cache miss. Expired sessions yield ErrSessionExpired,
// unknown ids ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, sessionID string) (domain.Session, error) {
	if sessionID == "" {
		return domain.Session{}, domain.ErrUnauthorized
	}

	now := time.Now().UTC()

	session, err := s.cache.Get(ctx, sessionID)
	if err == nil {
		if session.Expired(now) {
			return domain.Session{}, domain.ErrSessionExpired
		}
		return session, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "auth_service: session cache get failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	rec, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Session{}, domain.ErrUnauthorized
		}
		return domain.Session{}, fmt.Errorf("auth_service: load session: %w", err)
	}

	session = domain.Session{
		ID:        rec.ID,
		UserID:    rec.UserID,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}
	if session.Expired(now) {
		return domain.Session{}, domain.ErrSessionExpired
	}

	if err := json.Unmarshal(rec.UserJSON, &session.User); err != nil {
		return domain.Session{}, fmt.Errorf("auth_service: unmarshal user: %w", err)
	}

	token, err := s.sealer.OpenString(rec.SealedToken)
	if err != nil {
		return domain.Session{}, fmt.Errorf("auth_service: unseal token: %w", err)
	}
	session.AccessToken = token

	// Back-fill the cache for subsequent requests.
	if err := s.cache.Set(ctx, session, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "auth_service: session cache set failed",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}

	return session, nil
}

// Logout invalidates the upstream token and removes the gateway session. The
// local session dies even when the upstream call fails.
func (s *AuthService) Logout(ctx context.Context, session domain.Session) error {
	if _, err := s.client.Logout(ctx, session.AccessToken); err != nil {
		s.logger.WarnContext(ctx, "auth_service: upstream logout failed",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.cache.Invalidate(ctx, session.ID); err != nil {
		s.logger.WarnContext(ctx, "auth_service: session cache invalidate failed",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return fmt.Errorf("auth_service: delete session: %w", err)
	}

	s.logger.InfoContext(ctx, "auth_service: session closed",
		slog.String("session_id", session.ID),
	)
	return nil
}

// PurgeExpired removes sessions past their lifetime from the store. The
// monitor loop calls this periodically.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("auth_service: purge expired: %w", err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "auth_service: purged expired sessions",
			slog.Int64("count", n),
		)
	}
	return n, nil
}
