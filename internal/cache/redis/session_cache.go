package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/evmarket/evmarketd/internal/domain"
)

// SessionCache implements domain.SessionCache using Redis string keys with
// JSON-serialized sessions and a secondary user-to-session index.
//
// Key schema:
//
//	session:{id}          - JSON-encoded domain.Session
//	session:user:{userID} - string value of the session ID
type SessionCache struct {
	rdb *redis.Client
}

// NewSessionCache creates a SessionCache backed by the given Client.
func NewSessionCache(c *Client) *SessionCache {
	return &SessionCache{rdb: c.Underlying()}
}

func sessionKey(id string) string         { return "session:" + id }
func sessionUserKey(userID string) string { return "session:user:" + userID }

// Set stores a session with the given TTL and indexes it by user ID.
func (sc *SessionCache) Set(ctx context.Context, session domain.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis: marshal session %s: %w", session.ID, err)
	}

	pipe := sc.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, ttl)
	if session.UserID != "" {
		pipe.Set(ctx, sessionUserKey(session.UserID), session.ID, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set session %s: %w", session.ID, err)
	}
	return nil
}

// Get retrieves a session by its ID.
// It returns domain.ErrNotFound when the key does not exist.
func (sc *SessionCache) Get(ctx context.Context, id string) (domain.Session, error) {
	data, err := sc.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("redis: get session %s: %w", id, err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.Session{}, fmt.Errorf("redis: unmarshal session %s: %w", id, err)
	}
	return session, nil
}

// Invalidate removes a session and its user index entry.
func (sc *SessionCache) Invalidate(ctx context.Context, id string) error {
	// Read first so the reverse index can be cleaned up.
	session, err := sc.Get(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("redis: invalidate session %s: %w", id, err)
	}

	pipe := sc.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	if err == nil && session.UserID != "" {
		pipe.Del(ctx, sessionUserKey(session.UserID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: invalidate session %s: %w", id, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SessionCache = (*SessionCache)(nil)
