package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evmarket/evmarketd/internal/domain"
)

// SessionStore implements domain.SessionStore using PostgreSQL. It is the
// durable source of truth for sessions; the Redis cache fronts it.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore creates a new SessionStore backed by the given connection pool.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// Create inserts a session row.
func (s *SessionStore) Create(ctx context.Context, rec domain.SessionRecord) error {
	const query = `
		INSERT INTO sessions (id, user_id, user_json, sealed_token, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.UserID, rec.UserJSON, rec.SealedToken, rec.CreatedAt, rec.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create session %s: %w", rec.ID, err)
	}
	return nil
}

// GetByID returns one session row, or domain.ErrNotFound.
func (s *SessionStore) GetByID(ctx context.Context, id string) (domain.SessionRecord, error) {
	const query = `
		SELECT id, user_id, user_json, sealed_token, created_at, expires_at
		FROM sessions WHERE id = $1`

	var rec domain.SessionRecord
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.UserID, &rec.UserJSON, &rec.SealedToken, &rec.CreatedAt, &rec.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SessionRecord{}, fmt.Errorf("postgres: session %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.SessionRecord{}, fmt.Errorf("postgres: get session %s: %w", id, err)
	}
	return rec, nil
}

// Delete removes a session row. Deleting a missing session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete session %s: %w", id, err)
	}
	return nil
}

// DeleteExpired removes sessions past their expiry and returns the count.
func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
