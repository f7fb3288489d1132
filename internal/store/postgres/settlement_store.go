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

// SettlementStore implements domain.SettlementStore using PostgreSQL.
type SettlementStore struct {
	pool *pgxpool.Pool
}

// NewSettlementStore creates a new SettlementStore backed by the given
// connection pool.
func NewSettlementStore(pool *pgxpool.Pool) *SettlementStore {
	return &SettlementStore{pool: pool}
}

// Insert records one settlement outcome. Re-polling the same transaction
// overwrites the previous outcome, since a later observation is strictly more
// settled than an earlier one.
func (s *SettlementStore) Insert(ctx context.Context, st domain.Settlement) error {
	const query = `
		INSERT INTO settlements (transaction_id, listing_id, listing_type, method, status, attempts, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (transaction_id) DO UPDATE SET
			status     = EXCLUDED.status,
			attempts   = EXCLUDED.attempts,
			settled_at = EXCLUDED.settled_at`

	_, err := s.pool.Exec(ctx, query,
		st.TransactionID, st.ListingID, st.ListingType, string(st.Method), st.Status, st.Attempts, st.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert settlement %s: %w", st.TransactionID, err)
	}
	return nil
}

// GetByTransactionID returns one settlement, or domain.ErrNotFound.
func (s *SettlementStore) GetByTransactionID(ctx context.Context, txID string) (domain.Settlement, error) {
	const query = `
		SELECT transaction_id, listing_id, listing_type, method, status, attempts, settled_at
		FROM settlements WHERE transaction_id = $1`

	var st domain.Settlement
	var method string
	err := s.pool.QueryRow(ctx, query, txID).Scan(
		&st.TransactionID, &st.ListingID, &st.ListingType, &method, &st.Status, &st.Attempts, &st.SettledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Settlement{}, fmt.Errorf("postgres: settlement %s: %w", txID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Settlement{}, fmt.Errorf("postgres: get settlement %s: %w", txID, err)
	}
	st.Method = domain.PaymentMethod(method)
	return st, nil
}

// ListRecent returns the most recently settled transactions.
func (s *SettlementStore) ListRecent(ctx context.Context, limit int) ([]domain.Settlement, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT transaction_id, listing_id, listing_type, method, status, attempts, settled_at
		FROM settlements ORDER BY settled_at DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list settlements: %w", err)
	}
	defer rows.Close()

	var out []domain.Settlement
	for rows.Next() {
		var st domain.Settlement
		var method string
		if err := rows.Scan(&st.TransactionID, &st.ListingID, &st.ListingType, &method, &st.Status, &st.Attempts, &st.SettledAt); err != nil {
			return nil, fmt.Errorf("postgres: scan settlement: %w", err)
		}
		st.Method = domain.PaymentMethod(method)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list settlements rows: %w", err)
	}
	return out, nil
}

// CountByStatus aggregates settlement outcomes since the given time.
func (s *SettlementStore) CountByStatus(ctx context.Context, since time.Time) (map[string]int64, error) {
	const query = `
		SELECT status, COUNT(*) FROM settlements
		WHERE settled_at >= $1 GROUP BY status`

	rows, err := s.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("postgres: count settlements: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("postgres: scan settlement count: %w", err)
		}
		out[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: count settlements rows: %w", err)
	}
	return out, nil
}
