package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// SessionRecord is a session row as persisted, with the access token sealed.
type SessionRecord struct {
	ID          string
	UserID      string
	UserJSON    []byte
	SealedToken []byte
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// SessionStore persists gateway sessions.
type SessionStore interface {
	Create(ctx context.Context, rec SessionRecord) error
	GetByID(ctx context.Context, id string) (SessionRecord, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SettlementStore persists settlement outcomes for audit.
type SettlementStore interface {
	Insert(ctx context.Context, s Settlement) error
	GetByTransactionID(ctx context.Context, txID string) (Settlement, error)
	ListRecent(ctx context.Context, limit int) ([]Settlement, error)
	CountByStatus(ctx context.Context, since time.Time) (map[string]int64, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
