// Package payment waits for a checkout transaction to settle. The upstream
// settles asynchronously, so after initiating payment the gateway short-polls
// the buyer's purchase history until a terminal status shows up or the retry
// budget runs out.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/evmarket/evmarketd/internal/domain"
)

const (
	// DefaultMaxAttempts x DefaultInterval bounds a poll at 30 seconds.
	DefaultMaxAttempts = 10
	DefaultInterval    = 3 * time.Second

	// The transaction is expected on the most recent history page.
	historyPage     = 1
	historyPageSize = 20
)

// Phase is the poll state after one observation.
type Phase int

const (
	PhaseProbing Phase = iota
	PhaseSettledSuccess
	PhaseSettledFailure
	PhaseExhausted
)

// Observation is what one history fetch revealed about the transaction.
type Observation struct {
	Found  bool
	Status string
}

// Transition is the decision for one observation: which phase the poll moves
// to and the status it carries.
type Transition struct {
	Phase  Phase
	Status string
}

// Next is the pure transition function. attemptsLeft counts attempts
// remaining after the current one; when it hits zero with no terminal status
// the poll exhausts into the distinguished pending-timeout outcome, which is
// a success variant rather than a failure. Statuses outside the known set are
// treated as non-terminal.
func Next(obs Observation, attemptsLeft int) Transition {
	if obs.Found {
		switch obs.Status {
		case domain.TxStatusCompleted:
			return Transition{Phase: PhaseSettledSuccess, Status: obs.Status}
		case domain.TxStatusCancelled, domain.TxStatusFailed:
			return Transition{Phase: PhaseSettledFailure, Status: obs.Status}
		}
	}
	if attemptsLeft > 0 {
		return Transition{Phase: PhaseProbing, Status: obs.Status}
	}
	return Transition{Phase: PhaseExhausted, Status: domain.TxStatusPendingTimeout}
}

// Observe searches one history page for the transaction.
func Observe(page []domain.PurchaseTransaction, transactionID string) Observation {
	for i := range page {
		if page[i].ID == transactionID {
			return Observation{Found: true, Status: page[i].Status}
		}
	}
	return Observation{}
}

// FetchHistory returns one page of the buyer's purchase history.
type FetchHistory func(ctx context.Context, page, limit int) ([]domain.PurchaseTransaction, error)

// Outcome is the final result of a poll.
type Outcome struct {
	Status   string
	Attempts int
	// TimedOut marks the pending-timeout success variant: no terminal status
	// was observed but the transaction may still settle server-side.
	TimedOut bool
}

// Poller drives the transition function against a live history fetcher.
type Poller struct {
	fetch       FetchHistory
	logger      *slog.Logger
	maxAttempts int
	interval    time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// Config bounds one poll. Zero values fall back to the defaults.
type Config struct {
	MaxAttempts int
	Interval    time.Duration
}

// NewPoller creates a settlement poller.
func NewPoller(fetch FetchHistory, cfg Config, logger *slog.Logger) *Poller {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Poller{
		fetch:       fetch,
		logger:      logger,
		maxAttempts: cfg.MaxAttempts,
		interval:    cfg.Interval,
		sleep:       sleepCtx,
	}
}

// PollUntilSettled polls until the transaction reaches a terminal status or
// the attempt budget runs out. There is no wait after the final attempt.
//
// Returns:
//   - (outcome, nil) on COMPLETED, or on exhaustion with TimedOut set;
//   - (outcome, ErrSettlementFailed-wrapped) on CANCELLED or FAILED;
//   - (zero, err) when a fetch fails; transport errors abort immediately and
//     are never retried here.
func (p *Poller) PollUntilSettled(ctx context.Context, transactionID string) (Outcome, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		page, err := p.fetch(ctx, historyPage, historyPageSize)
		if err != nil {
			return Outcome{}, fmt.Errorf("payment: poll %s attempt %d: %w", transactionID, attempt, err)
		}

		obs := Observe(page, transactionID)
		tr := Next(obs, p.maxAttempts-attempt)

		switch tr.Phase {
		case PhaseSettledSuccess:
			p.logger.Info("transaction settled",
				slog.String("transaction_id", transactionID),
				slog.Int("attempts", attempt))
			return Outcome{Status: tr.Status, Attempts: attempt}, nil

		case PhaseSettledFailure:
			p.logger.Warn("transaction settlement failed",
				slog.String("transaction_id", transactionID),
				slog.String("status", tr.Status),
				slog.Int("attempts", attempt))
			return Outcome{Status: tr.Status, Attempts: attempt},
				fmt.Errorf("payment: transaction %s: %w: %s", transactionID, domain.ErrSettlementFailed, tr.Status)

		case PhaseExhausted:
			p.logger.Warn("settlement poll exhausted, transaction presumed in flight",
				slog.String("transaction_id", transactionID),
				slog.Int("attempts", attempt))
			return Outcome{Status: tr.Status, Attempts: attempt, TimedOut: true}, nil
		}

		if err := p.sleep(ctx, p.interval); err != nil {
			return Outcome{}, fmt.Errorf("payment: poll %s: %w", transactionID, err)
		}
	}

	// Unreachable: the final attempt always transitions to a terminal phase.
	return Outcome{Status: domain.TxStatusPendingTimeout, Attempts: p.maxAttempts, TimedOut: true}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
