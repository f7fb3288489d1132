package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/peterldowns/testy/check"

	"github.com/evmarket/evmarketd/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedFetcher returns one canned history page per call.
type scriptedFetcher struct {
	pages  [][]domain.PurchaseTransaction
	err    error
	calls  int
}

func (f *scriptedFetcher) fetch(ctx context.Context, page, limit int) ([]domain.PurchaseTransaction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.calls <= len(f.pages) {
		return f.pages[f.calls-1], nil
	}
	return nil, nil
}

func newTestPoller(fetch FetchHistory, cfg Config) (*Poller, *int) {
	p := NewPoller(fetch, cfg, discardLogger())
	waits := 0
	p.sleep = func(ctx context.Context, d time.Duration) error {
		waits++
		return nil
	}
	return p, &waits
}

func tx(id, status string) domain.PurchaseTransaction {
	return domain.PurchaseTransaction{ID: id, Status: status}
}

func TestNextTransitions(t *testing.T) {
	cases := []struct {
		name         string
		obs          Observation
		attemptsLeft int
		wantPhase    Phase
		wantStatus   string
	}{
		{"completed", Observation{Found: true, Status: "COMPLETED"}, 5, PhaseSettledSuccess, "COMPLETED"},
		{"completed last attempt", Observation{Found: true, Status: "COMPLETED"}, 0, PhaseSettledSuccess, "COMPLETED"},
		{"cancelled", Observation{Found: true, Status: "CANCELLED"}, 5, PhaseSettledFailure, "CANCELLED"},
		{"failed", Observation{Found: true, Status: "FAILED"}, 0, PhaseSettledFailure, "FAILED"},
		{"pending keeps probing", Observation{Found: true, Status: "PENDING"}, 3, PhaseProbing, "PENDING"},
		{"processing keeps probing", Observation{Found: true, Status: "PROCESSING"}, 1, PhaseProbing, "PROCESSING"},
		{"unknown status keeps probing", Observation{Found: true, Status: "ON_HOLD"}, 2, PhaseProbing, "ON_HOLD"},
		{"not found keeps probing", Observation{}, 4, PhaseProbing, ""},
		{"pending exhausts", Observation{Found: true, Status: "PENDING"}, 0, PhaseExhausted, "PENDING_TIMEOUT"},
		{"not found exhausts", Observation{}, 0, PhaseExhausted, "PENDING_TIMEOUT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := Next(tc.obs, tc.attemptsLeft)
			check.Equal(t, tc.wantPhase, tr.Phase)
			check.Equal(t, tc.wantStatus, tr.Status)
		})
	}
}

func TestObserve(t *testing.T) {
	page := []domain.PurchaseTransaction{
		tx("tx-1", "COMPLETED"),
		tx("tx-2", "PENDING"),
	}

	obs := Observe(page, "tx-2")
	check.True(t, obs.Found)
	check.Equal(t, "PENDING", obs.Status)

	obs = Observe(page, "tx-404")
	check.False(t, obs.Found)
}

func TestPollCompletedOnThirdAttempt(t *testing.T) {
	f := &scriptedFetcher{pages: [][]domain.PurchaseTransaction{
		{tx("tx-1", "PENDING")},
		{tx("tx-1", "PROCESSING")},
		{tx("tx-1", "COMPLETED")},
	}}
	p, waits := newTestPoller(f.fetch, Config{})

	out, err := p.PollUntilSettled(context.Background(), "tx-1")
	check.Nil(t, err)
	check.Equal(t, "COMPLETED", out.Status)
	check.Equal(t, 3, out.Attempts)
	check.False(t, out.TimedOut)
	check.Equal(t, 3, f.calls)
	check.Equal(t, 2, *waits)
}

func TestPollNeverFoundExhaustsBudget(t *testing.T) {
	f := &scriptedFetcher{}
	p, waits := newTestPoller(f.fetch, Config{})

	out, err := p.PollUntilSettled(context.Background(), "tx-ghost")
	check.Nil(t, err)
	check.True(t, out.TimedOut)
	check.Equal(t, "PENDING_TIMEOUT", out.Status)
	check.Equal(t, 10, out.Attempts)
	check.Equal(t, 10, f.calls)
	// No wait after the final attempt.
	check.Equal(t, 9, *waits)
}

func TestPollCancelledFailsImmediately(t *testing.T) {
	f := &scriptedFetcher{pages: [][]domain.PurchaseTransaction{
		{tx("tx-1", "CANCELLED")},
	}}
	p, waits := newTestPoller(f.fetch, Config{})

	out, err := p.PollUntilSettled(context.Background(), "tx-1")
	check.NotNil(t, err)
	check.True(t, errors.Is(err, domain.ErrSettlementFailed))
	check.Equal(t, "CANCELLED", out.Status)
	check.Equal(t, 1, out.Attempts)
	check.Equal(t, 1, f.calls)
	check.Equal(t, 0, *waits)
}

func TestPollTransportErrorAborts(t *testing.T) {
	boom := errors.New("connection reset")
	f := &scriptedFetcher{err: boom}
	p, waits := newTestPoller(f.fetch, Config{})

	_, err := p.PollUntilSettled(context.Background(), "tx-1")
	check.NotNil(t, err)
	check.True(t, errors.Is(err, boom))
	check.Equal(t, 1, f.calls)
	check.Equal(t, 0, *waits)
}

func TestPollTransportErrorMidPollAborts(t *testing.T) {
	boom := errors.New("gateway timeout")
	calls := 0
	fetch := func(ctx context.Context, page, limit int) ([]domain.PurchaseTransaction, error) {
		calls++
		if calls == 2 {
			return nil, boom
		}
		return []domain.PurchaseTransaction{tx("tx-1", "PENDING")}, nil
	}
	p, _ := newTestPoller(fetch, Config{})

	_, err := p.PollUntilSettled(context.Background(), "tx-1")
	check.NotNil(t, err)
	check.True(t, errors.Is(err, boom))
	check.Equal(t, 2, calls)
}

func TestPollRespectsCustomBudget(t *testing.T) {
	f := &scriptedFetcher{}
	p, waits := newTestPoller(f.fetch, Config{MaxAttempts: 3, Interval: time.Millisecond})

	out, err := p.PollUntilSettled(context.Background(), "tx-1")
	check.Nil(t, err)
	check.True(t, out.TimedOut)
	check.Equal(t, 3, f.calls)
	check.Equal(t, 2, *waits)
}

func TestPollCancellationAbortsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &scriptedFetcher{pages: [][]domain.PurchaseTransaction{
		{tx("tx-1", "PENDING")},
	}}
	p := NewPoller(f.fetch, Config{Interval: time.Hour}, discardLogger())
	cancel()

	_, err := p.PollUntilSettled(ctx, "tx-1")
	check.NotNil(t, err)
	check.True(t, errors.Is(err, context.Canceled))
	check.Equal(t, 1, f.calls)
}
