package notify

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/peterldowns/testy/check"

	"github.com/evmarket/evmarketd/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// captureSender records everything sent through it.
type captureSender struct {
	titles   []string
	messages []string
}

func (s *captureSender) Send(ctx context.Context, title, message string) error {
	s.titles = append(s.titles, title)
	s.messages = append(s.messages, message)
	return nil
}

func (s *captureSender) Name() string { return "capture" }

func TestSettlementEventType(t *testing.T) {
	cases := []struct {
		status string
		want   string
	}{
		{domain.TxStatusCompleted, EventSettlementCompleted},
		{domain.TxStatusCancelled, EventSettlementFailed},
		{domain.TxStatusFailed, EventSettlementFailed},
		{domain.TxStatusPendingTimeout, EventSettlementTimeout},
		{"SOMETHING_NEW", EventSettlementError},
	}
	for _, tc := range cases {
		check.Equal(t, tc.want, SettlementEventType(tc.status))
	}
}

func TestNotifySettlementFormatsMessage(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier([]Sender{sender}, nil, discardLogger())

	err := n.NotifySettlement(context.Background(), domain.SettlementEvent{
		TransactionID: "tx-9",
		ListingID:     "listing-9",
		Status:        domain.TxStatusCompleted,
		Attempts:      3,
	})
	check.Nil(t, err)
	check.Equal(t, 1, len(sender.messages))
	check.Equal(t, "Payment settled", sender.titles[0])
	check.True(t, strings.Contains(sender.messages[0], "tx-9"))
	check.True(t, strings.Contains(sender.messages[0], "3 attempt(s)"))
	check.True(t, strings.Contains(sender.messages[0], "listing-9"))
}

func TestNotifySettlementRespectsEventFilter(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier([]Sender{sender}, []string{EventSettlementFailed}, discardLogger())

	// Completed is filtered out.
	check.Nil(t, n.NotifySettlement(context.Background(), domain.SettlementEvent{
		TransactionID: "tx-1",
		Status:        domain.TxStatusCompleted,
	}))
	check.Equal(t, 0, len(sender.messages))

	// Failed passes.
	check.Nil(t, n.NotifySettlement(context.Background(), domain.SettlementEvent{
		TransactionID: "tx-2",
		Status:        domain.TxStatusFailed,
	}))
	check.Equal(t, 1, len(sender.messages))
	check.Equal(t, "Payment failed", sender.titles[0])
}
