package notify

import (
	"context"
	"fmt"

	"github.com/evmarket/evmarketd/internal/domain"
)

// Event type names used for notification filtering.
const (
	EventSettlementCompleted = "settlement_completed"
	EventSettlementFailed    = "settlement_failed"
	EventSettlementTimeout   = "settlement_timeout"
	EventSettlementError     = "settlement_error"
)

// SettlementEventType maps a settlement status to its notification event type.
func SettlementEventType(status string) string {
	switch status {
	case domain.TxStatusCompleted:
		return EventSettlementCompleted
	case domain.TxStatusCancelled, domain.TxStatusFailed:
		return EventSettlementFailed
	case domain.TxStatusPendingTimeout:
		return EventSettlementTimeout
	default:
		return EventSettlementError
	}
}

// NotifySettlement formats a settlement event and dispatches it through the
// notifier's event filter.
func (n *Notifier) NotifySettlement(ctx context.Context, ev domain.SettlementEvent) error {
	event := SettlementEventType(ev.Status)

	var title string
	switch event {
	case EventSettlementCompleted:
		title = "Payment settled"
	case EventSettlementFailed:
		title = "Payment failed"
	case EventSettlementTimeout:
		title = "Payment still pending"
	default:
		title = "Payment settlement error"
	}

	message := fmt.Sprintf(
		"Transaction %s: %s after %d attempt(s)",
		ev.TransactionID, ev.Status, ev.Attempts,
	)
	if ev.ListingID != "" {
		message += fmt.Sprintf("\nListing: %s", ev.ListingID)
	}

	return n.Notify(ctx, event, title, message)
}
