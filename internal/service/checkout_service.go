package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evmarket/evmarketd/internal/domain"
	"github.com/evmarket/evmarketd/internal/notify"
	"github.com/evmarket/evmarketd/internal/payment"
	"github.com/evmarket/evmarketd/internal/platform/evmarket"
)

// CheckoutService runs purchases end to end. Gateway payment methods hand the
// opaque payment info back to the UI; wallet payments are confirmed in-band
// and then polled to settlement. Outcomes land in the settlement store and on
// the signal bus, and fire notifications.
type CheckoutService struct {
	client      *evmarket.Client
	settlements domain.SettlementStore
	bus         domain.SignalBus
	locks       domain.LockManager
	notifier    *notify.Notifier
	pollCfg     payment.Config
	logger      *slog.Logger
}

// NewCheckoutService creates a CheckoutService with all required dependencies.
func NewCheckoutService(
	client *evmarket.Client,
	settlements domain.SettlementStore,
	bus domain.SignalBus,
	locks domain.LockManager,
	notifier *notify.Notifier,
	pollCfg payment.Config,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		client:      client,
		settlements: settlements,
		bus:         bus,
		locks:       locks,
		notifier:    notifier,
		pollCfg:     pollCfg,
		logger:      logger,
	}
}

// Purchase initiates a checkout. For gateway methods the result carries the
// payment handoff and settlement is left to the upstream webhook flow. For
// wallet payments the purchase is confirmed immediately and the settlement
// poll runs to completion before Purchase returns; the result's SettledStatus
// reports the observed outcome, including the pending-timeout variant.
func (s *CheckoutService) Purchase(
	ctx context.Context,
	session domain.Session,
	listingID string,
	listingType domain.ListingType,
	method domain.PaymentMethod,
) (domain.CheckoutResult, error) {
	data, err := s.client.Checkout(ctx, session.AccessToken, listingID, string(listingType), string(method))
	if err != nil {
		return domain.CheckoutResult{}, fmt.Errorf("checkout_service: checkout %s: %w", listingID, err)
	}

	result := domain.CheckoutResult{
		TransactionID: data.TransactionID,
		Message:       data.Message,
		Payment:       data.Payment,
	}

	if method != domain.PaymentMethodWallet {
		s.logger.InfoContext(ctx, "checkout_service: gateway checkout initiated",
			slog.String("transaction_id", data.TransactionID),
			slog.String("method", string(method)),
		)
		return result, nil
	}

	// Wallet payments settle in-band: confirm, then poll.
	if _, msg, err := s.client.PayWithWallet(ctx, session.AccessToken, data.TransactionID); err != nil {
		return result, fmt.Errorf("checkout_service: pay with wallet %s: %w", data.TransactionID, err)
	} else if msg != "" {
		result.Message = msg
	}

	outcome, err := s.settle(ctx, session, data.TransactionID, listingID, listingType)
	if err != nil {
		if errors.Is(err, domain.ErrSettlementFailed) {
			result.SettledStatus = outcome.Status
		}
		return result, err
	}

	result.SettledStatus = outcome.Status
	return result, nil
}

// settle polls the purchase history until the transaction reaches an outcome,
// holding a distributed lock so only one replica polls a given transaction.
func (s *CheckoutService) settle(
	ctx context.Context,
	session domain.Session,
	transactionID, listingID string,
	listingType domain.ListingType,
) (payment.Outcome, error) {
	// Lock for the full poll budget plus slack for the bookkeeping writes.
	lockTTL := time.Duration(s.pollCfg.MaxAttempts+1) * s.pollCfg.Interval
	unlock, err := s.locks.Acquire(ctx, "settlement:"+transactionID, lockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			s.logger.InfoContext(ctx, "checkout_service: settlement poll already running elsewhere",
				slog.String("transaction_id", transactionID),
			)
			return payment.Outcome{Status: domain.TxStatusPending}, nil
		}
		return payment.Outcome{}, fmt.Errorf("checkout_service: settlement lock %s: %w", transactionID, err)
	}
	defer unlock()

	fetch := func(ctx context.Context, page, limit int) ([]domain.PurchaseTransaction, error) {
		history, err := s.client.GetMyPurchases(ctx, session.AccessToken, page, limit)
		if err != nil {
			return nil, err
		}
		return history.Items, nil
	}

	poller := payment.NewPoller(fetch, s.pollCfg, s.logger)
	outcome, pollErr := poller.PollUntilSettled(ctx, transactionID)

	// Transport aborts carry no observation; there is nothing to record.
	if pollErr != nil && !errors.Is(pollErr, domain.ErrSettlementFailed) {
		return payment.Outcome{}, fmt.Errorf("checkout_service: %w", pollErr)
	}

	s.recordOutcome(ctx, domain.Settlement{
		TransactionID: transactionID,
		ListingID:     listingID,
		ListingType:   string(listingType),
		Method:        domain.PaymentMethodWallet,
		Status:        outcome.Status,
		Attempts:      outcome.Attempts,
		SettledAt:     time.Now().UTC(),
	})

	if pollErr != nil {
		return outcome, fmt.Errorf("checkout_service: %w", pollErr)
	}
	return outcome, nil
}

// recordOutcome persists a settlement, publishes it on the signal bus (both
// the live channel and the durable stream), and fires notifications. Each
// step is best-effort; the poll outcome has already been decided.
func (s *CheckoutService) recordOutcome(ctx context.Context, settlement domain.Settlement) {
	if err := s.settlements.Insert(ctx, settlement); err != nil {
		s.logger.ErrorContext(ctx, "checkout_service: settlement insert failed",
			slog.String("transaction_id", settlement.TransactionID),
			slog.String("error", err.Error()),
		)
	}

	event := domain.SettlementEvent{
		TransactionID: settlement.TransactionID,
		ListingID:     settlement.ListingID,
		Status:        settlement.Status,
		Attempts:      settlement.Attempts,
		At:            settlement.SettledAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.ErrorContext(ctx, "checkout_service: marshal settlement event failed",
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.bus.Publish(ctx, domain.ChannelSettlements, payload); err != nil {
		s.logger.WarnContext(ctx, "checkout_service: settlement publish failed",
			slog.String("error", err.Error()),
		)
	}
	if err := s.bus.StreamAppend(ctx, domain.ChannelSettlements, payload); err != nil {
		s.logger.WarnContext(ctx, "checkout_service: settlement stream append failed",
			slog.String("error", err.Error()),
		)
	}

	if err := s.notifier.NotifySettlement(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "checkout_service: settlement notify failed",
			slog.String("error", err.Error()),
		)
	}
}

// Purchases returns one page of the caller's purchase history.
func (s *CheckoutService) Purchases(ctx context.Context, session domain.Session, page, limit int) (domain.Page[domain.PurchaseTransaction], error) {
	history, err := s.client.GetMyPurchases(ctx, session.AccessToken, page, limit)
	if err != nil {
		return domain.Page[domain.PurchaseTransaction]{}, fmt.Errorf("checkout_service: purchases: %w", err)
	}
	return history, nil
}

// Transaction returns a single purchase transaction.
func (s *CheckoutService) Transaction(ctx context.Context, session domain.Session, transactionID string) (domain.PurchaseTransaction, error) {
	tx, err := s.client.GetTransaction(ctx, session.AccessToken, transactionID)
	if err != nil {
		return domain.PurchaseTransaction{}, fmt.Errorf("checkout_service: transaction %s: %w", transactionID, err)
	}
	return tx, nil
}

// RecentSettlements lists the latest locally recorded settlement outcomes.
func (s *CheckoutService) RecentSettlements(ctx context.Context, limit int) ([]domain.Settlement, error) {
	out, err := s.settlements.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("checkout_service: recent settlements: %w", err)
	}
	return out, nil
}

// SettlementStats aggregates settlement outcomes by status since a point in
// time.
func (s *CheckoutService) SettlementStats(ctx context.Context, since time.Time) (map[string]int64, error) {
	stats, err := s.settlements.CountByStatus(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("checkout_service: settlement stats: %w", err)
	}
	return stats, nil
}
