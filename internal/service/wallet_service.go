package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evmarket/evmarketd/internal/domain"
	"github.com/evmarket/evmarketd/internal/platform/evmarket"
)

// WalletService fronts the upstream wallet endpoints and records money
// movements in the audit log.
type WalletService struct {
	client *evmarket.Client
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewWalletService creates a WalletService.
func NewWalletService(client *evmarket.Client, audit domain.AuditStore, logger *slog.Logger) *WalletService {
	return &WalletService{client: client, audit: audit, logger: logger}
}

// Balance returns the caller's wallet state.
func (s *WalletService) Balance(ctx context.Context, session domain.Session) (domain.WalletBalance, error) {
	b, err := s.client.GetWalletBalance(ctx, session.AccessToken)
	if err != nil {
		return domain.WalletBalance{}, fmt.Errorf("wallet_service: balance: %w", err)
	}
	return b, nil
}

// History returns one page of the wallet ledger.
func (s *WalletService) History(ctx context.Context, session domain.Session, page, limit int) (domain.Page[domain.WalletTransaction], error) {
	h, err := s.client.GetWalletHistory(ctx, session.AccessToken, page, limit)
	if err != nil {
		return domain.Page[domain.WalletTransaction]{}, fmt.Errorf("wallet_service: history: %w", err)
	}
	return h, nil
}

// Deposit initiates a gateway top-up and relays the opaque payment handoff to
// the UI client.
func (s *WalletService) Deposit(ctx context.Context, session domain.Session, amount int64) (*domain.GatewayPayment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("wallet_service: deposit amount must be positive: %w", domain.ErrInvalidListing)
	}

	payment, err := s.client.Deposit(ctx, session.AccessToken, amount)
	if err != nil {
		return nil, fmt.Errorf("wallet_service: deposit: %w", err)
	}

	if err := s.audit.Log(ctx, "wallet.deposit_initiated", map[string]any{
		"user_id": session.UserID,
		"amount":  amount,
	}); err != nil {
		s.logger.WarnContext(ctx, "wallet_service: audit log failed",
			slog.String("error", err.Error()),
		)
	}
	return payment, nil
}

// Withdraw requests a payout from the wallet.
func (s *WalletService) Withdraw(ctx context.Context, session domain.Session, amount int64) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("wallet_service: withdraw amount must be positive: %w", domain.ErrInvalidListing)
	}

	msg, err := s.client.Withdraw(ctx, session.AccessToken, amount)
	if err != nil {
		return "", fmt.Errorf("wallet_service: withdraw: %w", err)
	}

	if err := s.audit.Log(ctx, "wallet.withdraw_requested", map[string]any{
		"user_id": session.UserID,
		"amount":  amount,
	}); err != nil {
		s.logger.WarnContext(ctx, "wallet_service: audit log failed",
			slog.String("error", err.Error()),
		)
	}
	return msg, nil
}
