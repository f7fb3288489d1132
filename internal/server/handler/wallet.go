package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/evmarket/evmarketd/internal/domain"
)

// WalletService is the slice of the wallet service this handler needs.
type WalletService interface {
	Balance(ctx context.Context, session domain.Session) (domain.WalletBalance, error)
	History(ctx context.Context, session domain.Session, page, limit int) (domain.Page[domain.WalletTransaction], error)
	Deposit(ctx context.Context, session domain.Session, amount int64) (*domain.GatewayPayment, error)
	Withdraw(ctx context.Context, session domain.Session, amount int64) (string, error)
}

// WalletHandler serves the wallet endpoints.
type WalletHandler struct {
	wallet WalletService
	logger *slog.Logger
}

// NewWalletHandler creates a WalletHandler.
func NewWalletHandler(wallet WalletService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{wallet: wallet, logger: logger}
}

// Balance returns the caller's wallet state.
// GET /api/wallet
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	b, err := h.wallet.Balance(r.Context(), s)
	if err != nil {
		writeServiceError(w, err, "failed to get wallet balance")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// History returns one page of the wallet ledger.
// GET /api/wallet/history?page=1&limit=20
func (h *WalletHandler) History(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	page, limit := parsePage(r)

	out, err := h.wallet.History(r.Context(), s, page, limit)
	if err != nil {
		writeServiceError(w, err, "failed to get wallet history")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Deposit initiates a gateway top-up.
// POST /api/wallet/deposit
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payment, err := h.wallet.Deposit(r.Context(), s, req.Amount)
	if err != nil {
		h.logger.WarnContext(r.Context(), "handler: wallet deposit failed",
			slog.String("user_id", s.UserID),
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "failed to initiate deposit")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payment": payment})
}

// Withdraw requests a payout from the wallet.
// POST /api/wallet/withdraw
func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.wallet.Withdraw(r.Context(), s, req.Amount)
	if err != nil {
		h.logger.WarnContext(r.Context(), "handler: wallet withdraw failed",
			slog.String("user_id", s.UserID),
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "failed to request withdrawal")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}
