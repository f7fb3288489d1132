package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/evmarket/evmarketd/internal/domain"
)

// CheckoutService is the slice of the checkout service this handler needs.
type CheckoutService interface {
	Purchase(ctx context.Context, session domain.Session, listingID string, listingType domain.ListingType, method domain.PaymentMethod) (domain.CheckoutResult, error)
	Purchases(ctx context.Context, session domain.Session, page, limit int) (domain.Page[domain.PurchaseTransaction], error)
	Transaction(ctx context.Context, session domain.Session, transactionID string) (domain.PurchaseTransaction, error)
	RecentSettlements(ctx context.Context, limit int) ([]domain.Settlement, error)
	SettlementStats(ctx context.Context, since time.Time) (map[string]int64, error)
}

// CheckoutHandler serves purchase and settlement endpoints.
type CheckoutHandler struct {
	checkout CheckoutService
	logger   *slog.Logger
}

// NewCheckoutHandler creates a CheckoutHandler.
func NewCheckoutHandler(checkout CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, logger: logger}
}

// Purchase initiates a checkout. Wallet payments block until the settlement
// poll finishes, so the response carries the settled status.
// POST /api/checkout
func (h *CheckoutHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	var req struct {
		ListingID     string `json:"listingId"`
		ListingType   string `json:"listingType"`
		PaymentMethod string `json:"paymentMethod"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ListingID == "" {
		writeError(w, http.StatusBadRequest, "listingId is required")
		return
	}

	var listingType domain.ListingType
	switch req.ListingType {
	case string(domain.ListingTypeVehicle):
		listingType = domain.ListingTypeVehicle
	case string(domain.ListingTypeBattery):
		listingType = domain.ListingTypeBattery
	default:
		writeError(w, http.StatusBadRequest, "listingType must be VEHICLE or BATTERY")
		return
	}

	method := domain.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = domain.PaymentMethodWallet
	}

	result, err := h.checkout.Purchase(r.Context(), s, req.ListingID, listingType, method)
	if err != nil {
		// A failed settlement still carries the transaction context; return
		// the result alongside the error status.
		if errors.Is(err, domain.ErrSettlementFailed) {
			h.logger.WarnContext(r.Context(), "handler: settlement failed",
				slog.String("transaction_id", result.TransactionID),
				slog.String("status", result.SettledStatus),
			)
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":  "settlement failed",
				"result": result,
			})
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: purchase failed",
			slog.String("listing_id", req.ListingID),
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "purchase failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Purchases returns one page of the caller's purchase history.
// GET /api/transactions/me?page=1&limit=20
func (h *CheckoutHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	page, limit := parsePage(r)

	out, err := h.checkout.Purchases(r.Context(), s, page, limit)
	if err != nil {
		writeServiceError(w, err, "failed to get purchase history")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Transaction returns a single purchase transaction.
// GET /api/transactions/{transactionId}
func (h *CheckoutHandler) Transaction(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	transactionID := pathParam(r, "transactionId")
	if transactionID == "" {
		writeError(w, http.StatusBadRequest, "missing transaction id")
		return
	}

	tx, err := h.checkout.Transaction(r.Context(), s, transactionID)
	if err != nil {
		writeServiceError(w, err, "failed to get transaction")
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// RecentSettlements lists the latest locally recorded settlement outcomes.
// GET /api/settlements/recent?limit=50
func (h *CheckoutHandler) RecentSettlements(w http.ResponseWriter, r *http.Request) {
	if _, ok := session(w, r); !ok {
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	out, err := h.checkout.RecentSettlements(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err, "failed to list settlements")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlements": out})
}

// SettlementStats aggregates settlement outcomes by status.
// GET /api/settlements/stats?since=24h
func (h *CheckoutHandler) SettlementStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := session(w, r); !ok {
		return
	}

	window := 24 * time.Hour
	if v := r.URL.Query().Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "since must be a positive duration")
			return
		}
		window = d
	}

	stats, err := h.checkout.SettlementStats(r.Context(), time.Now().UTC().Add(-window))
	if err != nil {
		writeServiceError(w, err, "failed to get settlement stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"counts": stats})
}
