package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/evmarket/evmarketd/internal/domain"
)

// AuctionService is the slice of the auction service this handler needs.
type AuctionService interface {
	ListLive(ctx context.Context, token, timeWindow string) ([]domain.AuctionSummary, error)
	GetDetail(ctx context.Context, token string, listingType domain.ListingType, listingID string) (domain.AuctionSummary, error)
	GetStatus(ctx context.Context, token string, listingType domain.ListingType, listingID string) (*domain.AuctionStatus, error)
	PlaceDeposit(ctx context.Context, token string, listingType domain.ListingType, listingID string) (domain.DepositResult, error)
	PlaceBid(ctx context.Context, token string, listingType domain.ListingType, listingID string, amount int64) (domain.BidResult, error)
}

// AuctionHandler serves the auction endpoints.
type AuctionHandler struct {
	auctions AuctionService
	logger   *slog.Logger
}

// NewAuctionHandler creates an AuctionHandler.
func NewAuctionHandler(auctions AuctionService, logger *slog.Logger) *AuctionHandler {
	return &AuctionHandler{auctions: auctions, logger: logger}
}

// ListLive returns the normalized live-auction feed.
// GET /api/auctions/live?time=current
func (h *AuctionHandler) ListLive(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	timeWindow := r.URL.Query().Get("time")
	auctions, err := h.auctions.ListLive(r.Context(), s.AccessToken, timeWindow)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list live auctions failed",
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "failed to list live auctions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"auctions": auctions,
		"count":    len(auctions),
	})
}

// GetDetail returns one normalized auction summary.
// GET /api/auctions/{listingType}/{listingId}
func (h *AuctionHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	listingType, ok := listingTypeParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown listing type")
		return
	}
	listingID := pathParam(r, "listingId")
	if listingID == "" {
		writeError(w, http.StatusBadRequest, "missing listing id")
		return
	}

	summary, err := h.auctions.GetDetail(r.Context(), s.AccessToken, listingType, listingID)
	if err != nil {
		writeServiceError(w, err, "failed to get auction")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetStatus returns the caller's standing in one auction.
// GET /api/auctions/{listingType}/{listingId}/status
func (h *AuctionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	listingType, ok := listingTypeParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown listing type")
		return
	}
	listingID := pathParam(r, "listingId")

	status, err := h.auctions.GetStatus(r.Context(), s.AccessToken, listingType, listingID)
	if err != nil {
		writeServiceError(w, err, "failed to get auction status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// PlaceDeposit places the auction participation deposit.
// POST /api/auctions/{listingType}/{listingId}/deposit
func (h *AuctionHandler) PlaceDeposit(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	listingType, ok := listingTypeParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown listing type")
		return
	}
	listingID := pathParam(r, "listingId")

	result, err := h.auctions.PlaceDeposit(r.Context(), s.AccessToken, listingType, listingID)
	if err != nil {
		writeServiceError(w, err, "failed to place deposit")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": result.Message,
		"status":  result.Status,
	})
}

// PlaceBid submits a bid on an auction.
// POST /api/auctions/{listingType}/{listingId}/bids
func (h *AuctionHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	listingType, ok := listingTypeParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown listing type")
		return
	}
	listingID := pathParam(r, "listingId")

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.auctions.PlaceBid(r.Context(), s.AccessToken, listingType, listingID, req.Amount)
	if err != nil {
		writeServiceError(w, err, "failed to place bid")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": result.Message,
		"auction": result.Detail,
	})
}
