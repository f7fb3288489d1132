package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/evmarket/evmarketd/internal/domain"
)

// SellerService is the slice of the seller service this handler needs.
type SellerService interface {
	MyVehicles(ctx context.Context, session domain.Session, page, limit int) (domain.Page[domain.Vehicle], error)
	MyBatteries(ctx context.Context, session domain.Session, page, limit int) (domain.Page[domain.Battery], error)
	UpdateBattery(ctx context.Context, session domain.Session, id string, fields map[string]any) (domain.Battery, error)
	CreateListing(ctx context.Context, session domain.Session, listingType domain.ListingType, draft domain.ListingDraft) (string, error)
}

// SellerHandler serves the seller-side endpoints.
type SellerHandler struct {
	seller SellerService
	logger *slog.Logger
}

// NewSellerHandler creates a SellerHandler.
func NewSellerHandler(seller SellerService, logger *slog.Logger) *SellerHandler {
	return &SellerHandler{seller: seller, logger: logger}
}

// MyVehicles returns one page of the caller's vehicle listings.
// GET /api/me/vehicles?page=1&limit=10
func (h *SellerHandler) MyVehicles(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	page, limit := parsePage(r)

	out, err := h.seller.MyVehicles(r.Context(), s, page, limit)
	if err != nil {
		writeServiceError(w, err, "failed to list my vehicles")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// MyBatteries returns one page of the caller's battery listings.
// GET /api/me/batteries?page=1&limit=10
func (h *SellerHandler) MyBatteries(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	page, limit := parsePage(r)

	out, err := h.seller.MyBatteries(r.Context(), s, page, limit)
	if err != nil {
		writeServiceError(w, err, "failed to list my batteries")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdateBattery patches mutable fields of an owned battery listing.
// PATCH /api/batteries/{id}
func (h *SellerHandler) UpdateBattery(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing battery id")
		return
	}

	var fields map[string]any
	if err := decodeJSON(r, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := h.seller.UpdateBattery(r.Context(), s, id, fields)
	if err != nil {
		writeServiceError(w, err, "failed to update battery")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// listingDraftRequest is the JSON body for listing creation. Image data is
// base64 in transit; encoding/json decodes it into the raw bytes.
type listingDraftRequest struct {
	Title          string                       `json:"title"`
	Description    string                       `json:"description,omitempty"`
	Brand          string                       `json:"brand,omitempty"`
	Model          string                       `json:"model,omitempty"`
	Year           int                          `json:"year,omitempty"`
	Mileage        int                          `json:"mileage,omitempty"`
	CapacityKWh    float64                      `json:"capacityKwh,omitempty"`
	HealthPercent  int                          `json:"healthPercent,omitempty"`
	Price          int64                        `json:"price,omitempty"`
	Specifications map[string]map[string]string `json:"specifications,omitempty"`
	IsAuction      bool                         `json:"isAuction,omitempty"`
	StartingPrice  int64                        `json:"startingPrice,omitempty"`
	BidIncrement   int64                        `json:"bidIncrement,omitempty"`
	DepositAmount  int64                        `json:"depositAmount,omitempty"`
	Images         []imageUploadRequest         `json:"images,omitempty"`
}

type imageUploadRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

func (req *listingDraftRequest) toDraft() domain.ListingDraft {
	draft := domain.ListingDraft{
		Title:          req.Title,
		Description:    req.Description,
		Brand:          req.Brand,
		Model:          req.Model,
		Year:           req.Year,
		Mileage:        req.Mileage,
		CapacityKWh:    req.CapacityKWh,
		HealthPercent:  req.HealthPercent,
		Price:          req.Price,
		Specifications: req.Specifications,
		IsAuction:      req.IsAuction,
		StartingPrice:  req.StartingPrice,
		BidIncrement:   req.BidIncrement,
		DepositAmount:  req.DepositAmount,
	}
	for _, img := range req.Images {
		draft.Images = append(draft.Images, domain.ImageUpload{
			FileName:    img.FileName,
			ContentType: img.ContentType,
			Data:        img.Data,
		})
	}
	return draft
}

// CreateListing creates a vehicle or battery listing, auction or fixed-price.
// POST /api/listings/{listingType}
func (h *SellerHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	listingType, ok := listingTypeParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown listing type")
		return
	}

	var req listingDraftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.seller.CreateListing(r.Context(), s, listingType, req.toDraft())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: create listing failed",
			slog.String("listing_type", string(listingType)),
			slog.String("user_id", s.UserID),
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "failed to create listing")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": msg})
}
