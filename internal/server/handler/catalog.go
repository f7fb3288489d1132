package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/evmarket/evmarketd/internal/domain"
)

// CatalogService is the slice of the catalog service this handler needs.
type CatalogService interface {
	BrowseVehicles(ctx context.Context, page int) (domain.Page[domain.Vehicle], error)
	BrowseBatteries(ctx context.Context, page int) (domain.Page[domain.Battery], error)
	GetVehicle(ctx context.Context, id string) (domain.Vehicle, error)
	GetBattery(ctx context.Context, id string) (domain.Battery, error)
}

// CatalogHandler serves the public browse endpoints. No session required.
type CatalogHandler struct {
	catalog CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(catalog CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// ListVehicles returns one page of available vehicles.
// GET /api/vehicles?page=1
func (h *CatalogHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	page, _ := parsePage(r)

	out, err := h.catalog.BrowseVehicles(r.Context(), page)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list vehicles failed",
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "failed to list vehicles")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetVehicle returns a single vehicle listing.
// GET /api/vehicles/{id}
func (h *CatalogHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing vehicle id")
		return
	}

	v, err := h.catalog.GetVehicle(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to get vehicle")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ListBatteries returns one page of available batteries.
// GET /api/batteries?page=1
func (h *CatalogHandler) ListBatteries(w http.ResponseWriter, r *http.Request) {
	page, _ := parsePage(r)

	out, err := h.catalog.BrowseBatteries(r.Context(), page)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list batteries failed",
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "failed to list batteries")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetBattery returns a single battery listing.
// GET /api/batteries/{id}
func (h *CatalogHandler) GetBattery(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing battery id")
		return
	}

	b, err := h.catalog.GetBattery(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to get battery")
		return
	}
	writeJSON(w, http.StatusOK, b)
}
