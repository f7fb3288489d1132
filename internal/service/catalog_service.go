package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evmarket/evmarketd/internal/domain"
	"github.com/evmarket/evmarketd/internal/platform/evmarket"
)

// CatalogService serves the public browse endpoints. The upstream paginates
// over all listings regardless of sale state, so AVAILABLE filtering scans
// forward across pages until it fills a page or hits the scan bound.
type CatalogService struct {
	client       *evmarket.Client
	pageSize     int
	maxScanPages int
	logger       *slog.Logger
}

// NewCatalogService creates a CatalogService. pageSize and maxScanPages must
// be positive; config validation guarantees that.
func NewCatalogService(client *evmarket.Client, pageSize, maxScanPages int, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		client:       client,
		pageSize:     pageSize,
		maxScanPages: maxScanPages,
		logger:       logger,
	}
}

// BrowseVehicles returns one page of AVAILABLE vehicles starting at the given
// upstream page.
func (s *CatalogService) BrowseVehicles(ctx context.Context, page int) (domain.Page[domain.Vehicle], error) {
	out, err := scanAvailable(ctx, s, page, s.client.GetVehicles, func(v domain.Vehicle) string { return v.Status })
	if err != nil {
		return domain.Page[domain.Vehicle]{}, fmt.Errorf("catalog_service: browse vehicles: %w", err)
	}
	return out, nil
}

// BrowseBatteries returns one page of AVAILABLE batteries starting at the
// given upstream page.
func (s *CatalogService) BrowseBatteries(ctx context.Context, page int) (domain.Page[domain.Battery], error) {
	out, err := scanAvailable(ctx, s, page, s.client.GetBatteries, func(b domain.Battery) string { return b.Status })
	if err != nil {
		return domain.Page[domain.Battery]{}, fmt.Errorf("catalog_service: browse batteries: %w", err)
	}
	return out, nil
}

// GetVehicle fetches one vehicle listing.
func (s *CatalogService) GetVehicle(ctx context.Context, id string) (domain.Vehicle, error) {
	v, err := s.client.GetVehicle(ctx, id)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("catalog_service: get vehicle %s: %w", id, err)
	}
	return v, nil
}

// GetBattery fetches one battery listing.
func (s *CatalogService) GetBattery(ctx context.Context, id string) (domain.Battery, error) {
	b, err := s.client.GetBattery(ctx, id)
	if err != nil {
		return domain.Battery{}, fmt.Errorf("catalog_service: get battery %s: %w", id, err)
	}
	return b, nil
}

// scanAvailable pulls consecutive upstream pages, keeping AVAILABLE listings
// until the local page size is reached, the upstream runs out of pages, or
// maxScanPages pages have been consumed. The returned Page reports the last
// upstream page consumed so the caller can resume from Page+1.
func scanAvailable[T any](
	ctx context.Context,
	s *CatalogService,
	page int,
	fetch func(ctx context.Context, page, limit int) (domain.Page[T], error),
	status func(T) string,
) (domain.Page[T], error) {
	if page < 1 {
		page = 1
	}

	out := domain.Page[T]{Page: page, Limit: s.pageSize}

	for scanned := 0; scanned < s.maxScanPages; scanned++ {
		upstream, err := fetch(ctx, page, s.pageSize)
		if err != nil {
			return domain.Page[T]{}, err
		}

		out.Page = page
		out.TotalPages = upstream.TotalPages
		out.TotalResults = upstream.TotalResults

		for _, item := range upstream.Items {
			if status(item) != domain.ListingStatusAvailable {
				continue
			}
			out.Items = append(out.Items, item)
			if len(out.Items) >= s.pageSize {
				return out, nil
			}
		}

		if upstream.TotalPages > 0 && page >= upstream.TotalPages {
			break
		}
		page++
	}

	s.logger.DebugContext(ctx, "catalog_service: scan finished short",
		slog.Int("collected", len(out.Items)),
		slog.Int("last_page", out.Page),
	)
	return out, nil
}
