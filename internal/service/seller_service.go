package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evmarket/evmarketd/internal/domain"
	"github.com/evmarket/evmarketd/internal/platform/evmarket"
)

// ImageStager stages listing images in object storage before the upstream
// upload. Staged copies survive upstream failures so a retry does not need
// the originals again.
type ImageStager interface {
	StageImages(ctx context.Context, userID string, images []domain.ImageUpload) ([]string, error)
}

// SellerService covers the seller-side surface: owned listings, battery
// updates, and listing creation with image staging.
type SellerService struct {
	client *evmarket.Client
	stager ImageStager
	logger *slog.Logger
}

// NewSellerService creates a SellerService.
func NewSellerService(client *evmarket.Client, stager ImageStager, logger *slog.Logger) *SellerService {
	return &SellerService{client: client, stager: stager, logger: logger}
}

// MyVehicles returns one page of the caller's vehicle listings.
func (s *SellerService) MyVehicles(ctx context.Context, session domain.Session, page, limit int) (domain.Page[domain.Vehicle], error) {
	out, err := s.client.GetMyVehicles(ctx, session.AccessToken, page, limit)
	if err != nil {
		return domain.Page[domain.Vehicle]{}, fmt.Errorf("seller_service: my vehicles: %w", err)
	}
	return out, nil
}

// MyBatteries returns one page of the caller's battery listings.
func (s *SellerService) MyBatteries(ctx context.Context, session domain.Session, page, limit int) (domain.Page[domain.Battery], error) {
	out, err := s.client.GetMyBatteries(ctx, session.AccessToken, page, limit)
	if err != nil {
		return domain.Page[domain.Battery]{}, fmt.Errorf("seller_service: my batteries: %w", err)
	}
	return out, nil
}

// UpdateBattery patches mutable fields of an owned battery listing.
func (s *SellerService) UpdateBattery(ctx context.Context, session domain.Session, id string, fields map[string]any) (domain.Battery, error) {
	if len(fields) == 0 {
		return domain.Battery{}, fmt.Errorf("seller_service: no fields to update: %w", domain.ErrInvalidListing)
	}

	b, err := s.client.UpdateBattery(ctx, session.AccessToken, id, fields)
	if err != nil {
		return domain.Battery{}, fmt.Errorf("seller_service: update battery %s: %w", id, err)
	}
	return b, nil
}

// CreateListing stages the draft's images and submits the listing to the
// upstream. Auction drafts go to the auction creation endpoints; plain drafts
// to fixed-price creation. On upstream failure the staged images are left in
// place so the seller can retry without re-uploading.
func (s *SellerService) CreateListing(
	ctx context.Context,
	session domain.Session,
	listingType domain.ListingType,
	draft domain.ListingDraft,
) (string, error) {
	if draft.Title == "" {
		return "", fmt.Errorf("seller_service: draft title must not be empty: %w", domain.ErrInvalidListing)
	}
	if draft.IsAuction && draft.StartingPrice <= 0 {
		return "", fmt.Errorf("seller_service: auction draft needs a starting price: %w", domain.ErrInvalidListing)
	}

	staged, err := s.stager.StageImages(ctx, session.UserID, draft.Images)
	if err != nil {
		return "", fmt.Errorf("seller_service: stage images: %w", err)
	}

	var msg string
	switch listingType {
	case domain.ListingTypeVehicle:
		msg, err = s.client.CreateVehicle(ctx, session.AccessToken, draft, draft.IsAuction)
	case domain.ListingTypeBattery:
		msg, err = s.client.CreateBattery(ctx, session.AccessToken, draft, draft.IsAuction)
	default:
		return "", fmt.Errorf("seller_service: unknown listing type %q: %w", listingType, domain.ErrInvalidListing)
	}
	if err != nil {
		return "", fmt.Errorf("seller_service: create %s listing: %w", listingType, err)
	}

	s.logger.InfoContext(ctx, "seller_service: listing created",
		slog.String("listing_type", string(listingType)),
		slog.String("user_id", session.UserID),
		slog.Bool("auction", draft.IsAuction),
		slog.Int("staged_images", len(staged)),
	)
	return msg, nil
}
