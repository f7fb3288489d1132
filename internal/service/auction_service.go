package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evmarket/evmarketd/internal/auction"
	"github.com/evmarket/evmarketd/internal/domain"
	"github.com/evmarket/evmarketd/internal/platform/evmarket"
)

// AuctionService fronts the upstream auction endpoints, normalizing every
// payload before it reaches a UI client.
type AuctionService struct {
	client *evmarket.Client
	logger *slog.Logger
}

// NewAuctionService creates an AuctionService.
func NewAuctionService(client *evmarket.Client, logger *slog.Logger) *AuctionService {
	return &AuctionService{client: client, logger: logger}
}

// listingPath maps a listing type to the upstream's path segment.
func listingPath(t domain.ListingType) string {
	if t == domain.ListingTypeBattery {
		return "batteries"
	}
	return "vehicles"
}

// ListLive fetches the live-auction feed for a time window ("current",
// "upcoming", or "past"; empty defaults to "current") and normalizes it.
// Malformed payloads yield an empty list, never an error.
func (s *AuctionService) ListLive(ctx context.Context, token, timeWindow string) ([]domain.AuctionSummary, error) {
	if timeWindow == "" {
		timeWindow = "current"
	}

	root, err := s.client.GetLiveAuctions(ctx, token, timeWindow)
	if err != nil {
		return nil, fmt.Errorf("auction_service: list live: %w", err)
	}

	summaries := auction.NormalizeList(root)

	s.logger.DebugContext(ctx, "auction_service: live auctions normalized",
		slog.String("time_window", timeWindow),
		slog.Int("count", len(summaries)),
	)
	return summaries, nil
}

// GetDetail fetches one auction and resolves it into a summary.
func (s *AuctionService) GetDetail(ctx context.Context, token string, listingType domain.ListingType, listingID string) (domain.AuctionSummary, error) {
	detail, err := s.client.GetAuctionDetail(ctx, token, listingPath(listingType), listingID)
	if err != nil {
		return domain.AuctionSummary{}, fmt.Errorf("auction_service: get detail %s/%s: %w", listingType, listingID, err)
	}
	return auction.NormalizeDetail(detail), nil
}

// GetStatus returns the caller's standing in one auction.
func (s *AuctionService) GetStatus(ctx context.Context, token string, listingType domain.ListingType, listingID string) (*domain.AuctionStatus, error) {
	status, err := s.client.GetAuctionStatus(ctx, token, listingPath(listingType), listingID)
	if err != nil {
		return nil, fmt.Errorf("auction_service: get status %s/%s: %w", listingType, listingID, err)
	}
	return status, nil
}

// PlaceDeposit places the participation deposit for one auction.
func (s *AuctionService) PlaceDeposit(ctx context.Context, token string, listingType domain.ListingType, listingID string) (domain.DepositResult, error) {
	msg, status, err := s.client.PlaceDeposit(ctx, token, listingPath(listingType), listingID)
	if err != nil {
		return domain.DepositResult{}, fmt.Errorf("auction_service: place deposit %s/%s: %w", listingType, listingID, err)
	}

	s.logger.InfoContext(ctx, "auction_service: deposit placed",
		slog.String("listing_type", string(listingType)),
		slog.String("listing_id", listingID),
	)
	return domain.DepositResult{Message: msg, Status: status}, nil
}

// PlaceBid places a bid, returning the refreshed summary when the upstream
// includes one in its response.
func (s *AuctionService) PlaceBid(ctx context.Context, token string, listingType domain.ListingType, listingID string, amount int64) (domain.BidResult, error) {
	if amount <= 0 {
		return domain.BidResult{}, fmt.Errorf("auction_service: bid amount must be positive: %w", domain.ErrInvalidListing)
	}

	msg, detail, err := s.client.PlaceBid(ctx, token, listingPath(listingType), listingID, amount)
	if err != nil {
		return domain.BidResult{}, fmt.Errorf("auction_service: place bid %s/%s: %w", listingType, listingID, err)
	}

	s.logger.InfoContext(ctx, "auction_service: bid placed",
		slog.String("listing_type", string(listingType)),
		slog.String("listing_id", listingID),
		slog.Int64("amount", amount),
	)

	summary := auction.NormalizeDetail(detail)
	var detailOut *domain.AuctionSummary
	if summary.ListingID != "" {
		detailOut = &summary
	}
	return domain.BidResult{Message: msg, Detail: detailOut}, nil
}
