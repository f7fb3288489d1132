package evmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/evmarket/evmarketd/internal/domain"
	"github.com/evmarket/evmarketd/internal/jsonval"
)

// GetLiveAuctions fetches the live-auction feed. The data payload has no
// stable shape, so it is returned as a raw jsonval.Value for the normalizer
// to flatten.
//
// timeWindow is "current", "upcoming", or "past".
func (c *Client) GetLiveAuctions(ctx context.Context, token, timeWindow string) (jsonval.Value, error) {
	params := url.Values{}
	params.Set("time", timeWindow)

	body, err := c.doGet(ctx, token, "/auctions/live?"+params.Encode())
	if err != nil {
		return jsonval.Value{}, fmt.Errorf("evmarket: get live auctions: %w", err)
	}

	var resp envelope[jsonval.Value]
	if err := json.Unmarshal(body, &resp); err != nil {
		return jsonval.Value{}, fmt.Errorf("evmarket: decode live auctions: %w", err)
	}

	return resp.Data, nil
}

// GetAuctionDetail returns the typed detail record for one auction.
func (c *Client) GetAuctionDetail(ctx context.Context, token, listingType, listingID string) (AuctionDetail, error) {
	path := fmt.Sprintf("/auctions/%s/%s", url.PathEscape(listingType), url.PathEscape(listingID))

	body, err := c.doGet(ctx, token, path)
	if err != nil {
		return AuctionDetail{}, fmt.Errorf("evmarket: get auction %s/%s: %w", listingType, listingID, err)
	}

	var resp envelope[AuctionDetail]
	if err := json.Unmarshal(body, &resp); err != nil {
		return AuctionDetail{}, fmt.Errorf("evmarket: decode auction detail: %w", err)
	}

	return resp.Data, nil
}

// GetAuctionStatus returns the caller's deposit/bid standing in one auction.
func (c *Client) GetAuctionStatus(ctx context.Context, token, listingType, listingID string) (*domain.AuctionStatus, error) {
	path := fmt.Sprintf("/auctions/%s/%s", url.PathEscape(listingType), url.PathEscape(listingID))

	body, err := c.doGet(ctx, token, path)
	if err != nil {
		return nil, fmt.Errorf("evmarket: get auction status %s/%s: %w", listingType, listingID, err)
	}

	var resp envelope[*apiAuctionStatus]
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("evmarket: decode auction status: %w", err)
	}

	return resp.Data.toDomain(), nil
}

// PlaceDeposit places the auction entry deposit for one listing.
func (c *Client) PlaceDeposit(ctx context.Context, token, listingType, listingID string) (string, *domain.AuctionStatus, error) {
	path := fmt.Sprintf("/auctions/%s/%s/deposit", url.PathEscape(listingType), url.PathEscape(listingID))

	body, err := c.doJSON(ctx, "POST", token, path, nil)
	if err != nil {
		return "", nil, fmt.Errorf("evmarket: place deposit %s/%s: %w", listingType, listingID, err)
	}

	var resp envelope[*apiAuctionStatus]
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", nil, fmt.Errorf("evmarket: decode deposit response: %w", err)
	}

	return resp.Message, resp.Data.toDomain(), nil
}

// PlaceBid submits a bid and returns the upstream message plus the refreshed
// auction detail when the upstream includes one.
func (c *Client) PlaceBid(ctx context.Context, token, listingType, listingID string, amount int64) (string, AuctionDetail, error) {
	path := fmt.Sprintf("/auctions/%s/%s/bids", url.PathEscape(listingType), url.PathEscape(listingID))

	body, err := c.doJSON(ctx, "POST", token, path, bidRequest{Amount: amount})
	if err != nil {
		return "", AuctionDetail{}, fmt.Errorf("evmarket: place bid %s/%s: %w", listingType, listingID, err)
	}

	var resp envelope[AuctionDetail]
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", AuctionDetail{}, fmt.Errorf("evmarket: decode bid response: %w", err)
	}

	return resp.Message, resp.Data, nil
}
