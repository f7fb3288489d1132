package domain

import "time"

// Signal bus channels.
const (
	ChannelSettlements  = "evmarket:settlements"
	ChannelLiveAuctions = "evmarket:auctions:live"
)

// SettlementEvent is published when a settlement poll reaches an outcome.
type SettlementEvent struct {
	TransactionID string    `json:"transactionId"`
	ListingID     string    `json:"listingId,omitempty"`
	Status        string    `json:"status"`
	Attempts      int       `json:"attempts"`
	At            time.Time `json:"at"`
}

// LiveAuctionEvent is published by the monitor loop after each normalization
// pass over the live-auction feed.
type LiveAuctionEvent struct {
	Time     string           `json:"time"` // "current", "upcoming", or "past"
	Auctions []AuctionSummary `json:"auctions"`
	At       time.Time        `json:"at"`
}
