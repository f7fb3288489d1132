package domain

// ListingType tags which kind of item a listing or auction refers to.
type ListingType string

const (
	ListingTypeVehicle ListingType = "VEHICLE"
	ListingTypeBattery ListingType = "BATTERY"
)

// AuctionSummary is the canonical, fully-resolved view of one auction-eligible
// listing. It is rebuilt from the raw upstream payload on every fetch and
// never persisted. ListingID is always non-empty; records for which no
// listing id resolves are dropped before a summary is ever constructed.
type AuctionSummary struct {
	ID            string `json:"id,omitempty"`
	ListingID     string `json:"listingId"`
	ListingType   string `json:"listingType"`
	Title         string `json:"title,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
	StartingPrice *int64 `json:"startingPrice,omitempty"`
	CurrentBid    *int64 `json:"currentBid,omitempty"`
	DepositAmount *int64 `json:"depositAmount,omitempty"`
	// Schedule timestamps are passed through as the upstream's ISO-8601
	// strings; the gateway does not reinterpret them.
	AuctionStartsAt string `json:"auctionStartsAt,omitempty"`
	AuctionEndsAt   string `json:"auctionEndsAt,omitempty"`
}

// AuctionStatus reports the caller's standing in one auction.
type AuctionStatus struct {
	IsBidder   bool `json:"isBidder"`
	HasDeposit bool `json:"hasDeposit"`
}

// DepositResult is the outcome of placing an auction deposit.
type DepositResult struct {
	Message string
	Status  *AuctionStatus
}

// BidResult is the outcome of placing a bid, carrying the refreshed summary
// when the upstream returns one.
type BidResult struct {
	Message string
	Detail  *AuctionSummary
}
