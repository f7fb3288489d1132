package domain

// ListingStatus is the sale state of a catalog listing.
const (
	ListingStatusAvailable = "AVAILABLE"
	ListingStatusSold      = "SOLD"
	ListingStatusPending   = "PENDING"
)

// Vehicle is a second-hand EV offered on the marketplace.
type Vehicle struct {
	ID             string            `json:"id"`
	SellerID       string            `json:"sellerId,omitempty"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	Brand          string            `json:"brand,omitempty"`
	Model          string            `json:"model,omitempty"`
	Year           int               `json:"year,omitempty"`
	Mileage        int               `json:"mileage,omitempty"`
	Price          float64           `json:"price"`
	Status         string            `json:"status"`
	Images         []string          `json:"images,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	IsAuction      bool              `json:"isAuction"`
	CreatedAt      string            `json:"createdAt,omitempty"`
	UpdatedAt      string            `json:"updatedAt,omitempty"`
}

// Battery is a standalone EV battery pack listing.
type Battery struct {
	ID             string            `json:"id"`
	SellerID       string            `json:"sellerId,omitempty"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	Brand          string            `json:"brand,omitempty"`
	CapacityKWh    float64           `json:"capacityKwh,omitempty"`
	HealthPercent  int               `json:"healthPercent,omitempty"`
	Price          float64           `json:"price"`
	Status         string            `json:"status"`
	Images         []string          `json:"images,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	IsAuction      bool              `json:"isAuction"`
	CreatedAt      string            `json:"createdAt,omitempty"`
	UpdatedAt      string            `json:"updatedAt,omitempty"`
}

// ListingDraft carries the fields a seller submits when creating a listing.
// Specifications are nested (category -> key -> value) and are flattened into
// the upstream's bracketed form field names by the platform client.
type ListingDraft struct {
	Title          string
	Description    string
	Brand          string
	Model          string
	Year           int
	Mileage        int
	CapacityKWh    float64
	HealthPercent  int
	Price          int64
	Status         string
	Specifications map[string]map[string]string
	// Auction fields, only consulted when the draft is submitted to an
	// auction endpoint.
	IsAuction     bool
	StartingPrice int64
	BidIncrement  int64
	DepositAmount int64
	Images        []ImageUpload
}

// ImageUpload is one image attached to a listing draft.
type ImageUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}
