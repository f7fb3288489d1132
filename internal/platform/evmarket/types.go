package evmarket

import (
	"encoding/json"
	"strings"

	"github.com/evmarket/evmarketd/internal/domain"
	"github.com/evmarket/evmarketd/internal/jsonval"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so responses
// work whether the upstream sends flags as bools or quoted strings.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// --------------------------------------------------------------------------
// Auction DTOs
// --------------------------------------------------------------------------

// AuctionDetail is the typed auction detail response. The upstream fills an
// unpredictable subset of the explicit fields; whatever is missing usually
// hides inside the Listing or Metadata blobs, which is why this DTO feeds the
// normalizer in internal/auction instead of converting field by field.
type AuctionDetail struct {
	ID              string        `json:"id"`
	ListingID       string        `json:"listingId"`
	ListingType     string        `json:"listingType"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Images          []string      `json:"images"`
	Image           string        `json:"image"`
	StartingPrice   *int64        `json:"startingPrice"`
	CurrentBid      *int64        `json:"currentBid"`
	BidIncrement    *int64        `json:"bidIncrement"`
	DepositAmount   *int64        `json:"depositAmount"`
	HasUserDeposit  *flexBool     `json:"hasUserDeposit"`
	HasDeposit      *flexBool     `json:"hasDeposit"`
	HasUserBid      *flexBool     `json:"hasUserBid"`
	Listing         jsonval.Value `json:"listing"`
	Metadata        jsonval.Value `json:"metadata"`
	AuctionStartsAt string        `json:"auctionStartsAt"`
	AuctionEndsAt   string        `json:"auctionEndsAt"`
	Status          string        `json:"status"`
}

type apiAuctionStatus struct {
	IsBidder   *flexBool `json:"isBidder"`
	HasDeposit *flexBool `json:"hasDeposit"`
}

func (s *apiAuctionStatus) toDomain() *domain.AuctionStatus {
	if s == nil {
		return nil
	}
	out := &domain.AuctionStatus{}
	if s.IsBidder != nil {
		out.IsBidder = bool(*s.IsBidder)
	}
	if s.HasDeposit != nil {
		out.HasDeposit = bool(*s.HasDeposit)
	}
	return out
}

type bidRequest struct {
	Amount int64 `json:"amount"`
}

// --------------------------------------------------------------------------
// Auth DTOs
// --------------------------------------------------------------------------

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type exchangeCodeRequest struct {
	Code string `json:"code"`
}

type apiUser struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Avatar     string    `json:"avatar"`
	Role       string    `json:"role"`
	IsVerified *flexBool `json:"isVerified"`
	CreatedAt  string    `json:"createdAt"`
	UpdatedAt  string    `json:"updatedAt"`
}

func (u *apiUser) toDomain() domain.User {
	out := domain.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Avatar:    u.Avatar,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.IsVerified != nil {
		out.IsVerified = bool(*u.IsVerified)
	}
	return out
}

type apiAuthData struct {
	User        apiUser `json:"user"`
	AccessToken string  `json:"accessToken"`
}

// AuthResult is a successful login/register/exchange outcome.
type AuthResult struct {
	User        domain.User
	AccessToken string
	Message     string
}

// --------------------------------------------------------------------------
// Wallet DTOs
// --------------------------------------------------------------------------

type apiWalletBalance struct {
	ID               string  `json:"id"`
	UserID           string  `json:"userId"`
	AvailableBalance float64 `json:"availableBalance"`
	LockedBalance    float64 `json:"lockedBalance"`
	CreatedAt        string  `json:"createdAt"`
	UpdatedAt        string  `json:"updatedAt"`
}

func (w *apiWalletBalance) toDomain() domain.WalletBalance {
	return domain.WalletBalance{
		ID:               w.ID,
		UserID:           w.UserID,
		AvailableBalance: w.AvailableBalance,
		LockedBalance:    w.LockedBalance,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

type apiWalletTransaction struct {
	ID             string  `json:"id"`
	WalletID       string  `json:"walletId"`
	Type           string  `json:"type"`
	Amount         float64 `json:"amount"`
	Status         string  `json:"status"`
	Gateway        string  `json:"gateway"`
	GatewayTransID string  `json:"gatewayTransId"`
	Description    string  `json:"description"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

func (t *apiWalletTransaction) toDomain() domain.WalletTransaction {
	return domain.WalletTransaction{
		ID:             t.ID,
		WalletID:       t.WalletID,
		Type:           t.Type,
		Amount:         t.Amount,
		Status:         t.Status,
		Gateway:        t.Gateway,
		GatewayTransID: t.GatewayTransID,
		Description:    t.Description,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

type apiTransactionHistory struct {
	Transactions []apiWalletTransaction `json:"transactions"`
	Page         int                    `json:"page"`
	Limit        int                    `json:"limit"`
	TotalPages   int                    `json:"totalPages"`
	TotalResults int                    `json:"totalResults"`
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

type apiGatewayPayment struct {
	PartnerCode string `json:"partnerCode"`
	OrderID     string `json:"orderId"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	Message     string `json:"message"`
	ResultCode  int    `json:"resultCode"`
	PayURL      string `json:"payUrl"`
	Deeplink    string `json:"deeplink"`
	QRCodeURL   string `json:"qrCodeUrl"`
}

func (p *apiGatewayPayment) toDomain() *domain.GatewayPayment {
	if p == nil {
		return nil
	}
	return &domain.GatewayPayment{
		PartnerCode: p.PartnerCode,
		OrderID:     p.OrderID,
		RequestID:   p.RequestID,
		Amount:      p.Amount,
		Message:     p.Message,
		ResultCode:  p.ResultCode,
		PayURL:      p.PayURL,
		Deeplink:    p.Deeplink,
		QRCodeURL:   p.QRCodeURL,
	}
}

// --------------------------------------------------------------------------
// Checkout / purchase DTOs
// --------------------------------------------------------------------------

type checkoutRequest struct {
	ListingID     string `json:"listingId"`
	ListingType   string `json:"listingType"`
	PaymentMethod string `json:"paymentMethod"`
}

type apiCheckoutData struct {
	TransactionID string             `json:"transactionId"`
	PaymentInfo   *apiGatewayPayment `json:"paymentInfo"`
}

// CheckoutData is the raw checkout initiation response.
type CheckoutData struct {
	TransactionID string
	Message       string
	Payment       *domain.GatewayPayment
}

type apiPurchaseItem struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Images []string `json:"images"`
}

type apiPurchaseTransaction struct {
	ID             string           `json:"id"`
	BuyerID        string           `json:"buyerId"`
	Status         string           `json:"status"`
	VehicleID      string           `json:"vehicleId"`
	BatteryID      string           `json:"batteryId"`
	FinalPrice     float64          `json:"finalPrice"`
	PaymentGateway string           `json:"paymentGateway"`
	CreatedAt      string           `json:"createdAt"`
	UpdatedAt      string           `json:"updatedAt"`
	Vehicle        *apiPurchaseItem `json:"vehicle"`
	Battery        *apiPurchaseItem `json:"battery"`
}

func (t *apiPurchaseTransaction) toDomain() domain.PurchaseTransaction {
	out := domain.PurchaseTransaction{
		ID:             t.ID,
		BuyerID:        t.BuyerID,
		Status:         t.Status,
		VehicleID:      t.VehicleID,
		BatteryID:      t.BatteryID,
		FinalPrice:     t.FinalPrice,
		PaymentGateway: t.PaymentGateway,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	item := t.Vehicle
	if item == nil {
		item = t.Battery
	}
	if item != nil {
		out.Item = &domain.PurchaseItem{
			ID:     item.ID,
			Title:  item.Title,
			Images: item.Images,
		}
	}
	return out
}

type apiPurchaseHistory struct {
	Transactions []apiPurchaseTransaction `json:"transactions"`
	Page         int                      `json:"page"`
	Limit        int                      `json:"limit"`
	TotalPages   int                      `json:"totalPages"`
	TotalResults int                      `json:"totalResults"`
}

// --------------------------------------------------------------------------
// Catalog DTOs
// --------------------------------------------------------------------------

type apiVehicle struct {
	ID             string            `json:"id"`
	SellerID       string            `json:"sellerId"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Brand          string            `json:"brand"`
	Model          string            `json:"model"`
	Year           int               `json:"year"`
	Mileage        int               `json:"mileage"`
	Price          float64           `json:"price"`
	Status         string            `json:"status"`
	Images         []string          `json:"images"`
	Specifications map[string]string `json:"specifications"`
	IsAuction      *flexBool         `json:"isAuction"`
	CreatedAt      string            `json:"createdAt"`
	UpdatedAt      string            `json:"updatedAt"`
}

func (v *apiVehicle) toDomain() domain.Vehicle {
	out := domain.Vehicle{
		ID:             v.ID,
		SellerID:       v.SellerID,
		Title:          v.Title,
		Description:    v.Description,
		Brand:          v.Brand,
		Model:          v.Model,
		Year:           v.Year,
		Mileage:        v.Mileage,
		Price:          v.Price,
		Status:         v.Status,
		Images:         v.Images,
		Specifications: v.Specifications,
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.UpdatedAt,
	}
	if v.IsAuction != nil {
		out.IsAuction = bool(*v.IsAuction)
	}
	return out
}

type apiBattery struct {
	ID             string            `json:"id"`
	SellerID       string            `json:"sellerId"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Brand          string            `json:"brand"`
	CapacityKWh    float64           `json:"capacity"`
	HealthPercent  int               `json:"health"`
	Price          float64           `json:"price"`
	Status         string            `json:"status"`
	Images         []string          `json:"images"`
	Specifications map[string]string `json:"specifications"`
	IsAuction      *flexBool         `json:"isAuction"`
	CreatedAt      string            `json:"createdAt"`
	UpdatedAt      string            `json:"updatedAt"`
}

func (b *apiBattery) toDomain() domain.Battery {
	out := domain.Battery{
		ID:             b.ID,
		SellerID:       b.SellerID,
		Title:          b.Title,
		Description:    b.Description,
		Brand:          b.Brand,
		CapacityKWh:    b.CapacityKWh,
		HealthPercent:  b.HealthPercent,
		Price:          b.Price,
		Status:         b.Status,
		Images:         b.Images,
		Specifications: b.Specifications,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
	if b.IsAuction != nil {
		out.IsAuction = bool(*b.IsAuction)
	}
	return out
}

type apiPagedVehicles struct {
	Vehicles     []apiVehicle `json:"vehicles"`
	Page         int          `json:"page"`
	Limit        int          `json:"limit"`
	TotalPages   int          `json:"totalPages"`
	TotalResults int          `json:"totalResults"`
}

type apiPagedBatteries struct {
	Batteries    []apiBattery `json:"batteries"`
	Page         int          `json:"page"`
	Limit        int          `json:"limit"`
	TotalPages   int          `json:"totalPages"`
	TotalResults int          `json:"totalResults"`
}
