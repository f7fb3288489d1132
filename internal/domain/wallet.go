package domain

// WalletBalance is the caller's wallet state as reported by the upstream.
type WalletBalance struct {
	ID               string  `json:"id"`
	UserID           string  `json:"userId"`
	AvailableBalance float64 `json:"availableBalance"`
	LockedBalance    float64 `json:"lockedBalance"`
	CreatedAt        string  `json:"createdAt"`
	UpdatedAt        string  `json:"updatedAt"`
}

// WalletTransaction is one row of the wallet ledger.
type WalletTransaction struct {
	ID             string  `json:"id"`
	WalletID       string  `json:"walletId"`
	Type           string  `json:"type"` // DEPOSIT, WITHDRAWAL, AUCTION_DEPOSIT, ...
	Amount         float64 `json:"amount"`
	Status         string  `json:"status"`
	Gateway        string  `json:"gateway"`
	GatewayTransID string  `json:"gatewayTransId,omitempty"`
	Description    string  `json:"description,omitempty"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

// Page wraps a paginated upstream collection.
type Page[T any] struct {
	Items        []T `json:"items"`
	Page         int `json:"page"`
	Limit        int `json:"limit"`
	TotalPages   int `json:"totalPages"`
	TotalResults int `json:"totalResults"`
}

// GatewayPayment is the opaque payment-gateway handoff returned when a
// deposit or checkout must be completed through an external gateway. The
// gateway protocol itself is not interpreted here; the fields are relayed to
// the UI client, which opens PayURL or the deeplink.
type GatewayPayment struct {
	PartnerCode string `json:"partnerCode,omitempty"`
	OrderID     string `json:"orderId,omitempty"`
	RequestID   string `json:"requestId,omitempty"`
	Amount      int64  `json:"amount,omitempty"`
	Message     string `json:"message,omitempty"`
	ResultCode  int    `json:"resultCode,omitempty"`
	PayURL      string `json:"payUrl,omitempty"`
	Deeplink    string `json:"deeplink,omitempty"`
	QRCodeURL   string `json:"qrCodeUrl,omitempty"`
}
