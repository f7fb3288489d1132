package domain

import "time"

// PaymentMethod selects how a checkout is settled.
type PaymentMethod string

const (
	PaymentMethodWallet PaymentMethod = "WALLET"
	PaymentMethodMomo   PaymentMethod = "MOMO"
)

// Transaction statuses reported by the purchase history endpoint. Terminal
// states are Completed, Cancelled, and Failed; anything else, including
// statuses this gateway has never seen, means the transaction is still in
// flight.
const (
	TxStatusCompleted  = "COMPLETED"
	TxStatusCancelled  = "CANCELLED"
	TxStatusFailed     = "FAILED"
	TxStatusPending    = "PENDING"
	TxStatusProcessing = "PROCESSING"

	// TxStatusPendingTimeout is synthesized locally when settlement polling
	// exhausts its budget without observing a terminal state. It is a success
	// variant, not a failure: the transaction is presumed still in flight
	// server-side and the user should check purchase history later.
	TxStatusPendingTimeout = "PENDING_TIMEOUT"
)

// TerminalStatus reports whether no further status change is expected.
func TerminalStatus(status string) bool {
	switch status {
	case TxStatusCompleted, TxStatusCancelled, TxStatusFailed:
		return true
	}
	return false
}

// CheckoutResult is what a checkout initiation hands back to the UI layer.
type CheckoutResult struct {
	TransactionID string          `json:"transactionId"`
	Message       string          `json:"message,omitempty"`
	// Set for gateway methods; nil for wallet payments, which settle
	// in-band and carry their outcome in SettledStatus.
	Payment       *GatewayPayment `json:"payment,omitempty"`
	SettledStatus string          `json:"settledStatus,omitempty"`
}

// PurchaseTransaction is one entry of the buyer's purchase history.
type PurchaseTransaction struct {
	ID             string        `json:"id"`
	BuyerID        string        `json:"buyerId"`
	Status         string        `json:"status"`
	VehicleID      string        `json:"vehicleId,omitempty"`
	BatteryID      string        `json:"batteryId,omitempty"`
	FinalPrice     float64       `json:"finalPrice"`
	PaymentGateway string        `json:"paymentGateway"`
	CreatedAt      string        `json:"createdAt"`
	UpdatedAt      string        `json:"updatedAt"`
	Item           *PurchaseItem `json:"item,omitempty"`
}

// PurchaseItem is the listing a purchase refers to, vehicle or battery.
type PurchaseItem struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Images []string `json:"images,omitempty"`
}

// Settlement is the locally recorded outcome of one settlement poll, kept for
// audit and for the notification pipeline.
type Settlement struct {
	TransactionID string
	ListingID     string
	ListingType   string
	Method        PaymentMethod
	Status        string
	Attempts      int
	SettledAt     time.Time
}
