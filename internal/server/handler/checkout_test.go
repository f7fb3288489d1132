package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/peterldowns/testy/check"

	"github.com/evmarket/evmarketd/internal/domain"
	"github.com/evmarket/evmarketd/internal/server/middleware"
)

// stubCheckoutService returns canned purchase outcomes.
type stubCheckoutService struct {
	result      domain.CheckoutResult
	err         error
	settlements []domain.Settlement
	lastMethod  domain.PaymentMethod
}

func (s *stubCheckoutService) Purchase(ctx context.Context, session domain.Session, listingID string, listingType domain.ListingType, method domain.PaymentMethod) (domain.CheckoutResult, error) {
	s.lastMethod = method
	return s.result, s.err
}

func (s *stubCheckoutService) Purchases(ctx context.Context, session domain.Session, page, limit int) (domain.Page[domain.PurchaseTransaction], error) {
	return domain.Page[domain.PurchaseTransaction]{Page: page, Limit: limit}, s.err
}

func (s *stubCheckoutService) Transaction(ctx context.Context, session domain.Session, transactionID string) (domain.PurchaseTransaction, error) {
	if s.err != nil {
		return domain.PurchaseTransaction{}, s.err
	}
	return domain.PurchaseTransaction{ID: transactionID}, nil
}

func (s *stubCheckoutService) RecentSettlements(ctx context.Context, limit int) ([]domain.Settlement, error) {
	return s.settlements, s.err
}

func (s *stubCheckoutService) SettlementStats(ctx context.Context, since time.Time) (map[string]int64, error) {
	return map[string]int64{"COMPLETED": 2}, s.err
}

// withSession routes the request through the session middleware so the
// handler sees an authenticated session.
func withSession(h http.HandlerFunc) http.Handler {
	auth := &stubAuthService{session: stubSession()}
	return middleware.SessionAuth(auth)(h)
}

func authedRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("Authorization", "Bearer sess-1")
	return req
}

func TestPurchaseWalletDefault(t *testing.T) {
	svc := &stubCheckoutService{result: domain.CheckoutResult{
		TransactionID: "tx-1",
		SettledStatus: domain.TxStatusCompleted,
	}}
	h := NewCheckoutHandler(svc, discardLogger())

	rec := httptest.NewRecorder()
	withSession(h.Purchase).ServeHTTP(rec, authedRequest("POST", "/api/checkout",
		`{"listingId":"l1","listingType":"VEHICLE"}`))

	check.Equal(t, http.StatusOK, rec.Code)
	check.Equal(t, domain.PaymentMethodWallet, svc.lastMethod)

	var resp domain.CheckoutResult
	check.Nil(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	check.Equal(t, "tx-1", resp.TransactionID)
	check.Equal(t, domain.TxStatusCompleted, resp.SettledStatus)
}

func TestPurchaseSettlementFailureCarriesResult(t *testing.T) {
	svc := &stubCheckoutService{
		result: domain.CheckoutResult{
			TransactionID: "tx-2",
			SettledStatus: domain.TxStatusCancelled,
		},
		err: fmt.Errorf("checkout_service: %w", domain.ErrSettlementFailed),
	}
	h := NewCheckoutHandler(svc, discardLogger())

	rec := httptest.NewRecorder()
	withSession(h.Purchase).ServeHTTP(rec, authedRequest("POST", "/api/checkout",
		`{"listingId":"l2","listingType":"BATTERY"}`))

	check.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Error  string                `json:"error"`
		Result domain.CheckoutResult `json:"result"`
	}
	check.Nil(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	check.Equal(t, "settlement failed", resp.Error)
	check.Equal(t, "tx-2", resp.Result.TransactionID)
	check.Equal(t, domain.TxStatusCancelled, resp.Result.SettledStatus)
}

func TestPurchaseRejectsBadListingType(t *testing.T) {
	h := NewCheckoutHandler(&stubCheckoutService{}, discardLogger())

	rec := httptest.NewRecorder()
	withSession(h.Purchase).ServeHTTP(rec, authedRequest("POST", "/api/checkout",
		`{"listingId":"l1","listingType":"SCOOTER"}`))

	check.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchaseRejectsMissingListingID(t *testing.T) {
	h := NewCheckoutHandler(&stubCheckoutService{}, discardLogger())

	rec := httptest.NewRecorder()
	withSession(h.Purchase).ServeHTTP(rec, authedRequest("POST", "/api/checkout",
		`{"listingType":"VEHICLE"}`))

	check.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactionByID(t *testing.T) {
	h := NewCheckoutHandler(&stubCheckoutService{}, discardLogger())

	mux := http.NewServeMux()
	mux.Handle("GET /api/transactions/{transactionId}", withSession(h.Transaction))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest("GET", "/api/transactions/tx-9", ""))

	check.Equal(t, http.StatusOK, rec.Code)

	var resp domain.PurchaseTransaction
	check.Nil(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	check.Equal(t, "tx-9", resp.ID)
}

func TestTransactionNotFound(t *testing.T) {
	h := NewCheckoutHandler(&stubCheckoutService{err: domain.ErrNotFound}, discardLogger())

	mux := http.NewServeMux()
	mux.Handle("GET /api/transactions/{transactionId}", withSession(h.Transaction))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest("GET", "/api/transactions/tx-0", ""))

	check.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecentSettlementsClampsLimit(t *testing.T) {
	svc := &stubCheckoutService{settlements: []domain.Settlement{{TransactionID: "tx-1"}}}
	h := NewCheckoutHandler(svc, discardLogger())

	rec := httptest.NewRecorder()
	withSession(h.RecentSettlements).ServeHTTP(rec,
		authedRequest("GET", "/api/settlements/recent?limit=9999", ""))

	check.Equal(t, http.StatusOK, rec.Code)
	check.True(t, strings.Contains(rec.Body.String(), "tx-1"))
}

func TestSettlementStatsRejectsBadWindow(t *testing.T) {
	h := NewCheckoutHandler(&stubCheckoutService{}, discardLogger())

	rec := httptest.NewRecorder()
	withSession(h.SettlementStats).ServeHTTP(rec,
		authedRequest("GET", "/api/settlements/stats?since=-5h", ""))

	check.Equal(t, http.StatusBadRequest, rec.Code)
}
