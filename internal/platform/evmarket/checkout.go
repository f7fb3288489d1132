package evmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/evmarket/evmarketd/internal/domain"
)

// Checkout initiates a purchase of one listing and returns the transaction id
// plus, for gateway payment methods, the gateway handoff.
func (c *Client) Checkout(ctx context.Context, token, listingID, listingType, paymentMethod string) (CheckoutData, error) {
	req := checkoutRequest{
		ListingID:     listingID,
		ListingType:   listingType,
		PaymentMethod: paymentMethod,
	}

	body, err := c.doJSON(ctx, "POST", token, "/checkout", req)
	if err != nil {
		return CheckoutData{}, fmt.Errorf("evmarket: checkout %s: %w", listingID, err)
	}

	var resp envelope[apiCheckoutData]
	if err := json.Unmarshal(body, &resp); err != nil {
		return CheckoutData{}, fmt.Errorf("evmarket: decode checkout response: %w", err)
	}

	return CheckoutData{
		TransactionID: resp.Data.TransactionID,
		Message:       resp.Message,
		Payment:       resp.Data.PaymentInfo.toDomain(),
	}, nil
}

// PayWithWallet confirms a wallet-funded checkout. The upstream debits the
// wallet and moves the transaction toward settlement asynchronously.
func (c *Client) PayWithWallet(ctx context.Context, token, transactionID string) (domain.PurchaseTransaction, string, error) {
	path := fmt.Sprintf("/checkout/%s/pay-with-wallet", url.PathEscape(transactionID))

	body, err := c.doJSON(ctx, "POST", token, path, nil)
	if err != nil {
		return domain.PurchaseTransaction{}, "", fmt.Errorf("evmarket: pay with wallet %s: %w", transactionID, err)
	}

	var resp envelope[apiPurchaseTransaction]
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.PurchaseTransaction{}, "", fmt.Errorf("evmarket: decode pay-with-wallet response: %w", err)
	}

	return resp.Data.toDomain(), resp.Message, nil
}

// GetMyPurchases returns one page of the caller's purchase history, newest
// first. This is also the settlement poller's observation source.
func (c *Client) GetMyPurchases(ctx context.Context, token string, page, limit int) (domain.Page[domain.PurchaseTransaction], error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.doGet(ctx, token, "/transactions/me?"+params.Encode())
	if err != nil {
		return domain.Page[domain.PurchaseTransaction]{}, fmt.Errorf("evmarket: get purchases: %w", err)
	}

	var resp envelope[apiPurchaseHistory]
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Page[domain.PurchaseTransaction]{}, fmt.Errorf("evmarket: decode purchases: %w", err)
	}

	out := domain.Page[domain.PurchaseTransaction]{
		Items:        make([]domain.PurchaseTransaction, 0, len(resp.Data.Transactions)),
		Page:         resp.Data.Page,
		Limit:        resp.Data.Limit,
		TotalPages:   resp.Data.TotalPages,
		TotalResults: resp.Data.TotalResults,
	}
	for i := range resp.Data.Transactions {
		out.Items = append(out.Items, resp.Data.Transactions[i].toDomain())
	}
	return out, nil
}

// GetTransaction returns a single purchase transaction by id.
func (c *Client) GetTransaction(ctx context.Context, token, transactionID string) (domain.PurchaseTransaction, error) {
	path := fmt.Sprintf("/transactions/%s", url.PathEscape(transactionID))

	body, err := c.doGet(ctx, token, path)
	if err != nil {
		return domain.PurchaseTransaction{}, fmt.Errorf("evmarket: get transaction %s: %w", transactionID, err)
	}

	var resp envelope[apiPurchaseTransaction]
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.PurchaseTransaction{}, fmt.Errorf("evmarket: decode transaction: %w", err)
	}

	return resp.Data.toDomain(), nil
}
