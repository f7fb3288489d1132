package evmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/evmarket/evmarketd/internal/domain"
)

// GetWalletBalance returns the caller's wallet state.
func (c *Client) GetWalletBalance(ctx context.Context, token string) (domain.WalletBalance, error) {
	body, err := c.doGet(ctx, token, "/wallet/")
	if err != nil {
		return domain.WalletBalance{}, fmt.Errorf("evmarket: get wallet balance: %w", err)
	}

	var resp envelope[apiWalletBalance]
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.WalletBalance{}, fmt.Errorf("evmarket: decode wallet balance: %w", err)
	}

	return resp.Data.toDomain(), nil
}

// GetWalletHistory returns one page of the wallet ledger.
func (c *Client) GetWalletHistory(ctx context.Context, token string, page, limit int) (domain.Page[domain.WalletTransaction], error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.doGet(ctx, token, "/wallet/history?"+params.Encode())
	if err != nil {
		return domain.Page[domain.WalletTransaction]{}, fmt.Errorf("evmarket: get wallet history: %w", err)
	}

	var resp envelope[apiTransactionHistory]
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Page[domain.WalletTransaction]{}, fmt.Errorf("evmarket: decode wallet history: %w", err)
	}

	out := domain.Page[domain.WalletTransaction]{
		Items:        make([]domain.WalletTransaction, 0, len(resp.Data.Transactions)),
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

// Deposit starts a wallet top-up through the external payment gateway and
// returns the gateway handoff for the UI to complete.
func (c *Client) Deposit(ctx context.Context, token string, amount int64) (*domain.GatewayPayment, error) {
	body, err := c.doJSON(ctx, "POST", token, "/wallet/deposit", amountRequest{Amount: amount})
	if err != nil {
		return nil, fmt.Errorf("evmarket: wallet deposit: %w", err)
	}

	var resp envelope[*apiGatewayPayment]
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("evmarket: decode deposit response: %w", err)
	}

	return resp.Data.toDomain(), nil
}

// Withdraw requests a wallet withdrawal.
func (c *Client) Withdraw(ctx context.Context, token string, amount int64) (string, error) {
	body, err := c.doJSON(ctx, "POST", token, "/wallet/withdraw", amountRequest{Amount: amount})
	if err != nil {
		return "", fmt.Errorf("evmarket: wallet withdraw: %w", err)
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("evmarket: decode withdraw response: %w", err)
	}
	return resp.Message, nil
}
