package evmarket

import (
	"context"
	"encoding/json"
	"fmt"
)

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	body, err := c.doJSON(ctx, "POST", "", "/auth/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return AuthResult{}, fmt.Errorf("evmarket: login: %w", err)
	}
	return decodeAuthResult(body)
}

// Register creates a new account and returns an authenticated session token.
func (c *Client) Register(ctx context.Context, name, email, password string) (AuthResult, error) {
	body, err := c.doJSON(ctx, "POST", "", "/auth/register", registerRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return AuthResult{}, fmt.Errorf("evmarket: register: %w", err)
	}
	return decodeAuthResult(body)
}

// GoogleAuthURL fetches the upstream's Google OAuth consent URL.
func (c *Client) GoogleAuthURL(ctx context.Context) (string, error) {
	body, err := c.doGet(ctx, "", "/auth/google/url")
	if err != nil {
		return "", fmt.Errorf("evmarket: google auth url: %w", err)
	}

	var resp envelope[struct {
		URL string `json:"url"`
	}]
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("evmarket: decode google auth url: %w", err)
	}
	return resp.Data.URL, nil
}

// ExchangeCode trades an OAuth authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (AuthResult, error) {
	body, err := c.doJSON(ctx, "POST", "", "/auth/exchange-code", exchangeCodeRequest{Code: code})
	if err != nil {
		return AuthResult{}, fmt.Errorf("evmarket: exchange code: %w", err)
	}
	return decodeAuthResult(body)
}

// Logout invalidates the upstream token.
func (c *Client) Logout(ctx context.Context, token string) (string, error) {
	body, err := c.doJSON(ctx, "POST", token, "/auth/logout", nil)
	if err != nil {
		return "", fmt.Errorf("evmarket: logout: %w", err)
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("evmarket: decode logout response: %w", err)
	}
	return resp.Message, nil
}

func decodeAuthResult(body []byte) (AuthResult, error) {
	var resp envelope[apiAuthData]
	if err := json.Unmarshal(body, &resp); err != nil {
		return AuthResult{}, fmt.Errorf("evmarket: decode auth response: %w", err)
	}
	return AuthResult{
		User:        resp.Data.User.toDomain(),
		AccessToken: resp.Data.AccessToken,
		Message:     resp.Message,
	}, nil
}
