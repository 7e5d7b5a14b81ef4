// Package tokenledger provides the client for the external value-transfer
// service that manages the actual fungible balances. The escrow engine only
// tracks dollars; this client is the single boundary where whole dollars
// have already been scaled into the service's smallest unit.
package tokenledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/escrow/internal/domain"
)

// Client talks to the token ledger service over its JSON API.
// It satisfies domain.TokenClient.
type Client struct {
	baseURL       string
	apiKey        string
	asset         string // designated asset identity
	escrowAccount string // custody account all pulls land in and pushes leave from
	httpClient    *http.Client
	log           zerolog.Logger
}

// NewClient creates a new token ledger client
func NewClient(baseURL, apiKey, asset, escrowAccount string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:       baseURL,
		apiKey:        apiKey,
		asset:         asset,
		escrowAccount: escrowAccount,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log.With().Str("client", "tokenledger").Logger(),
	}
}

// transferRequest is the request body for pull and push transfers
type transferRequest struct {
	Asset  string `json:"asset"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"` // smallest unit
}

// errorResponse is the service's standard error body
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// balanceResponse is the response body for balance queries
type balanceResponse struct {
	Holder  string `json:"holder"`
	Asset   string `json:"asset"`
	Balance int64  `json:"balance"`
}

// Pull moves amount of the designated asset from the given account into
// escrow custody. The service rejects the transfer unless the source has
// pre-authorized at least this amount.
func (c *Client) Pull(from string, amount int64) error {
	return c.transfer("/api/transfers/pull", transferRequest{
		Asset:  c.asset,
		From:   from,
		To:     c.escrowAccount,
		Amount: amount,
	})
}

// Push moves amount of the designated asset from escrow custody to the
// given account.
func (c *Client) Push(to string, amount int64) error {
	return c.transfer("/api/transfers/push", transferRequest{
		Asset:  c.asset,
		From:   c.escrowAccount,
		To:     to,
		Amount: amount,
	})
}

// PushAsset moves amount of an arbitrary asset from escrow custody to the
// given account. The engine keeps no ledger for foreign assets.
func (c *Client) PushAsset(asset, to string, amount int64) error {
	return c.transfer("/api/transfers/push", transferRequest{
		Asset:  asset,
		From:   c.escrowAccount,
		To:     to,
		Amount: amount,
	})
}

// BalanceOf returns the designated-asset balance held by the account,
// in the service's smallest unit.
func (c *Client) BalanceOf(holder string) (int64, error) {
	endpoint := fmt.Sprintf("%s/api/balances/%s?asset=%s",
		c.baseURL, url.PathEscape(holder), url.QueryEscape(c.asset))

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build balance request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("balance request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, c.decodeError(resp)
	}

	var body balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode balance response: %w", err)
	}

	return body.Balance, nil
}

// transfer issues a one-shot transfer request. No retries: a failed transfer
// fails the whole escrow operation and the caller re-issues if desired.
func (c *Client) transfer(path string, reqBody transferRequest) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to encode transfer request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transfer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp)
	}

	c.log.Debug().
		Str("asset", reqBody.Asset).
		Str("from", reqBody.From).
		Str("to", reqBody.To).
		Int64("amount", reqBody.Amount).
		Msg("Transfer completed")

	return nil
}

// decodeError maps the service's error codes onto the engine's named errors
// so callers can distinguish allowance and balance failures.
func (c *Client) decodeError(resp *http.Response) error {
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("token ledger returned status %d", resp.StatusCode)
	}

	switch body.Code {
	case "INSUFFICIENT_ALLOWANCE":
		return domain.ErrInsufficientAllowance
	case "INSUFFICIENT_BALANCE":
		return domain.ErrInsufficientBalance
	}

	return fmt.Errorf("token ledger returned status %d: %s", resp.StatusCode, body.Error)
}
