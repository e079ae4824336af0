package amm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the market-maker engine over its JSON HTTP API. Pricing
// stays entirely on the engine side; the client only moves requests and
// answers.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates an engine client. The http timeout is a hard backstop;
// callers additionally bound individual calls through their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

type engineError struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var engineErr engineError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&engineErr); decodeErr == nil && engineErr.Error != "" {
			return fmt.Errorf("engine rejected %s %s: %s", method, path, engineErr.Error)
		}
		return fmt.Errorf("engine error: %s %s returned %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// ProvisionLiquidity seeds the outcome-token pools of a new bet.
func (c *Client) ProvisionLiquidity(ctx context.Context, betID string, outcomeCount int) error {
	payload := map[string]interface{}{"outcomes": outcomeCount}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/bets/%s/liquidity", betID), payload, nil)
}

// Buy executes a buy trade against the engine.
func (c *Client) Buy(ctx context.Context, betID, userID string, amount int64, outcomeIndex int, minOutcomeTokens int64) error {
	payload := map[string]interface{}{
		"user":               userID,
		"amount":             amount,
		"outcome":            outcomeIndex,
		"min_outcome_tokens": minOutcomeTokens,
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/bets/%s/buy", betID), payload, nil)
}

// Sell executes a sell trade against the engine.
func (c *Client) Sell(ctx context.Context, betID, userID string, amount int64, outcomeIndex int, minReturn int64) (*SellResult, error) {
	payload := map[string]interface{}{
		"user":       userID,
		"amount":     amount,
		"outcome":    outcomeIndex,
		"min_return": minReturn,
	}
	var result SellResult
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/bets/%s/sell", betID), payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// QuoteBuy asks what a hypothetical buy would yield.
func (c *Client) QuoteBuy(ctx context.Context, betID string, amount int64, outcomeIndex int) (int64, error) {
	var result struct {
		Amount int64 `json:"amount"`
	}
	path := fmt.Sprintf("/bets/%s/quote/buy?amount=%d&outcome=%d", betID, amount, outcomeIndex)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return 0, err
	}
	return result.Amount, nil
}

// QuoteSell asks what a hypothetical sell would yield.
func (c *Client) QuoteSell(ctx context.Context, betID string, amount int64, outcomeIndex int) (int64, error) {
	var result struct {
		Amount int64 `json:"amount"`
	}
	path := fmt.Sprintf("/bets/%s/quote/sell?amount=%d&outcome=%d", betID, amount, outcomeIndex)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return 0, err
	}
	return result.Amount, nil
}

// BalanceOf reads a user's outcome-token balance.
func (c *Client) BalanceOf(ctx context.Context, betID string, outcomeIndex int, userID string) (int64, error) {
	var result struct {
		Balance int64 `json:"balance"`
	}
	path := fmt.Sprintf("/bets/%s/outcomes/%d/balances/%s", betID, outcomeIndex, userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return 0, err
	}
	return result.Balance, nil
}

// InvestorsOf enumerates all holders of one outcome token.
func (c *Client) InvestorsOf(ctx context.Context, betID string, outcomeIndex int) ([]Investor, error) {
	var result struct {
		Investors []Investor `json:"investors"`
	}
	path := fmt.Sprintf("/bets/%s/outcomes/%d/investors", betID, outcomeIndex)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Investors, nil
}

// InvestmentOf reads a user's original stake in one outcome.
func (c *Client) InvestmentOf(ctx context.Context, betID string, outcomeIndex int, userID string) (int64, error) {
	var result struct {
		Investment int64 `json:"investment"`
	}
	path := fmt.Sprintf("/bets/%s/outcomes/%d/investments/%s", betID, outcomeIndex, userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return 0, err
	}
	return result.Investment, nil
}

// Payout releases a user's winnings for a resolved bet.
func (c *Client) Payout(ctx context.Context, betID, userID string) error {
	payload := map[string]interface{}{"user": userID}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/bets/%s/payout", betID), payload, nil)
}

// Compile-time interface check.
var _ Engine = (*Client)(nil)
