// Package aladdin provides a Go client for the aladdin-server dashboard API.
package aladdin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Profile is the dashboard account summary. Capital and PLToday are nil when
// the server has no account access.
type Profile struct {
	Capital    *float64 `json:"capital"`
	OpenTrades int      `json:"open_trades"`
	PLToday    *float64 `json:"pl_today"`
	Nickname   string   `json:"nickname"`
}

// ValuedPosition is one position with its live valuation. Derived fields are
// nil when no price was available.
type ValuedPosition struct {
	Qty     int64    `json:"qty"`
	AvgCost float64  `json:"avg"`
	Price   *float64 `json:"price"`
	Value   *float64 `json:"value"`
	PL      *float64 `json:"pl"`
	PLPct   *float64 `json:"pl_pct"`
}

// Summary is the advisory market brief.
type Summary struct {
	Summary     string `json:"summary"`
	GeneratedAt string `json:"generated_at"`
}

// TelegramStatus reports the server-side bot state.
type TelegramStatus struct {
	Status     bool   `json:"status"`
	LastActive string `json:"last_active"`
}

// Health is the healthz payload.
type Health struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

// Client talks to one aladdin-server instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given server base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Prices resolves prices for the given symbols. Unresolved symbols map to nil.
func (c *Client) Prices(ctx context.Context, symbols []string) (map[string]*float64, error) {
	q := url.Values{"syms": {strings.Join(symbols, ",")}}
	var out map[string]*float64
	if err := c.get(ctx, "/prices?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Profile retrieves the dashboard account summary.
func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var out Profile
	err := c.get(ctx, "/portfolio/profile", &out)
	return out, err
}

// Positions retrieves the open positions valued at current prices.
func (c *Client) Positions(ctx context.Context) (map[string]ValuedPosition, error) {
	var out map[string]ValuedPosition
	if err := c.get(ctx, "/portfolio/positions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Buy submits a market buy order and returns the order ID.
func (c *Client) Buy(ctx context.Context, symbol string, qty int64) (string, error) {
	return c.trade(ctx, "/trade/buy", symbol, qty)
}

// Sell submits a market sell order and returns the order ID.
func (c *Client) Sell(ctx context.Context, symbol string, qty int64) (string, error) {
	return c.trade(ctx, "/trade/sell", symbol, qty)
}

func (c *Client) trade(ctx context.Context, path, symbol string, qty int64) (string, error) {
	body, err := json.Marshal(map[string]any{"symbol": symbol, "qty": qty})
	if err != nil {
		return "", err
	}
	var out struct {
		OrderID string `json:"order_id"`
	}
	if err := c.post(ctx, path, body, &out); err != nil {
		return "", err
	}
	return out.OrderID, nil
}

// Log retrieves the last limit trade-log lines as one newline-joined string.
func (c *Client) Log(ctx context.Context, limit int) (string, error) {
	var out struct {
		Log string `json:"log"`
	}
	err := c.get(ctx, fmt.Sprintf("/log?limit=%d", limit), &out)
	return out.Log, err
}

// HourlySummary retrieves the advisory market brief.
func (c *Client) HourlySummary(ctx context.Context) (Summary, error) {
	var out Summary
	err := c.get(ctx, "/hourly_summary", &out)
	return out, err
}

// TelegramStatus retrieves the bot status.
func (c *Client) TelegramStatus(ctx context.Context) (TelegramStatus, error) {
	var out TelegramStatus
	err := c.get(ctx, "/telegram_status", &out)
	return out, err
}

// Health checks server liveness and reports the broker access mode.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.get(ctx, "/healthz", &out)
	return out, err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %s", req.Method, req.URL.Path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
