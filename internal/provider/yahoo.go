package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

var _ QuoteProvider = (*YahooClient)(nil)

// yahooChartResponse is the subset of the v8 chart payload we read: the
// regular market price from the result meta block.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooClient is a keyless price-only vendor client reading the public Yahoo
// Finance chart endpoint. It is the last resort in the default fallback
// order: unauthenticated, but rate-limited and occasionally flaky.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

// NewYahooClient creates a YahooClient with a conservative request rate.
func NewYahooClient(log *slog.Logger) *YahooClient {
	return &YahooClient{
		baseURL:    "https://query1.finance.yahoo.com",
		httpClient: &http.Client{Timeout: callTimeout},
		limiter:    rate.NewLimiter(rate.Limit(2), 2),
		log:        log.With("provider", "yahoo"),
	}
}

// Name returns "yahoo".
func (c *YahooClient) Name() string { return "yahoo" }

// FetchPrices resolves prices one symbol at a time via the chart endpoint.
// Failed symbols are skipped; successes still come back.
func (c *YahooClient) FetchPrices(ctx context.Context, symbols []string) map[string]float64 {
	out := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		price, err := c.fetchPrice(ctx, sym)
		if err != nil {
			c.log.Warn("price fetch failed", "symbol", sym, "error", err)
			continue
		}
		out[sym] = price
	}
	return out
}

func (c *YahooClient) fetchPrice(ctx context.Context, symbol string) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", c.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, err
	}
	// Yahoo rejects requests without a browser-ish user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}
	if payload.Chart.Error != nil {
		return 0, fmt.Errorf("api error %s: %s", payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || payload.Chart.Result[0].Meta.RegularMarketPrice == nil {
		return 0, fmt.Errorf("no market price for %s", symbol)
	}

	return *payload.Chart.Result[0].Meta.RegularMarketPrice, nil
}
