package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"
)

var _ QuoteProvider = (*TwelveDataClient)(nil)

// twelveDataPriceResponse is the /price payload. Twelve Data returns the
// price as a string; error payloads carry code and message instead.
type twelveDataPriceResponse struct {
	Price   string `json:"price"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// TwelveDataClient is a price-only vendor client for the Twelve Data REST
// API. The free tier meters requests per minute, so calls go through a
// token-bucket limiter.
type TwelveDataClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

// NewTwelveDataClient creates a TwelveDataClient. perMinute caps outbound
// request rate; the free tier allows 8 credits per minute.
func NewTwelveDataClient(apiKey string, perMinute int, log *slog.Logger) *TwelveDataClient {
	if perMinute <= 0 {
		perMinute = 8
	}
	return &TwelveDataClient{
		baseURL:    "https://api.twelvedata.com",
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: callTimeout},
		limiter:    rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		log:        log.With("provider", "twelvedata"),
	}
}

// Name returns "twelvedata".
func (c *TwelveDataClient) Name() string { return "twelvedata" }

// FetchPrices resolves prices one symbol at a time (the /price endpoint has
// no batch form on the free tier). A failed symbol is skipped; the rest of
// the batch still resolves.
func (c *TwelveDataClient) FetchPrices(ctx context.Context, symbols []string) map[string]float64 {
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

func (c *TwelveDataClient) fetchPrice(ctx context.Context, symbol string) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("apikey", c.apiKey)
	reqURL := c.baseURL + "/price?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload twelveDataPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}
	// API errors come back as 200 with a code/message body.
	if payload.Price == "" {
		return 0, fmt.Errorf("api error %d: %s", payload.Code, payload.Message)
	}

	price, err := strconv.ParseFloat(payload.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing price %q: %w", payload.Price, err)
	}
	return price, nil
}
