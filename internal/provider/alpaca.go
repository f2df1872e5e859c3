package provider

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"aladdin/internal/domain"
)

// Compile-time interface checks.
var _ QuoteProvider = (*AlpacaClient)(nil)
var _ AccountProvider = (*AlpacaClient)(nil)

// AlpacaClient is the account-capable provider backed by the Alpaca trading
// and market-data APIs. It is the only provider that can submit orders and
// read positions; it also serves as a quote source in the fallback chain.
type AlpacaClient struct {
	tradeClient *alpaca.Client
	mdClient    *marketdata.Client
	log         *slog.Logger
}

// NewAlpacaClient creates an AlpacaClient with the given credentials and
// endpoints. Every underlying HTTP call carries the provider call timeout.
func NewAlpacaClient(apiKey, apiSecret, baseURL, dataURL string, log *slog.Logger) *AlpacaClient {
	httpClient := &http.Client{Timeout: callTimeout}

	return &AlpacaClient{
		tradeClient: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:     apiKey,
			APISecret:  apiSecret,
			BaseURL:    baseURL,
			HTTPClient: httpClient,
		}),
		mdClient: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:     apiKey,
			APISecret:  apiSecret,
			BaseURL:    dataURL,
			HTTPClient: httpClient,
		}),
		log: log.With("provider", "alpaca"),
	}
}

// Name returns "alpaca".
func (c *AlpacaClient) Name() string { return "alpaca" }

// FetchPrices resolves latest-trade prices for the given symbols in one
// batched market-data call. Symbols the API does not return are simply
// missing from the result.
func (c *AlpacaClient) FetchPrices(_ context.Context, symbols []string) map[string]float64 {
	trades, err := c.mdClient.GetLatestTrades(symbols, marketdata.GetLatestTradeRequest{})
	if err != nil {
		c.log.Warn("latest trades fetch failed", "symbols", len(symbols), "error", err)
		return map[string]float64{}
	}

	out := make(map[string]float64, len(trades))
	for sym, trade := range trades {
		out[sym] = trade.Price
	}
	return out
}

// FetchPositions returns the account's open positions. Quantities keep their
// sign: a short position comes back negative.
func (c *AlpacaClient) FetchPositions(_ context.Context) []domain.Position {
	alpacaPositions, err := c.tradeClient.GetPositions()
	if err != nil {
		c.log.Warn("positions fetch failed", "error", err)
		return []domain.Position{}
	}

	out := make([]domain.Position, 0, len(alpacaPositions))
	for _, p := range alpacaPositions {
		out = append(out, domain.Position{
			Symbol:  p.Symbol,
			Qty:     p.Qty.IntPart(),
			AvgCost: p.AvgEntryPrice.InexactFloat64(),
		})
	}
	return out
}

// FetchAccountSnapshot returns current and prior-close equity, or nil on any
// failure. The snapshot is never produced partially.
func (c *AlpacaClient) FetchAccountSnapshot(_ context.Context) *domain.AccountSnapshot {
	acct, err := c.tradeClient.GetAccount()
	if err != nil {
		c.log.Warn("account fetch failed", "error", err)
		return nil
	}

	return &domain.AccountSnapshot{
		Equity:      acct.Equity.InexactFloat64(),
		PriorEquity: acct.LastEquity.InexactFloat64(),
	}
}

// SubmitOrder places a market day order and returns its ID, or nil on
// failure. The client order ID makes accidental resubmission visible on the
// brokerage side.
func (c *AlpacaClient) SubmitOrder(_ context.Context, symbol string, qty int64, side domain.OrderSide) *domain.OrderID {
	dqty := decimal.NewFromInt(qty)
	order, err := c.tradeClient.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:        symbol,
		Qty:           &dqty,
		Side:          alpaca.Side(side),
		Type:          alpaca.Market,
		TimeInForce:   alpaca.Day,
		ClientOrderID: uuid.NewString(),
	})
	if err != nil {
		c.log.Warn("order submit failed", "symbol", symbol, "qty", qty, "side", side, "error", err)
		return nil
	}

	id := domain.OrderID(order.ID)
	c.log.Info("order submitted", "symbol", symbol, "qty", qty, "side", side, "order_id", order.ID)
	return &id
}
