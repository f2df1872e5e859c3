// Package provider implements clients for external price and account data
// sources, normalised to the domain types, plus the ordered fallback resolver
// that answers batched price lookups.
//
// Provider methods never return errors. Every provider-specific fault —
// network timeout, auth failure, malformed response — is caught at this
// boundary, logged as a diagnostic, and converted to an absent result:
// a missing map key, a nil snapshot, an empty slice, or a nil order ID.
// Callers decide how absence is rendered; nothing here retries.
package provider

import (
	"context"
	"time"

	"aladdin/internal/domain"
)

// callTimeout bounds every outbound provider call.
const callTimeout = 10 * time.Second

// QuoteProvider is a price-only source. FetchPrices is best-effort per
// symbol: the returned map contains only the symbols it could resolve, and a
// failure for one symbol never fails the batch.
type QuoteProvider interface {
	Name() string
	FetchPrices(ctx context.Context, symbols []string) map[string]float64
}

// AccountProvider is the order-capable brokerage account source. Only one is
// configured per process; quote-only vendors do not implement it.
type AccountProvider interface {
	// FetchPositions returns the open positions, or an empty slice on
	// failure. "No positions" and "provider failure" look the same here;
	// the diagnostic log is the only place the distinction survives.
	FetchPositions(ctx context.Context) []domain.Position

	// FetchAccountSnapshot returns equity and prior-close equity as a unit,
	// or nil when either is unavailable.
	FetchAccountSnapshot(ctx context.Context) *domain.AccountSnapshot

	// SubmitOrder places a market day order. A nil result signals failure.
	SubmitOrder(ctx context.Context, symbol string, qty int64, side domain.OrderSide) *domain.OrderID
}
