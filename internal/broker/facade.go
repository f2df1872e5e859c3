// Package broker provides the facade consumed by the route layer: balance,
// positions, prices, and order submission over the configured providers.
//
// The facade decides its access mode exactly once, at construction, from the
// configuration it is given. There is no dynamic re-probing: a facade built
// without an account provider answers every account capability with absence
// for its whole lifetime, while price lookups keep working through whatever
// quote providers exist.
package broker

import (
	"context"
	"log/slog"
	"strings"

	"aladdin/internal/domain"
	"aladdin/internal/provider"
)

// AccessMode is the facade's fixed capability level.
type AccessMode string

const (
	// ModeLive means an authenticated brokerage account is configured and
	// usable for orders, positions, and balance.
	ModeLive AccessMode = "live"

	// ModeUnavailable means no account is configured; account capabilities
	// deterministically return absence.
	ModeUnavailable AccessMode = "unavailable"
)

// Facade is the public brokerage contract for the route layer. All absences
// are plain nil/empty values; the facade never panics or surfaces provider
// errors.
type Facade struct {
	mode    AccessMode
	account provider.AccountProvider
	quotes  *provider.Fallback
	log     *slog.Logger
}

// New creates a Facade. A nil account provider puts the facade into
// unavailable mode for the rest of its lifetime.
func New(account provider.AccountProvider, quotes *provider.Fallback, log *slog.Logger) *Facade {
	mode := ModeUnavailable
	if account != nil {
		mode = ModeLive
	}
	f := &Facade{
		mode:    mode,
		account: account,
		quotes:  quotes,
		log:     log.With("component", "broker"),
	}
	f.log.Info("broker facade initialised", "mode", mode)
	return f
}

// Mode returns the access mode fixed at construction.
func (f *Facade) Mode() AccessMode { return f.mode }

// Buy submits a market buy order. Returns nil when the facade is not live,
// the input is invalid, or the provider fails. Logging the attempt into the
// trade log is the caller's job.
func (f *Facade) Buy(ctx context.Context, symbol string, qty int64) *domain.OrderID {
	return f.submit(ctx, symbol, qty, domain.SideBuy)
}

// Sell submits a market sell order, with the same absence semantics as Buy.
func (f *Facade) Sell(ctx context.Context, symbol string, qty int64) *domain.OrderID {
	return f.submit(ctx, symbol, qty, domain.SideSell)
}

func (f *Facade) submit(ctx context.Context, symbol string, qty int64, side domain.OrderSide) *domain.OrderID {
	symbol = normalizeSymbol(symbol)
	if symbol == "" || qty <= 0 {
		f.log.Warn("rejecting invalid order", "symbol", symbol, "qty", qty, "side", side)
		return nil
	}
	if f.mode != ModeLive {
		f.log.Warn("order while unavailable", "symbol", symbol, "side", side)
		return nil
	}
	return f.account.SubmitOrder(ctx, symbol, qty, side)
}

// Balance returns the account equity, or nil when not live or on provider
// failure.
func (f *Facade) Balance(ctx context.Context) *float64 {
	if f.mode != ModeLive {
		return nil
	}
	snap := f.account.FetchAccountSnapshot(ctx)
	if snap == nil {
		return nil
	}
	return domain.Float(snap.Equity)
}

// PLToday returns equity minus prior-close equity. It is nil whenever the
// snapshot is unavailable; a partial snapshot never produces a number.
func (f *Facade) PLToday(ctx context.Context) *float64 {
	if f.mode != ModeLive {
		return nil
	}
	snap := f.account.FetchAccountSnapshot(ctx)
	if snap == nil {
		return nil
	}
	return domain.Float(snap.Equity - snap.PriorEquity)
}

// Positions returns the open positions, or an empty slice when not live or
// on provider failure.
func (f *Facade) Positions(ctx context.Context) []domain.Position {
	if f.mode != ModeLive {
		return []domain.Position{}
	}
	return f.account.FetchPositions(ctx)
}

// Prices resolves a price (or nil) for each symbol through the fallback
// chain. Symbols are upper-cased and blanks dropped; an empty input returns
// an empty map without invoking any provider.
func (f *Facade) Prices(ctx context.Context, symbols []string) map[string]*float64 {
	cleaned := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if s := normalizeSymbol(sym); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return map[string]*float64{}
	}
	return f.quotes.Resolve(ctx, cleaned)
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
