package provider

import (
	"context"
	"log/slog"
)

// Fallback answers "the best known price for each symbol right now" by trying
// quote providers in a fixed priority order. The first provider to resolve a
// symbol wins; later providers are only asked about what is still missing.
// Prices are never blended across providers, so every symbol's answer is
// internally consistent and reproducible.
type Fallback struct {
	providers []QuoteProvider
	log       *slog.Logger
}

// NewFallback creates a resolver over the given providers in priority order.
func NewFallback(providers []QuoteProvider, log *slog.Logger) *Fallback {
	return &Fallback{
		providers: providers,
		log:       log.With("component", "fallback"),
	}
}

// Providers returns the configured chain, in priority order.
func (f *Fallback) Providers() []QuoteProvider {
	return f.providers
}

// Resolve returns a price (or nil) for every requested symbol. An empty
// input returns an empty map without touching any provider. A provider's
// failure for some symbols is final for that provider but does not block
// later providers; symbols no provider can answer map to nil.
func (f *Fallback) Resolve(ctx context.Context, symbols []string) map[string]*float64 {
	result := make(map[string]*float64, len(symbols))
	if len(symbols) == 0 {
		return result
	}

	unresolved := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if _, seen := result[sym]; seen {
			continue
		}
		result[sym] = nil
		unresolved = append(unresolved, sym)
	}

	for _, p := range f.providers {
		if len(unresolved) == 0 {
			break
		}

		prices := p.FetchPrices(ctx, unresolved)

		remaining := unresolved[:0]
		for _, sym := range unresolved {
			if price, ok := prices[sym]; ok {
				v := price
				result[sym] = &v
			} else {
				remaining = append(remaining, sym)
			}
		}
		if resolved := len(unresolved) - len(remaining); resolved > 0 {
			f.log.Debug("prices resolved", "provider", p.Name(), "resolved", resolved, "remaining", len(remaining))
		}
		unresolved = remaining
	}

	if len(unresolved) > 0 {
		f.log.Warn("symbols unresolved by all providers", "count", len(unresolved), "symbols", unresolved)
	}
	return result
}
