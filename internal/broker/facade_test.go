package broker

import (
	"context"
	"log/slog"
	"testing"

	"aladdin/internal/domain"
	"aladdin/internal/provider"
)

// fakeAccount is an in-memory AccountProvider with scriptable responses.
type fakeAccount struct {
	snapshot  *domain.AccountSnapshot
	positions []domain.Position
	orderID   *domain.OrderID
	submitted []string
}

func (f *fakeAccount) FetchPositions(context.Context) []domain.Position {
	if f.positions == nil {
		return []domain.Position{}
	}
	return f.positions
}

func (f *fakeAccount) FetchAccountSnapshot(context.Context) *domain.AccountSnapshot {
	return f.snapshot
}

func (f *fakeAccount) SubmitOrder(_ context.Context, symbol string, qty int64, side domain.OrderSide) *domain.OrderID {
	f.submitted = append(f.submitted, string(side)+" "+symbol)
	return f.orderID
}

// fakeQuotes is a QuoteProvider backed by a fixed price table.
type fakeQuotes struct {
	prices map[string]float64
	calls  int
}

func (f *fakeQuotes) Name() string { return "fake" }

func (f *fakeQuotes) FetchPrices(_ context.Context, symbols []string) map[string]float64 {
	f.calls++
	out := make(map[string]float64)
	for _, sym := range symbols {
		if p, ok := f.prices[sym]; ok {
			out[sym] = p
		}
	}
	return out
}

func testLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func newTestFacade(account *fakeAccount, quotes *fakeQuotes) *Facade {
	var acct provider.AccountProvider
	if account != nil {
		acct = account
	}
	chain := []provider.QuoteProvider{}
	if quotes != nil {
		chain = append(chain, quotes)
	}
	return New(acct, provider.NewFallback(chain, testLogger()), testLogger())
}

func TestUnavailableMode(t *testing.T) {
	// Facade constructed with no credentials: every account capability is
	// deterministically absent.
	f := newTestFacade(nil, &fakeQuotes{prices: map[string]float64{"AAPL": 190}})
	ctx := context.Background()

	if f.Mode() != ModeUnavailable {
		t.Fatalf("Mode() = %q, want %q", f.Mode(), ModeUnavailable)
	}
	if got := f.Balance(ctx); got != nil {
		t.Errorf("Balance() = %v, want nil", *got)
	}
	if got := f.PLToday(ctx); got != nil {
		t.Errorf("PLToday() = %v, want nil", *got)
	}
	if got := f.Positions(ctx); len(got) != 0 {
		t.Errorf("Positions() = %v, want empty", got)
	}
	if got := f.Buy(ctx, "AAPL", 1); got != nil {
		t.Errorf("Buy() = %v, want nil", *got)
	}

	// Price lookups still work through the vendor chain.
	prices := f.Prices(ctx, []string{"AAPL"})
	if prices["AAPL"] == nil || *prices["AAPL"] != 190 {
		t.Errorf("Prices()[AAPL] = %v, want 190", prices["AAPL"])
	}
}

func TestLiveMode(t *testing.T) {
	id := domain.OrderID("ord-1")
	account := &fakeAccount{
		snapshot:  &domain.AccountSnapshot{Equity: 10500, PriorEquity: 10000},
		positions: []domain.Position{{Symbol: "AAPL", Qty: 10, AvgCost: 150}},
		orderID:   &id,
	}
	f := newTestFacade(account, nil)
	ctx := context.Background()

	if f.Mode() != ModeLive {
		t.Fatalf("Mode() = %q, want %q", f.Mode(), ModeLive)
	}
	if got := f.Balance(ctx); got == nil || *got != 10500 {
		t.Errorf("Balance() = %v, want 10500", got)
	}
	if got := f.PLToday(ctx); got == nil || *got != 500 {
		t.Errorf("PLToday() = %v, want 500", got)
	}
	if got := f.Positions(ctx); len(got) != 1 || got[0].Symbol != "AAPL" {
		t.Errorf("Positions() = %v, want the AAPL position", got)
	}
	if got := f.Sell(ctx, "aapl", 3); got == nil || *got != id {
		t.Errorf("Sell() = %v, want %q", got, id)
	}
	if len(account.submitted) != 1 || account.submitted[0] != "sell AAPL" {
		t.Errorf("submitted = %v, want normalised sell AAPL", account.submitted)
	}
}

func TestSnapshotFailure(t *testing.T) {
	// A failed snapshot yields absent balance AND absent P&L; the difference
	// is never computed from a partial snapshot.
	f := newTestFacade(&fakeAccount{snapshot: nil}, nil)
	ctx := context.Background()

	if got := f.Balance(ctx); got != nil {
		t.Errorf("Balance() = %v, want nil on snapshot failure", *got)
	}
	if got := f.PLToday(ctx); got != nil {
		t.Errorf("PLToday() = %v, want nil on snapshot failure", *got)
	}
}

func TestOrderValidation(t *testing.T) {
	id := domain.OrderID("ord-1")
	account := &fakeAccount{orderID: &id}
	f := newTestFacade(account, nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		symbol string
		qty    int64
	}{
		{"zero qty", "AAPL", 0},
		{"negative qty", "AAPL", -5},
		{"empty symbol", "", 1},
		{"blank symbol", "   ", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.Buy(ctx, tc.symbol, tc.qty); got != nil {
				t.Errorf("Buy(%q, %d) = %v, want nil", tc.symbol, tc.qty, *got)
			}
		})
	}
	// Invalid input is rejected before any provider call.
	if len(account.submitted) != 0 {
		t.Errorf("provider received %v, want no calls for invalid input", account.submitted)
	}
}

func TestPricesEmptyAndNormalised(t *testing.T) {
	quotes := &fakeQuotes{prices: map[string]float64{"NVDA": 130.5}}
	f := newTestFacade(nil, quotes)
	ctx := context.Background()

	if got := f.Prices(ctx, nil); len(got) != 0 {
		t.Errorf("Prices(nil) = %v, want empty", got)
	}
	if got := f.Prices(ctx, []string{"", "  "}); len(got) != 0 {
		t.Errorf("Prices(blanks) = %v, want empty", got)
	}
	if quotes.calls != 0 {
		t.Errorf("provider invoked %d times for empty input, want 0", quotes.calls)
	}

	prices := f.Prices(ctx, []string{" nvda "})
	if prices["NVDA"] == nil || *prices["NVDA"] != 130.5 {
		t.Errorf("Prices()[NVDA] = %v, want 130.5 after normalisation", prices["NVDA"])
	}
}
