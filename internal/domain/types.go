// Package domain defines the core data types shared across the trading
// service: quotes, positions, account snapshots, the dashboard profile, and
// position valuation. Optional values are modelled as pointers; a nil price
// means "no provider could supply one" and is distinct from a zero price.
package domain

import "time"

// OrderSide is the direction of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderID identifies a submitted order at the brokerage.
type OrderID string

// Quote is a point-in-time price for a symbol. Price is nil when no provider
// could supply it; zero is a valid price and never used as a sentinel.
type Quote struct {
	Symbol string
	Price  *float64
}

// Position is a holding at the brokerage. Qty is signed: negative quantities
// are short positions and must be preserved as-is. AvgCost comes from the
// brokerage account only, never from a quote provider.
type Position struct {
	Symbol  string
	Qty     int64
	AvgCost float64
}

// AccountSnapshot is the account's equity now and at the prior close. It is
// only ever produced whole; a provider that cannot supply both fields returns
// no snapshot at all.
type AccountSnapshot struct {
	Equity      float64
	PriorEquity float64
}

// Profile is the dashboard account summary. OpenTrades is derived from the
// current position count at read time, never stored independently.
type Profile struct {
	Capital    *float64
	OpenTrades int
	PLToday    *float64
	Nickname   string
}

// ValuedPosition is a position joined with a live price. Value, PL and PLPct
// are populated together or not at all: all nil whenever Price is nil.
type ValuedPosition struct {
	Position
	Price  *float64
	Value  *float64
	PL     *float64
	PLPct  *float64
}

// Summary is an advisory text with its generation time, used for TTL checks.
type Summary struct {
	Text        string
	GeneratedAt time.Time
}

// Float returns a pointer to v. Convenience for optional fields.
func Float(v float64) *float64 { return &v }
