package domain

// Value joins a position with a quote. When the quote carries no price, every
// derived field stays nil; they are never partially computed. PLPct is nil
// whenever AvgCost is zero, so a free or corrupt cost basis can never divide
// by zero.
func Value(p Position, q Quote) ValuedPosition {
	vp := ValuedPosition{Position: p}
	if q.Price == nil {
		return vp
	}

	price := *q.Price
	qty := float64(p.Qty)

	vp.Price = Float(price)
	vp.Value = Float(price * qty)
	vp.PL = Float((price - p.AvgCost) * qty)
	if p.AvgCost != 0 {
		vp.PLPct = Float((price - p.AvgCost) / p.AvgCost * 100)
	}
	return vp
}
