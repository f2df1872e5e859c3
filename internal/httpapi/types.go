package httpapi

// profileResponse is the dashboard profile payload. Absent account values
// render as JSON null, never zero.
type profileResponse struct {
	Capital    *float64 `json:"capital"`
	OpenTrades int      `json:"open_trades"`
	PLToday    *float64 `json:"pl_today"`
	Nickname   string   `json:"nickname"`
}

// valuedPositionJSON is one entry of the positions map.
type valuedPositionJSON struct {
	Qty     int64    `json:"qty"`
	AvgCost float64  `json:"avg"`
	Price   *float64 `json:"price"`
	Value   *float64 `json:"value"`
	PL      *float64 `json:"pl"`
	PLPct   *float64 `json:"pl_pct"`
}

type tradeRequest struct {
	Symbol string `json:"symbol"`
	Qty    int64  `json:"qty"`
}

type tradeResponse struct {
	OrderID string `json:"order_id"`
}

type logResponse struct {
	Log string `json:"log"`
}

type summaryResponse struct {
	Summary     string `json:"summary"`
	GeneratedAt string `json:"generated_at,omitempty"`
}

type telegramStatusResponse struct {
	Status     bool   `json:"status"`
	LastActive string `json:"last_active,omitempty"`
}

type notificationJSON struct {
	At   string `json:"at"`
	Text string `json:"text"`
}

type healthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}
