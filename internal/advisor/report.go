package advisor

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// AnalyzeRequest carries the dashboard's analyze-form inputs.
type AnalyzeRequest struct {
	Capital    float64  `json:"capital"`
	Risk       string   `json:"risk"`
	Leverage   float64  `json:"lev"`
	Indicators []string `json:"inds"`
	Model      string   `json:"llm"`
}

// buildReport renders a demo technical-indicator report for the analyze
// prompt. The readings are randomly generated, not computed from market
// data; the dashboard is explicit that this is illustrative only.
func buildReport(req AnalyzeRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Capital: %.0f, risk profile: %s, leverage: %.0fx.\n", req.Capital, orDefault(req.Risk, "medium"), req.Leverage)

	indicators := req.Indicators
	if len(indicators) == 0 {
		indicators = []string{"RSI", "MACD", "SMA"}
	}
	b.WriteString("Indicator readings (demo data):\n")
	for _, ind := range indicators {
		fmt.Fprintf(&b, "- %s\n", indicatorLine(ind))
	}
	return b.String()
}

func indicatorLine(name string) string {
	switch strings.ToUpper(name) {
	case "RSI":
		return fmt.Sprintf("RSI(14): %.1f", 20+rand.Float64()*60)
	case "MACD":
		return fmt.Sprintf("MACD: %.2f signal %.2f", rand.Float64()*4-2, rand.Float64()*4-2)
	case "SMA":
		return fmt.Sprintf("SMA(50) trend: %s", pick("rising", "falling", "flat"))
	case "BOLLINGER":
		return fmt.Sprintf("Bollinger band position: %s", pick("upper", "mid", "lower"))
	default:
		return fmt.Sprintf("%s: %.2f", name, rand.Float64()*100)
	}
}

func pick(options ...string) string {
	return options[rand.IntN(len(options))]
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
