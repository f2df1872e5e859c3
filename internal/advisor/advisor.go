// Package advisor produces the dashboard's advisory summary by prompting a
// hosted LLM with the current portfolio state. Summaries are cached in the
// state store and only regenerated once the cached text goes stale.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"aladdin/internal/state"
	"aladdin/internal/util"
)

// Unavailable is returned when no advisor is configured and no previous
// summary exists.
const Unavailable = "AI summary unavailable (advisor not configured)."

const requestTimeout = 30 * time.Second

// Advisor calls the OpenAI chat-completions API and maintains the cached
// summary in the state store.
type Advisor struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	store      *state.Store
	log        *slog.Logger
}

// New creates an Advisor. An empty API key produces a disabled advisor that
// falls back to the previous summary (or the unavailable message).
func New(apiKey, model string, store *state.Store, log *slog.Logger) *Advisor {
	return &Advisor{
		baseURL:    "https://api.openai.com",
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: requestTimeout},
		store:      store,
		log:        log.With("component", "advisor"),
	}
}

// Enabled reports whether an API key is configured.
func (a *Advisor) Enabled() bool { return a.apiKey != "" }

// HourlySummary returns the cached summary while it is fresh, and otherwise
// regenerates it from the current portfolio state. Regeneration failures
// degrade to the previous summary rather than an error.
func (a *Advisor) HourlySummary(ctx context.Context) string {
	if !a.store.SummaryStale() {
		return a.store.Summary().Text
	}

	prompt := a.portfolioPrompt()
	text, err := a.ask(ctx, a.model, prompt)
	if err != nil {
		a.log.Warn("summary regeneration failed", "error", err)
		return a.fallbackSummary()
	}

	a.store.SetSummary(text)
	return text
}

// Analyze runs an on-demand analysis for the dashboard's analyze button:
// a demo indicator report plus an LLM commentary. The result replaces the
// cached summary.
func (a *Advisor) Analyze(ctx context.Context, req AnalyzeRequest) string {
	report := buildReport(req)
	prompt := fmt.Sprintf(
		"You are a trading assistant. Given this snapshot, reply with a short plain-text market brief (3 sentences max).\n\n%s",
		report,
	)

	model := req.Model
	if model == "" {
		model = a.model
	}

	text, err := a.ask(ctx, model, prompt)
	if err != nil {
		a.log.Warn("analyze failed", "error", err)
		return a.fallbackSummary()
	}

	a.store.SetSummary(text)
	return text
}

// fallbackSummary returns the previous summary when one exists, else the
// fixed unavailable message.
func (a *Advisor) fallbackSummary() string {
	if prev := a.store.Summary().Text; prev != "" {
		return prev
	}
	return Unavailable
}

// portfolioPrompt renders the current positions and profile into a prompt.
func (a *Advisor) portfolioPrompt() string {
	var b strings.Builder
	b.WriteString("Summarise this portfolio for a dashboard header in 2 short sentences.\n")

	profile := a.store.Profile()
	fmt.Fprintf(&b, "Open trades: %d.\n", profile.OpenTrades)
	if profile.Capital != nil {
		fmt.Fprintf(&b, "Capital: %.2f.\n", *profile.Capital)
	}
	if profile.PLToday != nil {
		fmt.Fprintf(&b, "P&L today: %.2f.\n", *profile.PLToday)
	}

	positions := a.store.Positions()
	if len(positions) == 0 {
		b.WriteString("No open positions.\n")
	}
	for sym, p := range positions {
		fmt.Fprintf(&b, "%s: qty %d @ avg %.2f\n", sym, p.Qty, p.AvgCost)
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// OpenAI chat completions (raw REST)
// ---------------------------------------------------------------------------

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ask sends one chat-completion request. Transient HTTP faults are retried
// once; this is outside the provider layer, where retries stay forbidden.
func (a *Advisor) ask(ctx context.Context, model, prompt string) (string, error) {
	if !a.Enabled() {
		return "", fmt.Errorf("advisor not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.4,
	})
	if err != nil {
		return "", err
	}

	var text string
	err = util.Retry(ctx, 2, 500*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/chat/completions", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+a.apiKey)

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return fmt.Errorf("openai status %s: %s", resp.Status, payload)
		}

		var parsed chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		if parsed.Error != nil {
			return fmt.Errorf("openai error: %s", parsed.Error.Message)
		}
		if len(parsed.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}

		text = strings.TrimSpace(parsed.Choices[0].Message.Content)
		return nil
	})
	return text, err
}
