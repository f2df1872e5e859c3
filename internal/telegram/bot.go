// Package telegram runs the status bot against the Telegram Bot REST API
// with a long-poll update loop. The bot is a read-only consumer of the
// state store: it renders positions and the advisory summary, and keeps a
// pause flag plus a last-active timestamp for the dashboard.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"aladdin/internal/state"
)

// update is a Telegram Update object (partial schema).
type update struct {
	UpdateID int64 `json:"update_id"`
	Message  struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type updateResponse struct {
	Ok          bool     `json:"ok"`
	Result      []update `json:"result"`
	Description string   `json:"description"`
	ErrorCode   int      `json:"error_code"`
}

// Bot long-polls Telegram for commands and answers status queries.
type Bot struct {
	baseURL    string
	token      string
	chatID     string
	store      *state.Store
	httpClient *http.Client
	log        *slog.Logger

	mu         sync.Mutex
	paused     bool
	lastActive time.Time
}

// New creates a Bot. An empty token produces a disabled bot whose Run
// returns immediately.
func New(token, chatID string, store *state.Store, log *slog.Logger) *Bot {
	return &Bot{
		baseURL:    "https://api.telegram.org",
		token:      token,
		chatID:     chatID,
		store:      store,
		httpClient: &http.Client{Timeout: 70 * time.Second},
		log:        log.With("component", "telegram"),
	}
}

// Enabled reports whether a bot token is configured.
func (b *Bot) Enabled() bool { return b.token != "" }

// Status returns whether the bot is enabled and when it last saw activity
// (zero time if never).
func (b *Bot) Status() (enabled bool, lastActive time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Enabled(), b.lastActive
}

// Paused reports whether trading chatter has been paused via /pause.
func (b *Bot) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}

// Run long-polls for updates until the context is cancelled. It never
// returns an error: Telegram faults are logged and retried after a pause.
func (b *Bot) Run(ctx context.Context) {
	if !b.Enabled() {
		b.log.Info("telegram disabled, bot not started")
		return
	}

	if b.chatID != "" {
		b.send(ctx, "Aladdin bot started")
	} else {
		b.log.Info("chat_id not set, bot running without alerts")
	}

	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := b.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.log.Warn("getUpdates failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			b.touch()

			text := strings.TrimSpace(u.Message.Text)
			if !strings.HasPrefix(text, "/") {
				continue
			}
			reply := b.handleCommand(text)
			if reply != "" {
				b.sendTo(ctx, fmt.Sprint(u.Message.Chat.ID), reply)
			}
		}
	}
}

// SendAlert pushes a message to the configured chat, if any.
func (b *Bot) SendAlert(ctx context.Context, text string) {
	if !b.Enabled() || b.chatID == "" {
		return
	}
	b.send(ctx, text)
}

// handleCommand maps a command to its reply text.
func (b *Bot) handleCommand(text string) string {
	cmd := strings.ToLower(strings.Fields(text)[0])
	switch cmd {
	case "/start":
		return "Aladdin online 🤖"
	case "/ping":
		return "pong"
	case "/pause":
		b.mu.Lock()
		b.paused = true
		b.mu.Unlock()
		return "paused"
	case "/resume":
		b.mu.Lock()
		b.paused = false
		b.mu.Unlock()
		return "resumed"
	case "/status":
		return b.statusReply()
	default:
		return ""
	}
}

// statusReply renders positions and summary from the state store.
func (b *Bot) statusReply() string {
	var sb strings.Builder
	sb.WriteString("📊 Aladdin Status\n")

	summary := b.store.Summary().Text
	if summary == "" {
		summary = "No summary yet."
	}
	sb.WriteString("Summary: " + summary + "\n")

	positions := b.store.Positions()
	if len(positions) == 0 {
		sb.WriteString("Positions: none\n")
		return sb.String()
	}

	symbols := make([]string, 0, len(positions))
	for sym := range positions {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	sb.WriteString("Positions:\n")
	for _, sym := range symbols {
		p := positions[sym]
		fmt.Fprintf(&sb, "  %s: %d @ %.2f\n", sym, p.Qty, p.AvgCost)
	}
	return sb.String()
}

func (b *Bot) touch() {
	b.mu.Lock()
	b.lastActive = time.Now().UTC()
	b.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Telegram REST
// ---------------------------------------------------------------------------

func (b *Bot) getUpdates(ctx context.Context, offset int64) ([]update, error) {
	reqURL := fmt.Sprintf("%s/bot%s/getUpdates?offset=%d&timeout=60", b.baseURL, b.token, offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed updateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding updates: %w", err)
	}
	if !parsed.Ok {
		return nil, fmt.Errorf("telegram api error %d: %s", parsed.ErrorCode, parsed.Description)
	}
	return parsed.Result, nil
}

// send delivers to the configured alert chat.
func (b *Bot) send(ctx context.Context, text string) {
	b.sendTo(ctx, b.chatID, text)
}

func (b *Bot) sendTo(ctx context.Context, chatID, text string) {
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)

	reqURL := fmt.Sprintf("%s/bot%s/sendMessage", b.baseURL, b.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		b.log.Warn("building sendMessage request failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		b.log.Warn("sendMessage failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b.log.Warn("sendMessage rejected", "status", resp.Status)
	}
}
