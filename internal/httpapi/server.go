// Package httpapi serves the dashboard REST API and the static dashboard
// assets. The route layer is deliberately thin: handlers translate between
// HTTP and the broker facade, the state store, and the advisor, and never
// perform provider I/O while holding store locks.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"aladdin/internal/advisor"
	"aladdin/internal/broker"
	"aladdin/internal/domain"
	"aladdin/internal/state"
)

// Brokerage is the facade surface the route layer consumes.
type Brokerage interface {
	Mode() broker.AccessMode
	Buy(ctx context.Context, symbol string, qty int64) *domain.OrderID
	Sell(ctx context.Context, symbol string, qty int64) *domain.OrderID
	Balance(ctx context.Context) *float64
	PLToday(ctx context.Context) *float64
	Positions(ctx context.Context) []domain.Position
	Prices(ctx context.Context, symbols []string) map[string]*float64
}

// Summarizer produces advisory text for the dashboard.
type Summarizer interface {
	HourlySummary(ctx context.Context) string
	Analyze(ctx context.Context, req advisor.AnalyzeRequest) string
}

// BotStatus exposes the Telegram bot's liveness to the dashboard.
type BotStatus interface {
	Status() (enabled bool, lastActive time.Time)
}

// DashboardServer serves the dashboard HTTP API.
type DashboardServer struct {
	broker    Brokerage
	store     *state.Store
	advisor   Summarizer
	bot       BotStatus
	staticDir string
	log       *slog.Logger
}

// NewDashboardServer creates a new dashboard HTTP server.
func NewDashboardServer(
	brk Brokerage,
	store *state.Store,
	adv Summarizer,
	bot BotStatus,
	staticDir string,
	log *slog.Logger,
) *DashboardServer {
	return &DashboardServer{
		broker:    brk,
		store:     store,
		advisor:   adv,
		bot:       bot,
		staticDir: staticDir,
		log:       log.With("component", "httpapi"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *DashboardServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /prices", s.handlePrices)
	mux.HandleFunc("GET /portfolio/profile", s.handleProfile)
	mux.HandleFunc("GET /portfolio/positions", s.handlePositions)
	mux.HandleFunc("POST /trade/buy", s.handleBuy)
	mux.HandleFunc("POST /trade/sell", s.handleSell)
	mux.HandleFunc("GET /log", s.handleLog)
	mux.HandleFunc("GET /hourly_summary", s.handleHourlySummary)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("GET /telegram_status", s.handleTelegramStatus)
	mux.HandleFunc("GET /notifications", s.handleNotifications)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	if s.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	}
}

// Handler returns an http.Handler with CORS middleware.
func (s *DashboardServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// handlePrices resolves prices for the comma-separated "syms" list. Every
// requested symbol appears in the response; unresolved ones are null.
func (s *DashboardServer) handlePrices(w http.ResponseWriter, r *http.Request) {
	var symbols []string
	for _, sym := range strings.Split(r.URL.Query().Get("syms"), ",") {
		if sym = strings.TrimSpace(sym); sym != "" {
			symbols = append(symbols, sym)
		}
	}
	writeJSON(w, s.broker.Prices(r.Context(), symbols))
}

// handleProfile refreshes the profile from the brokerage and renders the
// stored snapshot. The account legs run concurrently; a failed leg simply
// leaves the prior stored value untouched.
func (s *DashboardServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	var (
		capital   *float64
		plToday   *float64
		positions []domain.Position
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { capital = s.broker.Balance(ctx); return nil })
	g.Go(func() error { plToday = s.broker.PLToday(ctx); return nil })
	g.Go(func() error { positions = s.broker.Positions(ctx); return nil })
	g.Wait()

	s.store.SetPositions(positions)
	s.store.UpdateProfile(state.ProfileUpdate{Capital: capital, PLToday: plToday})

	p := s.store.Profile()
	writeJSON(w, profileResponse{
		Capital:    p.Capital,
		OpenTrades: p.OpenTrades,
		PLToday:    p.PLToday,
		Nickname:   p.Nickname,
	})
}

// handlePositions returns the open positions valued at current prices,
// keyed by symbol. Derived fields are null whenever no price resolved.
func (s *DashboardServer) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions := s.broker.Positions(r.Context())
	s.store.SetPositions(positions)

	symbols := make([]string, 0, len(positions))
	for _, p := range positions {
		symbols = append(symbols, p.Symbol)
	}
	prices := s.broker.Prices(r.Context(), symbols)

	out := make(map[string]valuedPositionJSON, len(positions))
	for _, p := range positions {
		v := domain.Value(p, domain.Quote{Symbol: p.Symbol, Price: prices[p.Symbol]})
		out[p.Symbol] = valuedPositionJSON{
			Qty:     v.Qty,
			AvgCost: v.AvgCost,
			Price:   v.Price,
			Value:   v.Value,
			PL:      v.PL,
			PLPct:   v.PLPct,
		}
	}
	writeJSON(w, out)
}

func (s *DashboardServer) handleBuy(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, domain.SideBuy, s.broker.Buy)
}

func (s *DashboardServer) handleSell(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, domain.SideSell, s.broker.Sell)
}

// handleTrade submits one market order and appends the attempt to the trade
// log whatever the outcome.
func (s *DashboardServer) handleTrade(
	w http.ResponseWriter,
	r *http.Request,
	side domain.OrderSide,
	submit func(ctx context.Context, symbol string, qty int64) *domain.OrderID,
) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" || req.Qty <= 0 {
		writeError(w, http.StatusBadRequest, "symbol and positive qty required")
		return
	}

	id := submit(r.Context(), req.Symbol, req.Qty)
	verb := strings.ToUpper(string(side))
	if id == nil {
		s.store.AppendLog(fmt.Sprintf("%s %d %s -> FAILED", verb, req.Qty, req.Symbol))
		writeError(w, http.StatusBadGateway, "order failed")
		return
	}

	s.store.AppendLog(fmt.Sprintf("%s %d %s -> order %s", verb, req.Qty, req.Symbol, *id))
	writeJSON(w, tradeResponse{OrderID: string(*id)})
}

func (s *DashboardServer) handleLog(w http.ResponseWriter, r *http.Request) {
	limit := state.DefaultLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	writeJSON(w, logResponse{Log: s.store.Log(limit)})
}

func (s *DashboardServer) handleHourlySummary(w http.ResponseWriter, r *http.Request) {
	text := s.advisor.HourlySummary(r.Context())
	resp := summaryResponse{Summary: text}
	if at := s.store.Summary().GeneratedAt; !at.IsZero() {
		resp.GeneratedAt = at.UTC().Format(time.RFC3339)
	}
	writeJSON(w, resp)
}

func (s *DashboardServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req advisor.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, summaryResponse{Summary: s.advisor.Analyze(r.Context(), req)})
}

func (s *DashboardServer) handleTelegramStatus(w http.ResponseWriter, r *http.Request) {
	enabled, lastActive := s.bot.Status()
	resp := telegramStatusResponse{Status: enabled}
	if !lastActive.IsZero() {
		resp.LastActive = lastActive.UTC().Format(time.RFC3339)
	}
	writeJSON(w, resp)
}

// handleNotifications returns the most recent trade-log entries, oldest
// first, for the dashboard's notification feed.
func (s *DashboardServer) handleNotifications(w http.ResponseWriter, r *http.Request) {
	tail := s.store.LogTail(20)
	out := make([]notificationJSON, 0, len(tail))
	for _, e := range tail {
		out = append(out, notificationJSON{
			At:   e.At.UTC().Format(time.RFC3339),
			Text: e.Text,
		})
	}
	writeJSON(w, out)
}

func (s *DashboardServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, healthResponse{Status: "ok", Mode: string(s.broker.Mode())})
}
