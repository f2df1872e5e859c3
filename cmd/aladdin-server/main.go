package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"aladdin/internal/advisor"
	"aladdin/internal/broker"
	"aladdin/internal/config"
	"aladdin/internal/httpapi"
	"aladdin/internal/provider"
	"aladdin/internal/state"
	"aladdin/internal/telegram"
	"aladdin/internal/util"
)

func main() {
	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	cfgPath := "config/aladdin.yaml"
	if p := os.Getenv("ALADDIN_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	// Account access exists only with full Alpaca credentials.
	var alpacaClient *provider.AlpacaClient
	if cfg.Alpaca.APIKey != "" && cfg.Alpaca.APISecret != "" {
		alpacaClient = provider.NewAlpacaClient(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL, cfg.Alpaca.DataURL, logger)
	} else {
		logger.Warn("alpaca credentials missing, account operations unavailable")
	}

	quotes := provider.NewFallback(buildQuoteChain(cfg, alpacaClient, logger), logger)

	var account provider.AccountProvider
	if alpacaClient != nil {
		account = alpacaClient
	}
	facade := broker.New(account, quotes, logger)

	store := state.New(cfg.State.MaxLogLen, time.Duration(cfg.State.SummaryTTLSeconds)*time.Second, cfg.State.Nickname)
	adv := advisor.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, store, logger)

	botToken := cfg.Telegram.BotToken
	if !cfg.Telegram.Enabled {
		botToken = ""
	}
	bot := telegram.New(botToken, cfg.Telegram.ChatID, store, logger)

	api := httpapi.NewDashboardServer(facade, store, adv, bot, cfg.Server.StaticDir, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: api.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("aladdin server listening", "addr", httpServer.Addr, "mode", facade.Mode())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		bot.Run(ctx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down aladdin server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// buildQuoteChain assembles the quote-provider fallback chain in configured
// priority order, skipping providers without credentials.
func buildQuoteChain(cfg *config.Config, alpacaClient *provider.AlpacaClient, logger *slog.Logger) []provider.QuoteProvider {
	var chain []provider.QuoteProvider
	for _, name := range cfg.Quotes.Fallback {
		switch name {
		case "alpaca":
			if alpacaClient != nil {
				chain = append(chain, alpacaClient)
			}
		case "twelvedata":
			if cfg.Quotes.TwelveDataKey != "" {
				chain = append(chain, provider.NewTwelveDataClient(cfg.Quotes.TwelveDataKey, 0, logger))
			} else {
				logger.Warn("twelvedata key missing, provider skipped")
			}
		case "yahoo":
			chain = append(chain, provider.NewYahooClient(logger))
		default:
			logger.Warn("unknown quote provider in fallback config", "name", name)
		}
	}
	return chain
}
