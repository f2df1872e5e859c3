package config

import (
	"os"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "aladdin-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	if _, err := tmpFile.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}
	return tmpFile.Name()
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ALPACA_API_KEY", "ALPACA_API_SECRET", "ALPACA_BASE_URL",
		"ALPACA_DATA_URL", "APCA_API_KEY_ID", "APCA_API_SECRET_KEY",
		"TWELVE_DATA_KEY", "OPENAI_API_KEY", "TELEGRAM_BOT_TOKEN",
		"TELEGRAM_CHAT_ID", "LOG_LEVEL",
	} {
		os.Unsetenv(key)
	}
}

func TestLoadFull(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  base_url: "https://paper-api.alpaca.markets"
quotes:
  twelve_data_key: "td-key"
  fallback: ["twelvedata", "alpaca", "yahoo"]
openai:
  api_key: "oa-key"
  model: "gpt-4o-mini"
telegram:
  bot_token: "tg-token"
  chat_id: "12345"
  enabled: true
state:
  max_log_len: 500
  summary_ttl_seconds: 120
  nickname: "Aladdin"
logging:
  level: "debug"
  format: "text"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9000)
	}
	if cfg.Alpaca.APIKey != "test-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q", cfg.Alpaca.APIKey, "test-key")
	}
	if cfg.Quotes.TwelveDataKey != "td-key" {
		t.Errorf("Quotes.TwelveDataKey = %q, want %q", cfg.Quotes.TwelveDataKey, "td-key")
	}
	if len(cfg.Quotes.Fallback) != 3 || cfg.Quotes.Fallback[0] != "twelvedata" {
		t.Errorf("Quotes.Fallback = %v, want twelvedata first", cfg.Quotes.Fallback)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("OpenAI.Model = %q, want %q", cfg.OpenAI.Model, "gpt-4o-mini")
	}
	if !cfg.Telegram.Enabled || cfg.Telegram.ChatID != "12345" {
		t.Errorf("Telegram = %+v, want enabled with chat 12345", cfg.Telegram)
	}
	if cfg.State.MaxLogLen != 500 {
		t.Errorf("State.MaxLogLen = %d, want %d", cfg.State.MaxLogLen, 500)
	}
	if cfg.State.SummaryTTLSeconds != 120 {
		t.Errorf("State.SummaryTTLSeconds = %d, want %d", cfg.State.SummaryTTLSeconds, 120)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want debug/text", cfg.Logging)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
alpaca:
  api_key: ""
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want default 8000", cfg.Server.Port)
	}
	if cfg.Alpaca.BaseURL != "https://paper-api.alpaca.markets" {
		t.Errorf("Alpaca.BaseURL = %q, want paper default", cfg.Alpaca.BaseURL)
	}
	want := []string{"alpaca", "twelvedata", "yahoo"}
	if len(cfg.Quotes.Fallback) != len(want) {
		t.Fatalf("Quotes.Fallback = %v, want %v", cfg.Quotes.Fallback, want)
	}
	for i := range want {
		if cfg.Quotes.Fallback[i] != want[i] {
			t.Errorf("Quotes.Fallback[%d] = %q, want %q", i, cfg.Quotes.Fallback[i], want[i])
		}
	}
	if cfg.State.MaxLogLen != 1000 {
		t.Errorf("State.MaxLogLen = %d, want default 1000", cfg.State.MaxLogLen)
	}
	if cfg.State.SummaryTTLSeconds != 300 {
		t.Errorf("State.SummaryTTLSeconds = %d, want default 300", cfg.State.SummaryTTLSeconds)
	}
	if cfg.State.Nickname != "Trader" {
		t.Errorf("State.Nickname = %q, want default Trader", cfg.State.Nickname)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("OpenAI.Model = %q, want default gpt-4o", cfg.OpenAI.Model)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
alpaca:
  api_key: "yaml-key"
  api_secret: "yaml-secret"
server:
  port: 8000
`)

	os.Setenv("ALPACA_API_KEY", "env-key")
	os.Setenv("PORT", "8123")
	os.Setenv("TWELVE_DATA_KEY", "env-td")
	defer clearEnv(t)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q (env override)", cfg.Alpaca.APIKey, "env-key")
	}
	// api_secret should remain from YAML since no env override was set.
	if cfg.Alpaca.APISecret != "yaml-secret" {
		t.Errorf("Alpaca.APISecret = %q, want %q (from YAML)", cfg.Alpaca.APISecret, "yaml-secret")
	}
	if cfg.Server.Port != 8123 {
		t.Errorf("Server.Port = %d, want %d (env override)", cfg.Server.Port, 8123)
	}
	if cfg.Quotes.TwelveDataKey != "env-td" {
		t.Errorf("Quotes.TwelveDataKey = %q, want %q (env override)", cfg.Quotes.TwelveDataKey, "env-td")
	}
}
