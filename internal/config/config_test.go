package config

import (
	"os"
	"path/filepath"
	"testing"
)

var configKeys = []string{
	"CONFIG_FILE", "PORT", "LOG_LEVEL", "LOG_PRETTY",
	"REDIS_URL", "SERIES_CACHE_TTL_MINS", "YAHOO_BASE_URL",
	"UPSTREAM_TIMEOUT_SECS", "UPSTREAM_RATE_PER_SEC", "UPSTREAM_MAX_RETRIES",
	"RAPID_API_KEY", "RAPID_API_HOST", "RAPID_API_BASE_URL",
	"OPENROUTER_API_KEY", "OPENROUTER_MODEL", "OPENROUTER_BASE_URL", "OPENROUTER_REFERER",
	"TELEGRAM_BOT_TOKEN",
	"MCP_TRANSPORT", "MCP_HTTP_BIND", "MCP_HTTP_PORT", "MCP_AUTH_TOKEN",
	"MCP_REQUEST_TIMEOUT_SECS", "MCP_RATE_LIMIT_PER_MIN",
	"WATCHLIST_TIMEFRAME", "WATCHLIST_SIZE", "WATCHLIST_CONCURRENCY",
	"CACHE_WARMER_ENABLED", "CACHE_WARMER_SCHEDULE",
	"ANOMALY_ENABLED", "ANOMALY_THRESHOLD", "ANOMALY_TREES", "ANOMALY_SAMPLE_SIZE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if cfg.Port != "8080" || cfg.LogLevel != "info" || cfg.LogPretty {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.RedisURL != "" || cfg.SeriesCacheTTLMins != 360 {
		t.Fatalf("unexpected cache defaults: url=%q ttl=%d", cfg.RedisURL, cfg.SeriesCacheTTLMins)
	}
	if cfg.YahooBaseURL != "https://query1.finance.yahoo.com" {
		t.Fatalf("unexpected yahoo url %q", cfg.YahooBaseURL)
	}
	if cfg.UpstreamTimeoutSecs != 10 || cfg.UpstreamRatePerSec != 5 || cfg.UpstreamMaxRetries != 3 {
		t.Fatalf("unexpected upstream defaults: %+v", cfg)
	}
	if cfg.RapidAPIHost != "indian-stock-exchange.p.rapidapi.com" || cfg.RapidAPIBaseURL != "https://indian-stock-exchange.p.rapidapi.com" {
		t.Fatalf("unexpected rapidapi defaults: %s %s", cfg.RapidAPIHost, cfg.RapidAPIBaseURL)
	}
	if cfg.LLMModel != "openai/gpt-4o-mini" || cfg.LLMBaseURL != "https://openrouter.ai/api/v1/" {
		t.Fatalf("unexpected llm defaults: %s %s", cfg.LLMModel, cfg.LLMBaseURL)
	}
	if cfg.MCPTransport != "stdio" || cfg.MCPHTTPBind != "127.0.0.1" || cfg.MCPHTTPPort != 8090 {
		t.Fatalf("unexpected MCP defaults: %+v", cfg)
	}
	if cfg.MCPRequestTimeoutSecs != 20 || cfg.MCPRateLimitPerMin != 60 {
		t.Fatalf("unexpected MCP limits: timeout=%d rate=%d", cfg.MCPRequestTimeoutSecs, cfg.MCPRateLimitPerMin)
	}
	if cfg.WatchlistTimeframe != "3m" || cfg.WatchlistSize != 5 || cfg.WatchlistConcurrency != 4 {
		t.Fatalf("unexpected watchlist defaults: %+v", cfg)
	}
	if !cfg.WarmerEnabled || cfg.WarmerSchedule != "35 15 * * 1-5" {
		t.Fatalf("unexpected warmer defaults: %v %q", cfg.WarmerEnabled, cfg.WarmerSchedule)
	}
	if !cfg.AnomalyEnabled || cfg.AnomalyThreshold != 0.65 || cfg.AnomalyTrees != 100 || cfg.AnomalySample != 128 {
		t.Fatalf("unexpected anomaly defaults: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("SERIES_CACHE_TTL_MINS", "30")
	t.Setenv("RAPID_API_HOST", "quotes.example.com")
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("MCP_TRANSPORT", "HTTP")
	t.Setenv("WATCHLIST_TIMEFRAME", "6m")
	t.Setenv("WATCHLIST_SIZE", "50")
	t.Setenv("CACHE_WARMER_ENABLED", "false")
	t.Setenv("ANOMALY_THRESHOLD", "0.8")

	cfg := Load()
	if cfg.Port != "9000" || cfg.RedisURL != "redis://cache:6379/1" || cfg.SeriesCacheTTLMins != 30 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.RapidAPIBaseURL != "https://quotes.example.com" {
		t.Fatalf("expected base url derived from host, got %q", cfg.RapidAPIBaseURL)
	}
	if cfg.LLMAPIKey != "sk-test" || cfg.MCPTransport != "http" {
		t.Fatalf("unexpected llm/mcp overrides: %+v", cfg)
	}
	if cfg.WatchlistTimeframe != "6m" || cfg.WatchlistSize != 10 {
		t.Fatalf("expected watchlist size capped at the supported list, got %+v", cfg)
	}
	if cfg.WarmerEnabled || cfg.AnomalyThreshold != 0.8 {
		t.Fatalf("unexpected toggles: %+v", cfg)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERIES_CACHE_TTL_MINS", "soon")
	t.Setenv("UPSTREAM_RATE_PER_SEC", "-2")
	t.Setenv("MCP_TRANSPORT", "grpc")
	t.Setenv("ANOMALY_THRESHOLD", "1.5")
	t.Setenv("WATCHLIST_TIMEFRAME", "decade")

	cfg := Load()
	if cfg.SeriesCacheTTLMins != 360 || cfg.UpstreamRatePerSec != 5 {
		t.Fatalf("expected numeric defaults, got %+v", cfg)
	}
	if cfg.MCPTransport != "stdio" {
		t.Fatalf("expected stdio fallback, got %s", cfg.MCPTransport)
	}
	if cfg.AnomalyThreshold != 0.65 {
		t.Fatalf("expected threshold fallback, got %.2f", cfg.AnomalyThreshold)
	}
	if cfg.WatchlistTimeframe != "1y" {
		t.Fatalf("expected unknown timeframe to normalize to 1y, got %s", cfg.WatchlistTimeframe)
	}
}

func TestLoadYAMLFileBelowEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "port: 7070\nredis_url: redis://file:6379\nopenrouter_model: meta/llama\nwatchlist_size: 3\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")

	cfg := Load()
	if cfg.Port != "9100" {
		t.Fatalf("expected env to win over file, got %s", cfg.Port)
	}
	if cfg.RedisURL != "redis://file:6379" || cfg.LLMModel != "meta/llama" || cfg.WatchlistSize != 3 {
		t.Fatalf("expected file values, got %+v", cfg)
	}
}

func TestLoadMissingYAMLFileIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	if cfg := Load(); cfg.Port != "8080" {
		t.Fatalf("expected defaults when file is missing, got %s", cfg.Port)
	}
}
