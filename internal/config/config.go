package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"stock-advisor/internal/domain"
)

type Config struct {
	Port      string
	LogLevel  string
	LogPretty bool

	RedisURL            string
	SeriesCacheTTLMins  int
	YahooBaseURL        string
	UpstreamTimeoutSecs int
	UpstreamRatePerSec  float64
	UpstreamMaxRetries  int

	RapidAPIKey     string
	RapidAPIHost    string
	RapidAPIBaseURL string

	LLMAPIKey  string
	LLMModel   string
	LLMBaseURL string
	LLMReferer string

	TelegramBotToken string

	MCPTransport          string
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int

	WatchlistTimeframe   string
	WatchlistSize        int
	WatchlistConcurrency int

	WarmerEnabled  bool
	WarmerSchedule string

	AnomalyEnabled   bool
	AnomalyThreshold float64
	AnomalyTrees     int
	AnomalySample    int
}

// source resolves a key from the environment first, then from the optional
// YAML file named by CONFIG_FILE.
type source struct {
	file map[string]string
}

func (s source) get(key string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(s.file[key])
}

func loadFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make(map[string]string, len(doc))
	for k, v := range doc {
		if v == nil {
			continue
		}
		out[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return out, nil
}

func Load() *Config {
	src := source{file: map[string]string{}}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		file, err := loadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("config file ignored")
		} else {
			src.file = file
		}
	}

	cfg := &Config{
		RedisURL:         src.get("REDIS_URL"),
		RapidAPIKey:      src.get("RAPID_API_KEY"),
		LLMAPIKey:        src.get("OPENROUTER_API_KEY"),
		TelegramBotToken: src.get("TELEGRAM_BOT_TOKEN"),
		MCPAuthToken:     src.get("MCP_AUTH_TOKEN"),
		LLMReferer:       src.get("OPENROUTER_REFERER"),
	}

	cfg.Port = src.get("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	cfg.LogLevel = strings.ToLower(src.get("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.LogPretty = strings.EqualFold(src.get("LOG_PRETTY"), "true")

	if cfg.RedisURL == "" {
		log.Warn().Msg("REDIS_URL not set, series cache disabled")
	}
	cfg.SeriesCacheTTLMins = intOr(src, "SERIES_CACHE_TTL_MINS", 360, 1)

	cfg.YahooBaseURL = src.get("YAHOO_BASE_URL")
	if cfg.YahooBaseURL == "" {
		cfg.YahooBaseURL = "https://query1.finance.yahoo.com"
	}
	cfg.UpstreamTimeoutSecs = intOr(src, "UPSTREAM_TIMEOUT_SECS", 10, 1)
	cfg.UpstreamRatePerSec = floatOr(src, "UPSTREAM_RATE_PER_SEC", 5, 0)
	cfg.UpstreamMaxRetries = intOr(src, "UPSTREAM_MAX_RETRIES", 3, 0)

	if cfg.RapidAPIKey == "" {
		log.Warn().Msg("RAPID_API_KEY not set, realtime quotes will be disabled")
	}
	cfg.RapidAPIHost = src.get("RAPID_API_HOST")
	if cfg.RapidAPIHost == "" {
		cfg.RapidAPIHost = "indian-stock-exchange.p.rapidapi.com"
	}
	cfg.RapidAPIBaseURL = src.get("RAPID_API_BASE_URL")
	if cfg.RapidAPIBaseURL == "" {
		cfg.RapidAPIBaseURL = "https://" + cfg.RapidAPIHost
	}

	if cfg.LLMAPIKey == "" {
		log.Warn().Msg("OPENROUTER_API_KEY not set, AI predictions will be disabled")
	}
	cfg.LLMModel = src.get("OPENROUTER_MODEL")
	if cfg.LLMModel == "" {
		cfg.LLMModel = "openai/gpt-4o-mini"
	}
	cfg.LLMBaseURL = src.get("OPENROUTER_BASE_URL")
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = "https://openrouter.ai/api/v1/"
	}

	cfg.MCPTransport = strings.ToLower(src.get("MCP_TRANSPORT"))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Warn().Str("transport", cfg.MCPTransport).Msg("unsupported MCP_TRANSPORT, defaulting to stdio")
		cfg.MCPTransport = "stdio"
	}
	cfg.MCPHTTPBind = src.get("MCP_HTTP_BIND")
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}
	cfg.MCPHTTPPort = intOr(src, "MCP_HTTP_PORT", 8090, 1)
	cfg.MCPRequestTimeoutSecs = intOr(src, "MCP_REQUEST_TIMEOUT_SECS", 20, 1)
	cfg.MCPRateLimitPerMin = intOr(src, "MCP_RATE_LIMIT_PER_MIN", 60, 1)

	cfg.WatchlistTimeframe = domain.NormalizeTimeframe(src.get("WATCHLIST_TIMEFRAME"))
	if src.get("WATCHLIST_TIMEFRAME") == "" {
		cfg.WatchlistTimeframe = "3m"
	}
	cfg.WatchlistSize = intOr(src, "WATCHLIST_SIZE", 5, 1)
	if cfg.WatchlistSize > len(domain.SupportedStocks) {
		cfg.WatchlistSize = len(domain.SupportedStocks)
	}
	cfg.WatchlistConcurrency = intOr(src, "WATCHLIST_CONCURRENCY", 4, 1)

	cfg.WarmerEnabled = boolOr(src, "CACHE_WARMER_ENABLED", true)
	cfg.WarmerSchedule = src.get("CACHE_WARMER_SCHEDULE")
	if cfg.WarmerSchedule == "" {
		cfg.WarmerSchedule = "35 15 * * 1-5"
	}

	cfg.AnomalyEnabled = boolOr(src, "ANOMALY_ENABLED", true)
	cfg.AnomalyThreshold = floatOr(src, "ANOMALY_THRESHOLD", 0.65, 0)
	if cfg.AnomalyThreshold >= 1 {
		log.Warn().Float64("value", cfg.AnomalyThreshold).Msg("ANOMALY_THRESHOLD must be below 1, using 0.65")
		cfg.AnomalyThreshold = 0.65
	}
	cfg.AnomalyTrees = intOr(src, "ANOMALY_TREES", 100, 1)
	cfg.AnomalySample = intOr(src, "ANOMALY_SAMPLE_SIZE", 128, 2)

	return cfg
}

func intOr(src source, key string, def, min int) int {
	v := src.get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		log.Warn().Str("key", key).Str("value", v).Int("default", def).Msg("invalid integer, using default")
		return def
	}
	return n
}

func floatOr(src source, key string, def, min float64) float64 {
	v := src.get(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n <= min {
		log.Warn().Str("key", key).Str("value", v).Float64("default", def).Msg("invalid number, using default")
		return def
	}
	return n
}

func boolOr(src source, key string, def bool) bool {
	v := src.get(key)
	switch {
	case strings.EqualFold(v, "true"):
		return true
	case strings.EqualFold(v, "false"):
		return false
	}
	return def
}
