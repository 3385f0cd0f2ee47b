package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"stock-advisor/internal/cache"
	"stock-advisor/internal/chart"
	"stock-advisor/internal/config"
	mcpserver "stock-advisor/internal/mcp"
	"stock-advisor/internal/metrics"
	"stock-advisor/internal/ml/iforest"
	"stock-advisor/internal/predict"
	"stock-advisor/internal/provider"
	"stock-advisor/internal/service"
	"stock-advisor/pkg/logging"
	"stock-advisor/pkg/tracing"

	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

const defaultMCPHTTPMaxBodyBytes int64 = 1 << 20 // 1MiB

var (
	loadEnvFunc          = godotenv.Load
	loadConfigFunc       = config.Load
	setupLoggingFunc     = logging.Setup
	initRedisFunc        = cache.InitRedis
	closeRedisFunc       = cache.Close
	initTracerFunc       = tracing.InitTracer
	newChartRendererFunc = chart.NewRenderer
	newMCPServerFunc     = mcpserver.NewServer
	newMCPHandlerFunc    = mcpserver.NewHTTPTransportHandler
	newLLMChatFunc       = func(cfg *config.Config) predict.ChatClient {
		return predict.NewOpenAIChat(predict.OpenAIConfig{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
			Referer: cfg.LLMReferer,
		})
	}
	runStdioFunc = func(ctx context.Context, server *sdkmcp.Server) error {
		return server.Run(ctx, &sdkmcp.StdioTransport{})
	}
	startHTTPServerFunc  = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFn = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	// stdout carries the stdio transport, so logs stay on stderr
	setupLoggingFunc(cfg.LogLevel, false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := initRedisFunc(ctx, cfg.RedisURL); err != nil && !errors.Is(err, cache.ErrNotConfigured) {
		log.Warn().Err(err).Msg("redis unavailable, series cache disabled")
	}
	defer closeRedisFunc()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	svc := service.NewAnalysisService(tracer, buildDependencies(cfg, tracer), service.Options{
		WatchlistTimeframe:   cfg.WatchlistTimeframe,
		WatchlistSize:        cfg.WatchlistSize,
		WatchlistConcurrency: cfg.WatchlistConcurrency,
	})

	mcpSrv := newMCPServerFunc(tracer, svc, mcpserver.ServerConfig{
		RequestTimeout: time.Duration(cfg.MCPRequestTimeoutSecs) * time.Second,
		Renderer:       newChartRendererFunc(),
	})

	switch strings.ToLower(strings.TrimSpace(cfg.MCPTransport)) {
	case "", "stdio":
		if err := runStdioFunc(ctx, mcpSrv); err != nil {
			log.Fatal().Err(err).Msg("mcp stdio server failed")
		}
	case "http":
		if err := runHTTPMode(ctx, cancel, cfg, mcpSrv); err != nil {
			log.Fatal().Err(err).Msg("mcp http server failed")
		}
	default:
		log.Fatal().Str("transport", cfg.MCPTransport).Msg("unsupported MCP_TRANSPORT")
	}
}

func buildDependencies(cfg *config.Config, tracer trace.Tracer) service.Dependencies {
	client := provider.NewHTTPClient(provider.ClientOptions{
		Timeout:    time.Duration(cfg.UpstreamTimeoutSecs) * time.Second,
		RatePerSec: cfg.UpstreamRatePerSec,
		MaxRetries: cfg.UpstreamMaxRetries,
	})
	deps := service.Dependencies{
		Prices:  provider.NewYahoo(cfg.YahooBaseURL, client, tracer),
		Trend:   predict.NewTrendModel(20),
		Metrics: metrics.New(),
	}
	if cfg.RapidAPIKey != "" {
		deps.Quotes = provider.NewRapidAPI(cfg.RapidAPIBaseURL, cfg.RapidAPIHost, cfg.RapidAPIKey, client, tracer)
	}
	if cache.Client != nil {
		deps.Cache = cache.NewSeriesCache(cache.Client, time.Duration(cfg.SeriesCacheTTLMins)*time.Minute)
	}
	if cfg.LLMAPIKey != "" {
		deps.LLM = predict.NewLLMPredictor(tracer, newLLMChatFunc(cfg))
	}
	if cfg.AnomalyEnabled {
		deps.Anomaly = iforest.NewDetector(cfg.AnomalyThreshold, iforest.TrainOptions{
			NumTrees:   cfg.AnomalyTrees,
			SampleSize: cfg.AnomalySample,
		})
	}
	return deps
}

func runHTTPMode(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, mcpSrv *sdkmcp.Server) error {
	if strings.TrimSpace(cfg.MCPAuthToken) == "" {
		return fmt.Errorf("MCP_AUTH_TOKEN is required when MCP_TRANSPORT=http")
	}

	handler := newMCPHandlerFunc(mcpSrv, mcpserver.HTTPHandlerConfig{
		AuthToken:       cfg.MCPAuthToken,
		RateLimitPerMin: cfg.MCPRateLimitPerMin,
		MaxBodyBytes:    defaultMCPHTTPMaxBodyBytes,
	})

	addr := net.JoinHostPort(cfg.MCPHTTPBind, fmt.Sprintf("%d", cfg.MCPHTTPPort))
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Msg("mcp http server listening")
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("mcp http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-ctx.Done():
	default:
		waitForSignalFunc(quit)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFn(srv, shutdownCtx); err != nil {
		return fmt.Errorf("mcp server forced to shutdown: %w", err)
	}
	return nil
}
