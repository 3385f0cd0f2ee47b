package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"stock-advisor/internal/bot"
	"stock-advisor/internal/cache"
	"stock-advisor/internal/chart"
	"stock-advisor/internal/config"
	"stock-advisor/internal/handler"
	"stock-advisor/internal/job"
	"stock-advisor/internal/metrics"
	"stock-advisor/internal/ml/iforest"
	"stock-advisor/internal/predict"
	"stock-advisor/internal/provider"
	"stock-advisor/internal/service"
	"stock-advisor/pkg/logging"
	"stock-advisor/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "stock-advisor/docs"
)

var (
	loadEnvFunc          = godotenv.Load
	loadConfigFunc       = config.Load
	setupLoggingFunc     = logging.Setup
	initRedisFunc        = cache.InitRedis
	closeRedisFunc       = cache.Close
	initTracerFunc       = tracing.InitTracer
	newMetricsFunc       = metrics.New
	newChartRendererFunc = chart.NewRenderer
	newLLMChatFunc       = func(cfg *config.Config) predict.ChatClient {
		return predict.NewOpenAIChat(predict.OpenAIConfig{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
			Referer: cfg.LLMReferer,
		})
	}
	newAnalysisServiceFunc = service.NewAnalysisService
	newHandlerFunc         = handler.New
	startTelegramBotFunc   = bot.StartTelegramBot
	newCacheWarmerFunc     = job.NewCacheWarmer
	startWarmerFunc        = func(w *job.CacheWarmer, ctx context.Context) { go w.Start(ctx) }
	newRouterFunc          = gin.New
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Stock Advisor API
// @version         1.0
// @description     Technical analysis and BUY/HOLD/SELL recommendations for Indian equities.

// @host      localhost:8080
// @BasePath  /
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()
	setupLoggingFunc(cfg.LogLevel, cfg.LogPretty)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := initRedisFunc(ctx, cfg.RedisURL); err != nil {
		if !errors.Is(err, cache.ErrNotConfigured) {
			log.Warn().Err(err).Msg("redis unavailable, series cache disabled")
		}
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

	m := newMetricsFunc()
	svc := newAnalysisServiceFunc(tracer, buildDependencies(cfg, tracer, m), service.Options{
		WatchlistTimeframe:   cfg.WatchlistTimeframe,
		WatchlistSize:        cfg.WatchlistSize,
		WatchlistConcurrency: cfg.WatchlistConcurrency,
	})
	renderer := newChartRendererFunc()

	alerts, err := startTelegramBotFunc(cfg.TelegramBotToken, svc, renderer)
	if err != nil {
		log.Error().Err(err).Msg("telegram bot disabled")
	}

	if cfg.WarmerEnabled {
		var notifier job.DigestNotifier
		if alerts != nil {
			notifier = alerts
		}
		warmer, err := newCacheWarmerFunc(tracer, svc, notifier, m, cfg.WarmerSchedule)
		if err != nil {
			log.Error().Err(err).Msg("cache warmer disabled")
		} else {
			startWarmerFunc(warmer, ctx)
		}
	}

	h := newHandlerFunc(tracer, svc, renderer)

	r := newRouterFunc()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(otelgin.Middleware("stock-advisor"))
	r.Use(m.Middleware())

	h.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(m.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              httpAddr(cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info().Msg("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}

// buildDependencies wires providers and optional collaborators. Anything
// without credentials is left nil so the service degrades instead of failing.
func buildDependencies(cfg *config.Config, tracer trace.Tracer, m *metrics.Metrics) service.Dependencies {
	client := provider.NewHTTPClient(provider.ClientOptions{
		Timeout:    time.Duration(cfg.UpstreamTimeoutSecs) * time.Second,
		RatePerSec: cfg.UpstreamRatePerSec,
		MaxRetries: cfg.UpstreamMaxRetries,
	})

	deps := service.Dependencies{
		Prices:  provider.NewYahoo(cfg.YahooBaseURL, client, tracer),
		Trend:   predict.NewTrendModel(20),
		Metrics: m,
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

func httpAddr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ":8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}
