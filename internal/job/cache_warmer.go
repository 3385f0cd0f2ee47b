package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stock-advisor/internal/markethours"
	"stock-advisor/internal/metrics"
	"stock-advisor/internal/service"
)

const (
	DefaultWarmerSchedule = "35 15 * * 1-5"
	refreshTimeout        = 2 * time.Minute
)

type Refresher interface {
	Refresh(ctx context.Context) (int, error)
	Watchlist(ctx context.Context) ([]service.WatchlistEntry, error)
}

type DigestNotifier interface {
	NotifyWatchlist(ctx context.Context, entries []service.WatchlistEntry) error
	SubscriberCount() int
}

// CacheWarmer refetches the watchlist histories after the NSE close so the
// first requests of the evening hit a warm cache, then sends the digest.
type CacheWarmer struct {
	tracer    trace.Tracer
	refresher Refresher
	notifier  DigestNotifier
	metrics   *metrics.Metrics
	schedule  string
	now       func() time.Time
}

func NewCacheWarmer(tracer trace.Tracer, refresher Refresher, notifier DigestNotifier, m *metrics.Metrics, schedule string) (*CacheWarmer, error) {
	if schedule == "" {
		schedule = DefaultWarmerSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid warmer schedule %q: %w", schedule, err)
	}
	return &CacheWarmer{
		tracer:    tracer,
		refresher: refresher,
		notifier:  notifier,
		metrics:   m,
		schedule:  schedule,
		now:       time.Now,
	}, nil
}

// Start runs the schedule in IST. Blocks until ctx is cancelled.
func (w *CacheWarmer) Start(ctx context.Context) {
	if w == nil || w.refresher == nil {
		<-ctx.Done()
		return
	}

	c := cron.New(cron.WithLocation(markethours.IST))
	if _, err := c.AddFunc(w.schedule, func() { w.RunOnce(ctx) }); err != nil {
		log.Error().Err(err).Str("schedule", w.schedule).Msg("cache warmer not scheduled")
		<-ctx.Done()
		return
	}
	c.Start()
	log.Info().Str("schedule", w.schedule).Str("tz", "IST").Msg("cache warmer started")

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info().Msg("cache warmer stopped")
}

// RunOnce refreshes the cache unless today is a weekend or NSE holiday.
// It reports whether a refresh was attempted.
func (w *CacheWarmer) RunOnce(ctx context.Context) bool {
	now := w.now().In(markethours.IST)
	if !markethours.IsTradingDay(now) {
		log.Info().Str("date", now.Format("2006-01-02")).Msg("cache warmer skipped: market holiday")
		return false
	}

	ctx, span := w.tracer.Start(ctx, "cache-warmer.run")
	defer span.End()

	runCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	started := time.Now()
	refreshed, err := w.refresher.Refresh(runCtx)
	w.metrics.WarmerRun(err)
	span.SetAttributes(attribute.Int("refreshed", refreshed))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn().Err(err).Int("refreshed", refreshed).Msg("cache warmer finished with errors")
	} else {
		log.Info().Int("refreshed", refreshed).Dur("took", time.Since(started)).Msg("cache warmer finished")
	}

	w.sendDigest(runCtx)
	return true
}

func (w *CacheWarmer) sendDigest(ctx context.Context) {
	if w.notifier == nil || w.notifier.SubscriberCount() == 0 {
		return
	}
	entries, err := w.refresher.Watchlist(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("watchlist digest skipped")
		return
	}
	if err := w.notifier.NotifyWatchlist(ctx, entries); err != nil {
		log.Warn().Err(err).Msg("watchlist digest delivery failed")
	}
}
