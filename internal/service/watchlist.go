package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"stock-advisor/internal/domain"
)

type WatchlistEntry struct {
	Symbol         string             `json:"symbol"`
	Name           string             `json:"name"`
	CurrentPrice   float64            `json:"current_price"`
	PriceChange    float64            `json:"price_change"`
	PriceChangePct float64            `json:"price_change_pct"`
	DataSource     string             `json:"data_source,omitempty"`
	Verdict        domain.Verdict     `json:"recommendation"`
	Confidence     int                `json:"confidence"`
	Prediction     *domain.Prediction `json:"prediction,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// Watchlist evaluates the leading supported symbols concurrently. A failing
// symbol is reported on its own entry and never fails the whole list.
func (s *AnalysisService) Watchlist(ctx context.Context) ([]WatchlistEntry, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.watchlist")
	defer span.End()

	stocks := domain.SupportedStocks[:s.opts.WatchlistSize]
	entries := make([]WatchlistEntry, len(stocks))
	span.SetAttributes(attribute.Int("symbols", len(stocks)))

	var g errgroup.Group
	g.SetLimit(s.opts.WatchlistConcurrency)
	for i, stock := range stocks {
		g.Go(func() error {
			entries[i] = s.watchlistEntry(ctx, stock)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *AnalysisService) watchlistEntry(ctx context.Context, stock domain.Stock) WatchlistEntry {
	entry := WatchlistEntry{Symbol: stock.Symbol, Name: stock.Name, Verdict: domain.VerdictHold}

	series, err := s.loadSeries(ctx, stock.Symbol, s.opts.WatchlistTimeframe)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}

	quote, qerr := s.quote(ctx, stock.Symbol)
	if qerr == nil {
		entry.CurrentPrice = quote.LastPrice
		entry.PriceChange = quote.Change
		entry.PriceChangePct = quote.PercentChange
		entry.DataSource = DataSourceRealtime
		series = MergeQuote(series, quote, s.now())
	} else {
		if !errors.Is(qerr, domain.ErrCollaboratorDisabled) {
			log.Debug().Err(qerr).Str("symbol", stock.Symbol).Msg("watchlist quote fallback to history")
		}
		entry.DataSource = DataSourceHistorical
		if n := series.Len(); n > 0 {
			entry.CurrentPrice = series.Bars[n-1].Close
			if n > 1 && series.Bars[n-2].Close != 0 {
				prev := series.Bars[n-2].Close
				entry.PriceChange = entry.CurrentPrice - prev
				entry.PriceChangePct = entry.PriceChange / prev * 100
			}
		}
	}

	a, err := s.evaluate(ctx, stock.Symbol, series, false)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}
	entry.Verdict = a.recommendation.Verdict
	entry.Confidence = a.recommendation.Confidence
	entry.Prediction = a.prediction
	return entry
}

// Refresh re-fetches the watchlist histories into the cache, bypassing any
// cached copy. It returns how many symbols were refreshed.
func (s *AnalysisService) Refresh(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.refresh")
	defer span.End()

	stocks := domain.SupportedStocks[:s.opts.WatchlistSize]
	errs := make([]error, len(stocks))

	var g errgroup.Group
	g.SetLimit(s.opts.WatchlistConcurrency)
	for i, stock := range stocks {
		g.Go(func() error {
			if _, err := s.fetchAndStore(ctx, stock.Symbol, s.opts.WatchlistTimeframe); err != nil {
				errs[i] = fmt.Errorf("%s: %w", stock.Symbol, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	refreshed := 0
	for _, err := range errs {
		if err == nil {
			refreshed++
		}
	}
	span.SetAttributes(attribute.Int("refreshed", refreshed))
	return refreshed, errors.Join(errs...)
}
