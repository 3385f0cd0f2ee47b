package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/indicator"
	"stock-advisor/internal/metrics"
	"stock-advisor/internal/ml/iforest"
	"stock-advisor/internal/predict"
	"stock-advisor/internal/recommend"
)

const (
	DataSourceHistorical = "historical"
	DataSourceRealtime   = "realtime"

	// below this the recommendation stays on its HOLD fallback
	minPredictionBars = 20
)

type PriceProvider interface {
	FetchPriceSeries(ctx context.Context, symbol, timeframe string) (domain.PriceSeries, error)
	CompanyInfo(ctx context.Context, symbol string) (domain.CompanyInfo, error)
}

type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (domain.Quote, error)
}

type SeriesCache interface {
	Get(ctx context.Context, symbol, timeframe string) (domain.PriceSeries, bool, error)
	Set(ctx context.Context, series domain.PriceSeries) error
}

type AnomalyDetector interface {
	Detect(series domain.PriceSeries) (iforest.Result, error)
}

// Dependencies wires the collaborators. Only Prices is required.
type Dependencies struct {
	Prices  PriceProvider
	Quotes  QuoteProvider
	Cache   SeriesCache
	Trend   predict.Predictor
	LLM     predict.Predictor
	Anomaly AnomalyDetector
	Scorer  *recommend.Scorer
	Metrics *metrics.Metrics
}

type Options struct {
	WatchlistTimeframe   string
	WatchlistSize        int
	WatchlistConcurrency int
}

type AnalysisService struct {
	tracer trace.Tracer
	deps   Dependencies
	opts   Options
	now    func() time.Time
}

func NewAnalysisService(tracer trace.Tracer, deps Dependencies, opts Options) *AnalysisService {
	if deps.Scorer == nil {
		deps.Scorer = recommend.NewScorer(nil)
	}
	if opts.WatchlistTimeframe == "" {
		opts.WatchlistTimeframe = "3m"
	}
	if opts.WatchlistSize <= 0 || opts.WatchlistSize > len(domain.SupportedStocks) {
		opts.WatchlistSize = min(5, len(domain.SupportedStocks))
	}
	if opts.WatchlistConcurrency <= 0 {
		opts.WatchlistConcurrency = 4
	}
	return &AnalysisService{tracer: tracer, deps: deps, opts: opts, now: time.Now}
}

type AnalyzeRequest struct {
	Symbol      string
	Timeframe   string
	UseRealtime bool
	UseAI       bool
}

type Report struct {
	Symbol         string                `json:"symbol"`
	Name           string                `json:"name,omitempty"`
	Timeframe      string                `json:"timeframe"`
	Bars           int                   `json:"bars"`
	CurrentPrice   float64               `json:"current_price"`
	DataSource     string                `json:"data_source"`
	Realtime       *domain.Quote         `json:"realtime,omitempty"`
	Analysis       domain.Snapshot       `json:"analysis"`
	Prediction     *domain.Prediction    `json:"prediction,omitempty"`
	Recommendation domain.Recommendation `json:"recommendation"`
	Anomaly        *iforest.Result       `json:"anomaly,omitempty"`
	Warnings       []string              `json:"warnings,omitempty"`
	GeneratedAt    time.Time             `json:"generated_at"`
}

// Analyze runs the full pipeline for one symbol. Missing history and optional
// collaborator failures degrade the report with warnings rather than failing it.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*Report, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.analyze")
	defer span.End()
	started := s.now()

	symbol, err := domain.NormalizeSymbol(req.Symbol)
	if err != nil {
		return nil, err
	}
	timeframe := domain.NormalizeTimeframe(req.Timeframe)
	span.SetAttributes(attribute.String("symbol", symbol), attribute.String("timeframe", timeframe))

	series, err := s.loadSeries(ctx, symbol, timeframe)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	report := &Report{
		Symbol:     symbol,
		Name:       domain.StockName(symbol),
		Timeframe:  timeframe,
		DataSource: DataSourceHistorical,
	}

	if req.UseRealtime {
		quote, qerr := s.quote(ctx, symbol)
		switch {
		case qerr == nil:
			series = MergeQuote(series, quote, s.now())
			report.Realtime = &quote
			report.DataSource = DataSourceRealtime
		case !errors.Is(qerr, domain.ErrCollaboratorDisabled):
			report.Warnings = append(report.Warnings, "realtime quote unavailable: "+qerr.Error())
		}
	}

	a, err := s.evaluate(ctx, symbol, series, req.UseAI)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	report.Bars = series.Len()
	report.CurrentPrice = a.price
	report.Analysis = a.snapshot
	report.Prediction = a.prediction
	report.Recommendation = a.recommendation
	report.Anomaly = a.anomaly
	report.Warnings = append(report.Warnings, a.warnings...)
	report.GeneratedAt = s.now().UTC()

	s.deps.Metrics.AnalysisDone(string(a.recommendation.Verdict), s.now().Sub(started))
	span.SetAttributes(
		attribute.String("verdict", string(a.recommendation.Verdict)),
		attribute.Int("confidence", a.recommendation.Confidence),
	)
	return report, nil
}

type evaluation struct {
	price          float64
	snapshot       domain.Snapshot
	prediction     *domain.Prediction
	recommendation domain.Recommendation
	anomaly        *iforest.Result
	warnings       []string
}

func (s *AnalysisService) evaluate(ctx context.Context, symbol string, series domain.PriceSeries, useAI bool) (evaluation, error) {
	var out evaluation
	last, ok := series.Last()
	if !ok {
		return out, &domain.UpstreamProviderError{Provider: "prices", Op: "history", Err: fmt.Errorf("no bars for %s", symbol)}
	}
	out.price = last.Close

	bundle, err := indicator.Compute(series)
	if err != nil {
		if !domain.IsInsufficientData(err) {
			return out, err
		}
		out.warnings = append(out.warnings, err.Error())
	}
	out.snapshot = indicator.Latest(series, bundle)

	if s.deps.Anomaly != nil {
		res, aerr := s.deps.Anomaly.Detect(series)
		switch {
		case aerr == nil:
			out.anomaly = &res
			if res.UnusualActivity {
				s.deps.Metrics.AnomalyFlagged()
			}
		case !domain.IsInsufficientData(aerr):
			log.Warn().Err(aerr).Str("symbol", symbol).Msg("anomaly detection failed")
		}
	}

	if series.Len() < minPredictionBars {
		out.recommendation = s.deps.Scorer.Score(recommend.Input{Snapshot: out.snapshot, LatestPrice: out.price})
		return out, nil
	}

	in := predict.Input{Symbol: symbol, Series: series, Snapshot: out.snapshot}
	trend := s.runPredictor(ctx, predict.SourceTrend, s.deps.Trend, in)
	var llm *domain.Prediction
	if useAI && s.deps.LLM != nil {
		p, perr := s.deps.LLM.Predict(ctx, in)
		s.deps.Metrics.PredictionOutcome(predict.SourceLLM, perr)
		switch {
		case perr == nil:
			llm = &p
		case errors.Is(perr, domain.ErrCollaboratorDisabled):
		default:
			s.deps.Metrics.UpstreamFailure(predict.SourceLLM)
			log.Warn().Err(perr).Str("symbol", symbol).Msg("llm prediction failed")
			out.warnings = append(out.warnings, "AI prediction unavailable: "+perr.Error())
		}
	}
	out.prediction = predict.Combine(trend, llm)

	out.recommendation = s.deps.Scorer.Score(recommend.Input{
		Snapshot:    out.snapshot,
		LatestPrice: out.price,
		Prediction:  out.prediction,
	})
	return out, nil
}

func (s *AnalysisService) runPredictor(ctx context.Context, source string, p predict.Predictor, in predict.Input) *domain.Prediction {
	if p == nil {
		return nil
	}
	pred, err := p.Predict(ctx, in)
	s.deps.Metrics.PredictionOutcome(source, err)
	if err != nil {
		if !domain.IsInsufficientData(err) {
			log.Warn().Err(err).Str("symbol", in.Symbol).Str("source", source).Msg("prediction failed")
		}
		return nil
	}
	return &pred
}

// loadSeries reads through the cache. Cache faults are logged and bypassed.
func (s *AnalysisService) loadSeries(ctx context.Context, symbol, timeframe string) (domain.PriceSeries, error) {
	if s.deps.Cache != nil {
		cached, hit, err := s.deps.Cache.Get(ctx, symbol, timeframe)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("series cache read failed")
		}
		s.deps.Metrics.CacheResult(hit)
		if hit && cached.Len() > 0 {
			return cached, nil
		}
	}
	return s.fetchAndStore(ctx, symbol, timeframe)
}

func (s *AnalysisService) fetchAndStore(ctx context.Context, symbol, timeframe string) (domain.PriceSeries, error) {
	if s.deps.Prices == nil {
		return domain.PriceSeries{}, fmt.Errorf("analysis service has no price provider")
	}
	series, err := s.deps.Prices.FetchPriceSeries(ctx, symbol, timeframe)
	if err != nil {
		if !domain.IsInvalidSymbol(err) {
			s.deps.Metrics.UpstreamFailure("prices")
		}
		return domain.PriceSeries{}, err
	}
	if series.Len() == 0 {
		return domain.PriceSeries{}, &domain.UpstreamProviderError{Provider: "prices", Op: "history", Err: fmt.Errorf("no bars for %s", symbol)}
	}
	if err := series.Validate(); err != nil {
		return domain.PriceSeries{}, &domain.UpstreamProviderError{Provider: "prices", Op: "history", Err: err}
	}
	series.Symbol, series.Timeframe = symbol, timeframe
	if s.deps.Cache != nil {
		if err := s.deps.Cache.Set(ctx, series); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("series cache write failed")
		}
	}
	return series, nil
}

func (s *AnalysisService) quote(ctx context.Context, symbol string) (domain.Quote, error) {
	if s.deps.Quotes == nil {
		return domain.Quote{}, domain.ErrCollaboratorDisabled
	}
	q, err := s.deps.Quotes.Quote(ctx, symbol)
	if err != nil && !errors.Is(err, domain.ErrCollaboratorDisabled) {
		s.deps.Metrics.UpstreamFailure("quotes")
	}
	return q, err
}

func (s *AnalysisService) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.quote")
	defer span.End()

	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return domain.Quote{}, err
	}
	span.SetAttributes(attribute.String("symbol", sym))
	return s.quote(ctx, sym)
}

func (s *AnalysisService) CompanyInfo(ctx context.Context, symbol string) (domain.CompanyInfo, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.company-info")
	defer span.End()

	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return domain.CompanyInfo{}, err
	}
	span.SetAttributes(attribute.String("symbol", sym))
	if s.deps.Prices == nil {
		return domain.CompanyInfo{}, domain.ErrCollaboratorDisabled
	}
	info, err := s.deps.Prices.CompanyInfo(ctx, sym)
	if err != nil {
		s.deps.Metrics.UpstreamFailure("prices")
		return domain.CompanyInfo{}, err
	}
	return info, nil
}

func (s *AnalysisService) Symbols() []domain.Stock {
	out := make([]domain.Stock, len(domain.SupportedStocks))
	copy(out, domain.SupportedStocks)
	return out
}

func (s *AnalysisService) Timeframes() []string {
	out := make([]string, len(domain.TimeframeOrder))
	copy(out, domain.TimeframeOrder)
	return out
}
