package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/indicator"
)

type ChartPrices struct {
	Open  []float64 `json:"open"`
	High  []float64 `json:"high"`
	Low   []float64 `json:"low"`
	Close []float64 `json:"close"`
}

type ChartTechnical struct {
	SMA20         domain.Series `json:"sma_20"`
	SMA50         domain.Series `json:"sma_50"`
	SMA200        domain.Series `json:"sma_200"`
	UpperBand     domain.Series `json:"upper_band"`
	MiddleBand    domain.Series `json:"middle_band"`
	LowerBand     domain.Series `json:"lower_band"`
	RSI           domain.Series `json:"rsi"`
	MACD          domain.Series `json:"macd"`
	MACDSignal    domain.Series `json:"macd_signal"`
	MACDHistogram domain.Series `json:"macd_histogram"`
	StochK        domain.Series `json:"stoch_k"`
	StochD        domain.Series `json:"stoch_d"`
}

type ChartData struct {
	Symbol     string         `json:"symbol"`
	Timeframe  string         `json:"timeframe"`
	Dates      []string       `json:"dates"`
	Prices     ChartPrices    `json:"prices"`
	Volume     []float64      `json:"volume"`
	Technical  ChartTechnical `json:"technical"`
	Support    []float64      `json:"support"`
	Resistance []float64      `json:"resistance"`
}

// ChartSeries loads a series and its indicators. Short histories are not an
// error here; the unfilled windows stay null.
func (s *AnalysisService) ChartSeries(ctx context.Context, symbol, timeframe string) (domain.PriceSeries, domain.IndicatorBundle, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.chart-series")
	defer span.End()

	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return domain.PriceSeries{}, domain.IndicatorBundle{}, err
	}
	tf := domain.NormalizeTimeframe(timeframe)
	span.SetAttributes(attribute.String("symbol", sym), attribute.String("timeframe", tf))

	series, err := s.loadSeries(ctx, sym, tf)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.PriceSeries{}, domain.IndicatorBundle{}, err
	}
	bundle, err := indicator.Compute(series)
	if err != nil && !domain.IsInsufficientData(err) {
		return domain.PriceSeries{}, domain.IndicatorBundle{}, err
	}
	return series, bundle, nil
}

func (s *AnalysisService) ChartData(ctx context.Context, symbol, timeframe string) (*ChartData, error) {
	series, bundle, err := s.ChartSeries(ctx, symbol, timeframe)
	if err != nil {
		return nil, err
	}

	n := series.Len()
	out := &ChartData{
		Symbol:    series.Symbol,
		Timeframe: series.Timeframe,
		Dates:     make([]string, n),
		Prices: ChartPrices{
			Open:  series.Opens(),
			High:  series.Highs(),
			Low:   series.Lows(),
			Close: series.Closes(),
		},
		Volume: series.Volumes(),
		Technical: ChartTechnical{
			SMA20:         bundle.SMA20,
			SMA50:         bundle.SMA50,
			SMA200:        bundle.SMA200,
			UpperBand:     bundle.BBUpper,
			MiddleBand:    bundle.BBMiddle,
			LowerBand:     bundle.BBLower,
			RSI:           bundle.RSI,
			MACD:          bundle.MACD,
			MACDSignal:    bundle.MACDSignal,
			MACDHistogram: bundle.MACDHistogram,
			StochK:        bundle.StochK,
			StochD:        bundle.StochD,
		},
		Support:    bundle.Support,
		Resistance: bundle.Resistance,
	}
	for i, bar := range series.Bars {
		out.Dates[i] = bar.Date.Format("2006-01-02")
	}
	return out, nil
}
