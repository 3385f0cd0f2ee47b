package predict

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"stock-advisor/internal/domain"
)

const (
	defaultTrendWindow = 20
	minTrendBars       = 5
)

var errTooFewBars = errors.New("too few bars for trend model")

// TrendModel fits a least-squares line through recent log closes and
// extrapolates one bar ahead.
type TrendModel struct {
	Window int
}

func NewTrendModel(window int) *TrendModel {
	if window < minTrendBars {
		window = defaultTrendWindow
	}
	return &TrendModel{Window: window}
}

func (m *TrendModel) Predict(_ context.Context, in Input) (domain.Prediction, error) {
	closes := in.Series.Closes()
	if len(closes) > m.Window {
		closes = closes[len(closes)-m.Window:]
	}
	if len(closes) < minTrendBars {
		return domain.Prediction{}, &domain.InsufficientDataError{Required: minTrendBars, Got: len(closes)}
	}

	xs := make([]float64, len(closes))
	ys := make([]float64, len(closes))
	for i, c := range closes {
		if c <= 0 {
			return domain.Prediction{}, errors.New("non-positive close in series")
		}
		xs[i] = float64(i)
		ys[i] = math.Log(c)
	}

	alpha, slope := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(slope) {
		return domain.Prediction{}, errTooFewBars
	}
	r2 := stat.RSquared(xs, ys, nil, alpha, slope)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		// constant series
		r2 = 0
	}

	dir := domain.DirectionUp
	if slope < 0 {
		dir = domain.DirectionDown
	}
	return domain.Prediction{
		Direction:       dir,
		Confidence:      clamp01(0.5 + 0.45*r2),
		PredictedReturn: (math.Exp(slope) - 1) * 100,
		Source:          SourceTrend,
	}, nil
}
