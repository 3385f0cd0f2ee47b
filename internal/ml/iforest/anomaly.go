// Package iforest scores how unusual the latest trading day is relative to
// the rest of a price series.
package iforest

import (
	"errors"

	"stock-advisor/internal/domain"
)

const (
	MinBars          = 30
	DefaultThreshold = 0.65
	volumeWindow     = 20
)

// Result is attached to an analysis report when enough history exists.
type Result struct {
	Score           float64 `json:"anomaly_score"`
	UnusualActivity bool    `json:"unusual_activity"`
}

type Detector struct {
	threshold float64
	opts      TrainOptions
}

func NewDetector(threshold float64, opts TrainOptions) *Detector {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	return &Detector{threshold: threshold, opts: opts}
}

// Detect fits a forest on the series' (return, volume ratio) pairs and scores
// the final bar.
func (d *Detector) Detect(series domain.PriceSeries) (Result, error) {
	if series.Len() < MinBars {
		return Result{}, &domain.InsufficientDataError{Required: MinBars, Got: series.Len()}
	}
	samples := Features(series)
	if len(samples) == 0 {
		return Result{}, errors.New("no usable feature rows")
	}
	model, err := Train(samples, d.opts)
	if err != nil {
		return Result{}, err
	}
	score := model.Score(samples[len(samples)-1])
	return Result{Score: score, UnusualActivity: score > d.threshold}, nil
}

// Features builds one row per bar after the first: daily return in percent
// and volume over its trailing 20-bar mean. Bars with a zero previous close
// are skipped.
func Features(series domain.PriceSeries) [][]float64 {
	bars := series.Bars
	out := make([][]float64, 0, len(bars))
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			continue
		}
		ret := (bars[i].Close - prev) / prev * 100
		out = append(out, []float64{ret, volumeRatio(bars, i)})
	}
	return out
}

func volumeRatio(bars []domain.PriceBar, i int) float64 {
	start := i - volumeWindow
	if start < 0 {
		start = 0
	}
	if start == i {
		return 1
	}
	sum := 0.0
	for j := start; j < i; j++ {
		sum += bars[j].Volume
	}
	mean := sum / float64(i-start)
	if mean == 0 {
		return 1
	}
	return bars[i].Volume / mean
}
