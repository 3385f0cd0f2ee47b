package domain

import (
	"fmt"
	"time"
)

type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

type PriceSeries struct {
	Symbol    string     `json:"symbol"`
	Timeframe string     `json:"timeframe"`
	Bars      []PriceBar `json:"bars"`
}

// Validate reports an error when bar dates are not strictly increasing.
func (s PriceSeries) Validate() error {
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Date.After(s.Bars[i-1].Date) {
			return fmt.Errorf("bar %d (%s) is not after bar %d (%s)",
				i, s.Bars[i].Date.Format("2006-01-02"), i-1, s.Bars[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}

func (s PriceSeries) Len() int {
	return len(s.Bars)
}

func (s PriceSeries) Last() (PriceBar, bool) {
	if len(s.Bars) == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i := range s.Bars {
		out[i] = s.Bars[i].Close
	}
	return out
}

func (s PriceSeries) Opens() []float64 {
	out := make([]float64, len(s.Bars))
	for i := range s.Bars {
		out[i] = s.Bars[i].Open
	}
	return out
}

func (s PriceSeries) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i := range s.Bars {
		out[i] = s.Bars[i].High
	}
	return out
}

func (s PriceSeries) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i := range s.Bars {
		out[i] = s.Bars[i].Low
	}
	return out
}

func (s PriceSeries) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i := range s.Bars {
		out[i] = s.Bars[i].Volume
	}
	return out
}

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

type Prediction struct {
	Direction       Direction `json:"direction"`
	Confidence      float64   `json:"confidence"`
	PredictedReturn float64   `json:"predicted_return"`
	Source          string    `json:"source,omitempty"`
	Rationale       string    `json:"rationale,omitempty"`
}

type Quote struct {
	Symbol        string    `json:"symbol"`
	LastPrice     float64   `json:"last_price"`
	Change        float64   `json:"change"`
	PercentChange float64   `json:"percent_change"`
	Open          float64   `json:"open"`
	DayHigh       float64   `json:"day_high"`
	DayLow        float64   `json:"day_low"`
	PreviousClose float64   `json:"previous_close"`
	Volume        float64   `json:"volume"`
	MarketOpen    bool      `json:"market_open"`
	MarketStatus  string    `json:"market_status"`
	FetchedAt     time.Time `json:"fetched_at"`
}

type CompanyInfo struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Sector           string  `json:"sector,omitempty"`
	Industry         string  `json:"industry,omitempty"`
	Currency         string  `json:"currency,omitempty"`
	MarketCap        float64 `json:"market_cap,omitempty"`
	PERatio          float64 `json:"pe_ratio,omitempty"`
	DividendYield    float64 `json:"dividend_yield,omitempty"`
	FiftyTwoWeekHigh float64 `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLow  float64 `json:"fifty_two_week_low,omitempty"`
	Summary          string  `json:"summary,omitempty"`
}
