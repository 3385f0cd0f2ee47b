package service

import (
	"math"
	"time"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/markethours"
)

// MergeQuote folds a live quote into the history as today's bar: it updates
// the bar when today already exists and appends one otherwise. Quotes taken
// before the session opens describe the previous close and are ignored.
// The input series is not modified.
func MergeQuote(series domain.PriceSeries, q domain.Quote, now time.Time) domain.PriceSeries {
	if q.LastPrice <= 0 || !markethours.SessionStarted(now) {
		return series
	}
	today := markethours.Today(now)

	bars := make([]domain.PriceBar, len(series.Bars), len(series.Bars)+1)
	copy(bars, series.Bars)
	out := series
	out.Bars = bars

	n := len(bars)
	if n > 0 && sameDay(bars[n-1].Date, today) {
		last := &bars[n-1]
		last.Close = q.LastPrice
		last.High = math.Max(last.High, math.Max(q.DayHigh, q.LastPrice))
		last.Low = math.Min(last.Low, lowOf(q))
		if q.Volume > 0 {
			last.Volume = q.Volume
		}
		return out
	}
	if n > 0 && bars[n-1].Date.After(today) {
		return series
	}

	open := q.Open
	if open <= 0 {
		open = q.LastPrice
	}
	out.Bars = append(out.Bars, domain.PriceBar{
		Date:   today,
		Open:   open,
		High:   math.Max(q.DayHigh, math.Max(open, q.LastPrice)),
		Low:    math.Min(lowOf(q), open),
		Close:  q.LastPrice,
		Volume: q.Volume,
	})
	return out
}

func lowOf(q domain.Quote) float64 {
	if q.DayLow > 0 {
		return math.Min(q.DayLow, q.LastPrice)
	}
	return q.LastPrice
}

func sameDay(a, b time.Time) bool {
	ai, bi := a.In(markethours.IST), b.In(markethours.IST)
	return ai.Year() == bi.Year() && ai.YearDay() == bi.YearDay()
}
