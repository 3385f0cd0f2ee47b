package indicator

import (
	"stock-advisor/internal/domain"
)

const (
	rsiOverbought   = 70.0
	rsiOversold     = 30.0
	stochOverbought = 80.0
	stochOversold   = 20.0
)

// Latest reduces a bundle to the values and flags of its final bar. Flags
// that depend on a null value stay false.
func Latest(series domain.PriceSeries, bundle domain.IndicatorBundle) domain.Snapshot {
	last, ok := series.Last()
	if !ok {
		return domain.Snapshot{Support: []float64{}, Resistance: []float64{}}
	}
	n := series.Len()
	price := last.Close

	snap := domain.Snapshot{
		SMA20:         bundle.SMA20.Last(),
		SMA50:         bundle.SMA50.Last(),
		SMA200:        bundle.SMA200.Last(),
		EMA12:         bundle.EMA12.Last(),
		EMA26:         bundle.EMA26.Last(),
		RSI:           bundle.RSI.Last(),
		MACD:          bundle.MACD.Last(),
		MACDSignal:    bundle.MACDSignal.Last(),
		MACDHistogram: bundle.MACDHistogram.Last(),
		BBUpper:       bundle.BBUpper.Last(),
		BBMiddle:      bundle.BBMiddle.Last(),
		BBLower:       bundle.BBLower.Last(),
		StochK:        bundle.StochK.Last(),
		StochD:        bundle.StochD.Last(),
		Support:       nonNil(bundle.Support),
		Resistance:    nonNil(bundle.Resistance),
	}
	if n > 1 {
		prev := series.Bars[n-2].Close
		snap.PreviousClose = &prev
	}

	snap = snap.WithPrice(price)
	snap.SMA20AboveSMA50, snap.SMA20BelowSMA50 = compare(snap.SMA20, snap.SMA50)
	snap.SMA50AboveSMA200, snap.SMA50BelowSMA200 = compare(snap.SMA50, snap.SMA200)

	prevAbove, prevBelow := compare(bundle.SMA50.At(n-2), bundle.SMA200.At(n-2))
	snap.GoldenCross = snap.SMA50AboveSMA200 && (prevBelow || equalDefined(bundle.SMA50.At(n-2), bundle.SMA200.At(n-2)))
	snap.DeathCross = snap.SMA50BelowSMA200 && (prevAbove || equalDefined(bundle.SMA50.At(n-2), bundle.SMA200.At(n-2)))

	if snap.RSI != nil {
		snap.Overbought = *snap.RSI > rsiOverbought
		snap.Oversold = *snap.RSI < rsiOversold
	}

	if snap.MACD != nil {
		snap.MACDPositive = *snap.MACD > 0
		snap.MACDNegative = *snap.MACD < 0
	}
	snap.MACDAboveSignal, snap.MACDBelowSignal = compare(snap.MACD, snap.MACDSignal)

	if snap.StochK != nil {
		snap.StochOverbought = *snap.StochK > stochOverbought
		snap.StochOversold = *snap.StochK < stochOversold
	}

	return snap
}

func compare(a, b *float64) (above, below bool) {
	return domain.CompareValues(a, b)
}

func equalDefined(a, b *float64) bool {
	if a == nil || b == nil {
		return false
	}
	above, below := compare(a, b)
	return !above && !below
}

func nonNil(levels []float64) []float64 {
	if levels == nil {
		return []float64{}
	}
	return levels
}
