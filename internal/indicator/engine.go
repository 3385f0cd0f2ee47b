package indicator

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"stock-advisor/internal/domain"
)

const (
	smaShortPeriod   = 20
	smaMediumPeriod  = 50
	smaLongPeriod    = 200
	rsiPeriod        = 14
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
	bollingerPeriod  = 20
	bollingerStdDevs = 2.0
	stochKPeriod     = 14
	stochDPeriod     = 3

	pivotRadius      = 10
	clusterThreshold = 0.02
	maxLevels        = 3
)

// RequiredBars is the longest window the engine uses.
const RequiredBars = smaLongPeriod

// Compute derives every indicator series for the given bars. It never fails
// outright: when the series is shorter than RequiredBars the partial bundle
// is returned together with an *domain.InsufficientDataError.
func Compute(series domain.PriceSeries) (domain.IndicatorBundle, error) {
	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()

	macdLine, signalLine, histogram := macdSeries(closes, macdFastPeriod, macdSlowPeriod, macdSignalPeriod)
	middle, upper, lower := bollingerSeries(closes, bollingerPeriod, bollingerStdDevs)
	k, d := stochasticSeries(highs, lows, closes, stochKPeriod, stochDPeriod)
	support, resistance := supportResistance(highs, lows, closes)

	bundle := domain.IndicatorBundle{
		SMA20:         toSeries(smaSeries(closes, smaShortPeriod)),
		SMA50:         toSeries(smaSeries(closes, smaMediumPeriod)),
		SMA200:        toSeries(smaSeries(closes, smaLongPeriod)),
		EMA12:         toSeries(emaSeries(closes, macdFastPeriod)),
		EMA26:         toSeries(emaSeries(closes, macdSlowPeriod)),
		RSI:           toSeries(rsiSeries(closes, rsiPeriod)),
		MACD:          toSeries(macdLine),
		MACDSignal:    toSeries(signalLine),
		MACDHistogram: toSeries(histogram),
		BBUpper:       toSeries(upper),
		BBMiddle:      toSeries(middle),
		BBLower:       toSeries(lower),
		StochK:        toSeries(k),
		StochD:        toSeries(d),
		Support:       support,
		Resistance:    resistance,
	}

	if len(closes) < RequiredBars {
		return bundle, &domain.InsufficientDataError{Required: RequiredBars, Got: len(closes)}
	}
	return bundle, nil
}

func toSeries(values []float64) domain.Series {
	out := make(domain.Series, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = &v
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func smaSeries(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// smaSkipNaN averages the trailing window only once it holds period defined
// values; used for series that are themselves derived.
func smaSkipNaN(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	for i := range values {
		if i < period-1 {
			continue
		}
		window := values[i-period+1 : i+1]
		var sum float64
		ok := true
		for _, v := range window {
			if math.IsNaN(v) {
				ok = false
				break
			}
			sum += v
		}
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

func rsiSeries(closes []float64, period int) []float64 {
	series := nanSlice(len(closes))
	if len(closes) <= period {
		return series
	}

	var gainSum float64
	var lossSum float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	series[period] = rsiFromAvg(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain := math.Max(delta, 0)
		loss := math.Max(-delta, 0)
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		series[i] = rsiFromAvg(avgGain, avgLoss)
	}

	return series
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// emaSeries seeds with the SMA of the first period defined values and leaves
// everything before that NaN. Leading NaNs in values are skipped.
func emaSeries(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	start := 0
	for start < len(values) && math.IsNaN(values[start]) {
		start++
	}
	if period <= 0 || len(values)-start < period {
		return out
	}

	seedIdx := start + period - 1
	var sum float64
	for i := start; i <= seedIdx; i++ {
		sum += values[i]
	}
	out[seedIdx] = sum / float64(period)

	alpha := 2.0 / (float64(period) + 1.0)
	for i := seedIdx + 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

func macdSeries(values []float64, fast, slow, signal int) (macdLine, signalLine, histogram []float64) {
	fastEMA := emaSeries(values, fast)
	slowEMA := emaSeries(values, slow)
	macdLine = make([]float64, len(values))
	for i := range values {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine = emaSeries(macdLine, signal)
	histogram = make([]float64, len(values))
	for i := range values {
		histogram[i] = macdLine[i] - signalLine[i]
	}
	return macdLine, signalLine, histogram
}

func bollingerSeries(closes []float64, period int, k float64) (middle, upper, lower []float64) {
	middle = nanSlice(len(closes))
	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))
	for i := period - 1; i < len(closes); i++ {
		mean, std := meanStd(closes[i-period+1 : i+1])
		middle[i] = mean
		upper[i] = mean + k*std
		lower[i] = mean - k*std
	}
	return middle, upper, lower
}

func stochasticSeries(highs, lows, closes []float64, kPeriod, dPeriod int) (k, d []float64) {
	k = nanSlice(len(closes))
	for i := kPeriod - 1; i < len(closes); i++ {
		hh := highs[i]
		ll := lows[i]
		for j := i - kPeriod + 1; j < i; j++ {
			hh = math.Max(hh, highs[j])
			ll = math.Min(ll, lows[j])
		}
		if hh == ll {
			k[i] = 50
			continue
		}
		k[i] = 100 * (closes[i] - ll) / (hh - ll)
	}
	return k, smaSkipNaN(k, dPeriod)
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	if len(values) == 1 {
		return values[0], 0
	}
	return stat.PopMeanStdDev(values, nil)
}

func supportResistance(highs, lows, closes []float64) (support, resistance []float64) {
	support = []float64{}
	resistance = []float64{}
	if len(closes) == 0 {
		return support, resistance
	}

	var pivotHighs, pivotLows []float64
	for i := pivotRadius; i < len(closes)-pivotRadius; i++ {
		isHigh, isLow := true, true
		for j := i - pivotRadius; j <= i+pivotRadius; j++ {
			if highs[j] > highs[i] {
				isHigh = false
			}
			if lows[j] < lows[i] {
				isLow = false
			}
		}
		if isHigh {
			pivotHighs = append(pivotHighs, highs[i])
		}
		if isLow {
			pivotLows = append(pivotLows, lows[i])
		}
	}

	current := closes[len(closes)-1]
	for _, level := range clusterLevels(pivotHighs, clusterThreshold) {
		if level > current {
			resistance = append(resistance, level)
		}
	}
	for _, level := range clusterLevels(pivotLows, clusterThreshold) {
		if level < current {
			support = append(support, level)
		}
	}

	sort.Float64s(resistance)
	sort.Sort(sort.Reverse(sort.Float64Slice(support)))
	if len(resistance) > maxLevels {
		resistance = resistance[:maxLevels]
	}
	if len(support) > maxLevels {
		support = support[:maxLevels]
	}
	return support, resistance
}

// clusterLevels groups sorted points whose neighbours sit within threshold
// of each other and returns the cluster means.
func clusterLevels(points []float64, threshold float64) []float64 {
	if len(points) == 0 {
		return nil
	}
	sorted := append([]float64(nil), points...)
	sort.Float64s(sorted)

	var out []float64
	cluster := []float64{sorted[0]}
	flush := func() {
		mean, _ := meanStd(cluster)
		out = append(out, mean)
	}
	for _, p := range sorted[1:] {
		last := cluster[len(cluster)-1]
		if p <= last*(1+threshold) && p >= last*(1-threshold) {
			cluster = append(cluster, p)
			continue
		}
		flush()
		cluster = []float64{p}
	}
	flush()
	return out
}
