package domain

import "math"

// Series holds one value per bar. A nil entry means the indicator window
// was not filled at that index.
type Series []*float64

func (s Series) Last() *float64 {
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}

// At returns the value at i, or nil when i is out of range or unset.
func (s Series) At(i int) *float64 {
	if i < 0 || i >= len(s) {
		return nil
	}
	return s[i]
}

// Filled counts the non-nil entries.
func (s Series) Filled() int {
	n := 0
	for _, v := range s {
		if v != nil {
			n++
		}
	}
	return n
}

type IndicatorBundle struct {
	SMA20         Series    `json:"sma_20"`
	SMA50         Series    `json:"sma_50"`
	SMA200        Series    `json:"sma_200"`
	EMA12         Series    `json:"ema_12"`
	EMA26         Series    `json:"ema_26"`
	RSI           Series    `json:"rsi"`
	MACD          Series    `json:"macd"`
	MACDSignal    Series    `json:"macd_signal"`
	MACDHistogram Series    `json:"macd_histogram"`
	BBUpper       Series    `json:"bb_upper"`
	BBMiddle      Series    `json:"bb_middle"`
	BBLower       Series    `json:"bb_lower"`
	StochK        Series    `json:"stoch_k"`
	StochD        Series    `json:"stoch_d"`
	Support       []float64 `json:"support"`
	Resistance    []float64 `json:"resistance"`
}

type BandPosition string

const (
	BandAbove  BandPosition = "above"
	BandBelow  BandPosition = "below"
	BandMiddle BandPosition = "middle"
)

// Snapshot is the latest-bar view of an IndicatorBundle.
type Snapshot struct {
	Close         float64  `json:"close"`
	PreviousClose *float64 `json:"previous_close"`

	SMA20  *float64 `json:"sma_20"`
	SMA50  *float64 `json:"sma_50"`
	SMA200 *float64 `json:"sma_200"`
	EMA12  *float64 `json:"ema_12"`
	EMA26  *float64 `json:"ema_26"`

	PriceAboveSMA20  bool `json:"price_above_sma_20"`
	PriceAboveSMA50  bool `json:"price_above_sma_50"`
	PriceAboveSMA200 bool `json:"price_above_sma_200"`
	PriceBelowSMA20  bool `json:"price_below_sma_20"`
	PriceBelowSMA50  bool `json:"price_below_sma_50"`
	PriceBelowSMA200 bool `json:"price_below_sma_200"`
	SMA20AboveSMA50  bool `json:"sma_20_above_sma_50"`
	SMA20BelowSMA50  bool `json:"sma_20_below_sma_50"`
	SMA50AboveSMA200 bool `json:"sma_50_above_sma_200"`
	SMA50BelowSMA200 bool `json:"sma_50_below_sma_200"`
	GoldenCross      bool `json:"golden_cross"`
	DeathCross       bool `json:"death_cross"`

	RSI        *float64 `json:"rsi"`
	Overbought bool     `json:"overbought"`
	Oversold   bool     `json:"oversold"`

	MACD            *float64 `json:"macd"`
	MACDSignal      *float64 `json:"macd_signal"`
	MACDHistogram   *float64 `json:"macd_histogram"`
	MACDPositive    bool     `json:"macd_positive"`
	MACDNegative    bool     `json:"macd_negative"`
	MACDAboveSignal bool     `json:"macd_above_signal"`
	MACDBelowSignal bool     `json:"macd_below_signal"`

	BBUpper    *float64     `json:"bb_upper"`
	BBMiddle   *float64     `json:"bb_middle"`
	BBLower    *float64     `json:"bb_lower"`
	BBPosition BandPosition `json:"bb_position,omitempty"`
	PercentB   *float64     `json:"percent_b"`

	StochK          *float64 `json:"stoch_k"`
	StochD          *float64 `json:"stoch_d"`
	StochOverbought bool     `json:"stoch_overbought"`
	StochOversold   bool     `json:"stoch_oversold"`

	Support    []float64 `json:"support"`
	Resistance []float64 `json:"resistance"`
}

// WithPrice re-derives the price-relative flags against price.
func (s Snapshot) WithPrice(price float64) Snapshot {
	s.Close = price
	s.PriceAboveSMA20, s.PriceBelowSMA20 = priceVs(price, s.SMA20)
	s.PriceAboveSMA50, s.PriceBelowSMA50 = priceVs(price, s.SMA50)
	s.PriceAboveSMA200, s.PriceBelowSMA200 = priceVs(price, s.SMA200)

	s.BBPosition = ""
	s.PercentB = nil
	if s.BBUpper != nil && s.BBLower != nil {
		switch {
		case price > *s.BBUpper:
			s.BBPosition = BandAbove
		case price < *s.BBLower:
			s.BBPosition = BandBelow
		default:
			s.BBPosition = BandMiddle
		}
		if width := *s.BBUpper - *s.BBLower; width > 0 {
			pb := (price - *s.BBLower) / width
			s.PercentB = &pb
		}
	}
	return s
}

func priceVs(price float64, avg *float64) (above, below bool) {
	return CompareValues(&price, avg)
}

const relTolerance = 1e-9

// CompareValues reports whether a sits above or below b. Values within a
// relative tolerance of each other are neither, and so are null inputs.
func CompareValues(a, b *float64) (above, below bool) {
	if a == nil || b == nil {
		return false, false
	}
	tol := relTolerance * math.Max(1, math.Max(math.Abs(*a), math.Abs(*b)))
	return *a-*b > tol, *b-*a > tol
}
