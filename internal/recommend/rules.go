package recommend

import (
	"fmt"

	"stock-advisor/internal/domain"
)

type Side int

const (
	Bullish Side = iota + 1
	Bearish
)

func (s Side) String() string {
	switch s {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	}
	return "neutral"
}

// Input is everything a rule may look at.
type Input struct {
	Snapshot    domain.Snapshot
	LatestPrice float64
	Prediction  *domain.Prediction
}

// Rule is one row of the scoring table. Weight returns the points the rule
// contributes, or 0 when it does not fire.
type Rule struct {
	Name   string
	Side   Side
	Weight func(Input) int
	Reason func(Input) string
}

func flag(points int, pred func(domain.Snapshot) bool) func(Input) int {
	return func(in Input) int {
		if pred(in.Snapshot) {
			return points
		}
		return 0
	}
}

func text(s string) func(Input) string {
	return func(Input) string { return s }
}

// rsiReason appends the RSI reading when the snapshot carries one; a
// hand-built snapshot may set the RSI flags alone.
func rsiReason(label string) func(Input) string {
	return func(in Input) string {
		if in.Snapshot.RSI == nil {
			return label
		}
		return fmt.Sprintf("%s (%.1f)", label, *in.Snapshot.RSI)
	}
}

const predictionMinConfidence = 0.6

func predictionWeight(dir domain.Direction) func(Input) int {
	return func(in Input) int {
		p := in.Prediction
		if p == nil || p.Direction != dir || p.Confidence < predictionMinConfidence {
			return 0
		}
		return int(p.Confidence * 5)
	}
}

func predictionReason(word string) func(Input) string {
	return func(in Input) string {
		source := in.Prediction.Source
		if source == "" {
			source = "model"
		}
		return fmt.Sprintf("Prediction (%s) expects %s movement with %.0f%% confidence", source, word, in.Prediction.Confidence*100)
	}
}

// DefaultRules is evaluated top to bottom; reasons keep this order.
var DefaultRules = []Rule{
	{Name: "price_above_sma_20", Side: Bullish, Weight: flag(1, func(s domain.Snapshot) bool { return s.PriceAboveSMA20 }), Reason: text("Price is above the 20-day SMA")},
	{Name: "price_below_sma_20", Side: Bearish, Weight: flag(1, func(s domain.Snapshot) bool { return s.PriceBelowSMA20 }), Reason: text("Price is below the 20-day SMA")},
	{Name: "price_above_sma_50", Side: Bullish, Weight: flag(1, func(s domain.Snapshot) bool { return s.PriceAboveSMA50 }), Reason: text("Price is above the 50-day SMA")},
	{Name: "price_below_sma_50", Side: Bearish, Weight: flag(1, func(s domain.Snapshot) bool { return s.PriceBelowSMA50 }), Reason: text("Price is below the 50-day SMA")},
	{Name: "price_above_sma_200", Side: Bullish, Weight: flag(2, func(s domain.Snapshot) bool { return s.PriceAboveSMA200 }), Reason: text("Price is above the 200-day SMA (long-term uptrend)")},
	{Name: "price_below_sma_200", Side: Bearish, Weight: flag(2, func(s domain.Snapshot) bool { return s.PriceBelowSMA200 }), Reason: text("Price is below the 200-day SMA (long-term downtrend)")},
	{Name: "sma_20_above_sma_50", Side: Bullish, Weight: flag(1, func(s domain.Snapshot) bool { return s.SMA20AboveSMA50 }), Reason: text("20-day SMA is above the 50-day SMA")},
	{Name: "sma_20_below_sma_50", Side: Bearish, Weight: flag(1, func(s domain.Snapshot) bool { return s.SMA20BelowSMA50 }), Reason: text("20-day SMA is below the 50-day SMA")},
	{Name: "sma_50_above_sma_200", Side: Bullish, Weight: flag(2, func(s domain.Snapshot) bool { return s.SMA50AboveSMA200 }), Reason: text("50-day SMA is above the 200-day SMA")},
	{Name: "sma_50_below_sma_200", Side: Bearish, Weight: flag(2, func(s domain.Snapshot) bool { return s.SMA50BelowSMA200 }), Reason: text("50-day SMA is below the 200-day SMA")},
	{Name: "golden_cross", Side: Bullish, Weight: flag(3, func(s domain.Snapshot) bool { return s.GoldenCross }), Reason: text("Golden cross: 50-day SMA crossed above the 200-day SMA")},
	{Name: "death_cross", Side: Bearish, Weight: flag(3, func(s domain.Snapshot) bool { return s.DeathCross }), Reason: text("Death cross: 50-day SMA crossed below the 200-day SMA")},
	{Name: "macd_above_signal", Side: Bullish, Weight: flag(2, func(s domain.Snapshot) bool { return s.MACDAboveSignal }), Reason: text("MACD is above its signal line")},
	{Name: "macd_below_signal", Side: Bearish, Weight: flag(2, func(s domain.Snapshot) bool { return s.MACDBelowSignal }), Reason: text("MACD is below its signal line")},
	{Name: "macd_positive", Side: Bullish, Weight: flag(1, func(s domain.Snapshot) bool { return s.MACDPositive }), Reason: text("MACD is positive")},
	{Name: "macd_negative", Side: Bearish, Weight: flag(1, func(s domain.Snapshot) bool { return s.MACDNegative }), Reason: text("MACD is negative")},
	{
		Name: "rsi_oversold", Side: Bullish,
		Weight: flag(1, func(s domain.Snapshot) bool { return s.Oversold }),
		Reason: rsiReason("RSI is oversold"),
	},
	{
		Name: "rsi_overbought", Side: Bearish,
		Weight: flag(1, func(s domain.Snapshot) bool { return s.Overbought }),
		Reason: rsiReason("RSI is overbought"),
	},
	{
		Name: "rsi_bullish_momentum", Side: Bullish,
		Weight: flag(1, func(s domain.Snapshot) bool { return s.RSI != nil && *s.RSI > 50 && !s.Overbought }),
		Reason: rsiReason("RSI shows bullish momentum"),
	},
	{
		Name: "rsi_bearish_momentum", Side: Bearish,
		Weight: flag(1, func(s domain.Snapshot) bool { return s.RSI != nil && *s.RSI < 50 && !s.Oversold }),
		Reason: rsiReason("RSI shows bearish momentum"),
	},
	{Name: "stoch_oversold", Side: Bullish, Weight: flag(1, func(s domain.Snapshot) bool { return s.StochOversold }), Reason: text("Stochastic oscillator is oversold")},
	{Name: "stoch_overbought", Side: Bearish, Weight: flag(1, func(s domain.Snapshot) bool { return s.StochOverbought }), Reason: text("Stochastic oscillator is overbought")},
	{Name: "below_lower_band", Side: Bullish, Weight: flag(1, func(s domain.Snapshot) bool { return s.BBPosition == domain.BandBelow }), Reason: text("Price closed below the lower Bollinger Band")},
	{Name: "above_upper_band", Side: Bearish, Weight: flag(1, func(s domain.Snapshot) bool { return s.BBPosition == domain.BandAbove }), Reason: text("Price closed above the upper Bollinger Band")},
	{Name: "prediction_up", Side: Bullish, Weight: predictionWeight(domain.DirectionUp), Reason: predictionReason("upward")},
	{Name: "prediction_down", Side: Bearish, Weight: predictionWeight(domain.DirectionDown), Reason: predictionReason("downward")},
}
