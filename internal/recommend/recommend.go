package recommend

import (
	"math"

	"stock-advisor/internal/domain"
)

const (
	strongThreshold = 0.6
	leanThreshold   = 0.2
	fallbackReason  = "Not enough price history to evaluate indicators"
)

// Scorer evaluates an ordered rule table.
type Scorer struct {
	rules []Rule
}

func NewScorer(rules []Rule) *Scorer {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Scorer{rules: rules}
}

// Recommend scores the snapshot with DefaultRules.
func Recommend(snap domain.Snapshot, latestPrice float64, prediction *domain.Prediction) domain.Recommendation {
	return NewScorer(nil).Score(Input{Snapshot: snap, LatestPrice: latestPrice, Prediction: prediction})
}

// Score sums the fired rules per side and maps the balance to a verdict.
// With no fired rules it returns HOLD at 50.
func (s *Scorer) Score(in Input) domain.Recommendation {
	if in.LatestPrice > 0 && in.LatestPrice != in.Snapshot.Close {
		in.Snapshot = in.Snapshot.WithPrice(in.LatestPrice)
	}

	var bull, bear int
	reasons := make([]string, 0, 8)
	for _, r := range s.rules {
		w := r.Weight(in)
		if w <= 0 {
			continue
		}
		switch r.Side {
		case Bullish:
			bull += w
		case Bearish:
			bear += w
		default:
			continue
		}
		reasons = append(reasons, r.Reason(in))
	}

	total := bull + bear
	if total == 0 {
		return domain.Recommendation{
			Verdict:    domain.VerdictHold,
			Confidence: 50,
			Reasons:    []string{fallbackReason},
		}
	}

	ratio := float64(bull-bear) / float64(total)
	verdict := verdictFor(ratio)
	return domain.Recommendation{
		Verdict:      verdict,
		Confidence:   confidenceFor(ratio),
		Reasons:      reasons,
		BullishScore: bull,
		BearishScore: bear,
	}
}

func verdictFor(ratio float64) domain.Verdict {
	switch {
	case ratio >= strongThreshold:
		return domain.VerdictStrongBuy
	case ratio >= leanThreshold:
		return domain.VerdictBuy
	case ratio <= -strongThreshold:
		return domain.VerdictStrongSell
	case ratio <= -leanThreshold:
		return domain.VerdictSell
	}
	return domain.VerdictHold
}

// confidenceFor is monotonic in |ratio| for every verdict: HOLD lands in
// [50,60), BUY/SELL start at 60 and STRONG verdicts at 80.
func confidenceFor(ratio float64) int {
	return clampPercent(int(math.Round(50 + 50*math.Abs(ratio))))
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
