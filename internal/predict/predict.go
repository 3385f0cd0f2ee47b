package predict

import (
	"context"
	"math"

	"stock-advisor/internal/domain"
)

const (
	SourceLLM      = "llm"
	SourceTrend    = "trend_model"
	SourceCombined = "combined"

	agreementBonus = 0.1
	maxConfidence  = 0.95
)

type Input struct {
	Symbol   string
	Series   domain.PriceSeries
	Snapshot domain.Snapshot
}

type Predictor interface {
	Predict(ctx context.Context, in Input) (domain.Prediction, error)
}

// Combine merges a local and an LLM prediction. Agreeing predictions boost
// confidence; otherwise the more confident one wins. Either may be nil.
func Combine(model, llm *domain.Prediction) *domain.Prediction {
	switch {
	case model == nil && llm == nil:
		return nil
	case model == nil:
		out := *llm
		return &out
	case llm == nil:
		out := *model
		return &out
	}

	if model.Direction == llm.Direction {
		return &domain.Prediction{
			Direction:       model.Direction,
			Confidence:      math.Min(math.Max(model.Confidence, llm.Confidence)+agreementBonus, maxConfidence),
			PredictedReturn: (model.PredictedReturn + llm.PredictedReturn) / 2,
			Source:          SourceCombined,
			Rationale:       llm.Rationale,
		}
	}

	winner := model
	if llm.Confidence > model.Confidence {
		winner = llm
	}
	out := *winner
	out.Source = SourceCombined
	return &out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
