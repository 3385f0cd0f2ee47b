package domain

type Verdict string

const (
	VerdictStrongSell Verdict = "STRONG_SELL"
	VerdictSell       Verdict = "SELL"
	VerdictHold       Verdict = "HOLD"
	VerdictBuy        Verdict = "BUY"
	VerdictStrongBuy  Verdict = "STRONG_BUY"
)

func (v Verdict) IsValid() bool {
	switch v {
	case VerdictStrongSell, VerdictSell, VerdictHold, VerdictBuy, VerdictStrongBuy:
		return true
	}
	return false
}

func (v Verdict) IsBullish() bool {
	return v == VerdictBuy || v == VerdictStrongBuy
}

func (v Verdict) IsBearish() bool {
	return v == VerdictSell || v == VerdictStrongSell
}

type Recommendation struct {
	Verdict      Verdict  `json:"verdict"`
	Confidence   int      `json:"confidence"`
	Reasons      []string `json:"reasons"`
	BullishScore int      `json:"bullish_score"`
	BearishScore int      `json:"bearish_score"`
}
