package predict

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"stock-advisor/internal/domain"
)

const (
	defaultLLMConfidence = 0.6
	maxRationaleRunes    = 600
)

var (
	directionLine  = regexp.MustCompile(`(?im)^\s*\**direction\**\s*[:\-]\s*\**\s*(up|down|bullish|bearish)`)
	confidenceLine = regexp.MustCompile(`(?im)^\s*\**confidence\**\s*[:\-]\s*\**\s*(\d{1,3}(?:\.\d+)?)\s*%?`)
	returnLine     = regexp.MustCompile(`(?im)^\s*\**(?:expected\s+)?return\**\s*[:\-]\s*\**\s*([+\-]?\d+(?:\.\d+)?)\s*%`)
	returnPhrase   = regexp.MustCompile(`(?i)\b(?:return|move)s?\b\s*(?:(?:of|is|at|about|around|roughly|approximately|near|by|:|-\s|~|\*)\s*)*([+\-]?\d+(?:\.\d+)?)\s*%`)
	anyPercent     = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)\s*%`)
	upWords        = regexp.MustCompile(`(?i)\b(up|upward|increase|rise|rising|bullish|higher)\b`)
	downWords      = regexp.MustCompile(`(?i)\b(down|downward|decrease|fall|falling|decline|bearish|lower)\b`)
)

var errNoDirection = errors.New("reply carries no direction")

// ParseReply extracts a prediction from free text. Structured
// "DIRECTION/CONFIDENCE/RETURN" lines win; otherwise the first directional
// keyword, a percentage tied to "return" or "move", and the first remaining
// percentage as confidence are used.
func ParseReply(reply string) (domain.Prediction, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return domain.Prediction{}, errNoDirection
	}

	dir, ok := parseDirection(reply)
	if !ok {
		return domain.Prediction{}, errNoDirection
	}

	return domain.Prediction{
		Direction:       dir,
		Confidence:      parseConfidence(reply),
		PredictedReturn: parseReturn(reply, dir),
		Source:          SourceLLM,
		Rationale:       rationale(reply),
	}, nil
}

func parseDirection(reply string) (domain.Direction, bool) {
	if m := directionLine.FindStringSubmatch(reply); m != nil {
		return directionWord(m[1]), true
	}
	up := upWords.FindStringIndex(reply)
	down := downWords.FindStringIndex(reply)
	switch {
	case up == nil && down == nil:
		return "", false
	case down == nil:
		return domain.DirectionUp, true
	case up == nil:
		return domain.DirectionDown, true
	case up[0] < down[0]:
		return domain.DirectionUp, true
	default:
		return domain.DirectionDown, true
	}
}

func directionWord(w string) domain.Direction {
	switch strings.ToLower(w) {
	case "down", "bearish":
		return domain.DirectionDown
	}
	return domain.DirectionUp
}

func parseConfidence(reply string) float64 {
	raw := ""
	if m := confidenceLine.FindStringSubmatch(reply); m != nil {
		raw = m[1]
	} else if m := anyPercent.FindStringSubmatch(stripReturns(reply)); m != nil {
		raw = m[1]
	}
	if raw == "" {
		return defaultLLMConfidence
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultLLMConfidence
	}
	return clamp01(v / 100)
}

func stripReturns(reply string) string {
	return returnPhrase.ReplaceAllString(returnLine.ReplaceAllString(reply, ""), "")
}

func parseReturn(reply string, dir domain.Direction) float64 {
	m := returnLine.FindStringSubmatch(reply)
	if m == nil {
		m = returnPhrase.FindStringSubmatch(reply)
	}
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	// an unsigned figure follows the stated direction
	if !strings.HasPrefix(m[1], "+") && !strings.HasPrefix(m[1], "-") && dir == domain.DirectionDown {
		v = -v
	}
	return v
}

// rationale drops the structured header lines.
func rationale(reply string) string {
	lines := strings.Split(reply, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if directionLine.MatchString(line) || confidenceLine.MatchString(line) || returnLine.MatchString(line) {
			continue
		}
		if t := strings.TrimSpace(line); t != "" {
			kept = append(kept, t)
		}
	}
	out := []rune(strings.Join(kept, " "))
	if len(out) > maxRationaleRunes {
		out = out[:maxRationaleRunes]
	}
	return string(out)
}
