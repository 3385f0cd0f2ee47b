package domain

import (
	"strings"
)

const (
	NSESuffix        = ".NS"
	BSESuffix        = ".BO"
	DefaultTimeframe = "1y"
)

type Stock struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

var SupportedStocks = []Stock{
	{Symbol: "RELIANCE.NS", Name: "Reliance Industries Ltd."},
	{Symbol: "TCS.NS", Name: "Tata Consultancy Services Ltd."},
	{Symbol: "INFY.NS", Name: "Infosys Ltd."},
	{Symbol: "HDFCBANK.NS", Name: "HDFC Bank Ltd."},
	{Symbol: "ICICIBANK.NS", Name: "ICICI Bank Ltd."},
	{Symbol: "HINDUNILVR.NS", Name: "Hindustan Unilever Ltd."},
	{Symbol: "SBIN.NS", Name: "State Bank of India"},
	{Symbol: "BAJFINANCE.NS", Name: "Bajaj Finance Ltd."},
	{Symbol: "BHARTIARTL.NS", Name: "Bharti Airtel Ltd."},
	{Symbol: "KOTAKBANK.NS", Name: "Kotak Mahindra Bank Ltd."},
}

// timeframes maps the dashboard vocabulary to provider ranges.
var timeframes = map[string]string{
	"1d": "1d",
	"1w": "5d",
	"1m": "1mo",
	"3m": "3mo",
	"6m": "6mo",
	"1y": "1y",
	"2y": "2y",
	"5y": "5y",
}

var TimeframeOrder = []string{"1d", "1w", "1m", "3m", "6m", "1y", "2y", "5y"}

// NormalizeTimeframe returns a known timeframe key, falling back to 1y.
// Provider range strings such as "1mo" are accepted too.
func NormalizeTimeframe(tf string) string {
	tf = strings.ToLower(strings.TrimSpace(tf))
	if _, ok := timeframes[tf]; ok {
		return tf
	}
	for key, rng := range timeframes {
		if rng == tf {
			return key
		}
	}
	return DefaultTimeframe
}

func ProviderRange(tf string) string {
	return timeframes[NormalizeTimeframe(tf)]
}

// NormalizeSymbol upper-cases a ticker and appends .NS when no exchange
// suffix is present.
func NormalizeSymbol(raw string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(raw))
	if sym == "" {
		return "", &InvalidSymbolError{Reason: "symbol is required"}
	}
	if len(sym) > 32 {
		return "", &InvalidSymbolError{Symbol: sym, Reason: "symbol is too long"}
	}
	for _, ch := range sym {
		switch {
		case ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '&', ch == '-', ch == '.', ch == '^':
		default:
			return "", &InvalidSymbolError{Symbol: sym, Reason: "unexpected character " + string(ch)}
		}
	}
	if strings.HasPrefix(sym, ".") || strings.HasSuffix(sym, ".") {
		return "", &InvalidSymbolError{Symbol: sym, Reason: "malformed exchange suffix"}
	}
	if strings.HasPrefix(sym, "^") || strings.Contains(sym, ".") {
		return sym, nil
	}
	return sym + NSESuffix, nil
}

// BaseSymbol strips the exchange suffix.
func BaseSymbol(sym string) string {
	sym = strings.ToUpper(strings.TrimSpace(sym))
	if i := strings.LastIndex(sym, "."); i > 0 {
		return sym[:i]
	}
	return sym
}

func StockName(sym string) string {
	for _, s := range SupportedStocks {
		if s.Symbol == sym {
			return s.Name
		}
	}
	return ""
}
