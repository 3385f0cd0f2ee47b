package mcp

import (
	"stock-advisor/internal/domain"
	"stock-advisor/internal/service"
)

type symbolsListInput struct{}

type symbolsListOutput struct {
	Symbols    []domain.Stock `json:"symbols"`
	Timeframes []string       `json:"timeframes"`
}

type stockAnalyzeInput struct {
	Symbol      string `json:"symbol" jsonschema:"NSE/BSE ticker, e.g. TCS or RELIANCE.NS"`
	Timeframe   string `json:"timeframe,omitempty" jsonschema:"history window: 1d, 1w, 1m, 3m, 6m, 1y, 2y, 5y (default 1y)"`
	UseRealtime *bool  `json:"use_realtime,omitempty" jsonschema:"merge the live quote into today's bar (default true)"`
	UseAI       *bool  `json:"use_ai,omitempty" jsonschema:"ask the language model for a prediction (default false)"`
}

type stockAnalyzeOutput struct {
	Report *service.Report `json:"report"`
}

type symbolTimeframeInput struct {
	Symbol    string `json:"symbol" jsonschema:"NSE/BSE ticker, e.g. INFY"`
	Timeframe string `json:"timeframe,omitempty" jsonschema:"history window: 1d, 1w, 1m, 3m, 6m, 1y, 2y, 5y (default 1y)"`
}

type indicatorsGetOutput struct {
	Symbol     string          `json:"symbol"`
	Timeframe  string          `json:"timeframe"`
	Bars       int             `json:"bars"`
	Indicators domain.Snapshot `json:"indicators"`
}

type quoteGetInput struct {
	Symbol string `json:"symbol" jsonschema:"NSE/BSE ticker, e.g. HDFCBANK"`
}

type quoteGetOutput struct {
	Quote domain.Quote `json:"quote"`
}

type chartRenderInput struct {
	Symbol    string `json:"symbol" jsonschema:"NSE/BSE ticker, e.g. TCS"`
	Timeframe string `json:"timeframe,omitempty" jsonschema:"history window (default 1y)"`
	Panel     string `json:"panel,omitempty" jsonschema:"lower panel: rsi, macd, stoch or volume (default rsi)"`
}

type chartRenderOutput struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Panel     string `json:"panel"`
	MimeType  string `json:"mime_type"`
	SizeBytes int    `json:"size_bytes"`
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
