package mcp

import (
	"context"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/service"
)

// StockService is the slice of the analysis service exposed over MCP.
type StockService interface {
	Analyze(ctx context.Context, req service.AnalyzeRequest) (*service.Report, error)
	ChartSeries(ctx context.Context, symbol, timeframe string) (domain.PriceSeries, domain.IndicatorBundle, error)
	Quote(ctx context.Context, symbol string) (domain.Quote, error)
	Symbols() []domain.Stock
	Timeframes() []string
}
