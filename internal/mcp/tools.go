package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"stock-advisor/internal/chart"
	"stock-advisor/internal/indicator"
	"stock-advisor/internal/service"
)

var errServiceUnavailable = fmt.Errorf("analysis service unavailable")

func registerTools(server *mcp.Server, stocks StockService, renderer *chart.Renderer) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "symbols_list",
		Description: "List supported Indian equities and timeframes",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ symbolsListInput) (*mcp.CallToolResult, symbolsListOutput, error) {
		if stocks == nil {
			return nil, symbolsListOutput{}, errServiceUnavailable
		}
		return nil, symbolsListOutput{Symbols: stocks.Symbols(), Timeframes: stocks.Timeframes()}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stock_analyze",
		Description: "Run technical analysis for a stock and return indicators, prediction and a BUY/HOLD/SELL recommendation",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in stockAnalyzeInput) (*mcp.CallToolResult, stockAnalyzeOutput, error) {
		if stocks == nil {
			return nil, stockAnalyzeOutput{}, errServiceUnavailable
		}
		report, err := stocks.Analyze(ctx, service.AnalyzeRequest{
			Symbol:      in.Symbol,
			Timeframe:   in.Timeframe,
			UseRealtime: boolOr(in.UseRealtime, true),
			UseAI:       boolOr(in.UseAI, false),
		})
		if err != nil {
			return nil, stockAnalyzeOutput{}, err
		}
		return nil, stockAnalyzeOutput{Report: report}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "indicators_get",
		Description: "Get the latest SMA, RSI, MACD, Bollinger and stochastic readings for a stock",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in symbolTimeframeInput) (*mcp.CallToolResult, indicatorsGetOutput, error) {
		if stocks == nil {
			return nil, indicatorsGetOutput{}, errServiceUnavailable
		}
		series, bundle, err := stocks.ChartSeries(ctx, in.Symbol, in.Timeframe)
		if err != nil {
			return nil, indicatorsGetOutput{}, err
		}
		return nil, indicatorsGetOutput{
			Symbol:     series.Symbol,
			Timeframe:  series.Timeframe,
			Bars:       series.Len(),
			Indicators: indicator.Latest(series, bundle),
		}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "quote_get",
		Description: "Get the realtime NSE quote for a stock",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in quoteGetInput) (*mcp.CallToolResult, quoteGetOutput, error) {
		if stocks == nil {
			return nil, quoteGetOutput{}, errServiceUnavailable
		}
		q, err := stocks.Quote(ctx, in.Symbol)
		if err != nil {
			return nil, quoteGetOutput{}, err
		}
		return nil, quoteGetOutput{Quote: q}, nil
	})

	if renderer == nil {
		return
	}
	mcp.AddTool(server, &mcp.Tool{
		Name:        "chart_render",
		Description: "Render a candlestick chart PNG with moving averages, Bollinger bands and one indicator panel",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in chartRenderInput) (*mcp.CallToolResult, chartRenderOutput, error) {
		if stocks == nil {
			return nil, chartRenderOutput{}, errServiceUnavailable
		}
		panel, err := chart.ParsePanel(in.Panel)
		if err != nil {
			return nil, chartRenderOutput{}, err
		}
		series, bundle, err := stocks.ChartSeries(ctx, in.Symbol, in.Timeframe)
		if err != nil {
			return nil, chartRenderOutput{}, err
		}
		img, err := renderer.Render(series, bundle, panel)
		if err != nil {
			return nil, chartRenderOutput{}, err
		}
		out := chartRenderOutput{
			Symbol:    series.Symbol,
			Timeframe: series.Timeframe,
			Panel:     string(panel),
			MimeType:  img.MimeType,
			SizeBytes: len(img.Bytes),
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.ImageContent{Data: img.Bytes, MIMEType: img.MimeType}},
		}, out, nil
	})
}
