package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"stock-advisor/internal/indicator"
)

func registerResources(server *mcp.Server, stocks StockService) {
	server.AddResource(&mcp.Resource{
		URI:         "stock://symbols",
		Name:        "supported-symbols",
		Description: "Supported NSE symbols with company names",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if stocks == nil {
			return nil, errServiceUnavailable
		}
		return jsonResource(req.Params.URI, stocks.Symbols())
	})

	server.AddResource(&mcp.Resource{
		URI:         "stock://timeframes",
		Name:        "supported-timeframes",
		Description: "History windows accepted by the analysis tools",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if stocks == nil {
			return nil, errServiceUnavailable
		}
		return jsonResource(req.Params.URI, stocks.Timeframes())
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "stock://indicators/{symbol}{?timeframe}",
		Name:        "indicators-by-symbol",
		Description: "Latest indicator snapshot for a symbol; optional timeframe query param",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if stocks == nil {
			return nil, errServiceUnavailable
		}
		parsed, err := url.Parse(req.Params.URI)
		if err != nil || parsed.Scheme != "stock" || parsed.Host != "indicators" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		symbol := strings.Trim(strings.TrimSpace(parsed.Path), "/")
		if symbol == "" {
			return nil, fmt.Errorf("symbol is required")
		}

		series, bundle, err := stocks.ChartSeries(ctx, symbol, parsed.Query().Get("timeframe"))
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, indicatorsGetOutput{
			Symbol:     series.Symbol,
			Timeframe:  series.Timeframe,
			Bars:       series.Len(),
			Indicators: indicator.Latest(series, bundle),
		})
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
