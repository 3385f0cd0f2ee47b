package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestToolsListAndInvoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, stocks := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	tools, err := session.ListTools(ctx, &sdkmcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools failed: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"symbols_list", "stock_analyze", "indicators_get", "quote_get", "chart_render"} {
		if !names[want] {
			t.Fatalf("missing tool %s in %v", want, names)
		}
	}

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "stock_analyze", Arguments: map[string]any{"symbol": "tcs", "timeframe": "6m"}})
	if err != nil {
		t.Fatalf("call tool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	if stocks.lastAnalyze.Symbol != "tcs" || !stocks.lastAnalyze.UseRealtime || stocks.lastAnalyze.UseAI {
		t.Fatalf("unexpected analyze request: %+v", stocks.lastAnalyze)
	}
	var analyzed stockAnalyzeOutput
	if err := decodeStructured(res, &analyzed); err != nil {
		t.Fatalf("decode analyze output: %v", err)
	}
	if analyzed.Report == nil || analyzed.Report.Symbol != "TCS.NS" || analyzed.Report.Timeframe != "6m" {
		t.Fatalf("unexpected report: %+v", analyzed.Report)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "indicators_get", Arguments: map[string]any{"symbol": "INFY"}})
	if err != nil || res.IsError {
		t.Fatalf("indicators tool failed: %v %+v", err, res)
	}
	var ind indicatorsGetOutput
	if err := decodeStructured(res, &ind); err != nil {
		t.Fatalf("decode indicators: %v", err)
	}
	if ind.Symbol != "INFY.NS" || ind.Bars != 60 || ind.Indicators.SMA50 == nil || ind.Indicators.SMA200 != nil {
		t.Fatalf("unexpected indicators: %+v", ind)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "quote_get", Arguments: map[string]any{"symbol": "HDFCBANK"}})
	if err != nil || res.IsError {
		t.Fatalf("quote tool failed: %v %+v", err, res)
	}
	var quote quoteGetOutput
	if err := decodeStructured(res, &quote); err != nil {
		t.Fatalf("decode quote: %v", err)
	}
	if quote.Quote.Symbol != "HDFCBANK.NS" || quote.Quote.LastPrice != 1562.5 {
		t.Fatalf("unexpected quote: %+v", quote.Quote)
	}
}

func TestChartRenderToolReturnsImage(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "chart_render", Arguments: map[string]any{"symbol": "TCS", "panel": "stoch"}})
	if err != nil {
		t.Fatalf("call tool failed: %v", err)
	}
	if res.IsError || len(res.Content) == 0 {
		t.Fatalf("unexpected chart result: %+v", res)
	}
	img, ok := res.Content[0].(*sdkmcp.ImageContent)
	if !ok {
		t.Fatalf("expected image content, got %T", res.Content[0])
	}
	if img.MIMEType != "image/png" || len(img.Data) == 0 {
		t.Fatalf("unexpected image %s (%d bytes)", img.MIMEType, len(img.Data))
	}
}

func TestToolsValidationFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	for _, params := range []*sdkmcp.CallToolParams{
		{Name: "quote_get", Arguments: map[string]any{"symbol": "BAD SYMBOL"}},
		{Name: "chart_render", Arguments: map[string]any{"symbol": "TCS", "panel": "ichimoku"}},
	} {
		res, err := session.CallTool(ctx, params)
		if err != nil {
			t.Fatalf("unexpected protocol error: %v", err)
		}
		if !res.IsError {
			t.Fatalf("expected tool-level validation error for %s", params.Name)
		}
	}
}

func TestStreamableHTTPTransportRequiresToken(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv, _ := testServer()
	ts := httptest.NewServer(NewHTTPTransportHandler(srv, HTTPHandlerConfig{AuthToken: "secret", RateLimitPerMin: 120}))
	defer ts.Close()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-http-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.URL,
		HTTPClient: &http.Client{Transport: &authRoundTripper{token: "secret"}},
	}, nil)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "symbols_list", Arguments: map[string]any{}})
	if err != nil || res.IsError {
		t.Fatalf("symbols_list over http failed: %v %+v", err, res)
	}

	resp, err := http.Post(ts.URL, "application/json", nil)
	if err != nil {
		t.Fatalf("raw post failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestMCPSpanName(t *testing.T) {
	if got := mcpSpanName("tools/call", nil); got != "mcp.tool.call" {
		t.Fatalf("unexpected span name %q", got)
	}
	if got := mcpSpanName("resources/read", nil); got != "mcp.resource.read" {
		t.Fatalf("unexpected span name %q", got)
	}
	if got := mcpSpanName("tools/list", nil); got != "mcp.tools.list" {
		t.Fatalf("unexpected span name %q", got)
	}
}
