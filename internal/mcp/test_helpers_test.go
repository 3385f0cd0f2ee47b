package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"stock-advisor/internal/chart"
	"stock-advisor/internal/domain"
	"stock-advisor/internal/indicator"
	"stock-advisor/internal/service"
)

type stubStockService struct {
	series domain.PriceSeries
	quote  domain.Quote

	lastAnalyze service.AnalyzeRequest
}

func (s *stubStockService) Analyze(ctx context.Context, req service.AnalyzeRequest) (*service.Report, error) {
	s.lastAnalyze = req
	sym, err := domain.NormalizeSymbol(req.Symbol)
	if err != nil {
		return nil, err
	}
	return &service.Report{
		Symbol:         sym,
		Timeframe:      domain.NormalizeTimeframe(req.Timeframe),
		Bars:           s.series.Len(),
		Recommendation: domain.Recommendation{Verdict: domain.VerdictHold, Confidence: 50},
	}, nil
}

func (s *stubStockService) ChartSeries(ctx context.Context, symbol, timeframe string) (domain.PriceSeries, domain.IndicatorBundle, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return domain.PriceSeries{}, domain.IndicatorBundle{}, err
	}
	series := s.series
	series.Symbol, series.Timeframe = sym, domain.NormalizeTimeframe(timeframe)
	bundle, _ := indicator.Compute(series)
	return series, bundle, nil
}

func (s *stubStockService) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return domain.Quote{}, err
	}
	q := s.quote
	q.Symbol = sym
	return q, nil
}

func (s *stubStockService) Symbols() []domain.Stock {
	return append([]domain.Stock(nil), domain.SupportedStocks...)
}

func (s *stubStockService) Timeframes() []string {
	return append([]string(nil), domain.TimeframeOrder...)
}

func testSeries(n int) domain.PriceSeries {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	s := domain.PriceSeries{}
	for i := 0; i < n; i++ {
		c := 1500 + float64(i%7)*3 + float64(i)
		s.Bars = append(s.Bars, domain.PriceBar{
			Date: start.AddDate(0, 0, i), Open: c - 2, High: c + 4, Low: c - 4, Close: c, Volume: 10000,
		})
	}
	return s
}

func testServer() (*sdkmcp.Server, *stubStockService) {
	stocks := &stubStockService{
		series: testSeries(60),
		quote:  domain.Quote{LastPrice: 1562.5, MarketStatus: "closed"},
	}
	srv := NewServer(nil, stocks, ServerConfig{RequestTimeout: time.Second, Renderer: chart.NewRenderer()})
	return srv, stocks
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}

func decodeStructured(result *sdkmcp.CallToolResult, out any) error {
	raw, err := json.Marshal(result.StructuredContent)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
