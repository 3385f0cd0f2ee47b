package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace/noop"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPrices struct {
	series domain.PriceSeries
	err    error
	info   domain.CompanyInfo
}

func (s *stubPrices) FetchPriceSeries(_ context.Context, symbol, timeframe string) (domain.PriceSeries, error) {
	if s.err != nil {
		return domain.PriceSeries{}, s.err
	}
	out := s.series
	out.Symbol, out.Timeframe = symbol, timeframe
	return out, nil
}

func (s *stubPrices) CompanyInfo(_ context.Context, symbol string) (domain.CompanyInfo, error) {
	if s.err != nil {
		return domain.CompanyInfo{}, s.err
	}
	info := s.info
	info.Symbol = symbol
	return info, nil
}

type stubQuotes struct {
	quote domain.Quote
}

func (s *stubQuotes) Quote(_ context.Context, symbol string) (domain.Quote, error) {
	q := s.quote
	q.Symbol = symbol
	return q, nil
}

func risingSeries(n int) domain.PriceSeries {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := domain.PriceSeries{}
	for i := 0; i < n; i++ {
		c := 100 + float64(i)
		s.Bars = append(s.Bars, domain.PriceBar{
			Date: start.AddDate(0, 0, i), Open: c - 0.5, High: c + 1, Low: c - 1, Close: c, Volume: 1000,
		})
	}
	return s
}

func newTestHandler(prices *stubPrices, quotes service.QuoteProvider) *Handler {
	tracer := noop.NewTracerProvider().Tracer("test")
	deps := service.Dependencies{Prices: prices}
	if quotes != nil {
		deps.Quotes = quotes
	}
	return New(tracer, service.NewAnalysisService(tracer, deps, service.Options{}), nil)
}

func serve(h *Handler, method, path, body string) *httptest.ResponseRecorder {
	router := gin.New()
	h.RegisterRoutes(router)
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := serve(New(noop.NewTracerProvider().Tracer("test"), nil, nil), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"ok"`)) {
		t.Fatalf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}

func TestUnavailableWithoutService(t *testing.T) {
	w := serve(New(noop.NewTracerProvider().Tracer("test"), nil, nil), http.MethodGet, "/api/symbols", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestGetSymbols(t *testing.T) {
	w := serve(newTestHandler(&stubPrices{}, nil), http.MethodGet, "/api/symbols", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Symbols    []domain.Stock `json:"symbols"`
		Timeframes []string       `json:"timeframes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(resp.Symbols) != len(domain.SupportedStocks) || len(resp.Timeframes) != len(domain.TimeframeOrder) {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	h := newTestHandler(&stubPrices{series: risingSeries(60)}, nil)
	w := serve(h, http.MethodPost, "/api/analyze", `{"symbol":"tcs","timeframe":"3m","use_ai":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var report service.Report
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if report.Symbol != "TCS.NS" || report.Timeframe != "3m" || report.Bars != 60 {
		t.Fatalf("unexpected report header: %+v", report)
	}
	if !report.Recommendation.Verdict.IsBullish() || report.Recommendation.Confidence <= 50 {
		t.Fatalf("expected bullish verdict, got %+v", report.Recommendation)
	}
}

func TestAnalyzeErrorMapping(t *testing.T) {
	upstream := &domain.UpstreamProviderError{Provider: "yahoo", Op: "chart", Err: errors.New("timeout")}
	unknown := &domain.InvalidSymbolError{Symbol: "XYZNOTREAL.NS", Reason: "no data found"}
	cases := []struct {
		name   string
		prices *stubPrices
		body   string
		want   int
	}{
		{"missing body field", &stubPrices{}, `{}`, http.StatusBadRequest},
		{"malformed json", &stubPrices{}, `{"symbol":`, http.StatusBadRequest},
		{"invalid symbol", &stubPrices{}, `{"symbol":"TC$"}`, http.StatusBadRequest},
		{"unknown to provider", &stubPrices{err: unknown}, `{"symbol":"XYZNOTREAL"}`, http.StatusBadRequest},
		{"upstream failure", &stubPrices{err: upstream}, `{"symbol":"TCS"}`, http.StatusBadGateway},
		{"unexpected failure", &stubPrices{err: errors.New("boom")}, `{"symbol":"TCS"}`, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(newTestHandler(tc.prices, nil), http.MethodPost, "/api/analyze", tc.body)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["error"] == nil {
				t.Fatalf("expected error body, got %s", w.Body.String())
			}
		})
	}
}

func TestChartData(t *testing.T) {
	w := serve(newTestHandler(&stubPrices{series: risingSeries(30)}, nil), http.MethodPost, "/api/chart-data", `{"symbol":"INFY","timeframe":"1m"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var data service.ChartData
	if err := json.Unmarshal(w.Body.Bytes(), &data); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(data.Dates) != 30 || len(data.Technical.SMA20) != 30 {
		t.Fatalf("unexpected chart payload lengths: %d %d", len(data.Dates), len(data.Technical.SMA20))
	}
	if data.Technical.SMA50[29] != nil {
		t.Fatal("expected null sma_50 before its window fills")
	}
}

func TestGetChartPNG(t *testing.T) {
	h := newTestHandler(&stubPrices{series: risingSeries(80)}, nil)
	w := serve(h, http.MethodGet, "/api/chart/RELIANCE?panel=macd", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if _, err := png.Decode(bytes.NewReader(w.Body.Bytes())); err != nil {
		t.Fatalf("invalid png: %v", err)
	}

	if w := serve(h, http.MethodGet, "/api/chart/RELIANCE?panel=ichimoku", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown panel, got %d", w.Code)
	}
}

func TestGetWatchlist(t *testing.T) {
	w := serve(newTestHandler(&stubPrices{series: risingSeries(40)}, nil), http.MethodGet, "/api/watchlist", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Stocks []service.WatchlistEntry `json:"stocks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(resp.Stocks) != 5 || resp.Stocks[0].Symbol != domain.SupportedStocks[0].Symbol {
		t.Fatalf("unexpected watchlist: %+v", resp.Stocks)
	}
}

func TestRealtimeData(t *testing.T) {
	w := serve(newTestHandler(&stubPrices{}, nil), http.MethodPost, "/api/realtime-data", `{"symbol":"TCS"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a quote provider, got %d", w.Code)
	}

	h := newTestHandler(&stubPrices{}, &stubQuotes{quote: domain.Quote{LastPrice: 3512.4}})
	w = serve(h, http.MethodPost, "/api/realtime-data", `{"symbol":"TCS"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var q domain.Quote
	if err := json.Unmarshal(w.Body.Bytes(), &q); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if q.Symbol != "TCS.NS" || q.LastPrice != 3512.4 {
		t.Fatalf("unexpected quote %+v", q)
	}
}

func TestCompanyInfo(t *testing.T) {
	h := newTestHandler(&stubPrices{info: domain.CompanyInfo{Name: "Infosys Ltd.", Sector: "Technology"}}, nil)
	w := serve(h, http.MethodPost, "/api/company-info", `{"symbol":"infy"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var info domain.CompanyInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if info.Symbol != "INFY.NS" || info.Sector != "Technology" {
		t.Fatalf("unexpected info %+v", info)
	}
}
