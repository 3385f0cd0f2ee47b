package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace/noop"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/markethours"
)

func fastClient(retries int) *HTTPClient {
	return NewHTTPClient(ClientOptions{
		Timeout:         2 * time.Second,
		RatePerSec:      1000,
		MaxRetries:      retries,
		InitialInterval: time.Millisecond,
		MaxElapsed:      time.Second,
	})
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	if err := fastClient(3).GetJSON(context.Background(), "test", "get", srv.URL, nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.OK || atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected success on third call, calls=%d", calls)
	}
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	var out map[string]any
	err := fastClient(3).GetJSON(context.Background(), "test", "get", srv.URL, nil, &out)
	if !domain.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected wrapped 404, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestGetJSONGivesUpAfterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var out map[string]any
	if err := fastClient(2).GetJSON(context.Background(), "test", "get", srv.URL, nil, &out); !domain.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected initial call plus two retries, got %d", calls)
	}
}

const chartBody = `{"chart":{"result":[{"meta":{"currency":"INR","symbol":"TCS.NS"},
"timestamp":[1760586300,1760672700,1760759100,1760845500],
"indicators":{"quote":[{
 "open":[100,101,null,103],
 "high":[102,103,104,105],
 "low":[99,100,101,102],
 "close":[101,102,103,104],
 "volume":[1000,1100,1200,null]}]}}],"error":null}}`

func TestYahooFetchPriceSeries(t *testing.T) {
	var gotPath, gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotUA = r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")
		_, _ = io.WriteString(w, chartBody)
	}))
	defer srv.Close()

	y := NewYahoo(srv.URL+"/", fastClient(0), noop.NewTracerProvider().Tracer("test"))
	series, err := y.FetchPriceSeries(context.Background(), "TCS.NS", "6m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v8/finance/chart/TCS.NS" || !strings.Contains(gotQuery, "range=6mo") || !strings.Contains(gotQuery, "interval=1d") {
		t.Fatalf("unexpected request %s?%s", gotPath, gotQuery)
	}
	if gotUA == "" {
		t.Fatal("expected a user agent")
	}
	if series.Len() != 3 {
		t.Fatalf("expected the null bar to be skipped, got %d bars", series.Len())
	}
	if err := series.Validate(); err != nil {
		t.Fatalf("expected increasing dates: %v", err)
	}
	last, _ := series.Last()
	if last.Close != 104 || last.Volume != 0 {
		t.Fatalf("unexpected last bar %+v", last)
	}
	if last.Date.Location() != markethours.IST || last.Date.Hour() != 0 {
		t.Fatalf("expected IST midnight dates, got %v", last.Date)
	}
	if series.Symbol != "TCS.NS" || series.Timeframe != "6m" {
		t.Fatalf("unexpected series metadata %+v", series)
	}
}

func TestYahooChartErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid input - interval=1d is not supported"}}}`)
	}))
	defer srv.Close()

	y := NewYahoo(srv.URL, fastClient(0), noop.NewTracerProvider().Tracer("test"))
	_, err := y.FetchPriceSeries(context.Background(), "TCS.NS", "1y")
	if !domain.IsUpstream(err) || !strings.Contains(err.Error(), "interval") {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestYahooUnknownSymbolIsInvalid(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"404 with chart error", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`},
		{"200 with chart error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`},
		{"all bars null", http.StatusOK, `{"chart":{"result":[{"timestamp":[1760586300],"indicators":{"quote":[{"open":[null],"high":[null],"low":[null],"close":[null],"volume":[null]}]}}]}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			y := NewYahoo(srv.URL, fastClient(2), noop.NewTracerProvider().Tracer("test"))
			_, err := y.FetchPriceSeries(context.Background(), "XYZNOTREAL.NS", "1y")
			if !domain.IsInvalidSymbol(err) {
				t.Fatalf("expected invalid symbol error, got %v", err)
			}
			if domain.IsUpstream(err) {
				t.Fatalf("unknown symbol must not read as an upstream failure: %v", err)
			}
			if !strings.Contains(err.Error(), "XYZNOTREAL.NS") {
				t.Fatalf("expected the symbol in the message, got %v", err)
			}
			if got := atomic.LoadInt32(&calls); got != 1 {
				t.Fatalf("expected no retries for an unknown symbol, got %d calls", got)
			}
		})
	}
}

func TestChartToSeriesCollapsesRepeatedDay(t *testing.T) {
	var resp chartResponse
	body := `{"chart":{"result":[{"timestamp":[1760586300,1760600000],
		"indicators":{"quote":[{"open":[10,11],"high":[10,11],"low":[10,11],"close":[10,11],"volume":[5,6]}]}}]}}`
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	series, err := chartToSeries("X.NS", "1d", resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Len() != 1 || series.Bars[0].Close != 11 {
		t.Fatalf("expected the newer same-day bar to win, got %+v", series.Bars)
	}
}

func TestYahooCompanyInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v10/finance/quoteSummary/INFY.NS") {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"quoteSummary":{"result":[{
			"price":{"longName":"Infosys Limited","currency":"INR","marketCap":{"raw":6.1e12}},
			"summaryProfile":{"sector":"Technology","industry":"IT Services","longBusinessSummary":"Consulting."},
			"summaryDetail":{"trailingPE":{"raw":24.5},"dividendYield":{"raw":0.025},"fiftyTwoWeekHigh":{"raw":2000},"fiftyTwoWeekLow":{"raw":1350}}
		}],"error":null}}`)
	}))
	defer srv.Close()

	y := NewYahoo(srv.URL, fastClient(0), noop.NewTracerProvider().Tracer("test"))
	info, err := y.CompanyInfo(context.Background(), "INFY.NS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "Infosys Limited" || info.Sector != "Technology" || info.PERatio != 24.5 {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.DividendYield < 2.4999 || info.DividendYield > 2.5001 {
		t.Fatalf("expected yield as a percent, got %.4f", info.DividendYield)
	}
}

func TestRapidAPIQuote(t *testing.T) {
	var gotKey, gotHost, gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-RapidAPI-Key")
		gotHost = r.Header.Get("X-RapidAPI-Host")
		gotID = r.URL.Query().Get("id")
		_, _ = io.WriteString(w, `{"lastPrice":"3,512.40","change":12.5,"pChange":"0.36","open":3500,
			"dayHigh":3520,"dayLow":3490.1,"previousClose":3499.9,"totalTradedVolume":"1,250,000"}`)
	}))
	defer srv.Close()

	r := NewRapidAPI(srv.URL, "quotes.example.com", "key", fastClient(0), noop.NewTracerProvider().Tracer("test"))
	r.now = func() time.Time { return time.Date(2026, time.October, 16, 11, 0, 0, 0, markethours.IST) }

	q, err := r.Quote(context.Background(), "TCS.NS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "key" || gotHost != "quotes.example.com" || gotID != "TCS" {
		t.Fatalf("unexpected request key=%q host=%q id=%q", gotKey, gotHost, gotID)
	}
	if q.LastPrice != 3512.4 || q.PercentChange != 0.36 || q.Volume != 1250000 {
		t.Fatalf("unexpected quote %+v", q)
	}
	if !q.MarketOpen || q.MarketStatus != markethours.StatusOpen {
		t.Fatalf("expected open market, got %+v", q)
	}
}

func TestRapidAPIDisabledAndEmpty(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	r := NewRapidAPI("http://unused", "h", "", fastClient(0), tracer)
	if _, err := r.Quote(context.Background(), "TCS.NS"); !errors.Is(err, domain.ErrCollaboratorDisabled) {
		t.Fatalf("expected disabled error, got %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()
	r = NewRapidAPI(srv.URL, "h", "key", fastClient(0), tracer)
	if _, err := r.Quote(context.Background(), "TCS.NS"); !domain.IsUpstream(err) {
		t.Fatalf("expected upstream error for empty quote, got %v", err)
	}
}
