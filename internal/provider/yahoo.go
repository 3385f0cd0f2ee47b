package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/markethours"
)

const (
	yahooProvider  = "yahoo"
	yahooUserAgent = "Mozilla/5.0 (X11; Linux x86_64) stock-advisor/1.0"
)

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
				Symbol   string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *yahooError) Error() string {
	return e.Code + ": " + e.Description
}

type rawValue struct {
	Raw float64 `json:"raw"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				LongName  string   `json:"longName"`
				ShortName string   `json:"shortName"`
				Currency  string   `json:"currency"`
				MarketCap rawValue `json:"marketCap"`
			} `json:"price"`
			SummaryProfile struct {
				Sector              string `json:"sector"`
				Industry            string `json:"industry"`
				LongBusinessSummary string `json:"longBusinessSummary"`
			} `json:"summaryProfile"`
			SummaryDetail struct {
				TrailingPE       rawValue `json:"trailingPE"`
				DividendYield    rawValue `json:"dividendYield"`
				FiftyTwoWeekHigh rawValue `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow  rawValue `json:"fiftyTwoWeekLow"`
			} `json:"summaryDetail"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

// Yahoo fetches daily history and company fundamentals from Yahoo Finance.
type Yahoo struct {
	baseURL string
	client  *HTTPClient
	tracer  trace.Tracer
}

func NewYahoo(baseURL string, client *HTTPClient, tracer trace.Tracer) *Yahoo {
	return &Yahoo{baseURL: strings.TrimRight(baseURL, "/"), client: client, tracer: tracer}
}

func (y *Yahoo) headers() map[string]string {
	return map[string]string{"User-Agent": yahooUserAgent}
}

// FetchPriceSeries returns daily bars for symbol over the given timeframe.
// Bars with any missing OHLC value are dropped.
func (y *Yahoo) FetchPriceSeries(ctx context.Context, symbol, timeframe string) (domain.PriceSeries, error) {
	ctx, span := y.tracer.Start(ctx, "provider.yahoo.chart")
	defer span.End()
	timeframe = domain.NormalizeTimeframe(timeframe)
	span.SetAttributes(attribute.String("symbol", symbol), attribute.String("timeframe", timeframe))

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		y.baseURL, url.PathEscape(symbol), url.QueryEscape(domain.ProviderRange(timeframe)))

	var resp chartResponse
	if err := y.client.GetJSON(ctx, yahooProvider, "chart", endpoint, y.headers(), &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if unknownSymbol(err) {
			return domain.PriceSeries{}, &domain.InvalidSymbolError{Symbol: symbol, Reason: "no data found"}
		}
		return domain.PriceSeries{}, err
	}

	series, err := chartToSeries(symbol, timeframe, resp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if unknownSymbol(err) {
			return domain.PriceSeries{}, &domain.InvalidSymbolError{Symbol: symbol, Reason: "no data found"}
		}
		return domain.PriceSeries{}, &domain.UpstreamProviderError{Provider: yahooProvider, Op: "chart", Err: err}
	}
	span.SetAttributes(attribute.Int("bars", series.Len()))
	return series, nil
}

var errNoBars = errors.New("no price data returned")

// unknownSymbol reports whether Yahoo answered that it has no chart for the
// symbol: a 404, a "Not Found" chart error, or a result without bars.
func unknownSymbol(err error) bool {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusNotFound
	}
	var chartErr *yahooError
	if errors.As(err, &chartErr) {
		return strings.EqualFold(chartErr.Code, "Not Found")
	}
	return errors.Is(err, errNoBars)
}

func chartToSeries(symbol, timeframe string, resp chartResponse) (domain.PriceSeries, error) {
	if resp.Chart.Error != nil {
		return domain.PriceSeries{}, resp.Chart.Error
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return domain.PriceSeries{}, errNoBars
	}
	result := resp.Chart.Result[0]
	q := result.Indicators.Quote[0]

	series := domain.PriceSeries{Symbol: symbol, Timeframe: timeframe}
	for i, ts := range result.Timestamp {
		o, okO := at(q.Open, i)
		h, okH := at(q.High, i)
		l, okL := at(q.Low, i)
		c, okC := at(q.Close, i)
		if !okO || !okH || !okL || !okC {
			continue
		}
		vol, _ := at(q.Volume, i)
		bar := domain.PriceBar{
			Date:   markethours.Today(time.Unix(ts, 0)),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: vol,
		}
		// a live session can repeat the last day; keep the newest
		if n := len(series.Bars); n > 0 && !bar.Date.After(series.Bars[n-1].Date) {
			if bar.Date.Equal(series.Bars[n-1].Date) {
				series.Bars[n-1] = bar
			}
			continue
		}
		series.Bars = append(series.Bars, bar)
	}
	if len(series.Bars) == 0 {
		return domain.PriceSeries{}, errNoBars
	}
	return series, nil
}

func at(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil || math.IsNaN(*vals[i]) {
		return 0, false
	}
	return *vals[i], true
}

func (y *Yahoo) CompanyInfo(ctx context.Context, symbol string) (domain.CompanyInfo, error) {
	ctx, span := y.tracer.Start(ctx, "provider.yahoo.quote_summary")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=price,summaryProfile,summaryDetail",
		y.baseURL, url.PathEscape(symbol))

	var resp quoteSummaryResponse
	if err := y.client.GetJSON(ctx, yahooProvider, "quote summary", endpoint, y.headers(), &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.CompanyInfo{}, err
	}
	if resp.QuoteSummary.Error != nil {
		return domain.CompanyInfo{}, &domain.UpstreamProviderError{Provider: yahooProvider, Op: "quote summary", Err: resp.QuoteSummary.Error}
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return domain.CompanyInfo{}, &domain.UpstreamProviderError{Provider: yahooProvider, Op: "quote summary", Err: errors.New("empty result")}
	}

	r := resp.QuoteSummary.Result[0]
	name := r.Price.LongName
	if name == "" {
		name = r.Price.ShortName
	}
	if name == "" {
		name = domain.StockName(symbol)
	}
	if name == "" {
		name = domain.BaseSymbol(symbol)
	}
	return domain.CompanyInfo{
		Symbol:           symbol,
		Name:             name,
		Sector:           r.SummaryProfile.Sector,
		Industry:         r.SummaryProfile.Industry,
		Currency:         r.Price.Currency,
		MarketCap:        r.Price.MarketCap.Raw,
		PERatio:          r.SummaryDetail.TrailingPE.Raw,
		DividendYield:    r.SummaryDetail.DividendYield.Raw * 100,
		FiftyTwoWeekHigh: r.SummaryDetail.FiftyTwoWeekHigh.Raw,
		FiftyTwoWeekLow:  r.SummaryDetail.FiftyTwoWeekLow.Raw,
		Summary:          r.SummaryProfile.LongBusinessSummary,
	}, nil
}
