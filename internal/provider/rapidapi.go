package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/markethours"
)

const rapidProvider = "rapidapi"

// number accepts JSON numbers as well as strings like "1,234.50".
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
		if s == "" || s == "-" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = number(v)
	return nil
}

type rapidQuote struct {
	LastPrice         number `json:"lastPrice"`
	Change            number `json:"change"`
	PChange           number `json:"pChange"`
	Open              number `json:"open"`
	DayHigh           number `json:"dayHigh"`
	DayLow            number `json:"dayLow"`
	PreviousClose     number `json:"previousClose"`
	TotalTradedVolume number `json:"totalTradedVolume"`
}

// RapidAPI serves realtime NSE quotes. A client with no key is disabled.
type RapidAPI struct {
	baseURL string
	host    string
	apiKey  string
	client  *HTTPClient
	tracer  trace.Tracer
	now     func() time.Time
}

func NewRapidAPI(baseURL, host, apiKey string, client *HTTPClient, tracer trace.Tracer) *RapidAPI {
	return &RapidAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		host:    host,
		apiKey:  apiKey,
		client:  client,
		tracer:  tracer,
		now:     time.Now,
	}
}

func (r *RapidAPI) Enabled() bool {
	return r != nil && r.apiKey != ""
}

func (r *RapidAPI) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	if !r.Enabled() {
		return domain.Quote{}, domain.ErrCollaboratorDisabled
	}
	ctx, span := r.tracer.Start(ctx, "provider.rapidapi.quote")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	endpoint := fmt.Sprintf("%s/index.php?id=%s", r.baseURL, url.QueryEscape(domain.BaseSymbol(symbol)))
	headers := map[string]string{
		"X-RapidAPI-Key":  r.apiKey,
		"X-RapidAPI-Host": r.host,
	}

	var raw rapidQuote
	if err := r.client.GetJSON(ctx, rapidProvider, "quote", endpoint, headers, &raw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Quote{}, err
	}
	if raw.LastPrice <= 0 {
		err := &domain.UpstreamProviderError{Provider: rapidProvider, Op: "quote", Err: errors.New("no quote for " + symbol)}
		span.SetStatus(codes.Error, err.Error())
		return domain.Quote{}, err
	}

	now := r.now()
	return domain.Quote{
		Symbol:        symbol,
		LastPrice:     float64(raw.LastPrice),
		Change:        float64(raw.Change),
		PercentChange: float64(raw.PChange),
		Open:          float64(raw.Open),
		DayHigh:       float64(raw.DayHigh),
		DayLow:        float64(raw.DayLow),
		PreviousClose: float64(raw.PreviousClose),
		Volume:        float64(raw.TotalTradedVolume),
		MarketOpen:    markethours.IsMarketOpen(now),
		MarketStatus:  markethours.Status(now),
		FetchedAt:     now.UTC(),
	}, nil
}
