package chart

import (
	"bytes"
	"image/png"
	"math"
	"testing"
	"time"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/indicator"
)

func TestRenderByPanel(t *testing.T) {
	series := buildTestSeries(260)
	bundle, err := indicator.Compute(series)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	renderer := NewRenderer()

	for _, panel := range []Panel{PanelRSI, PanelMACD, PanelStoch, PanelVolume} {
		t.Run(string(panel), func(t *testing.T) {
			img, err := renderer.Render(series, bundle, panel)
			if err != nil {
				t.Fatalf("render failed: %v", err)
			}
			if img.MimeType != "image/png" || len(img.Bytes) == 0 {
				t.Fatalf("unexpected image %s (%d bytes)", img.MimeType, len(img.Bytes))
			}
			decoded, err := png.Decode(bytes.NewReader(img.Bytes))
			if err != nil {
				t.Fatalf("invalid png: %v", err)
			}
			if b := decoded.Bounds(); b.Dx() != img.Width || b.Dy() != img.Height {
				t.Fatalf("unexpected bounds %v", b)
			}
		})
	}
}

func TestRenderShortSeriesWithNullIndicators(t *testing.T) {
	series := buildTestSeries(10)
	bundle, _ := indicator.Compute(series)
	if _, err := NewRenderer().Render(series, bundle, PanelMACD); err != nil {
		t.Fatalf("expected null indicators to render, got %v", err)
	}
	if _, err := NewRenderer().Render(buildTestSeries(1), domain.IndicatorBundle{}, PanelRSI); err == nil {
		t.Fatal("expected error for a single bar")
	}
}

func TestParsePanel(t *testing.T) {
	if p, err := ParsePanel(""); err != nil || p != PanelRSI {
		t.Fatalf("expected rsi default, got %q %v", p, err)
	}
	if p, err := ParsePanel(" MACD "); err != nil || p != PanelMACD {
		t.Fatalf("expected macd, got %q %v", p, err)
	}
	if _, err := ParsePanel("ichimoku"); err == nil {
		t.Fatal("expected error for unknown panel")
	}
}

func TestValuesWindow(t *testing.T) {
	one, two := 1.0, 2.0
	got := values(domain.Series{nil, &one, &two}, 1, 3)
	if got[0] != 1 || got[1] != 2 || !math.IsNaN(got[2]) {
		t.Fatalf("unexpected window %v", got)
	}
}

func buildTestSeries(count int) domain.PriceSeries {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := domain.PriceSeries{Symbol: "TCS.NS", Timeframe: "1y"}
	price := 3500.0
	for i := 0; i < count; i++ {
		step := float64((i%9)-4) * 6
		open := price
		close := price + step
		volume := 100000 + float64((i%17)*8000)
		if i%25 == 0 {
			volume *= 2.4
		}
		s.Bars = append(s.Bars, domain.PriceBar{
			Date:   base.AddDate(0, 0, i),
			Open:   open,
			High:   math.Max(open, close) + 8,
			Low:    math.Min(open, close) - 7,
			Close:  close,
			Volume: volume,
		})
		price = close
	}
	return s
}
