package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"

	"stock-advisor/internal/domain"
)

const (
	defaultChartWidth  = 960
	defaultChartHeight = 640
	maxChartBars       = 120
	MimeType           = "image/png"
)

type Panel string

const (
	PanelRSI    Panel = "rsi"
	PanelMACD   Panel = "macd"
	PanelStoch  Panel = "stoch"
	PanelVolume Panel = "volume"
)

// ParsePanel maps a query value to a panel; empty selects RSI.
func ParsePanel(raw string) (Panel, error) {
	switch p := Panel(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PanelRSI, nil
	case PanelRSI, PanelMACD, PanelStoch, PanelVolume:
		return p, nil
	}
	return "", fmt.Errorf("unsupported panel %q (use rsi, macd, stoch or volume)", raw)
}

var (
	colBackground = color.RGBA{R: 250, G: 252, B: 255, A: 255}
	colGrid       = color.RGBA{R: 225, G: 232, B: 240, A: 255}
	colBull       = color.RGBA{R: 18, G: 140, B: 126, A: 255}
	colBear       = color.RGBA{R: 210, G: 61, B: 87, A: 255}
	colWick       = color.RGBA{R: 58, G: 64, B: 90, A: 255}
	colLineA      = color.RGBA{R: 62, G: 106, B: 214, A: 255}
	colLineB      = color.RGBA{R: 255, G: 149, B: 0, A: 255}
	colBand       = color.RGBA{R: 104, G: 122, B: 146, A: 255}
	colVolume     = color.RGBA{R: 120, G: 139, B: 164, A: 255}
)

type Image struct {
	MimeType string
	Width    int
	Height   int
	Bytes    []byte
}

type Renderer struct {
	width  int
	height int
}

func NewRenderer() *Renderer {
	return &Renderer{width: defaultChartWidth, height: defaultChartHeight}
}

// Render draws the last bars of series as candles with SMA 20/50 and
// Bollinger overlays, plus one lower panel.
func (r *Renderer) Render(series domain.PriceSeries, bundle domain.IndicatorBundle, panel Panel) (*Image, error) {
	bars := series.Bars
	if len(bars) < 2 {
		return nil, fmt.Errorf("need at least 2 bars to render chart, got %d", len(bars))
	}
	offset := 0
	if len(bars) > maxChartBars {
		offset = len(bars) - maxChartBars
		bars = bars[offset:]
	}
	window := func(s domain.Series) []float64 { return values(s, offset, len(bars)) }

	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	fillRect(img, img.Bounds(), colBackground)

	mainRect := image.Rect(60, 20, r.width-20, (r.height*72)/100)
	auxRect := image.Rect(60, mainRect.Max.Y+16, r.width-20, r.height-30)
	drawGrid(img, mainRect, 8, 6)
	drawGrid(img, auxRect, 8, 3)

	upper, middle, lower := window(bundle.BBUpper), window(bundle.BBMiddle), window(bundle.BBLower)
	sma20, sma50 := window(bundle.SMA20), window(bundle.SMA50)

	minP, maxP := priceBounds(bars)
	for _, s := range [][]float64{upper, lower, sma50} {
		lo, hi := finiteBounds(s)
		if hasFinite(s) {
			minP, maxP = math.Min(minP, lo), math.Max(maxP, hi)
		}
	}
	drawSeries(img, mainRect, upper, minP, maxP, colBand)
	drawSeries(img, mainRect, middle, minP, maxP, colBand)
	drawSeries(img, mainRect, lower, minP, maxP, colBand)
	drawCandles(img, mainRect, bars, minP, maxP)
	drawSeries(img, mainRect, sma20, minP, maxP, colLineA)
	drawSeries(img, mainRect, sma50, minP, maxP, colLineB)

	switch panel {
	case PanelRSI, "":
		drawHorizontalValueLine(img, auxRect, 30, 0, 100, colBand)
		drawHorizontalValueLine(img, auxRect, 70, 0, 100, colBand)
		drawSeries(img, auxRect, window(bundle.RSI), 0, 100, colLineA)
	case PanelMACD:
		drawMACD(img, auxRect, window(bundle.MACD), window(bundle.MACDSignal), window(bundle.MACDHistogram))
	case PanelStoch:
		drawHorizontalValueLine(img, auxRect, 20, 0, 100, colBand)
		drawHorizontalValueLine(img, auxRect, 80, 0, 100, colBand)
		drawSeries(img, auxRect, window(bundle.StochK), 0, 100, colLineA)
		drawSeries(img, auxRect, window(bundle.StochD), 0, 100, colLineB)
	case PanelVolume:
		vols := make([]float64, len(bars))
		for i := range bars {
			vols[i] = bars[i].Volume
		}
		_, maxV := finiteBounds(vols)
		drawBars(img, auxRect, vols, 0, maxV, colVolume)
	default:
		return nil, fmt.Errorf("unsupported panel: %s", panel)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return &Image{MimeType: MimeType, Width: r.width, Height: r.height, Bytes: buf.Bytes()}, nil
}

// values converts a nullable series window to floats with NaN gaps.
func values(s domain.Series, offset, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
		if v := s.At(offset + i); v != nil {
			out[i] = *v
		}
	}
	return out
}

func priceBounds(bars []domain.PriceBar) (float64, float64) {
	minP, maxP := bars[0].Low, bars[0].High
	for _, b := range bars {
		minP = math.Min(minP, b.Low)
		maxP = math.Max(maxP, b.High)
	}
	if maxP <= minP {
		maxP = minP + 1
	}
	return minP, maxP
}

func drawCandles(img *image.RGBA, rect image.Rectangle, bars []domain.PriceBar, minP, maxP float64) {
	candleWidth := max(3, (rect.Dx()-10)/len(bars)-1)
	for i, b := range bars {
		x := mapIndexToX(i, len(bars), rect)
		drawLine(img, x, mapValueToY(b.High, minP, maxP, rect), x, mapValueToY(b.Low, minP, maxP, rect), colWick)

		openY := mapValueToY(b.Open, minP, maxP, rect)
		closeY := mapValueToY(b.Close, minP, maxP, rect)
		top := min(openY, closeY)
		bottom := max(openY, closeY)
		if bottom-top < 2 {
			bottom = top + 2
		}
		body := colBull
		if b.Close < b.Open {
			body = colBear
		}
		fillRect(img, image.Rect(x-candleWidth/2, top, x+candleWidth/2+1, bottom+1), body)
	}
}

func drawMACD(img *image.RGBA, rect image.Rectangle, macd, signal, hist []float64) {
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, s := range [][]float64{macd, signal, hist} {
		if !hasFinite(s) {
			continue
		}
		lo, hi := finiteBounds(s)
		minV, maxV = math.Min(minV, lo), math.Max(maxV, hi)
	}
	if math.IsInf(minV, 1) {
		minV, maxV = -1, 1
	}
	minV, maxV = math.Min(minV, 0), math.Max(maxV, 0)
	if minV == maxV {
		maxV = minV + 1
	}
	drawHorizontalValueLine(img, rect, 0, minV, maxV, colBand)
	drawBars(img, rect, hist, minV, maxV, colVolume)
	drawSeries(img, rect, macd, minV, maxV, colLineA)
	drawSeries(img, rect, signal, minV, maxV, colLineB)
}

func drawSeries(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	lastX, lastY := -1, -1
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			lastX, lastY = -1, -1
			continue
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		if lastX >= 0 {
			drawLine(img, lastX, lastY, x, y, col)
		}
		lastX, lastY = x, y
	}
}

func drawBars(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	if len(series) == 0 {
		return
	}
	barW := max(1, (rect.Dx()-10)/len(series)-1)
	zeroY := mapValueToY(0, minV, maxV, rect)
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		fillRect(img, image.Rect(x-barW/2, min(y, zeroY), x+barW/2+1, max(y, zeroY)+1), col)
	}
}

func drawGrid(img *image.RGBA, rect image.Rectangle, verticalLines, horizontalLines int) {
	for i := 0; i <= verticalLines; i++ {
		x := rect.Min.X + (rect.Dx()*i)/max(1, verticalLines)
		drawLine(img, x, rect.Min.Y, x, rect.Max.Y, colGrid)
	}
	for i := 0; i <= horizontalLines; i++ {
		y := rect.Min.Y + (rect.Dy()*i)/max(1, horizontalLines)
		drawLine(img, rect.Min.X, y, rect.Max.X, y, colGrid)
	}
}

func drawHorizontalValueLine(img *image.RGBA, rect image.Rectangle, value, minV, maxV float64, col color.RGBA) {
	y := mapValueToY(value, minV, maxV, rect)
	drawLine(img, rect.Min.X, y, rect.Max.X, y, col)
}

func mapIndexToX(idx, total int, rect image.Rectangle) int {
	if total <= 1 {
		return rect.Min.X
	}
	return rect.Min.X + (idx*(rect.Dx()-1))/(total-1)
}

func mapValueToY(value, minV, maxV float64, rect image.Rectangle) int {
	if maxV <= minV {
		return rect.Max.Y
	}
	ratio := math.Max(0, math.Min(1, (value-minV)/(maxV-minV)))
	return rect.Max.Y - int(ratio*float64(rect.Dy()-1))
}

func hasFinite(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func finiteBounds(values []float64) (float64, float64) {
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	if math.IsInf(minV, 1) {
		return 0, 1
	}
	if minV == maxV {
		return minV, maxV + 1
	}
	return minV, maxV
}

func fillRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	r := rect.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

// drawLine is Bresenham clipped to the image bounds.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Bounds()) {
			img.SetRGBA(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
