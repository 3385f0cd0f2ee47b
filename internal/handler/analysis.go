package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"stock-advisor/internal/chart"
	"stock-advisor/internal/service"
)

type AnalyzeRequest struct {
	Symbol      string `json:"symbol" binding:"required" example:"TCS.NS"`
	Timeframe   string `json:"timeframe" example:"1y"`
	UseRealtime *bool  `json:"use_realtime"`
	UseAI       *bool  `json:"use_ai"`
}

type SymbolRequest struct {
	Symbol    string `json:"symbol" binding:"required" example:"INFY"`
	Timeframe string `json:"timeframe,omitempty" example:"6m"`
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// GetSymbols godoc
// @Summary      List supported symbols
// @Tags         stocks
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/symbols [get]
func (h *Handler) GetSymbols(c *gin.Context) {
	if h.unavailable(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbols":    h.analysis.Symbols(),
		"timeframes": h.analysis.Timeframes(),
	})
}

// Analyze godoc
// @Summary      Analyze a stock
// @Description  Computes indicators, predictions and a recommendation. use_realtime and use_ai default to true.
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        request  body      AnalyzeRequest  true  "Analysis request"
// @Success      200      {object}  service.Report
// @Failure      400      {object}  map[string]string
// @Failure      502      {object}  map[string]string
// @Failure      503      {object}  map[string]string
// @Router       /api/analyze [post]
func (h *Handler) Analyze(c *gin.Context) {
	if h.unavailable(c) {
		return
	}
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", req.Symbol))

	report, err := h.analysis.Analyze(ctx, service.AnalyzeRequest{
		Symbol:      req.Symbol,
		Timeframe:   req.Timeframe,
		UseRealtime: boolOr(req.UseRealtime, true),
		UseAI:       boolOr(req.UseAI, true),
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ChartData godoc
// @Summary      Chart series for a stock
// @Description  Returns OHLCV bars with aligned indicator series; values are null before their window fills
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        request  body      SymbolRequest  true  "Symbol and timeframe"
// @Success      200      {object}  service.ChartData
// @Failure      400      {object}  map[string]string
// @Failure      502      {object}  map[string]string
// @Router       /api/chart-data [post]
func (h *Handler) ChartData(c *gin.Context) {
	if h.unavailable(c) {
		return
	}
	var req SymbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.chart-data")
	defer span.End()

	data, err := h.analysis.ChartData(ctx, req.Symbol, req.Timeframe)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// GetChart godoc
// @Summary      Render a chart image
// @Tags         analysis
// @Produce      png
// @Param        symbol     path   string  true   "Stock symbol (e.g., TCS, RELIANCE.NS)"
// @Param        timeframe  query  string  false  "Timeframe (1d, 1w, 1m, 3m, 6m, 1y, 2y, 5y)"  default(1y)
// @Param        panel      query  string  false  "Lower panel (rsi, macd, stoch, volume)"  default(rsi)
// @Success      200  {file}    binary
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/chart/{symbol} [get]
func (h *Handler) GetChart(c *gin.Context) {
	if h.unavailable(c) {
		return
	}
	panel, err := chart.ParsePanel(c.Query("panel"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-chart")
	defer span.End()
	span.SetAttributes(attribute.String("panel", string(panel)))

	series, bundle, err := h.analysis.ChartSeries(ctx, c.Param("symbol"), c.Query("timeframe"))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(c, err)
		return
	}
	img, err := h.renderer.Render(series, bundle, panel)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, img.MimeType, img.Bytes)
}

// GetWatchlist godoc
// @Summary      Watchlist verdicts
// @Description  Evaluates the configured watchlist; failing symbols carry an error field
// @Tags         analysis
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/watchlist [get]
func (h *Handler) GetWatchlist(c *gin.Context) {
	if h.unavailable(c) {
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-watchlist")
	defer span.End()

	entries, err := h.analysis.Watchlist(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stocks": entries})
}

// RealtimeData godoc
// @Summary      Realtime quote
// @Tags         stocks
// @Accept       json
// @Produce      json
// @Param        request  body      SymbolRequest  true  "Symbol"
// @Success      200      {object}  domain.Quote
// @Failure      400      {object}  map[string]string
// @Failure      502      {object}  map[string]string
// @Failure      503      {object}  map[string]string
// @Router       /api/realtime-data [post]
func (h *Handler) RealtimeData(c *gin.Context) {
	if h.unavailable(c) {
		return
	}
	var req SymbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.realtime-data")
	defer span.End()

	q, err := h.analysis.Quote(ctx, req.Symbol)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// CompanyInfo godoc
// @Summary      Company profile
// @Tags         stocks
// @Accept       json
// @Produce      json
// @Param        request  body      SymbolRequest  true  "Symbol"
// @Success      200      {object}  domain.CompanyInfo
// @Failure      400      {object}  map[string]string
// @Failure      502      {object}  map[string]string
// @Router       /api/company-info [post]
func (h *Handler) CompanyInfo(c *gin.Context) {
	if h.unavailable(c) {
		return
	}
	var req SymbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.company-info")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", strings.ToUpper(req.Symbol)))

	info, err := h.analysis.CompanyInfo(ctx, req.Symbol)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

