package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"stock-advisor/internal/chart"
	"stock-advisor/internal/domain"
	"stock-advisor/internal/service"
)

type Handler struct {
	tracer   trace.Tracer
	analysis *service.AnalysisService
	renderer *chart.Renderer
}

func New(tracer trace.Tracer, analysis *service.AnalysisService, renderer *chart.Renderer) *Handler {
	if renderer == nil {
		renderer = chart.NewRenderer()
	}
	return &Handler{
		tracer:   tracer,
		analysis: analysis,
		renderer: renderer,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/symbols", h.GetSymbols)
	r.POST("/api/analyze", h.Analyze)
	r.POST("/api/chart-data", h.ChartData)
	r.GET("/api/chart/:symbol", h.GetChart)
	r.GET("/api/watchlist", h.GetWatchlist)
	r.POST("/api/realtime-data", h.RealtimeData)
	r.POST("/api/company-info", h.CompanyInfo)
}

// Health godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case domain.IsInvalidSymbol(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCollaboratorDisabled):
		return http.StatusServiceUnavailable
	case domain.IsUpstream(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	if status == http.StatusBadRequest {
		body["supported_symbols"] = domain.SupportedStocks
	}
	c.JSON(status, body)
}

func (h *Handler) unavailable(c *gin.Context) bool {
	if h.analysis == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis service unavailable"})
		return true
	}
	return false
}
