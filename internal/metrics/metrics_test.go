package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHelpersTolerateNil(t *testing.T) {
	var m *Metrics
	m.CacheResult(true)
	m.UpstreamFailure("yahoo")
	m.PredictionOutcome("llm", nil)
	m.AnalysisDone("BUY", time.Second)
	m.AnomalyFlagged()
	m.WarmerRun(nil)
}

func TestCounters(t *testing.T) {
	m := New()
	m.CacheResult(true)
	m.CacheResult(false)
	m.CacheResult(false)
	m.PredictionOutcome("llm", errors.New("boom"))
	m.AnalysisDone("BUY", 10*time.Millisecond)

	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")); got != 2 {
		t.Fatalf("expected 2 misses, got %v", got)
	}
	if got := testutil.ToFloat64(m.Predictions.WithLabelValues("llm", "error")); got != 1 {
		t.Fatalf("expected 1 failed prediction, got %v", got)
	}
	if got := testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("BUY")); got != 1 {
		t.Fatalf("expected 1 BUY analysis, got %v", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping/:id", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping/7", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", w.Code)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/ping/:id", "200")); got != 1 {
		t.Fatalf("expected route-labelled request count, got %v", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), "stockadvisor_http_requests_total") {
		t.Fatalf("expected exposition output, got:\n%s", body)
	}
}
