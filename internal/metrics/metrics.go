// Package metrics exposes the Prometheus collectors for the analysis pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal    *prometheus.CounterVec   // labels: verdict
	AnalysisDuration prometheus.Histogram
	CacheLookups     *prometheus.CounterVec   // labels: result=hit|miss
	UpstreamErrors   *prometheus.CounterVec   // labels: provider
	Predictions      *prometheus.CounterVec   // labels: source, outcome
	Anomalies        prometheus.Counter
	HTTPRequests     *prometheus.CounterVec   // labels: method, route, status
	HTTPDuration     *prometheus.HistogramVec // labels: route
	WarmerRuns       *prometheus.CounterVec   // labels: outcome
}

// New builds the collectors on a private registry so tests can create many.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockadvisor_analyses_total",
			Help: "Completed analyses by verdict",
		}, []string{"verdict"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockadvisor_analysis_duration_seconds",
			Help:    "End-to-end analysis latency",
			Buckets: prometheus.DefBuckets,
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockadvisor_series_cache_lookups_total",
			Help: "Price series cache lookups",
		}, []string{"result"}),
		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockadvisor_upstream_errors_total",
			Help: "Failed upstream calls by provider",
		}, []string{"provider"}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockadvisor_predictions_total",
			Help: "Prediction attempts by source and outcome",
		}, []string{"source", "outcome"}),
		Anomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockadvisor_anomalies_flagged_total",
			Help: "Latest bars flagged as anomalous",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockadvisor_http_requests_total",
			Help: "HTTP requests served",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stockadvisor_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		WarmerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockadvisor_cache_warmer_runs_total",
			Help: "Cache warmer runs by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.CacheLookups,
		m.UpstreamErrors,
		m.Predictions,
		m.Anomalies,
		m.HTTPRequests,
		m.HTTPDuration,
		m.WarmerRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency keyed by the matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) CacheResult(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) UpstreamFailure(provider string) {
	if m == nil {
		return
	}
	m.UpstreamErrors.WithLabelValues(provider).Inc()
}

func (m *Metrics) PredictionOutcome(source string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Predictions.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) AnalysisDone(verdict string, took time.Duration) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(verdict).Inc()
	m.AnalysisDuration.Observe(took.Seconds())
}

func (m *Metrics) AnomalyFlagged() {
	if m == nil {
		return
	}
	m.Anomalies.Inc()
}

func (m *Metrics) WarmerRun(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.WarmerRuns.WithLabelValues("error").Inc()
		return
	}
	m.WarmerRuns.WithLabelValues("ok").Inc()
}
