package server

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
	registry      *prometheus.Registry
	solves        *prometheus.CounterVec
	solveDuration *prometheus.HistogramVec
	requests      *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	metrics := &Metrics{
		registry: registry,
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_solves_total",
			Help: "Solve requests by outcome",
		}, []string{"solver", "outcome"}),
		solveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timetable_solve_duration_seconds",
			Help:    "Time spent building and searching",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"solver"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_cache_lookups_total",
			Help: "Cache lookups by result",
		}, []string{"result"}),
	}

	registry.MustRegister(
		metrics.solves,
		metrics.solveDuration,
		metrics.requests,
		metrics.cacheLookups,
		collectors.NewGoCollector(),
	)
	return metrics
}

func (metrics *Metrics) ObserveSolve(solver, outcome string, duration time.Duration) {
	metrics.solves.WithLabelValues(solver, outcome).Inc()
	metrics.solveDuration.WithLabelValues(solver).Observe(duration.Seconds())
}

func (metrics *Metrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.cacheLookups.WithLabelValues(result).Inc()
}

func (metrics *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests by route
func (metrics *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.requests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
