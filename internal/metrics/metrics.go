// Package metrics holds the Prometheus collectors for content loads and HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eringen/pubcontent/content"
)

// Content load metrics.
var (
	DocumentsLoaded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pubcontent",
		Name:      "documents_loaded_total",
		Help:      "Documents parsed into posts",
	})

	LoadErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pubcontent",
			Name:      "load_errors_total",
			Help:      "Documents rejected while loading",
		},
		[]string{"kind"},
	)

	ValidationIssues = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pubcontent",
		Name:      "validation_issues_total",
		Help:      "Non-fatal validation issues found while loading",
	})

	LoadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pubcontent",
		Name:      "load_duration_seconds",
		Help:      "Time to fetch and parse the full post set",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	PostsCurrent = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pubcontent",
		Name:      "posts",
		Help:      "Posts in the current snapshot",
	})
)

// HTTP metrics.
var (
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pubcontent",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pubcontent",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

var registerOnce sync.Once

// Register registers all collectors with the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			DocumentsLoaded, LoadErrors, ValidationIssues, LoadDuration, PostsCurrent,
			HTTPRequestDuration, HTTPRequestsTotal,
		)
	})
}

// ObserveLoad records the outcome of one load.
func ObserveLoad(r *content.Report, took time.Duration) {
	DocumentsLoaded.Add(float64(len(r.Posts)))
	for kind, n := range r.ErrorsByKind() {
		LoadErrors.WithLabelValues(kind).Add(float64(n))
	}
	ValidationIssues.Add(float64(len(r.Issues)))
	LoadDuration.Observe(took.Seconds())
}

// Middleware records HTTP request duration and count, labelled by the Echo
// route pattern to keep cardinality bounded.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = http.StatusInternalServerError
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			path := c.Path()
			if path == "" {
				path = "unknown"
			}
			labels := []string{c.Request().Method, path, strconv.Itoa(status)}
			HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			HTTPRequestsTotal.WithLabelValues(labels...).Inc()
			return err
		}
	}
}
