package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

const namespace = "ingsearch"

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	searchTotal       *prometheus.CounterVec
	searchDuration    *prometheus.HistogramVec
	strategyTotal     *prometheus.CounterVec
	strategyDuration  *prometheus.HistogramVec
	searchResultCount *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	searchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total searches by classified intent and outcome.",
		},
		[]string{"service", "intent", "outcome"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "End-to-end search duration in seconds.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"service", "intent"},
	)
	strategyTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "strategy",
			Name:      "runs_total",
			Help:      "Strategy runs by collection and outcome.",
		},
		[]string{"service", "strategy", "collection", "outcome"},
	)
	strategyDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "strategy",
			Name:      "duration_seconds",
			Help:      "Strategy run duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"service", "strategy"},
	)
	searchResultCount := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "results",
			Help:      "Distribution of results returned per search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50, 100},
		},
		[]string{"service", "endpoint"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		searchTotal,
		searchDuration,
		strategyTotal,
		strategyDuration,
		searchResultCount,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		service:           service,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		searchTotal:       searchTotal,
		searchDuration:    searchDuration,
		strategyTotal:     strategyTotal,
		strategyDuration:  strategyDuration,
		searchResultCount: searchResultCount,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/records/"):
		return "/v1/records/{record_id}"
	default:
		return path
	}
}

// ObserveStrategy implements ports.SearchObserver.
func (m *HTTPServerMetrics) ObserveStrategy(strategy domain.Strategy, collection, outcome string, elapsed time.Duration) {
	m.strategyTotal.WithLabelValues(m.service, string(strategy), collection, orUnknown(outcome)).Inc()
	m.strategyDuration.WithLabelValues(m.service, string(strategy)).Observe(elapsed.Seconds())
}

// ObserveSearch implements ports.SearchObserver.
func (m *HTTPServerMetrics) ObserveSearch(intent domain.Intent, outcome string, elapsed time.Duration) {
	m.searchTotal.WithLabelValues(m.service, orUnknown(string(intent)), orUnknown(outcome)).Inc()
	m.searchDuration.WithLabelValues(m.service, orUnknown(string(intent))).Observe(elapsed.Seconds())
}

func (m *HTTPServerMetrics) RecordResultCount(endpoint string, count int) {
	m.searchResultCount.WithLabelValues(m.service, endpoint).Observe(float64(count))
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
