// Package metrics provides Prometheus instrumentation for vendo.
//
// Wire it up once in the HTTP kernel:
//
//	r.Use(metrics.Middleware())
//	r.Get("/metrics", "metrics", metrics.Handler())
//
// Then scrape http://localhost:8080/metrics from Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vendo"

// ─────────────────────────────────────────────
// HTTP metrics
// ─────────────────────────────────────────────

var (
	// RequestDuration tracks how long each HTTP request takes,
	// broken down by method, route pattern, and status code.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	// DBQueryDuration tracks repository query latency.
	DBQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries in seconds.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .5, 1},
		},
		[]string{"operation"}, // "select" | "insert" | "update"
	)
)

// ─────────────────────────────────────────────
// Purchase metrics
// ─────────────────────────────────────────────

var (
	// PurchaseOutcomes counts purchase attempts by result:
	// "success" | "validation" | "not_found" | "out_of_stock" | "cooldown" | "internal".
	PurchaseOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "purchase",
			Name:      "outcomes_total",
			Help:      "Purchase attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// PurchaseCompensations counts stock re-increments after a failed
	// ledger append, labelled "ok" or "failed".
	PurchaseCompensations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "purchase",
			Name:      "compensations_total",
			Help:      "Stock compensations after a failed ledger append.",
		},
		[]string{"result"},
	)

	// DispenseRejections counts purchases refused by the cooldown guard.
	DispenseRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispense",
			Name:      "rejections_total",
			Help:      "Purchases refused because the product was cooling down.",
		},
		[]string{"driver"}, // "memory" | "redis"
	)

	// LedgerExports counts ledger export runs by status.
	LedgerExports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "exports_total",
			Help:      "Ledger export runs.",
		},
		[]string{"status"}, // "success" | "failed"
	)
)

// DefaultRegistry is the Prometheus registry used by vendo.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		DBQueryDuration,
		PurchaseOutcomes,
		PurchaseCompensations,
		DispenseRejections,
		LedgerExports,
	)
}

// MustRegister adds collectors to the vendo registry and panics on conflict.
func MustRegister(c ...prometheus.Collector) {
	DefaultRegistry.MustRegister(c...)
}

// ─────────────────────────────────────────────
// HTTP middleware
// ─────────────────────────────────────────────

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records duration, count and in-flight gauge for every request.
// The path label is the matched chi route pattern so ids in URLs do not
// explode cardinality.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rr, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}
			status := strconv.Itoa(rr.status)

			RequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
			RequestTotal.WithLabelValues(r.Method, path, status).Inc()
		})
	}
}

// Handler exposes the registry in Prometheus text and OpenMetrics formats.
func Handler() http.HandlerFunc {
	h := promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return h.ServeHTTP
}

// ─────────────────────────────────────────────
// Helpers for app code
// ─────────────────────────────────────────────

// ObserveDBQuery records a DB query duration with a simple timer:
//
//	defer metrics.ObserveDBQuery("select", time.Now())
func ObserveDBQuery(operation string, start time.Time) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordPurchase counts one purchase attempt.
func RecordPurchase(outcome string) {
	PurchaseOutcomes.WithLabelValues(outcome).Inc()
}

// RecordCompensation counts one compensation attempt.
func RecordCompensation(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	PurchaseCompensations.WithLabelValues(result).Inc()
}

// RecordDispenseRejection counts one cooldown rejection.
func RecordDispenseRejection(driver string) {
	DispenseRejections.WithLabelValues(driver).Inc()
}

// RecordLedgerExport counts one export run.
func RecordLedgerExport(err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	LedgerExports.WithLabelValues(status).Inc()
}
