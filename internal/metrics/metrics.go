// Package metrics provides Prometheus metrics collection for the catalog API.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalog"

// Collectors are swapped atomically by Init; Record* calls made before Init
// are dropped.
var (
	requestsTotal         atomic.Pointer[prometheus.CounterVec]
	requestDuration       atomic.Pointer[prometheus.HistogramVec]
	authFailuresTotal     atomic.Pointer[prometheus.CounterVec]
	backupsCreatedTotal   atomic.Pointer[prometheus.CounterVec]
	restoresTotal         atomic.Pointer[prometheus.CounterVec]
	restoredProductsTotal atomic.Pointer[prometheus.Counter]
	buildInfo             atomic.Pointer[prometheus.GaugeVec]
)

// Init creates the catalog collectors and registers them with reg.
// Calling it again with a fresh registry replaces the active collectors.
func Init(reg prometheus.Registerer) error {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "api", Name: "requests_total",
		Help: "Total number of HTTP requests handled by the catalog API",
	}, []string{"method", "path", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "api", Name: "request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	authFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "api", Name: "auth_failures_total",
		Help: "Total number of rejected passwords and admin tokens",
	}, []string{"reason"})

	backups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "backup", Name: "created_total",
		Help: "Total number of backups written to the backup store",
	}, []string{"kind"})

	restores := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "restore", Name: "total",
		Help: "Total number of restore attempts by final step and result",
	}, []string{"step", "result"})

	restored := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "restore", Name: "products_total",
		Help: "Total number of products written to the live catalog by restores",
	})

	info := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "api", Name: "info",
		Help: "Catalog API build information",
	}, []string{"version"})

	for name, c := range map[string]prometheus.Collector{
		"requests_total":           requests,
		"request_duration_seconds": duration,
		"auth_failures_total":      authFailures,
		"backup_created_total":     backups,
		"restore_total":            restores,
		"restore_products_total":   restored,
		"info":                     info,
	} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("failed to register %s: %w", name, err)
		}
	}

	requestsTotal.Store(requests)
	requestDuration.Store(duration)
	authFailuresTotal.Store(authFailures)
	backupsCreatedTotal.Store(backups)
	restoresTotal.Store(restores)
	restoredProductsTotal.Store(&restored)
	buildInfo.Store(info)
	return nil
}

// SetVersion publishes the running version as catalog_api_info{version}.
func SetVersion(version string) {
	if g := buildInfo.Load(); g != nil {
		g.Reset()
		g.WithLabelValues(version).Set(1)
	}
}

// RecordRequest counts one request. The path must already be normalized.
func RecordRequest(method, path, status string) {
	if c := requestsTotal.Load(); c != nil {
		c.WithLabelValues(method, path, status).Inc()
	}
}

func RecordRequestDuration(method, path, status string, seconds float64) {
	if h := requestDuration.Load(); h != nil {
		h.WithLabelValues(method, path, status).Observe(seconds)
	}
}

// RecordAuthFailure counts a rejected login or token. Reasons in use:
// missing_token, invalid_format, bad_signature, expired, wrong_password.
func RecordAuthFailure(reason string) {
	if c := authFailuresTotal.Load(); c != nil {
		c.WithLabelValues(reason).Inc()
	}
}

// RecordBackupCreated counts a stored backup. Kind is "manual" or "safety".
func RecordBackupCreated(kind string) {
	if c := backupsCreatedTotal.Load(); c != nil {
		c.WithLabelValues(kind).Inc()
	}
}

// RecordRestore records how a restore ended: the last step reached and
// either "success" or the error kind.
func RecordRestore(step, result string) {
	if c := restoresTotal.Load(); c != nil {
		c.WithLabelValues(step, result).Inc()
	}
}

func RecordRestoredProducts(n int) {
	if c := restoredProductsTotal.Load(); c != nil {
		(*c).Add(float64(n))
	}
}

// HandlerFor returns an HTTP handler exposing the metrics of reg.
func HandlerFor(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// GetMetricsText renders reg in the Prometheus text format.
func GetMetricsText(reg prometheus.Gatherer) (string, error) {
	w := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(w.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read metrics output: %w", err)
	}
	return string(body), nil
}
