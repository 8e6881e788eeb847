// metrics.go — Prometheus HTTP метрики галереи.
// Регистрирует метрики: gl_http_requests_total, gl_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gl_http_requests_total",
			Help: "Общее количество HTTP-запросов к галерее",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gl_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к галерее в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath сводит пути к ограниченному набору лейблов.
// Статика и иконки группируются по префиксу, неизвестные пути — в "other".
func normalizePath(path string) string {
	switch path {
	case "/", "/health/live", "/health/ready", "/metrics",
		"/admin", "/admin/", "/admin/login", "/admin/logout", "/admin/api/session",
		"/toggle-language", "/set-language",
		"/api/public/apps", "/api/public/contents",
		"/_image",
		"/manifest.json", "/favicon.ico", "/robots.txt", "/sitemap.xml":
		return path
	}

	prefixes := []struct {
		prefix string
		result string
	}{
		{"/admin/api/collections/", "/admin/api/collections/{kind}"},
		{"/_app/", "/_app/*"},
		{"/static/", "/static/*"},
		{"/images/", "/images/*"},
		{"/icon", "/icon*"},
		{"/apple-icon", "/apple-icon*"},
		{"/api/", "/api/*"},
	}

	for _, p := range prefixes {
		if strings.HasPrefix(path, p.prefix) {
			return p.result
		}
	}

	return "other"
}
