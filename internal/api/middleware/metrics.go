// metrics.go — Prometheus HTTP метрики Web Client и Storage Service.
// Регистрирует метрики: fs_http_requests_total, fs_http_request_duration_seconds.
// Нормализация путей ограничивает кардинальность лейблов.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fs_http_requests_total",
			Help: "Общее количество HTTP-запросов",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fs_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := normalizePath(r.URL.Path)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// normalizePath сводит динамические пути к шаблонам:
// /files/<id> → /files/{id}, /static/... → /static/*.
// Неизвестные пути попадают в "other".
func normalizePath(path string) string {
	switch path {
	case "/", "/upload", "/files", "/health", "/health/live", "/health/ready",
		"/metrics", "/openapi.json",
		"/ui/upload", "/ui/refresh", "/ui/health", "/ui/set-language":
		return path
	}

	switch {
	case strings.HasPrefix(path, "/files/") && !strings.Contains(path[len("/files/"):], "/"):
		return "/files/{id}"
	case strings.HasPrefix(path, "/static/"):
		return "/static/*"
	}

	return "other"
}
