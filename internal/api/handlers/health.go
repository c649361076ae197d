// health.go — обработчики health endpoints.
// /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (состояние зависимостей)
// /metrics — Prometheus метрики
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanahegde/resmed-file-sharing-service/internal/config"
)

// Статусы health check.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusFail     = "fail"
)

// ReadinessChecker — интерфейс проверки готовности зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "degraded", "fail") и сообщение.
	CheckReady() (status, message string)
}

// NamedChecker — проверка готовности с именем зависимости в ответе.
type NamedChecker struct {
	Name    string
	Checker ReadinessChecker
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	service     string
	checks      []NamedChecker
	promHandler http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// service — имя сервиса в ответах; checks — зависимости для readiness.
// Checker, равный nil, считается непройденной проверкой.
func NewHealthHandler(service string, checks ...NamedChecker) *HealthHandler {
	return &HealthHandler{
		service:     service,
		checks:      checks,
		promHandler: promhttp.Handler(),
	}
}

type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

type healthReadyResponse struct {
	Status    string                       `json:"status"`
	Timestamp string                       `json:"timestamp"`
	Version   string                       `json:"version"`
	Service   string                       `json:"service"`
	Checks    map[string]healthCheckResult `json:"checks"`
}

// HealthLive — liveness probe. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthLiveResponse{
		Status:    statusOK,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   h.service,
	})
}

// HealthReady — readiness probe.
// Возвращает 200 (ok/degraded) или 503 (fail).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   h.service,
		Checks:    make(map[string]healthCheckResult, len(h.checks)),
	}

	statuses := make([]string, 0, len(h.checks))
	for _, c := range h.checks {
		res := healthCheckResult{Status: statusFail, Message: "не инициализирован"}
		if c.Checker != nil {
			status, msg := c.Checker.CheckReady()
			res = healthCheckResult{Status: status, Message: msg}
		}
		resp.Checks[c.Name] = res
		statuses = append(statuses, res.Status)
	}
	resp.Status = overallStatus(statuses...)

	code := http.StatusOK
	if resp.Status == statusFail {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// overallStatus: fail, если есть fail; degraded, если есть degraded; иначе ok.
func overallStatus(statuses ...string) string {
	hasDegraded := false
	for _, s := range statuses {
		if s == statusFail {
			return statusFail
		}
		if s == statusDegraded {
			hasDegraded = true
		}
	}
	if hasDegraded {
		return statusDegraded
	}
	return statusOK
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
