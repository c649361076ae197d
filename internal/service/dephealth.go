// dephealth.go — интеграция с topologymetrics SDK для мониторинга зависимостей.
//
// Web Client мониторит Storage Service (HTTP checker к /health, critical).
// Storage Service мониторит PostgreSQL (SQL checker через pgxpool, critical).
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
//   - app_dependency_status — категория статуса
//   - app_dependency_status_detail — детальный статус
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // регистрация HTTP checker factory
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"
)

// storageHealthPath — probe path Storage Service.
const storageHealthPath = "/health"

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	name   string
	logger *slog.Logger
}

// NewWebClientDephealth создаёт мониторинг Storage Service для Web Client.
// extraOpts — дополнительные опции SDK (в тестах — dephealth.WithRegisterer).
func NewWebClientDephealth(
	serviceID string,
	group string,
	storageURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	depOpts := []dephealth.DependencyOption{
		dephealth.FromURL(storageURL),
		dephealth.WithHTTPHealthPath(storageHealthPath),
		dephealth.CheckInterval(checkInterval),
		dephealth.Critical(true),
	}
	if parsed, err := url.Parse(storageURL); err == nil && parsed.Scheme == "https" {
		depOpts = append(depOpts, dephealth.WithHTTPTLSSkipVerify(false))
	}

	opts := make([]dephealth.Option, 0, 2+len(extraOpts))
	opts = append(opts,
		dephealth.WithLogger(logger),
		dephealth.HTTP("storage-service", depOpts...),
	)
	opts = append(opts, extraOpts...)

	return newDephealthService(serviceID, group, "Storage Service", logger, opts)
}

// NewStorageServiceDephealth создаёт мониторинг PostgreSQL для Storage Service.
// db — *sql.DB, полученный из pgxpool через stdlib.OpenDBFromPool();
// проверка через пул отражает его реальное состояние, включая исчерпание.
// pgConnURL — URL PostgreSQL только для лейблов метрик.
func NewStorageServiceDephealth(
	serviceID string,
	group string,
	db *sql.DB,
	pgConnURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	opts := make([]dephealth.Option, 0, 2+len(extraOpts))
	opts = append(opts,
		dephealth.WithLogger(logger),
		dephealth.AddDependency("postgresql", dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(db)),
			dephealth.FromURL(pgConnURL),
			dephealth.CheckInterval(checkInterval),
			dephealth.Critical(true),
		),
	)
	opts = append(opts, extraOpts...)

	return newDephealthService(serviceID, group, "PostgreSQL", logger, opts)
}

func newDephealthService(serviceID, group, name string, logger *slog.Logger, opts []dephealth.Option) (*DephealthService, error) {
	dh, err := dephealth.New(serviceID, group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		name:   name,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен", slog.String("dependency", ds.name))
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — имя зависимости, значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}

// CheckReady сводит состояние зависимостей к статусу readiness:
// "degraded", если хотя бы одна зависимость недоступна, иначе "ok".
func (ds *DephealthService) CheckReady() (status, message string) {
	for name, ok := range ds.dh.Health() {
		if !ok {
			return "degraded", "зависимость недоступна: " + name
		}
	}
	return "ok", "зависимости доступны"
}
