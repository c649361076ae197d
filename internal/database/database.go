// Пакет database — подключение Storage Service к PostgreSQL через pgxpool,
// применение миграций (golang-migrate) и проверка готовности.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sanahegde/resmed-file-sharing-service/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Connect создаёт пул подключений к PostgreSQL и проверяет его ping.
func Connect(ctx context.Context, cfg *config.StorageServiceConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула подключений: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка подключения к PostgreSQL: %w", err)
	}

	logger.Info("Подключение к PostgreSQL установлено",
		slog.String("host", cfg.DBHost),
		slog.Int("port", cfg.DBPort),
		slog.String("database", cfg.DBName),
	)

	return pool, nil
}

// Migrate применяет встроенные SQL-миграции (драйвер pgx5).
func Migrate(cfg *config.StorageServiceConfig, logger *slog.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("ошибка создания источника миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.DatabaseURL("pgx5"))
	if err != nil {
		return fmt.Errorf("ошибка инициализации миграций: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Миграции применены",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)

	return nil
}

// Pinger — пул или подключение, поддерживающее ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessChecker — проверка готовности PostgreSQL для /health/ready.
type ReadinessChecker struct {
	db      Pinger
	timeout time.Duration
}

// NewReadinessChecker создаёт проверку готовности PostgreSQL.
func NewReadinessChecker(db Pinger) *ReadinessChecker {
	return &ReadinessChecker{db: db, timeout: 3 * time.Second}
}

// CheckReady проверяет подключение к PostgreSQL через ping.
// Возвращает статус ("ok", "fail") и сообщение.
func (c *ReadinessChecker) CheckReady() (status, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.db.Ping(ctx); err != nil {
		return "fail", fmt.Sprintf("PostgreSQL недоступен: %v", err)
	}
	return "ok", "подключение активно"
}
