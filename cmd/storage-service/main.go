// main.go — точка входа Storage Service: приём, хранение и выдача файлов.
package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/sanahegde/resmed-file-sharing-service/internal/api/handlers"
	"github.com/sanahegde/resmed-file-sharing-service/internal/api/middleware"
	"github.com/sanahegde/resmed-file-sharing-service/internal/api/openapi"
	"github.com/sanahegde/resmed-file-sharing-service/internal/blobstore"
	"github.com/sanahegde/resmed-file-sharing-service/internal/config"
	"github.com/sanahegde/resmed-file-sharing-service/internal/database"
	"github.com/sanahegde/resmed-file-sharing-service/internal/repository"
	"github.com/sanahegde/resmed-file-sharing-service/internal/server"
	"github.com/sanahegde/resmed-file-sharing-service/internal/service"
)

func main() {
	// 1. Конфигурация из переменных окружения
	cfg, err := config.LoadStorageService()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Логгер
	logger := config.SetupLogger(cfg.ServerConfig)
	logger.Info("Storage Service запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("blob_backend", cfg.BlobBackend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Миграции и пул PostgreSQL
	if err := database.Migrate(cfg, logger); err != nil {
		log.Fatalf("Ошибка миграций: %v", err)
	}
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Ошибка подключения к PostgreSQL: %v", err)
	}
	defer pool.Close()

	// 4. Хранилище содержимого
	blobs, err := newBlobStore(cfg, logger)
	if err != nil {
		log.Fatalf("Ошибка инициализации хранилища: %v", err)
	}

	// 5. Сервис и обработчики
	fileSvc := service.NewFileService(repository.NewFileRepository(pool), blobs, cfg.MaxUploadBytes, logger)

	doc, err := openapi.Load(ctx)
	if err != nil {
		log.Fatalf("Ошибка загрузки OpenAPI документа: %v", err)
	}
	filesHandler, err := handlers.NewFilesHandler(fileSvc, doc, logger)
	if err != nil {
		log.Fatalf("Ошибка создания обработчиков: %v", err)
	}

	// 6. Мониторинг PostgreSQL (topologymetrics, connection pool mode)
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	dephealthSvc, err := service.NewStorageServiceDephealth(
		"storage-service", cfg.DephealthGroup, sqlDB, cfg.DatabaseURL("postgres"),
		cfg.DephealthCheckInterval, logger,
	)
	if err != nil {
		logger.Warn("Мониторинг зависимостей отключён", slog.String("error", err.Error()))
	} else if err := dephealthSvc.Start(ctx); err != nil {
		logger.Warn("Не удалось запустить мониторинг зависимостей", slog.String("error", err.Error()))
		dephealthSvc = nil
	}

	// 7. Роутер
	healthHandler := handlers.NewHealthHandler("storage-service",
		handlers.NamedChecker{Name: "postgresql", Checker: database.NewReadinessChecker(pool)},
	)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.MetricsMiddleware(),
		middleware.Recoverer(logger),
	)
	router.Get("/health/live", healthHandler.HealthLive)
	router.Get("/health/ready", healthHandler.HealthReady)
	router.Get("/metrics", healthHandler.GetMetrics)
	filesHandler.Mount(router)

	// 8. HTTP-сервер (блокирующий вызов с graceful shutdown)
	srv := server.New(cfg.ServerConfig, logger, router)
	runErr := srv.Run()

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	if runErr != nil {
		logger.Error("Ошибка сервера", slog.String("error", runErr.Error()))
		log.Fatalf("Сервер завершился с ошибкой: %v", runErr)
	}

	logger.Info("Storage Service остановлен")
}

// newBlobStore создаёт хранилище содержимого по SS_BLOB_BACKEND.
func newBlobStore(cfg *config.StorageServiceConfig, logger *slog.Logger) (blobstore.Store, error) {
	if cfg.BlobBackend == config.BlobBackendS3 {
		return blobstore.NewS3Store(blobstore.S3Options{
			Endpoint:       cfg.S3Endpoint,
			Region:         cfg.S3Region,
			Bucket:         cfg.S3Bucket,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			ForcePathStyle: cfg.S3ForcePathStyle,
		}, logger)
	}
	return blobstore.NewDiskStore(cfg.UploadDir, logger)
}
