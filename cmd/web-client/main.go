// main.go — точка входа Web Client: страница загрузки, списка и проверки
// здоровья файлов поверх Storage Service.
package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/go-chi/chi/v5"

	apihandlers "github.com/sanahegde/resmed-file-sharing-service/internal/api/handlers"
	"github.com/sanahegde/resmed-file-sharing-service/internal/api/middleware"
	"github.com/sanahegde/resmed-file-sharing-service/internal/config"
	"github.com/sanahegde/resmed-file-sharing-service/internal/controller"
	"github.com/sanahegde/resmed-file-sharing-service/internal/server"
	"github.com/sanahegde/resmed-file-sharing-service/internal/service"
	"github.com/sanahegde/resmed-file-sharing-service/internal/storageclient"
	uihandlers "github.com/sanahegde/resmed-file-sharing-service/internal/ui/handlers"
	"github.com/sanahegde/resmed-file-sharing-service/internal/ui/i18n"
	"github.com/sanahegde/resmed-file-sharing-service/internal/ui/session"
)

func main() {
	// 1. Конфигурация из переменных окружения
	cfg, err := config.LoadWebClient()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Логгер
	logger := config.SetupLogger(cfg.ServerConfig)
	logger.Info("Web Client запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("storage_url", cfg.StorageURL),
	)

	// 3. Каталоги переводов
	bundle, err := i18n.Load(logger)
	if err != nil {
		log.Fatalf("Ошибка загрузки переводов: %v", err)
	}

	// 4. Клиент Storage Service
	storage, err := storageclient.New(cfg.StorageURL, cfg.StoragePublicURL, cfg.StorageCACertPath, cfg.StorageTimeout, logger)
	if err != nil {
		log.Fatalf("Ошибка создания клиента Storage Service: %v", err)
	}

	// 5. Сессии: у каждого браузера свой контроллер страницы
	sessions := session.NewStore(cfg.SessionMax, cfg.SessionTTL, func() (*controller.Controller, error) {
		return controller.New(controller.Options{
			Storage:        storage,
			MaxUploadBytes: cfg.MaxUploadBytes,
			ToastDuration:  cfg.ToastDuration,
			Logger:         logger,
		})
	}, logger)
	sessions.SetSecureCookie(cfg.SecureCookies)

	// 6. Мониторинг Storage Service (topologymetrics)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var readiness []apihandlers.NamedChecker
	dephealthSvc, err := service.NewWebClientDephealth(
		"web-client", cfg.DephealthGroup, cfg.StorageURL, cfg.DephealthCheckInterval, logger,
	)
	if err != nil {
		logger.Warn("Мониторинг зависимостей отключён", slog.String("error", err.Error()))
	} else if err := dephealthSvc.Start(ctx); err != nil {
		logger.Warn("Не удалось запустить мониторинг зависимостей", slog.String("error", err.Error()))
		dephealthSvc = nil
	} else {
		readiness = append(readiness, apihandlers.NamedChecker{Name: "storage-service", Checker: dephealthSvc})
	}

	// 7. Роутер: health, метрики, страница
	healthHandler := apihandlers.NewHealthHandler("web-client", readiness...)

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
	uihandlers.Mount(router,
		uihandlers.NewClientHandler(cfg.StoragePublicURL, cfg.Location, logger),
		sessions, bundle,
	)

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

	logger.Info("Web Client остановлен")
}
