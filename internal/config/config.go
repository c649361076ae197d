// Пакет config — загрузка и валидация конфигурации Web Client и Storage Service
// из переменных окружения.
// Общие параметры HTTP-сервера и логирования описаны в ServerConfig,
// параметры конкретных бинарников — в WebClientConfig и StorageServiceConfig.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// ServerConfig — общие параметры HTTP-сервера, логирования и shutdown.
type ServerConfig struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration
}

// loadServerConfig загружает общие параметры сервера с указанным префиксом
// переменных окружения (WC_, SS_).
func loadServerConfig(prefix string, defaultPort int) (ServerConfig, error) {
	var cfg ServerConfig
	var err error

	cfg.Port, err = getEnvInt(prefix+"PORT", defaultPort)
	if err != nil {
		return cfg, fmt.Errorf("%sPORT: %w", prefix, err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("%sPORT: значение %d вне диапазона 1-65535", prefix, cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault(prefix+"LOG_LEVEL", "info"))
	if err != nil {
		return cfg, fmt.Errorf("%sLOG_LEVEL: %w", prefix, err)
	}

	cfg.LogFormat = getEnvDefault(prefix+"LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return cfg, fmt.Errorf("%sLOG_FORMAT: недопустимый формат %q, допустимые: json, text", prefix, cfg.LogFormat)
	}

	cfg.HTTPReadTimeout, err = getEnvDuration(prefix+"HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return cfg, fmt.Errorf("%sHTTP_READ_TIMEOUT: %w", prefix, err)
	}

	cfg.HTTPWriteTimeout, err = getEnvDuration(prefix+"HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return cfg, fmt.Errorf("%sHTTP_WRITE_TIMEOUT: %w", prefix, err)
	}

	cfg.HTTPIdleTimeout, err = getEnvDuration(prefix+"HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return cfg, fmt.Errorf("%sHTTP_IDLE_TIMEOUT: %w", prefix, err)
	}

	cfg.ShutdownTimeout, err = getEnvDuration(prefix+"SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return cfg, fmt.Errorf("%sSHUTDOWN_TIMEOUT: %w", prefix, err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации сервера.
func SetupLogger(cfg ServerConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 из переменной окружения (размеры в байтах).
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// validateBaseURL проверяет, что URL абсолютный (http/https), и убирает trailing slash.
func validateBaseURL(raw string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return "", fmt.Errorf("ожидается абсолютный http(s) URL, получено %q", raw)
	}
	return trimmed, nil
}
