package config

import (
	"fmt"
	"time"

	"github.com/sanahegde/resmed-file-sharing-service/internal/domain/model"
)

// WebClientConfig содержит параметры Web Client (браузерный front-end Storage Service).
// Адрес Storage Service читается один раз при старте и дальше не меняется.
type WebClientConfig struct {
	ServerConfig

	// --- Storage Service ---

	// Базовый URL Storage Service для upload/list/health (по умолчанию http://127.0.0.1:8000)
	StorageURL string
	// Базовый URL для ссылок скачивания в браузере (по умолчанию = StorageURL)
	StoragePublicURL string
	// Таймаут запросов к Storage Service (0 — без таймаута)
	StorageTimeout time.Duration
	// Путь к CA-сертификату для TLS к Storage Service (пусто — системный пул)
	StorageCACertPath string

	// --- Upload ---

	// Максимальный размер загружаемого файла в байтах (по умолчанию 20 MiB)
	MaxUploadBytes int64
	// Время показа уведомления об успешной загрузке (по умолчанию 1800ms)
	ToastDuration time.Duration

	// --- UI ---

	// Часовой пояс для отображения uploaded_at (по умолчанию Local)
	Location *time.Location
	// Время жизни браузерной сессии без активности (по умолчанию 30m)
	SessionTTL time.Duration
	// Максимальное количество одновременных сессий (по умолчанию 1000)
	SessionMax int
	// Флаг Secure у cookie сессии (включать за HTTPS, по умолчанию false)
	SecureCookies bool

	// --- Topologymetrics (dephealth) ---

	// Группа в метриках dephealth (по умолчанию file-sharing)
	DephealthGroup string
	// Интервал проверки зависимостей (по умолчанию 15s)
	DephealthCheckInterval time.Duration
}

// LoadWebClient загружает конфигурацию Web Client из переменных окружения WC_*.
func LoadWebClient() (*WebClientConfig, error) {
	srv, err := loadServerConfig("WC_", 8040)
	if err != nil {
		return nil, err
	}

	cfg := &WebClientConfig{ServerConfig: srv}

	// WC_STORAGE_URL — адрес Storage Service
	cfg.StorageURL, err = validateBaseURL(getEnvDefault("WC_STORAGE_URL", "http://127.0.0.1:8000"))
	if err != nil {
		return nil, fmt.Errorf("WC_STORAGE_URL: %w", err)
	}

	// WC_STORAGE_PUBLIC_URL — адрес для ссылок скачивания (браузер может
	// видеть Storage Service по другому адресу, чем Web Client)
	cfg.StoragePublicURL, err = validateBaseURL(getEnvDefault("WC_STORAGE_PUBLIC_URL", cfg.StorageURL))
	if err != nil {
		return nil, fmt.Errorf("WC_STORAGE_PUBLIC_URL: %w", err)
	}

	cfg.StorageTimeout, err = getEnvDuration("WC_STORAGE_TIMEOUT", 0)
	if err != nil {
		return nil, fmt.Errorf("WC_STORAGE_TIMEOUT: %w", err)
	}
	if cfg.StorageTimeout < 0 {
		return nil, fmt.Errorf("WC_STORAGE_TIMEOUT: значение не может быть отрицательным")
	}

	cfg.StorageCACertPath = getEnvDefault("WC_STORAGE_CA_CERT_PATH", "")

	cfg.MaxUploadBytes, err = getEnvInt64("WC_MAX_UPLOAD_BYTES", model.DefaultMaxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("WC_MAX_UPLOAD_BYTES: %w", err)
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("WC_MAX_UPLOAD_BYTES: значение должно быть > 0")
	}

	cfg.ToastDuration, err = getEnvDuration("WC_TOAST_DURATION", 1800*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("WC_TOAST_DURATION: %w", err)
	}

	// WC_TIMEZONE — IANA имя часового пояса (Europe/Moscow, UTC); пусто — Local
	cfg.Location = time.Local
	if tz := getEnvDefault("WC_TIMEZONE", ""); tz != "" {
		cfg.Location, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("WC_TIMEZONE: %w", err)
		}
	}

	cfg.SessionTTL, err = getEnvDuration("WC_SESSION_TTL", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("WC_SESSION_TTL: %w", err)
	}

	cfg.SessionMax, err = getEnvInt("WC_SESSION_MAX", 1000)
	if err != nil {
		return nil, fmt.Errorf("WC_SESSION_MAX: %w", err)
	}
	if cfg.SessionMax <= 0 {
		return nil, fmt.Errorf("WC_SESSION_MAX: значение должно быть > 0")
	}

	cfg.SecureCookies, err = getEnvBool("WC_SECURE_COOKIES", false)
	if err != nil {
		return nil, fmt.Errorf("WC_SECURE_COOKIES: %w", err)
	}

	cfg.DephealthGroup = getEnvDefault("WC_DEPHEALTH_GROUP", "file-sharing")

	cfg.DephealthCheckInterval, err = getEnvDuration("WC_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("WC_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	return cfg, nil
}
