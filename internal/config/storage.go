package config

import (
	"fmt"
	"time"

	"github.com/sanahegde/resmed-file-sharing-service/internal/domain/model"
)

// Бэкенды хранения содержимого файлов.
const (
	BlobBackendDisk = "disk"
	BlobBackendS3   = "s3"
)

// StorageServiceConfig содержит параметры Storage Service.
type StorageServiceConfig struct {
	ServerConfig

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL (по умолчанию disable)
	DBSSLMode string

	// --- Upload ---

	// Максимальный размер загружаемого файла в байтах (по умолчанию 20 MiB)
	MaxUploadBytes int64

	// --- Хранилище содержимого ---

	// Бэкенд: disk или s3
	BlobBackend string
	// Директория для файлов (бэкенд disk, по умолчанию uploads)
	UploadDir string
	// Endpoint S3-совместимого хранилища (пусто — AWS)
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	// Path-style адресация бакета (MinIO, по умолчанию true)
	S3ForcePathStyle bool

	// --- Topologymetrics (dephealth) ---

	DephealthGroup         string
	DephealthCheckInterval time.Duration
}

// LoadStorageService загружает конфигурацию Storage Service из переменных окружения SS_*.
func LoadStorageService() (*StorageServiceConfig, error) {
	srv, err := loadServerConfig("SS_", 8000)
	if err != nil {
		return nil, err
	}

	cfg := &StorageServiceConfig{ServerConfig: srv}

	// --- PostgreSQL ---

	cfg.DBHost, err = getEnvRequired("SS_DB_HOST")
	if err != nil {
		return nil, err
	}

	cfg.DBPort, err = getEnvInt("SS_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("SS_DB_PORT: %w", err)
	}

	cfg.DBName, err = getEnvRequired("SS_DB_NAME")
	if err != nil {
		return nil, err
	}

	cfg.DBUser, err = getEnvRequired("SS_DB_USER")
	if err != nil {
		return nil, err
	}

	cfg.DBPassword, err = getEnvRequired("SS_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	cfg.DBSSLMode = getEnvDefault("SS_DB_SSL_MODE", "disable")

	// --- Upload ---

	cfg.MaxUploadBytes, err = getEnvInt64("SS_MAX_UPLOAD_BYTES", model.DefaultMaxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("SS_MAX_UPLOAD_BYTES: %w", err)
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("SS_MAX_UPLOAD_BYTES: значение должно быть > 0")
	}

	// --- Хранилище содержимого ---

	cfg.BlobBackend = getEnvDefault("SS_BLOB_BACKEND", BlobBackendDisk)
	switch cfg.BlobBackend {
	case BlobBackendDisk:
		cfg.UploadDir = getEnvDefault("SS_UPLOAD_DIR", "uploads")
	case BlobBackendS3:
		cfg.S3Bucket, err = getEnvRequired("SS_S3_BUCKET")
		if err != nil {
			return nil, err
		}
		cfg.S3Endpoint = getEnvDefault("SS_S3_ENDPOINT", "")
		cfg.S3Region = getEnvDefault("SS_S3_REGION", "us-east-1")
		cfg.S3AccessKey = getEnvDefault("SS_S3_ACCESS_KEY", "")
		cfg.S3SecretKey = getEnvDefault("SS_S3_SECRET_KEY", "")
		cfg.S3ForcePathStyle, err = getEnvBool("SS_S3_FORCE_PATH_STYLE", true)
		if err != nil {
			return nil, fmt.Errorf("SS_S3_FORCE_PATH_STYLE: %w", err)
		}
	default:
		return nil, fmt.Errorf("SS_BLOB_BACKEND: недопустимое значение %q, допустимые: disk, s3", cfg.BlobBackend)
	}

	// --- Topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("SS_DEPHEALTH_GROUP", "file-sharing")

	cfg.DephealthCheckInterval, err = getEnvDuration("SS_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SS_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *StorageServiceConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL (для golang-migrate и лейблов dephealth).
func (c *StorageServiceConfig) DatabaseURL(scheme string) string {
	return fmt.Sprintf(
		"%s://%s:%s@%s:%d/%s?sslmode=%s",
		scheme, c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}
