// files.go — загрузка, список и выдача файлов Storage Service.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sanahegde/resmed-file-sharing-service/internal/blobstore"
	"github.com/sanahegde/resmed-file-sharing-service/internal/domain/model"
	"github.com/sanahegde/resmed-file-sharing-service/internal/repository"
)

// defaultExt — расширение ключа для файлов без расширения.
const defaultExt = ".bin"

// validExt — расширение, допустимое в ключе хранилища.
var validExt = regexp.MustCompile(`^\.[A-Za-z0-9_-]{1,16}$`)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ss_uploads_total",
			Help: "Количество загрузок файлов по результату",
		},
		[]string{"outcome"},
	)

	uploadedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ss_uploaded_bytes_total",
			Help: "Суммарный объём сохранённых файлов в байтах",
		},
	)
)

// FileService — операции с файлами: метаданные в репозитории, байты в blobstore.
type FileService struct {
	repo     repository.FileRepository
	blobs    blobstore.Store
	maxBytes int64
	now      func() time.Time
	logger   *slog.Logger
}

// NewFileService создаёт FileService. maxBytes — лимит размера загрузки.
func NewFileService(repo repository.FileRepository, blobs blobstore.Store, maxBytes int64, logger *slog.Logger) *FileService {
	return &FileService{
		repo:     repo,
		blobs:    blobs,
		maxBytes: maxBytes,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "service.files")),
	}
}

// MaxUploadBytes возвращает лимит размера загрузки.
func (s *FileService) MaxUploadBytes() int64 {
	return s.maxBytes
}

// Upload сохраняет поток content под новым UUID.
// Ключ содержимого — id + расширение исходного имени (.bin, если его нет).
// Пустое имя заменяется на "upload" + расширение.
// Если запись метаданных не удалась, сохранённое содержимое удаляется.
func (s *FileService) Upload(ctx context.Context, filename string, content io.Reader) (*model.StoredFile, error) {
	if content == nil {
		return nil, fmt.Errorf("%w: file required", ErrValidation)
	}

	id := uuid.NewString()
	ext := extFrom(filename)
	name := filename
	if name == "" {
		name = "upload" + ext
	}

	f := &model.StoredFile{
		ID:      id,
		Name:    name,
		BlobKey: id + ext,
	}

	size, err := s.blobs.Save(ctx, f.BlobKey, content, s.maxBytes)
	if err != nil {
		if errors.Is(err, blobstore.ErrTooLarge) {
			uploadsTotal.WithLabelValues("too_large").Inc()
			return nil, fmt.Errorf("%w: %s", ErrTooLarge, filename)
		}
		uploadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ошибка сохранения содержимого: %w", err)
	}

	f.Size = size
	f.UploadedAt = s.now().Unix()

	if err := s.repo.Create(ctx, f); err != nil {
		uploadsTotal.WithLabelValues("error").Inc()
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), f.BlobKey); delErr != nil {
			s.logger.Warn("Не удалось удалить содержимое после ошибки записи метаданных",
				slog.String("key", f.BlobKey),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("ошибка записи метаданных: %w", err)
	}

	uploadsTotal.WithLabelValues("success").Inc()
	uploadedBytesTotal.Add(float64(size))

	s.logger.Info("Файл загружен",
		slog.String("file_id", f.ID),
		slog.String("name", f.Name),
		slog.Int64("size", f.Size),
	)
	return f, nil
}

// List возвращает метаданные всех файлов, новые первыми.
func (s *FileService) List(ctx context.Context) ([]model.FileRecord, error) {
	files, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]model.FileRecord, 0, len(files))
	for _, f := range files {
		records = append(records, f.Record())
	}
	return records, nil
}

// Open возвращает метаданные и открытое содержимое файла.
// Отсутствие записи или содержимого — ErrNotFound. Вызывающий код закрывает Body.
func (s *FileService) Open(ctx context.Context, id string) (*model.StoredFile, *blobstore.Object, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	obj, err := s.blobs.Open(ctx, f.BlobKey)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			s.logger.Warn("Содержимое файла отсутствует в хранилище",
				slog.String("file_id", f.ID),
				slog.String("key", f.BlobKey),
			)
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return f, obj, nil
}

// extFrom возвращает расширение имени файла или .bin.
func extFrom(name string) string {
	ext := filepath.Ext(name)
	if !validExt.MatchString(ext) {
		return defaultExt
	}
	return ext
}
