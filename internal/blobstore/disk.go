package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// copyBufferSize — размер буфера потокового копирования на диск.
const copyBufferSize = 1 << 20

// DiskStore хранит объекты файлами в одной директории.
type DiskStore struct {
	dir    string
	logger *slog.Logger
}

// NewDiskStore создаёт хранилище в dir, создавая директорию при необходимости.
func NewDiskStore(dir string, logger *slog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию загрузок %s: %w", dir, err)
	}
	return &DiskStore{
		dir:    dir,
		logger: logger.With(slog.String("component", "blobstore.disk")),
	}, nil
}

// Save пишет поток во временный файл, затем fsync и атомарный rename.
// При любой ошибке временный файл удаляется.
func (s *DiskStore) Save(ctx context.Context, key string, r io.Reader, limit int64) (int64, error) {
	path, err := s.path(key)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpPath := tmp.Name()
	discard := func() {
		_ = tmp.Close()
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.Warn("Не удалось удалить временный файл",
				slog.String("path", tmpPath),
				slog.String("error", rmErr.Error()),
			)
		}
	}

	lr := newLimitedReader(contextReader{ctx: ctx, r: r}, limit)
	// Обёртка скрывает ReaderFrom, иначе буфер CopyBuffer не используется
	size, err := io.CopyBuffer(struct{ io.Writer }{tmp}, lr, make([]byte, copyBufferSize))
	if err != nil {
		discard()
		if lr.exceeded {
			return 0, ErrTooLarge
		}
		return 0, fmt.Errorf("ошибка записи данных: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		discard()
		return 0, fmt.Errorf("ошибка fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		discard()
		return 0, fmt.Errorf("ошибка закрытия файла: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		discard()
		return 0, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return size, nil
}

// Open открывает файл объекта.
func (s *DiskStore) Open(_ context.Context, key string) (*Object, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", key, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("ошибка получения информации о файле %s: %w", key, err)
	}

	return &Object{Body: f, Size: info.Size()}, nil
}

// Delete удаляет файл объекта.
func (s *DiskStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("ошибка удаления файла %s: %w", key, err)
	}
	return nil
}

// path возвращает путь объекта. Ключ — имя файла без разделителей.
func (s *DiskStore) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".upload-") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key), nil
}
