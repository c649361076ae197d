package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sanahegde/resmed-file-sharing-service/internal/domain/model"
)

// FileRepository — операции с таблицей files.
type FileRepository interface {
	// Create сохраняет запись о загруженном файле.
	Create(ctx context.Context, f *model.StoredFile) error
	// List возвращает все записи, новые первыми.
	List(ctx context.Context) ([]*model.StoredFile, error)
	// GetByID возвращает запись по идентификатору или ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.StoredFile, error)
}

type fileRepo struct {
	db DBTX
}

// NewFileRepository создаёт репозиторий таблицы files.
func NewFileRepository(db DBTX) FileRepository {
	return &fileRepo{db: db}
}

func (r *fileRepo) Create(ctx context.Context, f *model.StoredFile) error {
	query := `
		INSERT INTO files (id, name, blob_key, size, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.Exec(ctx, query, f.ID, f.Name, f.BlobKey, f.Size, f.UploadedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: файл %s уже существует", ErrConflict, f.ID)
		}
		return fmt.Errorf("ошибка сохранения файла: %w", err)
	}
	return nil
}

func (r *fileRepo) List(ctx context.Context) ([]*model.StoredFile, error) {
	query := `
		SELECT id, name, blob_key, size, uploaded_at
		FROM files
		ORDER BY uploaded_at DESC, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка файлов: %w", err)
	}
	defer rows.Close()

	files := make([]*model.StoredFile, 0)
	for rows.Next() {
		f := &model.StoredFile{}
		if err := rows.Scan(&f.ID, &f.Name, &f.BlobKey, &f.Size, &f.UploadedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения файла: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации списка файлов: %w", err)
	}
	return files, nil
}

func (r *fileRepo) GetByID(ctx context.Context, id string) (*model.StoredFile, error) {
	query := `
		SELECT id, name, blob_key, size, uploaded_at
		FROM files
		WHERE id = $1`

	f := &model.StoredFile{}
	err := r.db.QueryRow(ctx, query, id).Scan(&f.ID, &f.Name, &f.BlobKey, &f.Size, &f.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения файла: %w", err)
	}
	return f, nil
}
