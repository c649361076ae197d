// Пакет model — доменные модели файлового сервиса,
// общие для Web Client и Storage Service.
package model

import "io"

// DefaultMaxUploadBytes — лимит размера загружаемого файла по умолчанию (20 MiB).
const DefaultMaxUploadBytes int64 = 20 * 1024 * 1024

// FileRecord — метаданные загруженного файла в формате API Storage Service.
// UploadedAt — Unix-время загрузки в секундах.
type FileRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	UploadedAt int64  `json:"uploaded_at"`
}

// SelectedFile — файл, выбранный пользователем для загрузки.
// Живёт только в рамках одного вызова Upload.
type SelectedFile struct {
	// Исходное имя файла
	Name string
	// Размер в байтах, известный до отправки
	Size int64
	// Содержимое. nil, если браузер прислал только имя и размер
	// (файл отклонён по размеру ещё на странице).
	Content io.Reader
}

// StoredFile — запись таблицы files Storage Service.
type StoredFile struct {
	ID   string
	Name string
	// Ключ содержимого в хранилище (имя файла на диске или ключ объекта S3)
	BlobKey    string
	Size       int64
	UploadedAt int64
}

// Record возвращает публичное представление записи для API.
func (f *StoredFile) Record() FileRecord {
	return FileRecord{
		ID:         f.ID,
		Name:       f.Name,
		Size:       f.Size,
		UploadedAt: f.UploadedAt,
	}
}
