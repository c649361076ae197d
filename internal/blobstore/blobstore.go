// Пакет blobstore — хранилище содержимого загруженных файлов.
// Метаданные живут в PostgreSQL, байты — на диске или в S3-совместимом хранилище.
package blobstore

import (
	"context"
	"errors"
	"io"
)

// Ошибки хранилища.
var (
	// ErrTooLarge — поток длиннее лимита; частично записанные данные удалены.
	ErrTooLarge = errors.New("превышен лимит размера файла")
	// ErrNotFound — объекта с таким ключом нет.
	ErrNotFound = errors.New("объект не найден")
	// ErrInvalidKey — ключ не является простым именем объекта.
	ErrInvalidKey = errors.New("недопустимый ключ объекта")
)

// Object — открытый объект хранилища. Вызывающий код закрывает Body.
type Object struct {
	Body io.ReadCloser
	Size int64
}

// Store — операции с содержимым файлов.
type Store interface {
	// Save записывает r под ключом key и возвращает число записанных байт.
	// Если поток длиннее limit байт, запись удаляется и возвращается ErrTooLarge.
	Save(ctx context.Context, key string, r io.Reader, limit int64) (int64, error)
	// Open открывает объект для чтения или возвращает ErrNotFound.
	Open(ctx context.Context, key string) (*Object, error)
	// Delete удаляет объект. Отсутствие объекта ошибкой не считается.
	Delete(ctx context.Context, key string) error
}

// limitedReader читает не больше limit байт и запоминает,
// что поток оказался длиннее.
type limitedReader struct {
	r        io.Reader
	left     int64
	exceeded bool
}

func newLimitedReader(r io.Reader, limit int64) *limitedReader {
	return &limitedReader{r: r, left: limit}
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.left <= 0 {
		// Лимит исчерпан: пробуем прочитать ещё один байт
		var one [1]byte
		n, err := l.r.Read(one[:])
		if n > 0 {
			l.exceeded = true
			return 0, ErrTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > l.left {
		p = p[:l.left]
	}
	n, err := l.r.Read(p)
	l.left -= int64(n)
	return n, err
}

// contextReader прерывает чтение после отмены контекста.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
