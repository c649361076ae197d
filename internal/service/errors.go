// errors.go — ошибки бизнес-логики сервисного слоя Storage Service.
package service

import "errors"

var (
	// ErrNotFound — файл не найден (нет записи или содержимого).
	ErrNotFound = errors.New("файл не найден")
	// ErrTooLarge — файл больше лимита загрузки.
	ErrTooLarge = errors.New("файл превышает лимит")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
)
