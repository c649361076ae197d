// Пакет errors — ответы с ошибками Storage Service.
// Единый формат: {"error": {"code": "...", "message": "..."}}.
package errors //nolint:revive // имя совпадает со stdlib, импортируется под алиасом apierrors

import (
	"encoding/json"
	"net/http"
)

// Коды ошибок, описанные в OpenAPI документе.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeInternalError   = "INTERNAL_ERROR"
)

// MessageInternal — сообщение для непредвиденных ошибок; детали только в логе.
const MessageInternal = "internal error"

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// FileTooLarge — 400 файл превышает лимит загрузки.
func FileTooLarge(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeFileTooLarge, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, MessageInternal)
}
