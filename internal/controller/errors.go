package controller

import "fmt"

// Причины ValidationError.
const (
	ReasonNoFileSelected = "no file selected"
	ReasonFileTooLarge   = "file too large"
)

// ValidationError — выбор файла отклонён до отправки запроса.
type ValidationError struct {
	Reason string
	// Size и Limit заполняются для ReasonFileTooLarge
	Size  int64
	Limit int64
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NetworkError — сбой транспорта при выполнении действия.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error (%s): %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UploadFailedError — Storage Service отклонил загрузку статусом вне 2xx.
type UploadFailedError struct {
	StatusCode int
	Body       string
}

func (e *UploadFailedError) Error() string {
	return fmt.Sprintf("upload failed (%d)", e.StatusCode)
}
