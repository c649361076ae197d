// files.go — HTTP handlers файловых операций Storage Service:
// загрузка, список, скачивание и простая проверка здоровья.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	apierrors "github.com/sanahegde/resmed-file-sharing-service/internal/api/errors"
	"github.com/sanahegde/resmed-file-sharing-service/internal/blobstore"
	"github.com/sanahegde/resmed-file-sharing-service/internal/domain/model"
	"github.com/sanahegde/resmed-file-sharing-service/internal/service"
)

// multipartOverhead — запас тела запроса на multipart-заголовки сверх лимита файла.
const multipartOverhead = 1 << 20

// Сообщения ошибок API.
const (
	msgFileRequired  = "file required"
	msgFileNotFound  = "file not found"
	msgInvalidFileID = "invalid file id"
)

// FileService — операции с файлами, которые нужны обработчикам.
type FileService interface {
	Upload(ctx context.Context, filename string, content io.Reader) (*model.StoredFile, error)
	List(ctx context.Context) ([]model.FileRecord, error)
	Open(ctx context.Context, id string) (*model.StoredFile, *blobstore.Object, error)
	MaxUploadBytes() int64
}

// FilesHandler — обработчик файловых endpoints.
type FilesHandler struct {
	svc     FileService
	openapi []byte
	logger  *slog.Logger
}

// NewFilesHandler создаёт обработчик. doc — OpenAPI документ для /openapi.json.
func NewFilesHandler(svc FileService, doc *openapi3.T, logger *slog.Logger) (*FilesHandler, error) {
	spec, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("сериализация OpenAPI документа: %w", err)
	}
	return &FilesHandler{
		svc:     svc,
		openapi: spec,
		logger:  logger.With(slog.String("component", "api.files")),
	}, nil
}

// Mount регистрирует маршруты Storage Service.
func (h *FilesHandler) Mount(r chi.Router) {
	r.Post("/upload", h.UploadFile)
	r.Get("/files", h.ListFiles)
	r.Get("/files/{id}", h.DownloadFile)
	r.Get("/health", h.Health)
	r.Get("/openapi.json", h.OpenAPI)
}

// UploadFile обрабатывает POST /upload.
// Multipart form: поле file. Содержимое читается потоком без буферизации формы.
func (h *FilesHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.svc.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		apierrors.ValidationError(w, msgFileRequired)
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			apierrors.ValidationError(w, msgFileRequired)
			return
		}
		if err != nil {
			h.uploadError(w, err, maxBytes)
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		f, err := h.svc.Upload(r.Context(), part.FileName(), part)
		_ = part.Close()
		if err != nil {
			h.uploadError(w, err, maxBytes)
			return
		}

		writeJSON(w, http.StatusOK, f.Record())
		return
	}
}

func (h *FilesHandler) uploadError(w http.ResponseWriter, err error, maxBytes int64) {
	var mbe *http.MaxBytesError
	switch {
	case errors.Is(err, service.ErrTooLarge), errors.As(err, &mbe):
		apierrors.FileTooLarge(w, fmt.Sprintf("file too large (limit %s)", humanize.IBytes(uint64(maxBytes))))
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, msgFileRequired)
	default:
		h.logger.Error("Ошибка загрузки файла", slog.String("error", err.Error()))
		apierrors.InternalError(w)
	}
}

// ListFiles обрабатывает GET /files — все файлы, новые первыми.
func (h *FilesHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения списка файлов", slog.String("error", err.Error()))
		apierrors.InternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// DownloadFile обрабатывает GET /files/{id} — содержимое файла как вложение.
func (h *FilesHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		apierrors.ValidationError(w, msgInvalidFileID)
		return
	}

	f, obj, err := h.svc.Open(r.Context(), id.String())
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, msgFileNotFound)
			return
		}
		h.logger.Error("Ошибка открытия файла",
			slog.String("file_id", id.String()),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": f.Name})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", disposition)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.Warn("Передача файла прервана",
			slog.String("file_id", f.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Health обрабатывает GET /health.
func (h *FilesHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// OpenAPI отдаёт встроенный OpenAPI документ.
func (h *FilesHandler) OpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(h.openapi)
}
