// Пакет handlers — HTTP-обработчики страницы Web Client.
// Файл client.go — главная страница и действия: загрузка файла,
// обновление списка, проверка здоровья Storage Service.
//
// Действия отвечают HTML-фрагментом, если форму отправил HTMX (заголовок
// HX-Request), и редиректом на главную страницу для обычной отправки формы:
// состояние хранится в сессии и отрисовывается при GET /.
package handlers

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/sanahegde/resmed-file-sharing-service/internal/domain/model"
	"github.com/sanahegde/resmed-file-sharing-service/internal/ui/pages"
	"github.com/sanahegde/resmed-file-sharing-service/internal/ui/pages/partials"
	"github.com/sanahegde/resmed-file-sharing-service/internal/ui/session"
)

// HXRequestHeader — заголовок, которым HTMX помечает свои запросы.
const HXRequestHeader = "HX-Request"

// Запас на multipart-заголовки сверх лимита размера файла.
const multipartOverhead = 1 << 20

// Объём формы, который держится в памяти; остальное — во временных файлах.
const multipartMemory = 8 << 20

// ClientHandler — обработчик страницы Web Client.
type ClientHandler struct {
	storageURL string
	location   *time.Location
	logger     *slog.Logger
}

// NewClientHandler создаёт ClientHandler.
// storageURL — адрес Storage Service для подвала страницы.
// location — часовой пояс колонки uploaded_at.
func NewClientHandler(storageURL string, location *time.Location, logger *slog.Logger) *ClientHandler {
	if location == nil {
		location = time.Local
	}
	return &ClientHandler{
		storageURL: storageURL,
		location:   location,
		logger:     logger.With(slog.String("component", "ui.client")),
	}
}

// HandleIndex обрабатывает GET / — главная страница сессии.
func (h *ClientHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	ctl := session.ControllerFromContext(r.Context())
	if ctl == nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := pages.IndexData{
		State:          ctl.Snapshot(),
		MaxUploadBytes: ctl.MaxUploadBytes(),
		StorageURL:     h.storageURL,
		Location:       h.location,
	}

	h.render(w, r, pages.Index(data))
}

// HandleUpload обрабатывает POST /ui/upload.
// Форма: поле "file" или, если страница отклонила файл по размеру, поля "name" и "size".
func (h *ClientHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctl := session.ControllerFromContext(r.Context())
	if ctl == nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	file, err := h.selectedFile(w, r, ctl.MaxUploadBytes())
	if err != nil {
		h.logger.Warn("Некорректная форма загрузки", slog.String("error", err.Error()))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	if c, ok := file.closer(); ok {
		defer c.Close()
	}

	ctl.Upload(r.Context(), file.SelectedFile)

	h.respond(w, r, partials.UploadResponse(ctl.Snapshot(), h.location))
}

// HandleRefresh обрабатывает POST /ui/refresh.
func (h *ClientHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctl := session.ControllerFromContext(r.Context())
	if ctl == nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctl.Refresh(r.Context())

	h.respond(w, r, partials.ListResult(ctl.Snapshot().List, h.location, false))
}

// HandleHealth обрабатывает POST /ui/health.
func (h *ClientHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctl := session.ControllerFromContext(r.Context())
	if ctl == nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctl.Health(r.Context())

	h.respond(w, r, partials.HealthResult(ctl.Snapshot().Health))
}

// HandleToast обрабатывает GET /ui/toast — текущее уведомление сессии.
// Страница запрашивает его, когда истекает срок показа.
func (h *ClientHandler) HandleToast(w http.ResponseWriter, r *http.Request) {
	ctl := session.ControllerFromContext(r.Context())
	if ctl == nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, partials.Toast(ctl.Snapshot().Toast, false))
}

// uploadForm — выбранный файл и открытая часть multipart-формы.
type uploadForm struct {
	*model.SelectedFile
	part multipart.File
}

func (f uploadForm) closer() (multipart.File, bool) {
	return f.part, f.part != nil
}

// selectedFile извлекает выбранный файл из формы.
// Тело больше лимита не читается целиком: возвращается файл с размером сверх
// лимита, и контроллер отклоняет его как слишком большой.
func (h *ClientHandler) selectedFile(w http.ResponseWriter, r *http.Request, maxBytes int64) (uploadForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			return uploadForm{SelectedFile: &model.SelectedFile{Name: "upload", Size: maxBytes + 1}}, nil
		case errors.Is(err, http.ErrNotMultipart):
			return uploadForm{}, nil
		default:
			return uploadForm{}, err
		}
	}

	part, header, err := r.FormFile("file")
	if err == nil {
		return uploadForm{
			SelectedFile: &model.SelectedFile{
				Name:    header.Filename,
				Size:    header.Size,
				Content: part,
			},
			part: part,
		}, nil
	}
	if !errors.Is(err, http.ErrMissingFile) {
		return uploadForm{}, err
	}

	// Страница отклонила файл по размеру и прислала только имя и размер
	name := r.FormValue("name")
	size, convErr := strconv.ParseInt(r.FormValue("size"), 10, 64)
	if name == "" || convErr != nil {
		return uploadForm{}, nil
	}
	return uploadForm{SelectedFile: &model.SelectedFile{Name: name, Size: size}}, nil
}

// respond отдаёт фрагмент на запрос HTMX или редирект на главную.
func (h *ClientHandler) respond(w http.ResponseWriter, r *http.Request, c templ.Component) {
	if r.Header.Get(HXRequestHeader) != "true" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, c)
}

func (h *ClientHandler) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := c.Render(r.Context(), w); err != nil {
		h.logger.Error("Ошибка рендеринга страницы", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
