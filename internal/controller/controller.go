// Пакет controller — логика страницы Web Client: загрузка файла,
// обновление списка, проверка здоровья Storage Service.
//
// Каждое действие — блокирующий вызов с context.Context, выполняющий ровно
// один запрос к Storage Service (успешная загрузка дополнительно запускает
// один Refresh). Состояние страницы хранится в Controller под мьютексом,
// который не удерживается во время сетевых запросов.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sanahegde/resmed-file-sharing-service/internal/domain/model"
	"github.com/sanahegde/resmed-file-sharing-service/internal/storageclient"
)

// DefaultToastDuration — время показа уведомления об успешной загрузке.
const DefaultToastDuration = 1800 * time.Millisecond

// actionsTotal — количество действий пользователя по видам и итогам.
var actionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wc_actions_total",
		Help: "Количество действий пользователей Web Client по итогам",
	},
	[]string{"action", "result"},
)

// StorageService — операции Storage Service, нужные контроллеру.
// Реализуется *storageclient.Client.
type StorageService interface {
	Upload(ctx context.Context, file *model.SelectedFile) (*storageclient.UploadResponse, error)
	ListFiles(ctx context.Context) ([]model.FileRecord, error)
	Health(ctx context.Context) (string, error)
	DownloadURL(id string) string
}

// Options — параметры Controller.
type Options struct {
	Storage StorageService
	// Лимит размера файла (0 — model.DefaultMaxUploadBytes)
	MaxUploadBytes int64
	// Время показа уведомления (0 — DefaultToastDuration)
	ToastDuration time.Duration
	Logger        *slog.Logger
}

// Controller — состояние и действия страницы одной браузерной сессии.
type Controller struct {
	storage        StorageService
	maxUploadBytes int64
	toastDuration  time.Duration
	logger         *slog.Logger

	mu    sync.Mutex
	state PageState
	// refreshSeq — номер последнего запущенного Refresh
	refreshSeq uint64
	toastGen   uint64
	toastTimer *time.Timer
	closed     bool
}

// New создаёт Controller.
func New(opts Options) (*Controller, error) {
	if opts.Storage == nil {
		return nil, errors.New("controller: не задан клиент Storage Service")
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = model.DefaultMaxUploadBytes
	}
	if opts.ToastDuration <= 0 {
		opts.ToastDuration = DefaultToastDuration
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Controller{
		storage:        opts.Storage,
		maxUploadBytes: opts.MaxUploadBytes,
		toastDuration:  opts.ToastDuration,
		logger:         opts.Logger.With(slog.String("component", "controller")),
	}, nil
}

// MaxUploadBytes возвращает лимит размера файла.
func (c *Controller) MaxUploadBytes() int64 {
	return c.maxUploadBytes
}

// Upload проверяет выбранный файл и отправляет его одним запросом POST /upload.
// При ошибке валидации запрос не отправляется. После успешной загрузки
// показывается уведомление и ровно один раз выполняется Refresh.
func (c *Controller) Upload(ctx context.Context, file *model.SelectedFile) Result {
	if res, ok := c.validate(file); !ok {
		c.mu.Lock()
		c.state.Upload = UploadPanel{Status: res}
		c.mu.Unlock()
		c.record("upload", res)
		return res
	}

	c.mu.Lock()
	c.state.Upload = UploadPanel{Status: Result{Kind: KindPending, Message: MsgUploading}}
	c.mu.Unlock()

	resp, err := c.storage.Upload(ctx, file)
	if err != nil {
		res := Result{
			Kind:    KindNetworkError,
			Message: MsgUploadNetworkErr,
			Err:     &NetworkError{Op: "upload", Err: err},
		}
		c.logger.Warn("Ошибка загрузки файла",
			slog.String("name", file.Name),
			slog.String("error", err.Error()),
		)
		c.mu.Lock()
		c.state.Upload = UploadPanel{Status: res}
		c.mu.Unlock()
		c.record("upload", res)
		return res
	}

	if !resp.OK() {
		res := Result{
			Kind:    KindServerError,
			Message: MsgUploadFailed,
			Args:    []any{resp.StatusCode},
			Err:     &UploadFailedError{StatusCode: resp.StatusCode, Body: resp.Body},
		}
		c.logger.Warn("Storage Service отклонил загрузку",
			slog.String("name", file.Name),
			slog.Int("status", resp.StatusCode),
		)
		c.mu.Lock()
		c.state.Upload = UploadPanel{Status: res, Output: resp.Body}
		c.mu.Unlock()
		c.record("upload", res)
		return res
	}

	res := Result{Kind: KindSuccess, Message: MsgUploadOK}
	c.mu.Lock()
	c.state.Upload = UploadPanel{Status: res, Output: resp.Body}
	c.showToastLocked(MsgToastUploaded)
	c.mu.Unlock()
	c.record("upload", res)

	c.logger.Info("Файл загружен",
		slog.String("name", file.Name),
		slog.Int64("size", file.Size),
	)

	c.Refresh(ctx)
	return res
}

// validate проверяет выбор файла до отправки запроса.
func (c *Controller) validate(file *model.SelectedFile) (Result, bool) {
	if file == nil || file.Name == "" {
		return Result{
			Kind:    KindValidationError,
			Message: MsgChooseFile,
			Err:     &ValidationError{Reason: ReasonNoFileSelected},
		}, false
	}
	if file.Size > c.maxUploadBytes {
		return Result{
			Kind:    KindValidationError,
			Message: MsgFileTooLarge,
			Args:    []any{humanize.IBytes(uint64(c.maxUploadBytes))},
			Err: &ValidationError{
				Reason: ReasonFileTooLarge,
				Size:   file.Size,
				Limit:  c.maxUploadBytes,
			},
		}, false
	}
	// Имя и размер без содержимого присылает только страница,
	// отклонившая файл по размеру; пустое содержимое трактуется как отсутствие выбора.
	if file.Content == nil {
		return Result{
			Kind:    KindValidationError,
			Message: MsgChooseFile,
			Err:     &ValidationError{Reason: ReasonNoFileSelected},
		}, false
	}
	return Result{}, true
}

// Refresh запрашивает список файлов и заменяет таблицу целиком.
// На время запроса таблица очищается, статус — "loading…".
// Если за время запроса был запущен более новый Refresh, ответ отбрасывается
// (Result.Stale) и состояние не меняется.
func (c *Controller) Refresh(ctx context.Context) Result {
	c.mu.Lock()
	c.refreshSeq++
	seq := c.refreshSeq
	c.state.List = ListPanel{Status: Result{Kind: KindPending, Message: MsgListLoading}}
	c.mu.Unlock()

	records, err := c.storage.ListFiles(ctx)

	var res Result
	var rows []Row
	if err != nil {
		res = Result{Kind: KindServerError, Message: MsgListError, Err: err}
		var te *storageclient.TransportError
		if errors.As(err, &te) {
			res.Kind = KindNetworkError
			res.Err = &NetworkError{Op: "list", Err: err}
		}
		c.logger.Warn("Ошибка получения списка файлов", slog.String("error", err.Error()))
	} else {
		rows = make([]Row, 0, len(records))
		for _, rec := range records {
			rows = append(rows, Row{
				ID:          rec.ID,
				Name:        rec.Name,
				Size:        rec.Size,
				UploadedAt:  rec.UploadedAt,
				DownloadURL: c.storage.DownloadURL(rec.ID),
			})
		}
		res = Result{Kind: KindSuccess, Message: MsgListFound, Args: []any{len(rows)}}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.refreshSeq {
		res.Stale = true
		c.logger.Debug("Устаревший ответ списка файлов отброшен",
			slog.Uint64("seq", seq),
			slog.Uint64("latest", c.refreshSeq),
		)
		actionsTotal.WithLabelValues("refresh", "stale").Inc()
		return res
	}

	c.state.List = ListPanel{Status: res, Rows: rows}
	c.record("refresh", res)
	return res
}

// Health запрашивает GET /health и показывает тело ответа как есть.
func (c *Controller) Health(ctx context.Context) Result {
	c.mu.Lock()
	c.state.Health = HealthPanel{Status: Result{Kind: KindPending, Message: MsgHealthChecking}}
	c.mu.Unlock()

	body, err := c.storage.Health(ctx)

	var panel HealthPanel
	if err != nil {
		panel.Status = Result{
			Kind:    KindNetworkError,
			Message: MsgHealthError,
			Err:     &NetworkError{Op: "health", Err: err},
		}
		c.logger.Warn("Ошибка проверки здоровья Storage Service", slog.String("error", err.Error()))
	} else {
		panel.Status = Result{Kind: KindSuccess}
		panel.Output = body
	}

	c.mu.Lock()
	c.state.Health = panel
	c.mu.Unlock()
	c.record("health", panel.Status)
	return panel.Status
}

// Snapshot возвращает копию текущего состояния страницы.
func (c *Controller) Snapshot() PageState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Close останавливает таймер уведомления. Вызывается при удалении сессии.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.toastTimer != nil {
		c.toastTimer.Stop()
		c.toastTimer = nil
	}
}

// showToastLocked показывает уведомление и планирует его скрытие.
// Вызывается под c.mu.
func (c *Controller) showToastLocked(msg string) {
	if c.closed {
		return
	}
	c.toastGen++
	gen := c.toastGen
	c.state.Toast = &Toast{Message: msg, ExpiresAt: time.Now().Add(c.toastDuration)}

	if c.toastTimer != nil {
		c.toastTimer.Stop()
	}
	c.toastTimer = time.AfterFunc(c.toastDuration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// Более новое уведомление не скрываем
		if c.toastGen == gen {
			c.state.Toast = nil
		}
	})
}

func (c *Controller) record(action string, res Result) {
	actionsTotal.WithLabelValues(action, res.Kind.String()).Inc()
}
