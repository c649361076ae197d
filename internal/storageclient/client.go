// Пакет storageclient — HTTP-клиент Storage Service.
// Поддерживает streaming upload (multipart через io.Pipe), получение списка
// файлов, health check и построение ссылок скачивания.
// Повторы запросов не выполняются: каждая операция — ровно один HTTP-запрос.
package storageclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sanahegde/resmed-file-sharing-service/internal/domain/model"
)

// Имя поля multipart-формы, которое ожидает POST /upload.
const uploadFieldName = "file"

// Максимальный объём тела ответа, который читается для отображения.
const maxResponseBody = 1 << 20

// ErrInvalidResponse — ответ Storage Service не удалось разобрать.
var ErrInvalidResponse = errors.New("некорректный ответ Storage Service")

// TransportError — запрос не дошёл до Storage Service или ответ не был прочитан
// (DNS, отказ соединения, обрыв, отмена контекста).
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("запрос %s к %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError — Storage Service ответил статусом вне диапазона 2xx.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Storage Service вернул статус %d на %s: %s", e.StatusCode, e.Op, e.Body)
}

// UploadResponse — ответ на POST /upload. Любой полученный HTTP-ответ
// (включая 4xx/5xx) возвращается как UploadResponse без ошибки.
type UploadResponse struct {
	StatusCode int
	// Тело ответа как есть (JSON записи файла или описание ошибки)
	Body string
}

// OK сообщает, что загрузка завершилась статусом 2xx.
func (r *UploadResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client — HTTP-клиент Storage Service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	publicURL  string
	logger     *slog.Logger
}

// New создаёт клиент Storage Service.
// baseURL — адрес для запросов Web Client (upload, list, health).
// publicURL — адрес для ссылок скачивания в браузере (пусто — baseURL).
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
// timeout — таймаут HTTP-запросов (0 — без таймаута).
func New(baseURL, publicURL, caCertPath string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("пустой адрес Storage Service")
	}
	if publicURL == "" {
		publicURL = baseURL
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 10,
	}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата Storage Service: %w", err)
		}
		transport.TLSClientConfig = tlsConfig
		logger.Info("CA-сертификат Storage Service добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		baseURL:   normalizeURL(baseURL),
		publicURL: normalizeURL(publicURL),
		logger:    logger.With(slog.String("component", "storage_client")),
	}, nil
}

// Upload отправляет файл одним multipart-запросом POST {base}/upload
// с единственным полем "file". Содержимое передаётся потоком без буферизации.
//
// Ошибка возвращается только при сбое транспорта (*TransportError).
// Ответы 4xx/5xx возвращаются как UploadResponse — решение принимает вызывающий код.
func (c *Client) Upload(ctx context.Context, file *model.SelectedFile) (*UploadResponse, error) {
	const op = "Upload"
	start := time.Now()
	reqURL := c.baseURL + "/upload"

	if file == nil || file.Content == nil {
		return nil, fmt.Errorf("%s: нет содержимого файла", op)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("создание запроса %s: %w", op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	// Запись multipart-тела в отдельной горутине: транспорт читает pr,
	// при обрыве запроса запись в pw завершается ошибкой.
	go func() {
		part, err := mw.CreateFormFile(uploadFieldName, file.Name)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL из конфигурации
	if err != nil {
		_ = pr.CloseWithError(err)
		observe(op, outcomeTransportError, start)
		return nil, &TransportError{Op: op, URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body)
	if err != nil {
		observe(op, outcomeTransportError, start)
		return nil, &TransportError{Op: op, URL: reqURL, Err: err}
	}

	result := &UploadResponse{StatusCode: resp.StatusCode, Body: body}
	if result.OK() {
		observe(op, outcomeOK, start)
	} else {
		observe(op, outcomeHTTPError, start)
	}

	c.logger.Debug("Upload выполнен",
		slog.String("name", file.Name),
		slog.Int64("size", file.Size),
		slog.Int("status", resp.StatusCode),
	)

	return result, nil
}

// ListFiles запрашивает список файлов GET {base}/files.
// Порядок записей сохраняется таким, каким его вернул сервис.
// Ошибки: *TransportError, *StatusError, ErrInvalidResponse (обёрнутая).
func (c *Client) ListFiles(ctx context.Context) ([]model.FileRecord, error) {
	const op = "ListFiles"
	start := time.Now()
	reqURL := c.baseURL + "/files"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("создание запроса %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL из конфигурации
	if err != nil {
		observe(op, outcomeTransportError, start)
		return nil, &TransportError{Op: op, URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := readBody(resp.Body)
		observe(op, outcomeHTTPError, start)
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: body}
	}

	var records []model.FileRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		observe(op, outcomeDecodeError, start)
		return nil, fmt.Errorf("%w: декодирование ответа %s: %v", ErrInvalidResponse, op, err)
	}

	observe(op, outcomeOK, start)
	return records, nil
}

// Health выполняет GET {base}/health и возвращает тело ответа как есть,
// независимо от статуса. Ошибка — только при сбое транспорта.
func (c *Client) Health(ctx context.Context) (string, error) {
	const op = "Health"
	start := time.Now()
	reqURL := c.baseURL + "/health"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("создание запроса %s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL из конфигурации
	if err != nil {
		observe(op, outcomeTransportError, start)
		return "", &TransportError{Op: op, URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body)
	if err != nil {
		observe(op, outcomeTransportError, start)
		return "", &TransportError{Op: op, URL: reqURL, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		observe(op, outcomeOK, start)
	} else {
		observe(op, outcomeHTTPError, start)
	}
	return body, nil
}

// DownloadURL возвращает ссылку скачивания файла: {public}/files/{id}.
// Сам Web Client по этой ссылке не обращается.
func (c *Client) DownloadURL(id string) string {
	return c.publicURL + "/files/" + url.PathEscape(id)
}

// BaseURL возвращает адрес Storage Service для запросов.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// readBody читает тело ответа, ограничивая объём maxResponseBody.
func readBody(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("чтение тела ответа: %w", err)
	}
	return string(data), nil
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA-сертификатом.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("файл %s не содержит PEM-сертификатов", caCertPath)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// normalizeURL убирает trailing slash из URL.
func normalizeURL(u string) string {
	return strings.TrimRight(u, "/")
}
