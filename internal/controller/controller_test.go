package controller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sanahegde/resmed-file-sharing-service/internal/domain/model"
	"github.com/sanahegde/resmed-file-sharing-service/internal/storageclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- Mock Storage Service ---

// mockStorage — StorageService с подсчётом вызовов и настраиваемыми ответами.
type mockStorage struct {
	mu sync.Mutex

	uploadCalls atomic.Int32
	listCalls   atomic.Int32
	healthCalls atomic.Int32

	uploadResp *storageclient.UploadResponse
	uploadErr  error

	listFunc func(ctx context.Context, call int32) ([]model.FileRecord, error)

	healthBody string
	healthErr  error

	uploaded []string
}

func (m *mockStorage) Upload(_ context.Context, file *model.SelectedFile) (*storageclient.UploadResponse, error) {
	m.uploadCalls.Add(1)
	data, _ := io.ReadAll(file.Content)
	m.mu.Lock()
	m.uploaded = append(m.uploaded, file.Name+":"+string(data))
	m.mu.Unlock()
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	return m.uploadResp, nil
}

func (m *mockStorage) ListFiles(ctx context.Context) ([]model.FileRecord, error) {
	call := m.listCalls.Add(1)
	if m.listFunc != nil {
		return m.listFunc(ctx, call)
	}
	return nil, nil
}

func (m *mockStorage) Health(_ context.Context) (string, error) {
	m.healthCalls.Add(1)
	return m.healthBody, m.healthErr
}

func (m *mockStorage) DownloadURL(id string) string {
	return "http://storage.test/files/" + id
}

func newTestController(t *testing.T, storage StorageService) *Controller {
	t.Helper()
	c, err := New(Options{
		Storage:       storage,
		ToastDuration: time.Hour,
		Logger:        testLogger(),
	})
	if err != nil {
		t.Fatalf("New() вернул ошибку: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func selected(name, content string) *model.SelectedFile {
	return &model.SelectedFile{
		Name:    name,
		Size:    int64(len(content)),
		Content: strings.NewReader(content),
	}
}

// --- Upload ---

func TestUpload_NoFileSelected(t *testing.T) {
	storage := &mockStorage{}
	c := newTestController(t, storage)

	res := c.Upload(context.Background(), nil)

	if res.Kind != KindValidationError || res.Message != MsgChooseFile {
		t.Errorf("результат = %+v, ожидалась ошибка валидации %s", res, MsgChooseFile)
	}
	var ve *ValidationError
	if !errors.As(res.Err, &ve) || ve.Reason != ReasonNoFileSelected {
		t.Errorf("Err = %v, ожидалась ValidationError(%q)", res.Err, ReasonNoFileSelected)
	}
	if storage.uploadCalls.Load() != 0 {
		t.Error("запрос upload не должен отправляться")
	}
}

func TestUpload_TooLarge_NoRequest(t *testing.T) {
	storage := &mockStorage{}
	c := newTestController(t, storage)

	file := &model.SelectedFile{
		Name:    "big.iso",
		Size:    model.DefaultMaxUploadBytes + 1,
		Content: strings.NewReader("x"),
	}
	res := c.Upload(context.Background(), file)

	var ve *ValidationError
	if !errors.As(res.Err, &ve) || ve.Reason != ReasonFileTooLarge {
		t.Fatalf("Err = %v, ожидалась ValidationError(%q)", res.Err, ReasonFileTooLarge)
	}
	if ve.Limit != model.DefaultMaxUploadBytes {
		t.Errorf("Limit = %d", ve.Limit)
	}
	if res.Args[0] != "20 MiB" {
		t.Errorf("Args = %v, ожидалось 20 MiB", res.Args)
	}
	if storage.uploadCalls.Load() != 0 || storage.listCalls.Load() != 0 {
		t.Error("при превышении размера не должно быть запросов")
	}
	if got := c.Snapshot().Upload.Status.Kind; got != KindValidationError {
		t.Errorf("статус загрузки = %v", got)
	}
}

func TestUpload_TooLarge_WithoutContent(t *testing.T) {
	storage := &mockStorage{}
	c := newTestController(t, storage)

	// Страница прислала только имя и размер
	res := c.Upload(context.Background(), &model.SelectedFile{Name: "big.iso", Size: 30 << 20})
	if res.Message != MsgFileTooLarge {
		t.Errorf("Message = %q, ожидалось %q", res.Message, MsgFileTooLarge)
	}
	if storage.uploadCalls.Load() != 0 {
		t.Error("запрос upload не должен отправляться")
	}
}

func TestUpload_ExactLimitIsAllowed(t *testing.T) {
	storage := &mockStorage{uploadResp: &storageclient.UploadResponse{StatusCode: 200, Body: "{}"}}
	c, err := New(Options{Storage: storage, MaxUploadBytes: 4, Logger: testLogger()})
	if err != nil {
		t.Fatalf("New() вернул ошибку: %v", err)
	}
	defer c.Close()

	res := c.Upload(context.Background(), selected("a.txt", "abcd"))
	if res.Kind != KindSuccess {
		t.Fatalf("Kind = %v, ожидался success для файла ровно на лимите", res.Kind)
	}
	if storage.uploadCalls.Load() != 1 {
		t.Errorf("uploadCalls = %d, ожидался 1", storage.uploadCalls.Load())
	}
}

func TestUpload_Success_RefreshesExactlyOnce(t *testing.T) {
	storage := &mockStorage{
		uploadResp: &storageclient.UploadResponse{
			StatusCode: http.StatusOK,
			Body:       `{"id":"f1","name":"a.txt","size":5,"uploaded_at":100}`,
		},
		listFunc: func(context.Context, int32) ([]model.FileRecord, error) {
			return []model.FileRecord{{ID: "f1", Name: "a.txt", Size: 5, UploadedAt: 100}}, nil
		},
	}
	c := newTestController(t, storage)

	res := c.Upload(context.Background(), selected("a.txt", "hello"))

	if res.Kind != KindSuccess || res.Message != MsgUploadOK {
		t.Fatalf("результат = %+v, ожидался успех", res)
	}
	if storage.uploadCalls.Load() != 1 {
		t.Errorf("uploadCalls = %d, ожидался 1", storage.uploadCalls.Load())
	}
	if storage.listCalls.Load() != 1 {
		t.Errorf("listCalls = %d, ожидался ровно 1 автоматический refresh", storage.listCalls.Load())
	}
	if storage.uploaded[0] != "a.txt:hello" {
		t.Errorf("отправлено %q", storage.uploaded[0])
	}

	state := c.Snapshot()
	if state.Upload.Output != storage.uploadResp.Body {
		t.Errorf("Output = %q, ожидалось тело ответа", state.Upload.Output)
	}
	if state.Toast == nil || state.Toast.Message != MsgToastUploaded {
		t.Errorf("Toast = %+v, ожидалось уведомление об успехе", state.Toast)
	}
	if len(state.List.Rows) != 1 || state.List.Rows[0].DownloadURL != "http://storage.test/files/f1" {
		t.Errorf("Rows = %+v", state.List.Rows)
	}
}

func TestUpload_ServerError_NoRefresh(t *testing.T) {
	storage := &mockStorage{
		uploadResp: &storageclient.UploadResponse{
			StatusCode: http.StatusBadRequest,
			Body:       `{"error":{"code":"VALIDATION_ERROR","message":"file too large (limit 20 MiB)"}}`,
		},
	}
	c := newTestController(t, storage)

	res := c.Upload(context.Background(), selected("a.txt", "hello"))

	if res.Kind != KindServerError || res.Message != MsgUploadFailed {
		t.Fatalf("результат = %+v", res)
	}
	var uf *UploadFailedError
	if !errors.As(res.Err, &uf) || uf.StatusCode != http.StatusBadRequest {
		t.Errorf("Err = %v, ожидалась UploadFailedError(400)", res.Err)
	}
	if res.Args[0] != http.StatusBadRequest {
		t.Errorf("Args = %v", res.Args)
	}
	if storage.listCalls.Load() != 0 {
		t.Error("после неуспешной загрузки refresh не выполняется")
	}

	state := c.Snapshot()
	if state.Upload.Output != storage.uploadResp.Body {
		t.Errorf("Output = %q, ожидалось сырое тело ответа", state.Upload.Output)
	}
	if state.Toast != nil {
		t.Error("уведомление не должно показываться при ошибке")
	}
}

func TestUpload_NetworkError_ClearsOutput(t *testing.T) {
	storage := &mockStorage{
		uploadResp: &storageclient.UploadResponse{StatusCode: 500, Body: "previous"},
	}
	c := newTestController(t, storage)

	// Первая попытка оставляет тело ответа в Output
	c.Upload(context.Background(), selected("a.txt", "x"))

	storage.uploadErr = &storageclient.TransportError{Op: "Upload", URL: "http://x/upload", Err: errors.New("connection refused")}
	res := c.Upload(context.Background(), selected("a.txt", "x"))

	if res.Kind != KindNetworkError || res.Message != MsgUploadNetworkErr {
		t.Fatalf("результат = %+v", res)
	}
	var ne *NetworkError
	if !errors.As(res.Err, &ne) {
		t.Errorf("Err = %v, ожидалась NetworkError", res.Err)
	}
	if out := c.Snapshot().Upload.Output; out != "" {
		t.Errorf("Output = %q, ожидалась очистка", out)
	}
	if storage.listCalls.Load() != 0 {
		t.Error("после сбоя транспорта refresh не выполняется")
	}
}

func TestUpload_ToastDisappears(t *testing.T) {
	storage := &mockStorage{uploadResp: &storageclient.UploadResponse{StatusCode: 201, Body: "{}"}}
	c, err := New(Options{Storage: storage, ToastDuration: 20 * time.Millisecond, Logger: testLogger()})
	if err != nil {
		t.Fatalf("New() вернул ошибку: %v", err)
	}
	defer c.Close()

	c.Upload(context.Background(), selected("a.txt", "x"))
	if c.Snapshot().Toast == nil {
		t.Fatal("уведомление должно быть показано сразу после загрузки")
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.Snapshot().Toast != nil {
		if time.Now().After(deadline) {
			t.Fatal("уведомление не исчезло")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// --- Refresh ---

func TestRefresh_EmptyList(t *testing.T) {
	storage := &mockStorage{
		listFunc: func(context.Context, int32) ([]model.FileRecord, error) {
			return []model.FileRecord{}, nil
		},
	}
	c := newTestController(t, storage)

	res := c.Refresh(context.Background())

	if res.Kind != KindSuccess || res.Message != MsgListFound {
		t.Fatalf("результат = %+v", res)
	}
	if res.Args[0] != 0 {
		t.Errorf("Args = %v, ожидалось 0", res.Args)
	}
	if rows := c.Snapshot().List.Rows; len(rows) != 0 {
		t.Errorf("Rows = %v, ожидалось 0 строк", rows)
	}
}

func TestRefresh_TransportFailure(t *testing.T) {
	storage := &mockStorage{
		listFunc: func(context.Context, int32) ([]model.FileRecord, error) {
			return nil, &storageclient.TransportError{Op: "ListFiles", Err: errors.New("dial tcp: refused")}
		},
	}
	c := newTestController(t, storage)

	res := c.Refresh(context.Background())

	if res.Kind != KindNetworkError || res.Message != MsgListError {
		t.Fatalf("результат = %+v", res)
	}
	if rows := c.Snapshot().List.Rows; len(rows) != 0 {
		t.Errorf("Rows = %v, ожидалось 0 строк", rows)
	}
}

func TestRefresh_ServerFailure(t *testing.T) {
	storage := &mockStorage{
		listFunc: func(context.Context, int32) ([]model.FileRecord, error) {
			return nil, &storageclient.StatusError{Op: "ListFiles", StatusCode: 500}
		},
	}
	c := newTestController(t, storage)

	res := c.Refresh(context.Background())
	if res.Kind != KindServerError || res.Message != MsgListError {
		t.Fatalf("результат = %+v", res)
	}
}

func TestRefresh_Idempotent(t *testing.T) {
	records := []model.FileRecord{
		{ID: "b", Name: "b.txt", Size: 2, UploadedAt: 20},
		{ID: "a", Name: "a.txt", Size: 1, UploadedAt: 10},
	}
	storage := &mockStorage{
		listFunc: func(context.Context, int32) ([]model.FileRecord, error) {
			return records, nil
		},
	}
	c := newTestController(t, storage)

	c.Refresh(context.Background())
	first := c.Snapshot().List
	c.Refresh(context.Background())
	second := c.Snapshot().List

	if len(first.Rows) != 2 || len(second.Rows) != 2 {
		t.Fatalf("строк: %d и %d, ожидалось 2", len(first.Rows), len(second.Rows))
	}
	for i := range first.Rows {
		if first.Rows[i] != second.Rows[i] {
			t.Errorf("строка %d отличается: %+v != %+v", i, first.Rows[i], second.Rows[i])
		}
	}
	if first.Rows[0].ID != "b" {
		t.Errorf("порядок сервиса нарушен: %+v", first.Rows)
	}
}

func TestRefresh_StaleResponseDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	storage := &mockStorage{
		listFunc: func(_ context.Context, call int32) ([]model.FileRecord, error) {
			if call == 1 {
				close(entered)
				<-release
				return []model.FileRecord{{ID: "old"}}, nil
			}
			return []model.FileRecord{{ID: "new"}}, nil
		},
	}
	c := newTestController(t, storage)

	staleCh := make(chan Result, 1)
	go func() {
		staleCh <- c.Refresh(context.Background())
	}()

	<-entered
	fresh := c.Refresh(context.Background())
	close(release)
	stale := <-staleCh

	if fresh.Stale {
		t.Error("новый ответ не должен считаться устаревшим")
	}
	if !stale.Stale {
		t.Error("первый ответ должен быть отброшен как устаревший")
	}

	rows := c.Snapshot().List.Rows
	if len(rows) != 1 || rows[0].ID != "new" {
		t.Errorf("Rows = %+v, ожидался результат последнего refresh", rows)
	}
}

// --- Health ---

func TestHealth_ShowsRawBody(t *testing.T) {
	storage := &mockStorage{healthBody: "ok"}
	c := newTestController(t, storage)

	res := c.Health(context.Background())

	if res.Kind != KindSuccess {
		t.Fatalf("Kind = %v", res.Kind)
	}
	if out := c.Snapshot().Health.Output; out != "ok" {
		t.Errorf("Output = %q, ожидалось ok", out)
	}
}

func TestHealth_TransportError(t *testing.T) {
	storage := &mockStorage{healthErr: errors.New("connection refused")}
	c := newTestController(t, storage)

	res := c.Health(context.Background())
	if res.Kind != KindNetworkError || res.Message != MsgHealthError {
		t.Fatalf("результат = %+v", res)
	}
	if storage.listCalls.Load() != 0 || storage.uploadCalls.Load() != 0 {
		t.Error("health не должен вызывать другие операции")
	}
}

// --- Интеграция с реальным клиентом ---

func TestController_WithStorageClient(t *testing.T) {
	var uploads, lists atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/upload":
			uploads.Add(1)
			_, _ = io.Copy(io.Discard, r.Body)
			_, _ = w.Write([]byte(`{"id":"x1","name":"n.txt","size":3,"uploaded_at":0}`))
		case r.Method == http.MethodGet && r.URL.Path == "/files":
			lists.Add(1)
			_, _ = w.Write([]byte(`[{"id":"x1","name":"n.txt","size":1000000,"uploaded_at":0}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := storageclient.New(srv.URL, "", "", 0, testLogger())
	if err != nil {
		t.Fatalf("storageclient.New: %v", err)
	}
	c := newTestController(t, client)

	res := c.Upload(context.Background(), selected("n.txt", "abc"))
	if res.Kind != KindSuccess {
		t.Fatalf("результат = %+v", res)
	}
	if uploads.Load() != 1 || lists.Load() != 1 {
		t.Errorf("uploads=%d lists=%d, ожидалось 1 и 1", uploads.Load(), lists.Load())
	}

	rows := c.Snapshot().List.Rows
	if len(rows) != 1 || rows[0].Size != 1000000 || rows[0].UploadedAt != 0 {
		t.Fatalf("Rows = %+v", rows)
	}
	if rows[0].DownloadURL != srv.URL+"/files/x1" {
		t.Errorf("DownloadURL = %q", rows[0].DownloadURL)
	}
}

func TestNew_RequiresStorage(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("ожидалась ошибка без клиента Storage Service")
	}
}
