package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sanahegde/resmed-file-sharing-service/internal/controller"
	"github.com/sanahegde/resmed-file-sharing-service/internal/domain/model"
	"github.com/sanahegde/resmed-file-sharing-service/internal/storageclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// nopStorage — Storage Service, который ничего не делает.
type nopStorage struct{}

func (nopStorage) Upload(context.Context, *model.SelectedFile) (*storageclient.UploadResponse, error) {
	return &storageclient.UploadResponse{StatusCode: http.StatusOK}, nil
}
func (nopStorage) ListFiles(context.Context) ([]model.FileRecord, error) { return nil, nil }
func (nopStorage) Health(context.Context) (string, error)                { return "ok", nil }
func (nopStorage) DownloadURL(id string) string                         { return "/files/" + id }

func testFactory() (*controller.Controller, error) {
	return controller.New(controller.Options{Storage: nopStorage{}, Logger: testLogger()})
}

func TestResolve_CreatesSessionAndCookie(t *testing.T) {
	store := NewStore(10, time.Minute, testFactory, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	ctl, err := store.Resolve(rec, req)
	if err != nil {
		t.Fatalf("Resolve() вернул ошибку: %v", err)
	}
	if ctl == nil {
		t.Fatal("Controller = nil")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName {
		t.Fatalf("cookies = %+v, ожидалась cookie %s", cookies, CookieName)
	}
	if !cookies[0].HttpOnly {
		t.Error("cookie сессии должна быть HttpOnly")
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, ожидалась 1", store.Len())
	}

	// Повторный запрос с cookie возвращает тот же Controller
	req2 := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req2.AddCookie(cookies[0])
	rec2 := httptest.NewRecorder()
	ctl2, err := store.Resolve(rec2, req2)
	if err != nil {
		t.Fatalf("Resolve() вернул ошибку: %v", err)
	}
	if ctl2 != ctl {
		t.Error("ожидался тот же Controller для той же сессии")
	}
	if len(rec2.Result().Cookies()) != 0 {
		t.Error("для существующей сессии cookie не переустанавливается")
	}
}

func TestResolve_SessionsAreIsolated(t *testing.T) {
	store := NewStore(10, time.Minute, testFactory, testLogger())

	a, _ := store.Resolve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	b, _ := store.Resolve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if a == b {
		t.Fatal("разные браузеры должны получать разные Controller")
	}

	a.Health(context.Background())
	if b.Snapshot().Health.Output != "" {
		t.Error("состояние одной сессии не должно влиять на другую")
	}
}

func TestResolve_InvalidCookieCreatesNewSession(t *testing.T) {
	store := NewStore(10, time.Minute, testFactory, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-uuid"})
	rec := httptest.NewRecorder()
	if _, err := store.Resolve(rec, req); err != nil {
		t.Fatalf("Resolve() вернул ошибку: %v", err)
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Error("ожидалась новая cookie сессии")
	}
}

func TestResolve_ConcurrentStaleCookieSharesOneSession(t *testing.T) {
	store := NewStore(10, time.Minute, testFactory, testLogger())
	stale := uuid.NewString()

	const n = 8
	ctls := make([]*controller.Controller, n)
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/ui/refresh", http.NoBody)
			req.AddCookie(&http.Cookie{Name: CookieName, Value: stale})
			rec := httptest.NewRecorder()
			ctl, err := store.Resolve(rec, req)
			if err != nil {
				t.Errorf("Resolve() вернул ошибку: %v", err)
				return
			}
			ctls[i] = ctl
			if cookies := rec.Result().Cookies(); len(cookies) == 1 {
				ids[i] = cookies[0].Value
			}
		}()
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if ctls[i] != ctls[0] {
			t.Fatalf("запрос %d получил другую сессию", i)
		}
		if ids[i] != ids[0] {
			t.Errorf("cookie запроса %d = %q, ожидалась %q", i, ids[i], ids[0])
		}
	}
	if ids[0] == "" || ids[0] == stale {
		t.Errorf("ожидалась новая cookie вместо истёкшей, получено %q", ids[0])
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, ожидалась 1 сессия", store.Len())
	}
}

func TestStore_EvictsBySize(t *testing.T) {
	store := NewStore(1, time.Minute, testFactory, testLogger())

	rec := httptest.NewRecorder()
	_, _ = store.Resolve(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	first := rec.Result().Cookies()[0].Value

	_, _ = store.Resolve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if _, ok := store.Get(first); ok {
		t.Error("самая старая сессия должна быть вытеснена")
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, ожидалась 1", store.Len())
	}
}

func TestMiddleware_PutsControllerInContext(t *testing.T) {
	store := NewStore(10, time.Minute, testFactory, testLogger())

	var got *controller.Controller
	h := store.Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = ControllerFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if got == nil {
		t.Fatal("Controller не помещён в контекст")
	}
}

func TestMiddleware_FactoryError(t *testing.T) {
	failing := func() (*controller.Controller, error) { return nil, errors.New("boom") }
	store := NewStore(10, time.Minute, failing, testLogger())

	called := false
	h := store.Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if called {
		t.Error("обработчик не должен вызываться при ошибке создания сессии")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("статус = %d, ожидался 500", rec.Code)
	}
}
