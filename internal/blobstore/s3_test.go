package blobstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeS3 — минимальный S3 (path-style): PUT, GET, DELETE объектов.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{objects: make(map[string][]byte)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		key := strings.TrimPrefix(r.URL.Path, "/")
		switch r.Method {
		case http.MethodPut:
			data, _ := io.ReadAll(r.Body)
			f.objects[key] = data
			w.Header().Set("ETag", `"etag"`)
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			data, ok := f.objects[key]
			if !ok {
				w.Header().Set("Content-Type", "application/xml")
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
				return
			}
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			_, _ = w.Write(data)
		case http.MethodDelete:
			delete(f.objects, key)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeS3) object(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, ok
}

func (f *fakeS3) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func newTestS3Store(t *testing.T, endpoint string) *S3Store {
	t.Helper()
	s, err := NewS3Store(S3Options{
		Endpoint:       endpoint,
		Region:         "us-east-1",
		Bucket:         "files",
		AccessKey:      "test",
		SecretKey:      "test",
		ForcePathStyle: true,
	}, testLogger())
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}
	return s
}

func TestS3Store_SaveOpenDelete(t *testing.T) {
	fake, srv := newFakeS3(t)
	s := newTestS3Store(t, srv.URL)
	ctx := context.Background()

	n, err := s.Save(ctx, "k.txt", strings.NewReader("hello"), 10)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n != 5 {
		t.Errorf("записано %d байт, ожидалось 5", n)
	}
	if got, _ := fake.object("files/k.txt"); string(got) != "hello" {
		t.Errorf("в бакете %q", got)
	}

	obj, err := s.Open(ctx, "k.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(obj.Body)
	_ = obj.Body.Close()
	if string(data) != "hello" || obj.Size != 5 {
		t.Errorf("содержимое %q, размер %d", data, obj.Size)
	}

	if err := s.Delete(ctx, "k.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Open(ctx, "k.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open после Delete: %v, ожидалась ErrNotFound", err)
	}
}

func TestS3Store_TooLargeNotStored(t *testing.T) {
	fake, srv := newFakeS3(t)
	s := newTestS3Store(t, srv.URL)

	_, err := s.Save(context.Background(), "big.bin", strings.NewReader("0123456789"), 4)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("ошибка %v, ожидалась ErrTooLarge", err)
	}
	if n := fake.count(); n != 0 {
		t.Errorf("в бакете остались объекты: %d", n)
	}
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	if _, err := NewS3Store(S3Options{Region: "us-east-1"}, testLogger()); err == nil {
		t.Error("ожидалась ошибка без бакета")
	}
}
