package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sanahegde/resmed-file-sharing-service/internal/config"
	"github.com/sanahegde/resmed-file-sharing-service/internal/database"
	"github.com/sanahegde/resmed-file-sharing-service/internal/domain/model"
)

// setupTestPool поднимает PostgreSQL в контейнере, применяет миграции
// и возвращает пул. Без TEST_INTEGRATION тест пропускается.
func setupTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("files_test"),
		postgres.WithUsername("files"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, _ := container.Host(ctx)
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("SS_DB_HOST", host)
	t.Setenv("SS_DB_PORT", port.Port())
	t.Setenv("SS_DB_NAME", "files_test")
	t.Setenv("SS_DB_USER", "files")
	t.Setenv("SS_DB_PASSWORD", "test-password")

	cfg, err := config.LoadStorageService()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestFileRepository_CreateListGet(t *testing.T) {
	pool := setupTestPool(t)
	ctx := context.Background()
	repo := NewFileRepository(pool)

	older := &model.StoredFile{ID: uuid.NewString(), Name: "a.txt", BlobKey: "a-key.txt", Size: 3, UploadedAt: 100}
	newer := &model.StoredFile{ID: uuid.NewString(), Name: "b.bin", BlobKey: "b-key.bin", Size: 0, UploadedAt: 200}
	for _, f := range []*model.StoredFile{older, newer} {
		if err := repo.Create(ctx, f); err != nil {
			t.Fatalf("Create(%s): %v", f.Name, err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID || list[1].ID != older.ID {
		t.Errorf("порядок списка неверный: %+v", list)
	}

	got, err := repo.GetByID(ctx, older.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if *got != *older {
		t.Errorf("GetByID = %+v, ожидалось %+v", got, older)
	}

	if err := repo.Create(ctx, older); !errors.Is(err, ErrConflict) {
		t.Errorf("повторный Create: ошибка %v, ожидалась ErrConflict", err)
	}
}

func TestFileRepository_NotFoundAndEmpty(t *testing.T) {
	pool := setupTestPool(t)
	ctx := context.Background()
	repo := NewFileRepository(pool)

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("пустой список: %#v", list)
	}

	if _, err := repo.GetByID(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID: ошибка %v, ожидалась ErrNotFound", err)
	}
}
