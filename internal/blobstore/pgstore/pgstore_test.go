package pgstore

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/appgallery/internal/blobstore"
	"github.com/bigkaa/appgallery/internal/config"
	"github.com/bigkaa/appgallery/internal/database"
)

// setupTestDB запускает PostgreSQL контейнер и применяет миграции.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("gallery_test"),
		postgres.WithUsername("gallery"),
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

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("GL_BLOB_BACKEND", "postgres")
	t.Setenv("GL_DB_HOST", host)
	t.Setenv("GL_DB_PORT", port.Port())
	t.Setenv("GL_DB_NAME", "gallery_test")
	t.Setenv("GL_DB_USER", "gallery")
	t.Setenv("GL_DB_PASSWORD", "test-password")

	cfg, err := config.LoadForMigration()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestStore_PutGetOverwrite(t *testing.T) {
	pool := setupTestDB(t)
	s := New(pool)
	ctx := context.Background()

	if _, err := s.Get(ctx, "apps.json"); !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("ожидалась ErrNotFound, получено %v", err)
	}

	if err := s.Put(ctx, "apps.json", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "apps.json", []byte(`[{"id":2}]`)); err != nil {
		t.Fatalf("повторный Put: %v", err)
	}

	got, err := s.Get(ctx, "apps.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[{"id":2}]` {
		t.Errorf("Get = %s, ожидается перезаписанное значение", got)
	}

	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestStore_InvalidKey(t *testing.T) {
	// Проверка ключа выполняется до обращения к БД
	s := New(nil)
	if err := s.Put(context.Background(), "../apps.json", []byte(`[]`)); !errors.Is(err, blobstore.ErrInvalidKey) {
		t.Errorf("ожидалась ErrInvalidKey, получено %v", err)
	}
	if _, err := s.Get(context.Background(), ""); !errors.Is(err, blobstore.ErrInvalidKey) {
		t.Errorf("ожидалась ErrInvalidKey, получено %v", err)
	}
}
