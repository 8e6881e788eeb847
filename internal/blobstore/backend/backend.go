// Пакет backend — выбор и инициализация blob-хранилища по конфигурации
// (GL_BLOB_BACKEND). Общий для веб-сервера и утилиты миграции каталога.
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/appgallery/internal/blobstore"
	"github.com/bigkaa/appgallery/internal/blobstore/httpstore"
	"github.com/bigkaa/appgallery/internal/blobstore/pgstore"
	"github.com/bigkaa/appgallery/internal/blobstore/sqlitestore"
	"github.com/bigkaa/appgallery/internal/config"
	"github.com/bigkaa/appgallery/internal/database"
)

// tokenSubject — subject service-токенов для blob API.
const tokenSubject = "appgallery"

// Backend — открытое blob-хранилище и связанные ресурсы.
type Backend struct {
	// Store — хранилище блобов.
	Store blobstore.Store
	// Kind — имя backend (http, postgres, sqlite).
	Kind string
	// HealthURL — readiness endpoint удалённого blob API (только http).
	HealthURL string
	// DB — *sql.DB поверх пула PostgreSQL для topologymetrics (только postgres).
	DB *sql.DB
	// DatabaseURL — URL PostgreSQL для лейблов метрик (только postgres).
	DatabaseURL string

	closers []func()
}

// Open создаёт blob-хранилище согласно cfg.BlobBackend.
// Для postgres применяет миграции и открывает пул подключений.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	b := &Backend{Kind: cfg.BlobBackend}

	switch cfg.BlobBackend {
	case config.BlobBackendHTTP:
		var tp httpstore.TokenProvider
		if cfg.BlobTokenSecret != "" {
			tp = httpstore.NewTokenSigner([]byte(cfg.BlobTokenSecret), tokenSubject, cfg.BlobTokenTTL)
		} else {
			logger.Warn("GL_BLOB_TOKEN_SECRET не задан, запросы к blob API без авторизации")
		}

		client, err := httpstore.New(httpstore.Options{
			BaseURL:       cfg.BlobURL,
			CACertPath:    cfg.BlobCACertPath,
			Timeout:       cfg.BlobTimeout,
			TokenProvider: tp,
		}, logger)
		if err != nil {
			return nil, err
		}
		b.Store = client
		b.HealthURL = client.HealthURL()
		logger.Info("Blob-хранилище: HTTP API", slog.String("url", cfg.BlobURL))

	case config.BlobBackendPostgres:
		logger.Info("Применение миграций БД...")
		if err := database.Migrate(cfg, logger); err != nil {
			return nil, err
		}

		pool, err := database.Connect(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		b.addCloser(pool.Close)

		// Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
		db := stdlib.OpenDBFromPool(pool)
		b.addCloser(func() { _ = db.Close() })

		b.Store = pgstore.New(pool)
		b.DB = db
		b.DatabaseURL = cfg.DatabaseURL()

	case config.BlobBackendSQLite:
		store, err := sqlitestore.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		b.addCloser(func() { _ = store.Close() })
		b.Store = store

	default:
		return nil, fmt.Errorf("неизвестный blob backend %q", cfg.BlobBackend)
	}

	return b, nil
}

// addCloser регистрирует освобождение ресурса.
func (b *Backend) addCloser(fn func()) {
	b.closers = append(b.closers, fn)
}

// Close освобождает ресурсы в обратном порядке.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}
