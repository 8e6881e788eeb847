// Пакет catalog — коллекции каталога галереи (apps, contents) поверх
// blob-хранилища. Чтение идёт через LRU-кэш с TTL
// (hashicorp/golang-lru/v2/expirable), запись инвалидирует кэш.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/appgallery/internal/blobstore"
)

// Kind — вид коллекции каталога.
type Kind string

// Поддерживаемые коллекции.
const (
	KindApps     Kind = "apps"
	KindContents Kind = "contents"
)

// Kinds — все коллекции в порядке отображения и миграции.
var Kinds = []Kind{KindApps, KindContents}

// ErrUnknownKind — неизвестный вид коллекции.
var ErrUnknownKind = errors.New("неизвестная коллекция")

// ParseKind преобразует строку в Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindApps, KindContents:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// BlobKey возвращает ключ блоба коллекции (apps.json, contents.json).
func (k Kind) BlobKey() string {
	return string(k) + ".json"
}

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gl_catalog_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш каталога.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gl_catalog_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша каталога.",
	})
)

// Repository — коллекции каталога в blob-хранилище.
type Repository struct {
	store  blobstore.Store
	cache  *expirable.LRU[Kind, []json.RawMessage]
	logger *slog.Logger
}

// NewRepository создаёт репозиторий каталога.
// cacheSize — максимальное число коллекций в кэше, cacheTTL — время жизни записи.
func NewRepository(store blobstore.Store, cacheSize int, cacheTTL time.Duration, logger *slog.Logger) *Repository {
	return &Repository{
		store:  store,
		cache:  expirable.NewLRU[Kind, []json.RawMessage](cacheSize, nil, cacheTTL),
		logger: logger.With(slog.String("component", "catalog")),
	}
}

// SaveCollection целиком заменяет коллекцию kind массивом items.
// Ошибки логируются; возвращает true при успешной записи.
func (r *Repository) SaveCollection(ctx context.Context, kind Kind, items []json.RawMessage) bool {
	if _, err := ParseKind(string(kind)); err != nil {
		r.logger.Error("Сохранение коллекции отклонено", slog.String("error", err.Error()))
		return false
	}
	if items == nil {
		items = []json.RawMessage{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		r.logger.Error("Ошибка сериализации коллекции",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		return false
	}

	if err := r.store.Put(ctx, kind.BlobKey(), data); err != nil {
		r.logger.Error("Ошибка сохранения коллекции",
			slog.String("kind", string(kind)),
			slog.String("key", kind.BlobKey()),
			slog.String("error", err.Error()),
		)
		return false
	}

	r.cache.Remove(kind)
	r.logger.Info("Коллекция сохранена",
		slog.String("kind", string(kind)),
		slog.Int("items", len(items)),
		slog.Int("bytes", len(data)),
	)
	return true
}

// LoadCollection возвращает коллекцию kind. Отсутствующий блоб — пустая коллекция.
func (r *Repository) LoadCollection(ctx context.Context, kind Kind) ([]json.RawMessage, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}

	if items, ok := r.cache.Get(kind); ok {
		cacheHitsTotal.Inc()
		return items, nil
	}
	cacheMissesTotal.Inc()

	data, err := r.store.Get(ctx, kind.BlobKey())
	if errors.Is(err, blobstore.ErrNotFound) {
		items := []json.RawMessage{}
		r.cache.Add(kind, items)
		return items, nil
	}
	if err != nil {
		return nil, fmt.Errorf("загрузка коллекции %s: %w", kind, err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("разбор коллекции %s: %w", kind, err)
	}
	if items == nil {
		items = []json.RawMessage{}
	}

	r.cache.Add(kind, items)
	return items, nil
}

// Ping проверяет доступность blob-хранилища.
func (r *Repository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
