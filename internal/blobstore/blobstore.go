// Пакет blobstore — абстракция хранилища JSON-блобов каталога.
// Реализации: httpstore (удалённый blob API), pgstore (PostgreSQL),
// sqlitestore (локальный файл SQLite для разработки).
package blobstore

import (
	"context"
	"errors"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrNotFound — блоб с указанным ключом отсутствует.
var ErrNotFound = errors.New("блоб не найден")

// ErrInvalidKey — ключ не соответствует допустимому формату.
var ErrInvalidKey = errors.New("недопустимый ключ блоба")

// keyPattern — допустимые ключи: буквы, цифры, точка, дефис, подчёркивание.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Store — хранилище блобов.
type Store interface {
	// Get возвращает содержимое блоба. Если блоба нет — ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put создаёт или перезаписывает блоб.
	Put(ctx context.Context, key string, data []byte) error
	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
}

// ValidateKey проверяет формат ключа блоба.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return ErrInvalidKey
	}
	return nil
}

// Операции для метрик.
const (
	OpGet = "get"
	OpPut = "put"
)

var operationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gl_blob_operations_total",
		Help: "Количество операций с blob-хранилищем",
	},
	[]string{"backend", "op", "result"},
)

// Observe учитывает результат операции в метриках.
func Observe(backend, op string, err error) {
	result := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	operationsTotal.WithLabelValues(backend, op, result).Inc()
}
