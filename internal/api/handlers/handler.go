// handler.go — общие типы и вспомогательные функции JSON API галереи.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/bigkaa/appgallery/internal/catalog"
)

// CatalogStore — коллекции каталога (реализуется catalog.Repository).
type CatalogStore interface {
	LoadCollection(ctx context.Context, kind catalog.Kind) ([]json.RawMessage, error)
	SaveCollection(ctx context.Context, kind catalog.Kind, items []json.RawMessage) bool
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// paginationDefaults нормализует параметры пагинации.
// Возвращает корректные limit и offset.
func paginationDefaults(limit *int, offset *int) (int, int) {
	l := 100
	o := 0

	if limit != nil {
		l = *limit
		if l < 1 {
			l = 1
		}
		if l > 1000 {
			l = 1000
		}
	}

	if offset != nil {
		o = *offset
		if o < 0 {
			o = 0
		}
	}

	return l, o
}
