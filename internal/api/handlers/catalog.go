// catalog.go — публичный read-only JSON API каталога:
// GET /api/public/apps, GET /api/public/contents (?limit=&offset=).
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/appgallery/internal/api/errors"
	"github.com/bigkaa/appgallery/internal/catalog"
)

// CatalogHandler — обработчик публичного API каталога.
type CatalogHandler struct {
	catalog CatalogStore
	logger  *slog.Logger
}

// NewCatalogHandler создаёт обработчик публичного API каталога.
func NewCatalogHandler(store CatalogStore, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: store,
		logger:  logger.With(slog.String("component", "catalog_api")),
	}
}

// listResponse — страница коллекции.
type listResponse struct {
	Kind   catalog.Kind `json:"kind"`
	Items  []any        `json:"items"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// ListApps — GET /api/public/apps.
func (h *CatalogHandler) ListApps(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, catalog.KindApps)
}

// ListContents — GET /api/public/contents.
func (h *CatalogHandler) ListContents(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, catalog.KindContents)
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request, kind catalog.Kind) {
	var limitParam, offsetParam *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limitParam); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр limit: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", r.URL.Query(), &offsetParam); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр offset: "+err.Error())
		return
	}
	limit, offset := paginationDefaults(limitParam, offsetParam)

	items, err := h.catalog.LoadCollection(r.Context(), kind)
	if err != nil {
		h.logger.Error("Ошибка загрузки коллекции",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		apierrors.StoreUnavailable(w, "Каталог временно недоступен")
		return
	}

	page := make([]any, 0, limit)
	for i := offset; i < len(items) && len(page) < limit; i++ {
		page = append(page, items[i])
	}

	writeJSON(w, http.StatusOK, listResponse{
		Kind:   kind,
		Items:  page,
		Total:  len(items),
		Limit:  limit,
		Offset: offset,
	})
}
