// admin.go — JSON API администратора:
// PUT /admin/api/collections/{kind} — замена коллекции целиком,
// GET /admin/api/session — состояние сессии.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/appgallery/internal/api/errors"
	"github.com/bigkaa/appgallery/internal/catalog"
)

// maxCollectionBody — максимальный размер тела PUT коллекции (8 MiB).
const maxCollectionBody = 8 << 20

// SessionChecker — проверка сессии администратора.
type SessionChecker interface {
	IsAuthenticated(r *http.Request) bool
}

// AdminHandler — обработчик JSON API администратора.
type AdminHandler struct {
	catalog  CatalogStore
	sessions SessionChecker
	logger   *slog.Logger
}

// NewAdminHandler создаёт обработчик JSON API администратора.
func NewAdminHandler(store CatalogStore, sessions SessionChecker, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		catalog:  store,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "admin_api")),
	}
}

// replaceResponse — ответ на замену коллекции.
type replaceResponse struct {
	Kind  catalog.Kind `json:"kind"`
	Items int          `json:"items"`
}

// ReplaceCollection — PUT /admin/api/collections/{kind}.
// Тело — JSON-массив записей; коллекция заменяется целиком.
func (h *AdminHandler) ReplaceCollection(w http.ResponseWriter, r *http.Request) {
	kind, err := catalog.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		apierrors.NotFound(w, "Коллекция не найдена")
		return
	}

	var items []json.RawMessage
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCollectionBody))
	if err := dec.Decode(&items); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.WriteError(w, http.StatusRequestEntityTooLarge, apierrors.CodeValidationError, "Тело запроса слишком большое")
			return
		}
		apierrors.ValidationError(w, "Ожидается JSON-массив записей: "+err.Error())
		return
	}
	if items == nil {
		apierrors.ValidationError(w, "Ожидается JSON-массив записей")
		return
	}
	if dec.More() {
		apierrors.ValidationError(w, "Лишние данные после JSON-массива")
		return
	}

	if !h.catalog.SaveCollection(r.Context(), kind, items) {
		apierrors.StoreUnavailable(w, "Не удалось сохранить коллекцию")
		return
	}

	h.logger.Info("Коллекция заменена администратором",
		slog.String("kind", string(kind)),
		slog.Int("items", len(items)),
	)
	writeJSON(w, http.StatusOK, replaceResponse{Kind: kind, Items: len(items)})
}

// Session — GET /admin/api/session.
func (h *AdminHandler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"authenticated": h.sessions.IsAuthenticated(r),
	})
}
