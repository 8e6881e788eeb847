// dashboard.go — страница управления каталогом (/admin/).
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/appgallery/internal/catalog"
	"github.com/bigkaa/appgallery/internal/ui/pages"
)

// maxCollectionForm — максимальный размер формы с коллекцией (8 MiB).
const maxCollectionForm = 8 << 20

// CatalogStore — коллекции каталога (реализуется catalog.Repository).
type CatalogStore interface {
	LoadCollection(ctx context.Context, kind catalog.Kind) ([]json.RawMessage, error)
	SaveCollection(ctx context.Context, kind catalog.Kind, items []json.RawMessage) bool
}

// HealthProvider — состояние зависимостей (реализуется service.DephealthService).
type HealthProvider interface {
	Health() map[string]bool
}

// flashMessages — допустимые значения query-параметров результата.
var flashMessages = map[string]string{
	"saved":        "admin.saved",
	"save_failed":  "admin.save_failed",
	"invalid_json": "admin.invalid_json",
}

// DashboardHandler — обработчик страницы управления каталогом.
type DashboardHandler struct {
	catalog CatalogStore
	health  HealthProvider
	logger  *slog.Logger
}

// NewDashboardHandler создаёт новый DashboardHandler.
// health может быть nil — мониторинг зависимостей отключён.
func NewDashboardHandler(store CatalogStore, health HealthProvider, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		catalog: store,
		health:  health,
		logger:  logger.With(slog.String("component", "ui.dashboard")),
	}
}

// HandleDashboard обрабатывает GET /admin/ — отображает коллекции каталога.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	data := pages.DashboardData{}

	if status := r.URL.Query().Get("status"); status != "" {
		if key, ok := flashMessages[status]; ok {
			data.Flash = key
			data.FlashError = status != "saved"
		}
	}

	for _, kind := range catalog.Kinds {
		items, err := h.catalog.LoadCollection(r.Context(), kind)
		if err != nil {
			h.logger.Error("Ошибка загрузки коллекции",
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()),
			)
			items = nil
			data.Flash = "home.load_failed"
			data.FlashError = true
		}
		data.Collections = append(data.Collections, pages.CollectionView{
			Kind:  string(kind),
			Count: len(items),
			JSON:  indentCollection(items),
		})
	}

	if h.health != nil {
		data.Dependencies = h.health.Health()
		if data.Dependencies == nil {
			data.Dependencies = map[string]bool{}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.Dashboard(data).Render(r.Context(), w); err != nil {
		h.logger.Error("Ошибка рендеринга Dashboard", slog.String("error", err.Error()))
		http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
	}
}

// HandleSaveCollection обрабатывает POST /admin/collections/{kind}.
// Поле формы items — JSON-массив, заменяющий коллекцию целиком.
func (h *DashboardHandler) HandleSaveCollection(w http.ResponseWriter, r *http.Request) {
	kind, err := catalog.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCollectionForm)
	if err := r.ParseForm(); err != nil {
		redirectStatus(w, r, "invalid_json")
		return
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(r.PostFormValue("items")), &items); err != nil || items == nil {
		redirectStatus(w, r, "invalid_json")
		return
	}

	if !h.catalog.SaveCollection(r.Context(), kind, items) {
		redirectStatus(w, r, "save_failed")
		return
	}
	redirectStatus(w, r, "saved")
}

func redirectStatus(w http.ResponseWriter, r *http.Request, status string) {
	http.Redirect(w, r, "/admin/?status="+status, http.StatusSeeOther)
}

// indentCollection форматирует коллекцию для редактирования.
func indentCollection(items []json.RawMessage) string {
	if len(items) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
