// home.go — главная страница галереи.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bigkaa/appgallery/internal/catalog"
	"github.com/bigkaa/appgallery/internal/imagepolicy"
	"github.com/bigkaa/appgallery/internal/ui/pages"
)

// Поля записи каталога в порядке приоритета.
var (
	titleFields       = []string{"name", "title", "id"}
	descriptionFields = []string{"description", "summary"}
	imageFields       = []string{"image", "icon", "thumbnail", "cover"}
	linkFields        = []string{"url", "link", "href"}
)

// HomeHandler — обработчик главной страницы.
type HomeHandler struct {
	catalog CatalogStore
	images  *imagepolicy.Policy
	logger  *slog.Logger
}

// NewHomeHandler создаёт обработчик главной страницы.
func NewHomeHandler(store CatalogStore, images *imagepolicy.Policy, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{
		catalog: store,
		images:  images,
		logger:  logger.With(slog.String("component", "ui.home")),
	}
}

// HandleHome обрабатывает GET / — списки приложений и материалов.
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	var data pages.HomeData

	apps, err := h.catalog.LoadCollection(r.Context(), catalog.KindApps)
	if err == nil {
		var contents []json.RawMessage
		contents, err = h.catalog.LoadCollection(r.Context(), catalog.KindContents)
		data.Apps = h.cards(apps)
		data.Contents = h.cards(contents)
	}
	if err != nil {
		h.logger.Error("Ошибка загрузки каталога", slog.String("error", err.Error()))
		data = pages.HomeData{LoadFailed: true}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if data.LoadFailed {
		w.WriteHeader(http.StatusBadGateway)
	}
	if err := pages.Home(data).Render(r.Context(), w); err != nil {
		h.logger.Error("Ошибка рендеринга главной страницы", slog.String("error", err.Error()))
	}
}

// cards преобразует записи каталога в карточки. Записи не-объекты пропускаются.
func (h *HomeHandler) cards(items []json.RawMessage) []pages.Card {
	cards := make([]pages.Card, 0, len(items))
	for _, raw := range items {
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			continue
		}
		cards = append(cards, pages.Card{
			Title:       firstString(fields, titleFields),
			Description: firstString(fields, descriptionFields),
			ImageURL:    h.imageSrc(firstString(fields, imageFields)),
			Link:        firstString(fields, linkFields),
		})
	}
	return cards
}

// imageSrc возвращает src изображения: локальный путь как есть,
// разрешённый удалённый URL — через прокси /_image, остальное отбрасывается.
func (h *HomeHandler) imageSrc(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return raw
	}
	if h.images == nil || !h.images.Allowed(raw) {
		return ""
	}
	return "/_image?url=" + url.QueryEscape(raw)
}

// firstString возвращает первое непустое значение из полей keys.
func firstString(fields map[string]any, keys []string) string {
	for _, k := range keys {
		switch v := fields[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprint(v)
		}
	}
	return ""
}
