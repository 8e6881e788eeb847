// notfound.go — обработчик несуществующих маршрутов.
package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/appgallery/internal/api/errors"
	"github.com/bigkaa/appgallery/internal/ui/pages"
)

// NotFoundHandler возвращает обработчик 404: JSON для /api/*, иначе HTML-страница.
func NotFoundHandler(logger *slog.Logger) http.HandlerFunc {
	logger = logger.With(slog.String("component", "ui.notfound"))

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/admin/api/") {
			apierrors.NotFound(w, "Ресурс не найден")
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		if err := pages.NotFound().Render(r.Context(), w); err != nil {
			logger.Error("Ошибка рендеринга страницы 404", slog.String("error", err.Error()))
		}
	}
}
