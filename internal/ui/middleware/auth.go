// Пакет middleware — HTTP middleware для админ-раздела галереи.
// auth.go — проверка админ-сессии (cookie-based).
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/appgallery/internal/api/errors"
	"github.com/bigkaa/appgallery/internal/ui/auth"
)

// contextKey — тип для ключей контекста UI (избегаем коллизий с API middleware).
type contextKey string

// contextKeyAdmin — признак аутентифицированного администратора в контексте запроса.
const contextKeyAdmin contextKey = "ui_admin"

// LoginPath — страница входа администратора.
const LoginPath = "/admin/login"

// adminAPIPrefix — JSON API админ-раздела (ответ 401 вместо redirect).
const adminAPIPrefix = "/admin/api/"

// UIAuth — middleware для проверки аутентификации администратора.
type UIAuth struct {
	store  *auth.Store
	logger *slog.Logger
}

// NewUIAuth создаёт новый UIAuth middleware.
func NewUIAuth(store *auth.Store, logger *slog.Logger) *UIAuth {
	return &UIAuth{
		store:  store,
		logger: logger.With(slog.String("component", "ui_auth_middleware")),
	}
}

// Middleware возвращает HTTP middleware для проверки админ-сессии.
// Применяется к маршрутам /admin/*, кроме /admin/login.
func (ua *UIAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ua.store.IsAuthenticated(r) {
				ua.logger.Debug("Запрос к админ-разделу без сессии",
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
				)
				if strings.HasPrefix(r.URL.Path, adminAPIPrefix) {
					apierrors.Unauthorized(w, "требуется вход администратора")
					return
				}
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context())))
		})
	}
}

// WithAdmin помечает контекст как принадлежащий администратору.
func WithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKeyAdmin, true)
}

// IsAdmin сообщает, прошёл ли запрос через UIAuth middleware.
// Используется layout для показа кнопки выхода.
func IsAdmin(ctx context.Context) bool {
	ok, _ := ctx.Value(contextKeyAdmin).(bool)
	return ok
}
