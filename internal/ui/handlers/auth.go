// Пакет handlers — HTTP-обработчики HTML-интерфейса галереи.
// auth.go — вход и выход администратора по паролю.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/appgallery/internal/ui/auth"
	"github.com/bigkaa/appgallery/internal/ui/pages"
)

// maxLoginForm — максимальный размер формы входа.
const maxLoginForm = 4 << 10

// AuthHandler — обработчики входа и выхода администратора.
type AuthHandler struct {
	store  *auth.Store
	logger *slog.Logger
}

// NewAuthHandler создаёт новый AuthHandler.
func NewAuthHandler(store *auth.Store, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		store:  store,
		logger: logger.With(slog.String("component", "ui_auth")),
	}
}

// HandleLoginPage — GET /admin/login.
// Уже вошедший администратор перенаправляется на /admin/.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if h.store.IsAuthenticated(r) {
		http.Redirect(w, r, "/admin/", http.StatusFound)
		return
	}
	h.renderLogin(w, r, http.StatusOK, false)
}

// HandleLogin — POST /admin/login.
// При верном пароле создаёт сессию и перенаправляет на /admin/,
// иначе повторно показывает форму (401), не изменяя текущую сессию.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginForm)
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, true)
		return
	}

	if !h.store.Login(w, r, r.PostFormValue("password")) {
		h.renderLogin(w, r, http.StatusUnauthorized, true)
		return
	}

	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}

// HandleLogout — POST /admin/logout. Удаляет сессию (идемпотентно).
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.store.Logout(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, failed bool) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := pages.Login(pages.LoginData{Failed: failed}).Render(r.Context(), w); err != nil {
		h.logger.Error("Ошибка рендеринга страницы входа", slog.String("error", err.Error()))
	}
}
