// middleware.go — хранилище языковой предпочтительности пользователя.
// Выбор языка сохраняется в cookie "lang" и восстанавливается на каждом запросе.
// Приоритет: cookie "lang" → заголовок Accept-Language → язык по умолчанию.
package i18n

import (
	"net/http"
	"time"
)

// LangCookieName — имя cookie для хранения выбранного языка.
const LangCookieName = "lang"

// langCookieMaxAge — срок хранения выбора языка (1 год).
const langCookieMaxAge = 365 * 24 * time.Hour

// Middleware создаёт HTTP middleware для определения языка и помещения его в контекст.
// defaultLang используется, если ни cookie, ни Accept-Language не дали результата.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	if !DefaultRegistry.Supported(defaultLang) {
		defaultLang = FallbackLang
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := detectLanguage(r, defaultLang)
			ctx := WithLang(r.Context(), lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// detectLanguage определяет язык из запроса.
func detectLanguage(r *http.Request, defaultLang string) string {
	// 1. Cookie "lang" (пользователь явно выбрал язык)
	if cookie, err := r.Cookie(LangCookieName); err == nil && DefaultRegistry.Supported(cookie.Value) {
		return cookie.Value
	}

	// 2. Accept-Language заголовок
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		return MatchLanguage(accept)
	}

	return defaultLang
}

// SetLanguageCookie сохраняет выбор языка в ответе.
func SetLanguageCookie(w http.ResponseWriter, lang string) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   int(langCookieMaxAge.Seconds()),
		HttpOnly: false, // JS может читать для UI-логики
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(langCookieMaxAge),
	})
}
