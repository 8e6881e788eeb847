// language.go — обработчики переключения языка UI.
package handlers

import (
	"net/http"
	"net/url"

	"github.com/bigkaa/appgallery/internal/ui/i18n"
)

// HandleToggleLanguage обрабатывает POST /toggle-language.
// Переключает язык на следующий в порядке реестра (с переходом на первый
// после последнего) и перенаправляет обратно. Сохранённое значение, которого
// нет в реестре, переключается на первый язык.
func HandleToggleLanguage(w http.ResponseWriter, r *http.Request) {
	current := i18n.LangFromContext(r.Context())
	if c, err := r.Cookie(i18n.LangCookieName); err == nil {
		current = c.Value
	}

	i18n.SetLanguageCookie(w, i18n.DefaultRegistry.Next(current))
	http.Redirect(w, r, backURL(r), http.StatusSeeOther)
}

// HandleSetLanguage обрабатывает POST /set-language.
// Устанавливает cookie "lang" и перенаправляет обратно.
// Параметр lang — код из реестра (из query или form); неизвестный — первый язык реестра.
func HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if lang == "" {
		lang = r.URL.Query().Get("lang")
	}

	if !i18n.DefaultRegistry.Supported(lang) {
		lang = i18n.DefaultRegistry.Codes()[0]
	}

	i18n.SetLanguageCookie(w, lang)
	http.Redirect(w, r, backURL(r), http.StatusSeeOther)
}

// backURL возвращает путь из Referer того же хоста, иначе "/".
func backURL(r *http.Request) string {
	referer := r.Header.Get("Referer")
	if referer == "" {
		return "/"
	}
	u, err := url.Parse(referer)
	if err != nil || (u.Host != "" && u.Host != r.Host) || u.Path == "" || u.Path[0] != '/' {
		return "/"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
