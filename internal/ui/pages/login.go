package pages

import (
	"context"

	"github.com/a-h/templ"

	"github.com/bigkaa/appgallery/internal/ui/i18n"
)

// LoginData — данные страницы входа.
type LoginData struct {
	// Failed — предыдущая попытка входа не удалась.
	Failed bool
}

// Login — форма входа администратора.
func Login(data LoginData) templ.Component {
	body := component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<h1>`)
		hw.text(i18n.T(ctx, "login.title"))
		hw.raw(`</h1>`)
		if data.Failed {
			hw.raw(`<p class="alert" role="alert">`)
			hw.text(i18n.T(ctx, "login.error"))
			hw.raw(`</p>`)
		}
		hw.raw(`<form method="post" action="/admin/login" class="login"><label>`)
		hw.text(i18n.T(ctx, "login.password"))
		hw.raw(` <input type="password" name="password" autocomplete="current-password" required autofocus></label>`)
		hw.raw(`<button type="submit">`)
		hw.text(i18n.T(ctx, "login.submit"))
		hw.raw(`</button></form>`)
	})

	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.component(ctx, Layout(Meta{
			Title:       i18n.T(ctx, "login.title") + " | " + i18n.T(ctx, "site.title"),
			Description: i18n.T(ctx, "site.description"),
			NoIndex:     true,
		}, body))
	})
}
