package pages

import (
	"context"

	"github.com/a-h/templ"

	"github.com/bigkaa/appgallery/internal/config"
	"github.com/bigkaa/appgallery/internal/ui/i18n"
	"github.com/bigkaa/appgallery/internal/ui/middleware"
)

// Meta — метаданные страницы (<title>, description, robots).
type Meta struct {
	Title       string
	Description string
	// NoIndex — запрет индексации (robots: noindex, nofollow).
	NoIndex bool
}

// Layout — базовый layout: шапка с навигацией и переключателем языка, подвал.
// Кнопка переключателя показывает название текущего языка.
// Администратору в шапке показывается кнопка выхода.
func Layout(meta Meta, body templ.Component) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		lang := i18n.LangFromContext(ctx)

		hw.raw(`<!DOCTYPE html><html lang="`)
		hw.text(lang)
		hw.raw(`"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		hw.text(meta.Title)
		hw.raw(`</title><meta name="description" content="`)
		hw.text(meta.Description)
		hw.raw(`">`)
		if meta.NoIndex {
			hw.raw(`<meta name="robots" content="noindex, nofollow">`)
		}
		hw.raw(`<link rel="icon" href="/icon"><link rel="apple-touch-icon" href="/apple-icon">`)
		hw.raw(`<link rel="manifest" href="/manifest.json"><link rel="stylesheet" href="/_app/css/gallery.css"></head><body>`)

		hw.raw(`<header class="site-header"><nav><a href="/">`)
		hw.text(i18n.T(ctx, "nav.home"))
		hw.raw(`</a> <a href="/admin/">`)
		hw.text(i18n.T(ctx, "nav.admin"))
		hw.raw(`</a></nav>`)
		if middleware.IsAdmin(ctx) {
			hw.raw(`<form method="post" action="/admin/logout" class="logout"><button type="submit">`)
			hw.text(i18n.T(ctx, "admin.logout"))
			hw.raw(`</button></form>`)
		}
		hw.raw(`<form method="post" action="/toggle-language" class="lang-toggle"><button type="submit">`)
		hw.text(i18n.Tf(ctx, "lang.toggle", i18n.DefaultRegistry.Name(lang)))
		hw.raw(`</button></form></header>`)

		hw.raw(`<main>`)
		hw.component(ctx, body)
		hw.raw(`</main><footer class="site-footer">`)
		hw.text(i18n.Tf(ctx, "footer.version", config.Version))
		hw.raw(`</footer></body></html>`)
	})
}
