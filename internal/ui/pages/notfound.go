package pages

import (
	"context"

	"github.com/a-h/templ"

	"github.com/bigkaa/appgallery/internal/ui/i18n"
)

// NotFound — страница 404 с метаданными и ссылкой на главную.
// Индексация запрещена (noindex, nofollow).
func NotFound() templ.Component {
	body := component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<section class="not-found"><p class="code">404</p><h1>`)
		hw.text(i18n.T(ctx, "notfound.title"))
		hw.raw(`</h1><p>`)
		hw.text(i18n.T(ctx, "notfound.description"))
		hw.raw(`</p><a href="/">`)
		hw.text(i18n.T(ctx, "notfound.back"))
		hw.raw(`</a></section>`)
	})

	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.component(ctx, Layout(Meta{
			Title:       i18n.T(ctx, "notfound.meta_title"),
			Description: i18n.T(ctx, "notfound.description"),
			NoIndex:     true,
		}, body))
	})
}
