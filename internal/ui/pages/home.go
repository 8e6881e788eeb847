package pages

import (
	"context"

	"github.com/a-h/templ"

	"github.com/bigkaa/appgallery/internal/ui/i18n"
)

// Card — карточка записи каталога для отображения.
type Card struct {
	Title       string
	Description string
	// ImageURL — адрес изображения (локальный или через /_image).
	ImageURL string
	Link     string
}

// HomeData — данные главной страницы.
type HomeData struct {
	Apps     []Card
	Contents []Card
	// LoadFailed — каталог не удалось загрузить.
	LoadFailed bool
}

// Home — главная страница: приложения и материалы.
func Home(data HomeData) templ.Component {
	body := component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<h1>`)
		hw.text(i18n.T(ctx, "site.title"))
		hw.raw(`</h1>`)

		if data.LoadFailed {
			hw.raw(`<p class="alert">`)
			hw.text(i18n.T(ctx, "home.load_failed"))
			hw.raw(`</p>`)
			return
		}

		writeSection(ctx, hw, "apps", i18n.T(ctx, "home.apps"), i18n.T(ctx, "home.empty_apps"), data.Apps)
		writeSection(ctx, hw, "contents", i18n.T(ctx, "home.contents"), i18n.T(ctx, "home.empty_contents"), data.Contents)
	})

	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.component(ctx, Layout(Meta{
			Title:       i18n.T(ctx, "site.title"),
			Description: i18n.T(ctx, "site.description"),
		}, body))
	})
}

func writeSection(ctx context.Context, hw *htmlWriter, id, title, empty string, cards []Card) {
	hw.raw(`<section id="`)
	hw.text(id)
	hw.raw(`"><h2>`)
	hw.text(title)
	hw.raw(`</h2>`)

	if len(cards) == 0 {
		hw.raw(`<p class="empty">`)
		hw.text(empty)
		hw.raw(`</p></section>`)
		return
	}

	hw.raw(`<ul class="cards">`)
	for _, c := range cards {
		hw.raw(`<li class="card">`)
		if c.ImageURL != "" {
			hw.raw(`<img loading="lazy" src="`)
			hw.url(c.ImageURL)
			hw.raw(`" alt="`)
			hw.text(c.Title)
			hw.raw(`">`)
		}
		hw.raw(`<h3>`)
		hw.text(c.Title)
		hw.raw(`</h3>`)
		if c.Description != "" {
			hw.raw(`<p>`)
			hw.text(c.Description)
			hw.raw(`</p>`)
		}
		if c.Link != "" {
			hw.raw(`<a rel="noopener" href="`)
			hw.url(c.Link)
			hw.raw(`">`)
			hw.text(i18n.T(ctx, "home.open"))
			hw.raw(`</a>`)
		}
		hw.raw(`</li>`)
	}
	hw.raw(`</ul></section>`)
}
