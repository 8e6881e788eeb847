package pages

import (
	"context"
	"sort"

	"github.com/a-h/templ"

	"github.com/bigkaa/appgallery/internal/ui/i18n"
)

// CollectionView — коллекция на странице управления.
type CollectionView struct {
	Kind  string
	Count int
	// JSON — текущее содержимое коллекции (отформатированный JSON-массив).
	JSON string
}

// DashboardData — данные страницы управления каталогом.
type DashboardData struct {
	Collections []CollectionView
	// Flash — ключ перевода сообщения о результате последнего действия.
	Flash string
	// FlashError — сообщение об ошибке.
	FlashError bool
	// Dependencies — состояние зависимостей (nil — мониторинг отключён).
	Dependencies map[string]bool
}

// countKeys — ключи перевода счётчиков коллекций.
var countKeys = map[string]string{
	"apps":     "admin.apps_count",
	"contents": "admin.contents_count",
}

// Dashboard — страница управления каталогом.
func Dashboard(data DashboardData) templ.Component {
	body := component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<h1>`)
		hw.text(i18n.T(ctx, "admin.title"))
		hw.raw(`</h1>`)

		if data.Flash != "" {
			if data.FlashError {
				hw.raw(`<p class="alert" role="alert">`)
			} else {
				hw.raw(`<p class="notice" role="status">`)
			}
			hw.text(i18n.T(ctx, data.Flash))
			hw.raw(`</p>`)
		}

		hw.raw(`<p class="hint">`)
		hw.text(i18n.T(ctx, "admin.edit_hint"))
		hw.raw(`</p>`)

		for _, c := range data.Collections {
			hw.raw(`<section class="collection"><h2>`)
			hw.text(i18n.Tf(ctx, countKeys[c.Kind], c.Count))
			hw.raw(`</h2><form method="post" action="`)
			hw.url("/admin/collections/" + c.Kind)
			hw.raw(`"><textarea name="items" rows="12" spellcheck="false">`)
			hw.text(c.JSON)
			hw.raw(`</textarea><button type="submit">`)
			hw.text(i18n.T(ctx, "admin.save"))
			hw.raw(`</button></form></section>`)
		}

		hw.raw(`<section class="dependencies"><h2>`)
		hw.text(i18n.T(ctx, "admin.dependencies"))
		hw.raw(`</h2>`)
		if data.Dependencies == nil {
			hw.raw(`<p>`)
			hw.text(i18n.T(ctx, "admin.no_monitoring"))
			hw.raw(`</p></section>`)
			return
		}

		names := make([]string, 0, len(data.Dependencies))
		for name := range data.Dependencies {
			names = append(names, name)
		}
		sort.Strings(names)

		hw.raw(`<ul>`)
		for _, name := range names {
			status := "admin.dep_fail"
			if data.Dependencies[name] {
				status = "admin.dep_ok"
			}
			hw.raw(`<li><code>`)
			hw.text(name)
			hw.raw(`</code>: `)
			hw.text(i18n.T(ctx, status))
			hw.raw(`</li>`)
		}
		hw.raw(`</ul></section>`)
	})

	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.component(ctx, Layout(Meta{
			Title:       i18n.T(ctx, "admin.title") + " | " + i18n.T(ctx, "site.title"),
			Description: i18n.T(ctx, "site.description"),
			NoIndex:     true,
		}, body))
	})
}
