// Пакет pages — HTML-страницы галереи (templ-компоненты).
package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// htmlWriter — запись HTML с накоплением первой ошибки.
type htmlWriter struct {
	w   io.Writer
	err error
}

// raw пишет доверенную разметку как есть.
func (hw *htmlWriter) raw(s string) {
	if hw.err != nil {
		return
	}
	_, hw.err = io.WriteString(hw.w, s)
}

// text пишет экранированный текст (и значения атрибутов).
func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

// url пишет санитизированный URL для href/src/action.
func (hw *htmlWriter) url(u string) {
	hw.text(string(templ.URL(u)))
}

// component рендерит вложенный компонент.
func (hw *htmlWriter) component(ctx context.Context, c templ.Component) {
	if hw.err != nil || c == nil {
		return
	}
	hw.err = c.Render(ctx, hw.w)
}

// component создаёт templ.Component из функции записи.
func component(fn func(ctx context.Context, hw *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		fn(ctx, hw)
		return hw.err
	})
}
