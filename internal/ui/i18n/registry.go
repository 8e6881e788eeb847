// registry.go — реестр поддерживаемых языков UI.
// Порядок языков в реестре определяет порядок переключения в toggle.
package i18n

import "golang.org/x/text/language"

// Language — поддерживаемый язык интерфейса.
type Language struct {
	// Code — код языка (ключ каталога переводов и значение cookie "lang").
	Code string
	// Name — отображаемое название языка на самом этом языке.
	Name string
	// Tag — BCP 47 тег для сопоставления с Accept-Language.
	Tag language.Tag
}

// Registry — упорядоченный реестр языков.
type Registry struct {
	languages []Language
	index     map[string]int
}

// NewRegistry создаёт реестр из упорядоченного списка языков.
func NewRegistry(languages ...Language) *Registry {
	r := &Registry{
		languages: languages,
		index:     make(map[string]int, len(languages)),
	}
	for i, l := range languages {
		r.index[l.Code] = i
	}
	return r
}

// DefaultRegistry — реестр языков галереи: English, Русский.
var DefaultRegistry = NewRegistry(
	Language{Code: "en", Name: "English", Tag: language.English},
	Language{Code: "ru", Name: "Русский", Tag: language.Russian},
)

// Codes возвращает коды языков в порядке реестра.
func (r *Registry) Codes() []string {
	codes := make([]string, len(r.languages))
	for i, l := range r.languages {
		codes[i] = l.Code
	}
	return codes
}

// Languages возвращает копию списка языков в порядке реестра.
func (r *Registry) Languages() []Language {
	out := make([]Language, len(r.languages))
	copy(out, r.languages)
	return out
}

// Tags возвращает BCP 47 теги в порядке реестра.
func (r *Registry) Tags() []language.Tag {
	tags := make([]language.Tag, len(r.languages))
	for i, l := range r.languages {
		tags[i] = l.Tag
	}
	return tags
}

// Supported проверяет, есть ли язык в реестре.
func (r *Registry) Supported(code string) bool {
	_, ok := r.index[code]
	return ok
}

// Name возвращает отображаемое название языка.
// Для неизвестного кода возвращается сам код.
func (r *Registry) Name(code string) string {
	if i, ok := r.index[code]; ok {
		return r.languages[i].Name
	}
	return code
}

// Next возвращает язык, следующий за current в порядке реестра (по кругу).
// Неизвестный current трактуется как индекс -1, т.е. результат — первый язык.
func (r *Registry) Next(current string) string {
	if len(r.languages) == 0 {
		return current
	}
	i, ok := r.index[current]
	if !ok {
		i = -1
	}
	return r.languages[(i+1)%len(r.languages)].Code
}
