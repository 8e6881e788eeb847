// Пакет static — встроенные статические ресурсы галереи.
// Содержит CSS, web manifest и robots.txt; иконки генерируются (icons.go).
// Файлы встраиваются в бинарник через //go:embed и раздаются через HTTP.
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

// content — встроенная файловая система со всеми статическими ресурсами.
//
//go:embed css/*.css manifest.json robots.txt
var content embed.FS

// FileSystem возвращает http.FileSystem для обработки запросов к /_app/*.
// Файлы доступны по путям вида /_app/css/gallery.css.
func FileSystem() http.FileSystem {
	return http.FS(content)
}

// FS возвращает fs.FS для прямого доступа к встроенным файлам.
func FS() fs.FS {
	return content
}

// ReadFile возвращает содержимое встроенного файла.
func ReadFile(name string) ([]byte, error) {
	return content.ReadFile(name)
}
