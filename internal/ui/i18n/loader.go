// loader.go — загрузка каталогов переводов из embed.FS.
package i18n

import (
	"embed"
	"fmt"
	"log/slog"
)

// LocaleFS — JSON-каталоги переводов, встроенные в бинарник.
//
//go:embed locales/*.json
var LocaleFS embed.FS

// LoadFromEmbedFS загружает каталоги переводов всех языков реестра
// из встроенной файловой системы (locales/<code>.json).
func LoadFromEmbedFS(bundle *Bundle, logger *slog.Logger) error {
	langs := DefaultRegistry.Codes()

	for _, lang := range langs {
		path := fmt.Sprintf("locales/%s.json", lang)
		data, err := LocaleFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("i18n: не удалось прочитать %s: %w", path, err)
		}

		if err := bundle.LoadMessages(lang, data); err != nil {
			return err
		}
	}

	logger.Info("i18n каталоги загружены", slog.Int("languages", len(langs)))
	return nil
}
