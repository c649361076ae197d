// loader.go — загрузка каталогов переводов из embed.FS.
package i18n

import (
	"embed"
	"fmt"
	"log/slog"
)

// localeFS — встроенные JSON-каталоги переводов.
//
//go:embed locales/*.json
var localeFS embed.FS

// Load создаёт Bundle и загружает в него все встроенные каталоги.
func Load(logger *slog.Logger) (*Bundle, error) {
	bundle := NewBundle(logger)
	langs := []string{"en", "ru"}

	for _, lang := range langs {
		path := fmt.Sprintf("locales/%s.json", lang)
		data, err := localeFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("i18n: не удалось прочитать %s: %w", path, err)
		}

		if err := bundle.LoadMessages(lang, data); err != nil {
			return nil, err
		}
	}

	logger.Info("i18n каталоги загружены", slog.Int("languages", len(langs)))
	return bundle, nil
}
