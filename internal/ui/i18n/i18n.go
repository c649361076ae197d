// Пакет i18n — интернационализация Web Client.
// Предоставляет функции T(ctx, key) и Tf(ctx, key, args...) для получения
// переведённых строк из контекста HTTP-запроса.
// Поддерживаемые языки: English (en), Русский (ru).
// Bundle и язык помещаются в контекст middleware; глобального состояния нет.
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/text/language"
)

// DefaultLang — язык по умолчанию и fallback для отсутствующих ключей.
const DefaultLang = "en"

// Поддерживаемые языки
var (
	// SupportedLanguages — список поддерживаемых тегов языков.
	SupportedLanguages = []language.Tag{
		language.English,
		language.Russian,
	}

	// matcher — языковой matcher для Accept-Language.
	matcher = language.NewMatcher(SupportedLanguages)
)

// contextKey — тип ключа для контекста (избегаем коллизий).
type contextKey string

const (
	contextKeyLang   contextKey = "i18n_lang"
	contextKeyBundle contextKey = "i18n_bundle"
)

// Bundle — хранилище переводов для всех языков.
type Bundle struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string // lang → key → translation
	logger   *slog.Logger
}

// NewBundle создаёт пустой Bundle.
func NewBundle(logger *slog.Logger) *Bundle {
	return &Bundle{
		catalogs: make(map[string]map[string]string),
		logger:   logger,
	}
}

// LoadMessages загружает JSON-каталог переводов для указанного языка.
// JSON формат: {"key": "translation", ...} (плоский).
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("i18n: ошибка парсинга каталога %s: %w", lang, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalogs[lang] = messages

	if b.logger != nil {
		b.logger.Debug("i18n каталог загружен",
			slog.String("lang", lang),
			slog.Int("keys", len(messages)),
		)
	}
	return nil
}

// Translate возвращает перевод по ключу для указанного языка.
// Если ключ не найден — возвращает ключ как есть.
func (b *Bundle) Translate(lang, key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if catalog, ok := b.catalogs[lang]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}

	// Fallback на английский
	if lang != DefaultLang {
		if catalog, ok := b.catalogs[DefaultLang]; ok {
			if msg, ok := catalog[key]; ok {
				return msg
			}
		}
	}

	return key
}

// Translatef возвращает перевод по ключу с подстановкой аргументов.
func (b *Bundle) Translatef(lang, key string, args ...any) string {
	template := b.Translate(lang, key)
	if len(args) == 0 {
		return template
	}
	return formatFunc(template, args...)
}

// --- Контекст запроса ---

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKeyLang, lang)
}

// LangFromContext извлекает язык из контекста. Default: "en".
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(contextKeyLang).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}

// WithBundle помещает Bundle в контекст.
func WithBundle(ctx context.Context, b *Bundle) context.Context {
	return context.WithValue(ctx, contextKeyBundle, b)
}

// BundleFromContext извлекает Bundle из контекста (nil, если не задан).
func BundleFromContext(ctx context.Context) *Bundle {
	b, _ := ctx.Value(contextKeyBundle).(*Bundle)
	return b
}

// T возвращает перевод по ключу, используя язык и Bundle из контекста.
func T(ctx context.Context, key string) string {
	b := BundleFromContext(ctx)
	if b == nil {
		return key
	}
	return b.Translate(LangFromContext(ctx), key)
}

// Tf возвращает перевод по ключу с аргументами.
func Tf(ctx context.Context, key string, args ...any) string {
	b := BundleFromContext(ctx)
	if b == nil {
		if len(args) == 0 {
			return key
		}
		return formatFunc(key, args...)
	}
	return b.Translatef(LangFromContext(ctx), key, args...)
}

// formatFunc — fmt.Sprintf через переменную: формат-строки приходят из
// JSON-каталогов, и go vet не может проверить их статически.
//
//nolint:govet // обход go vet printf-анализатора
var formatFunc = fmt.Sprintf

// MatchLanguage определяет лучший язык из Accept-Language заголовка.
// Возвращает один из Languages().
func MatchLanguage(acceptLanguage string) string {
	tag, _ := language.MatchStrings(matcher, acceptLanguage)
	base, _ := tag.Base()

	if lang := base.String(); IsSupported(lang) {
		return lang
	}
	return DefaultLang
}

// Languages возвращает коды поддерживаемых языков в порядке SupportedLanguages.
func Languages() []string {
	codes := make([]string, 0, len(SupportedLanguages))
	for _, tag := range SupportedLanguages {
		base, _ := tag.Base()
		codes = append(codes, base.String())
	}
	return codes
}

// IsSupported сообщает, поддерживается ли язык.
func IsSupported(lang string) bool {
	return slices.Contains(Languages(), lang)
}
