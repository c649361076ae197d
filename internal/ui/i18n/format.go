// format.go — форматирование чисел и дат с учётом языка.
package i18n

import (
	"context"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// keyDateTimeLayout — ключ каталога с layout даты/времени (формат time.Format).
const keyDateTimeLayout = "format.datetime"

// FormatNumber форматирует целое число с группировкой разрядов языка контекста
// (en: 1,000,000).
func FormatNumber(ctx context.Context, n int64) string {
	return message.NewPrinter(tagFor(LangFromContext(ctx))).Sprintf("%d", n)
}

// FormatTimestamp переводит Unix-время (секунды) в дату/время часового пояса loc
// в формате языка контекста. nil loc — time.Local.
func FormatTimestamp(ctx context.Context, unix int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	layout := T(ctx, keyDateTimeLayout)
	if layout == keyDateTimeLayout {
		layout = time.DateTime
	}
	return time.Unix(unix, 0).In(loc).Format(layout)
}

func tagFor(lang string) language.Tag {
	if lang == "ru" {
		return language.Russian
	}
	return language.English
}
