package i18n

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func loadedContext(t *testing.T, lang string) context.Context {
	t.Helper()
	b, err := Load(testLogger())
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	return WithLang(WithBundle(context.Background(), b), lang)
}

func TestCatalogs_SameKeys(t *testing.T) {
	b, err := Load(testLogger())
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	for key := range b.catalogs["en"] {
		if _, ok := b.catalogs["ru"][key]; !ok {
			t.Errorf("ключ %q отсутствует в ru", key)
		}
	}
	for key := range b.catalogs["ru"] {
		if _, ok := b.catalogs["en"][key]; !ok {
			t.Errorf("ключ %q отсутствует в en", key)
		}
	}
}

func TestTf_SubstitutesArgs(t *testing.T) {
	ctx := loadedContext(t, "en")

	if got := Tf(ctx, "list.found", 3); got != "found 3 item(s)" {
		t.Errorf("Tf = %q", got)
	}
	if got := Tf(ctx, "upload.failed", 500); got != "upload failed (500)" {
		t.Errorf("Tf = %q", got)
	}
	if got := T(ctx, "list.loading"); got != "loading…" {
		t.Errorf("T = %q", got)
	}
}

func TestTranslate_FallbackAndMissing(t *testing.T) {
	b := NewBundle(nil)
	if err := b.LoadMessages("en", []byte(`{"only.en":"english"}`)); err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if err := b.LoadMessages("ru", []byte(`{}`)); err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}

	if got := b.Translate("ru", "only.en"); got != "english" {
		t.Errorf("fallback на en не сработал: %q", got)
	}
	if got := b.Translate("ru", "missing.key"); got != "missing.key" {
		t.Errorf("для отсутствующего ключа ожидался сам ключ, получено %q", got)
	}
	if err := b.LoadMessages("en", []byte(`not json`)); err == nil {
		t.Error("ожидалась ошибка парсинга")
	}
}

func TestT_WithoutBundle(t *testing.T) {
	ctx := context.Background()
	if got := T(ctx, "list.error"); got != "list.error" {
		t.Errorf("T без Bundle = %q", got)
	}
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"ru-RU,ru;q=0.9,en;q=0.8", "ru"},
		{"en-US,en;q=0.9", "en"},
		{"de-DE", "en"},
		{"", "en"},
	}
	for _, tt := range tests {
		if got := MatchLanguage(tt.header); got != tt.want {
			t.Errorf("MatchLanguage(%q) = %q, ожидался %q", tt.header, got, tt.want)
		}
	}
}

func TestIsSupported_FollowsSupportedLanguages(t *testing.T) {
	langs := Languages()
	if len(langs) != len(SupportedLanguages) {
		t.Fatalf("Languages() = %v, ожидалось %d языков", langs, len(SupportedLanguages))
	}
	for _, tag := range SupportedLanguages {
		base, _ := tag.Base()
		if !IsSupported(base.String()) {
			t.Errorf("IsSupported(%q) = false для языка из SupportedLanguages", base.String())
		}
	}
	for _, lang := range []string{"", "de", "EN", "en-US"} {
		if IsSupported(lang) {
			t.Errorf("IsSupported(%q) = true", lang)
		}
	}
}

func TestMiddleware_CookieWins(t *testing.T) {
	b, err := Load(testLogger())
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	var gotLang string
	var gotBundle *Bundle
	h := Middleware(b)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotLang = LangFromContext(r.Context())
		gotBundle = BundleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Accept-Language", "en-US")
	req.AddCookie(&http.Cookie{Name: LangCookieName, Value: "ru"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if gotLang != "ru" {
		t.Errorf("язык = %q, ожидался ru из cookie", gotLang)
	}
	if gotBundle != b {
		t.Error("Bundle не помещён в контекст")
	}

	// Неподдерживаемое значение cookie игнорируется
	req = httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.AddCookie(&http.Cookie{Name: LangCookieName, Value: "fr"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if gotLang != "en" {
		t.Errorf("язык = %q, ожидался en", gotLang)
	}
}

func TestFormatNumber_English(t *testing.T) {
	ctx := loadedContext(t, "en")
	if got := FormatNumber(ctx, 1000000); got != "1,000,000" {
		t.Errorf("FormatNumber(1000000) = %q, ожидалось 1,000,000", got)
	}
	if got := FormatNumber(ctx, 42); got != "42" {
		t.Errorf("FormatNumber(42) = %q", got)
	}
}

func TestFormatTimestamp_Epoch(t *testing.T) {
	ctx := loadedContext(t, "en")

	if got := FormatTimestamp(ctx, 0, time.UTC); got != "1/1/1970, 12:00:00 AM" {
		t.Errorf("FormatTimestamp(0, UTC) = %q", got)
	}

	ctxRU := loadedContext(t, "ru")
	if got := FormatTimestamp(ctxRU, 0, time.UTC); got != "01.01.1970, 00:00:00" {
		t.Errorf("FormatTimestamp(0, UTC) ru = %q", got)
	}

	// Локальное время — та же эпоха в другой зоне
	loc := time.FixedZone("UTC+3", 3*60*60)
	if got := FormatTimestamp(ctx, 0, loc); got != "1/1/1970, 3:00:00 AM" {
		t.Errorf("FormatTimestamp(0, UTC+3) = %q", got)
	}
}
