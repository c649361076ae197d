// middleware.go — HTTP middleware для определения языка пользователя.
// Приоритет: cookie "lang" → Accept-Language → default "en".
package i18n

import (
	"net/http"
)

// LangCookieName — имя cookie для хранения выбранного языка.
const LangCookieName = "lang"

// Middleware помещает Bundle и язык запроса в контекст.
func Middleware(bundle *Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithBundle(r.Context(), bundle)
			ctx = WithLang(ctx, detectLanguage(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// detectLanguage определяет язык из запроса.
func detectLanguage(r *http.Request) string {
	// 1. Cookie "lang" (пользователь явно выбрал язык)
	if cookie, err := r.Cookie(LangCookieName); err == nil && IsSupported(cookie.Value) {
		return cookie.Value
	}

	// 2. Accept-Language заголовок
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		return MatchLanguage(accept)
	}

	return DefaultLang
}
