// language.go — обработчик переключения языка UI.
package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/sanahegde/resmed-file-sharing-service/internal/ui/i18n"
)

// HandleSetLanguage обрабатывает POST /ui/set-language.
// Устанавливает cookie "lang" и перенаправляет обратно.
// Параметр lang: "en" или "ru" (из формы или query).
func HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if !i18n.IsSupported(lang) {
		lang = i18n.DefaultLang
	}

	http.SetCookie(w, &http.Cookie{
		Name:     i18n.LangCookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
	})

	http.Redirect(w, r, sameHostReferer(r), http.StatusSeeOther)
}

// sameHostReferer возвращает путь из Referer того же хоста, иначе "/".
func sameHostReferer(r *http.Request) string {
	ref, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || ref.Host != r.Host || ref.Path == "" {
		return "/"
	}
	return ref.RequestURI()
}
