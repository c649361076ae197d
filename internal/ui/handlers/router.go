package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sanahegde/resmed-file-sharing-service/internal/ui/i18n"
	"github.com/sanahegde/resmed-file-sharing-service/internal/ui/session"
	"github.com/sanahegde/resmed-file-sharing-service/internal/ui/static"
)

// Mount регистрирует маршруты страницы Web Client.
// Статика отдаётся без сессии; страница и действия — в контексте сессии и языка.
func Mount(r chi.Router, h *ClientHandler, store *session.Store, bundle *i18n.Bundle) {
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))
	r.Post("/ui/set-language", HandleSetLanguage)

	r.Group(func(r chi.Router) {
		r.Use(i18n.Middleware(bundle))
		r.Use(store.Middleware())

		r.Get("/", h.HandleIndex)
		r.Post("/ui/upload", h.HandleUpload)
		r.Post("/ui/refresh", h.HandleRefresh)
		r.Post("/ui/health", h.HandleHealth)
		r.Get("/ui/toast", h.HandleToast)
	})
}
