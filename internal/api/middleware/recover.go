package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	apierrors "github.com/sanahegde/resmed-file-sharing-service/internal/api/errors"
)

// Recoverer перехватывает panic обработчика, логирует стек
// и отвечает 500 "internal error", если ответ ещё не начат.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := newResponseWriter(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("Panic в обработчике HTTP",
					slog.Any("panic", rec),
					slog.String("path", r.URL.Path),
					slog.String("request_id", RequestIDFromContext(r.Context())),
					slog.String("stack", string(debug.Stack())),
				)
				if !wrapped.wroteHeader {
					apierrors.InternalError(wrapped)
				}
			}()
			next.ServeHTTP(wrapped, r)
		})
	}
}
