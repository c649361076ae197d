// Пакет static — встроенные статические ресурсы Web Client (CSS, JS).
// Файлы встраиваются в бинарник через //go:embed и раздаются через HTTP.
package static

import (
	"embed"
	"net/http"
)

//go:embed css/app.css js/app.js
var content embed.FS

// FileSystem возвращает http.FileSystem для обработки запросов к /static/*.
func FileSystem() http.FileSystem {
	return http.FS(content)
}
