// Пакет pages — templ-страницы Web Client.
// Исходники — файлы .templ; *_templ.go генерируются командой templ generate.
package pages

import (
	"time"

	"github.com/sanahegde/resmed-file-sharing-service/internal/controller"
)

// IndexData — данные главной страницы.
type IndexData struct {
	State          controller.PageState
	MaxUploadBytes int64
	// Адрес Storage Service (показывается в подвале)
	StorageURL string
	// Часовой пояс для колонки uploaded_at
	Location *time.Location
}
