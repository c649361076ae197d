// Пакет partials — фрагменты страницы Web Client, которые обновляются
// отдельно от неё: результаты действий, список файлов, уведомление.
package partials

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sanahegde/resmed-file-sharing-service/internal/controller"
)

// Идентификаторы заменяемых элементов.
const (
	IDUploadResult = "upload-result"
	IDListResult   = "list-result"
	IDHealthResult = "health-result"
	IDToast        = "toast"
)

func statusClass(k controller.Kind) string {
	return "status-" + k.String()
}

// sizeTitle — размер в двоичных единицах для подсказки.
func sizeTitle(size int64) string {
	return humanize.IBytes(uint64(max(size, 0)))
}

func toastTTL(t *controller.Toast) time.Duration {
	if t == nil {
		return 0
	}
	return time.Until(t.ExpiresAt)
}

func toastVisible(t *controller.Toast) bool {
	return toastTTL(t) > 0
}

// toastTrigger — повторный запрос уведомления, когда истечёт срок показа.
func toastTrigger(t *controller.Toast) string {
	return "load delay:" + strconv.FormatInt(max(toastTTL(t).Milliseconds(), 1), 10) + "ms"
}
