package controller

// Kind — категория результата действия пользователя.
type Kind int

const (
	// KindNone — действие ещё не выполнялось.
	KindNone Kind = iota
	// KindPending — запрос отправлен, ответ ещё не получен.
	KindPending
	// KindSuccess — действие завершилось успешно.
	KindSuccess
	// KindValidationError — запрос не отправлялся: выбор файла некорректен.
	KindValidationError
	// KindNetworkError — запрос не дошёл до Storage Service или ответ не прочитан.
	KindNetworkError
	// KindServerError — Storage Service ответил ошибкой или некорректными данными.
	KindServerError
)

func (k Kind) String() string {
	switch k {
	case KindPending:
		return "pending"
	case KindSuccess:
		return "success"
	case KindValidationError:
		return "validation_error"
	case KindNetworkError:
		return "network_error"
	case KindServerError:
		return "server_error"
	default:
		return "none"
	}
}

// Ключи сообщений статуса (переводятся в i18n-каталогах).
const (
	MsgChooseFile       = "upload.choose_file"
	MsgFileTooLarge     = "upload.too_large"
	MsgUploading        = "upload.uploading"
	MsgUploadOK         = "upload.ok"
	MsgUploadFailed     = "upload.failed"
	MsgUploadNetworkErr = "upload.network_error"
	MsgListLoading      = "list.loading"
	MsgListFound        = "list.found"
	MsgListError        = "list.error"
	MsgHealthChecking   = "health.checking"
	MsgHealthError      = "health.error"
	MsgToastUploaded    = "toast.upload_ok"
)

// Result — итог действия, который превращается в строку статуса на странице.
// Message — ключ сообщения, Args — аргументы для подстановки в перевод.
type Result struct {
	Kind    Kind
	Message string
	Args    []any
	// Err — причина для ошибочных Kind (*ValidationError, *NetworkError,
	// *UploadFailedError или ошибка клиента Storage Service).
	Err error
	// Stale — ответ устарел (был запущен более новый Refresh) и отброшен.
	Stale bool
}

// IsError сообщает, что результат — одна из ошибок.
func (r Result) IsError() bool {
	return r.Kind == KindValidationError || r.Kind == KindNetworkError || r.Kind == KindServerError
}
