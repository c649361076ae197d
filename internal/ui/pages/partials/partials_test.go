package partials

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"github.com/sanahegde/resmed-file-sharing-service/internal/controller"
	"github.com/sanahegde/resmed-file-sharing-service/internal/ui/i18n"
)

func testContext(t *testing.T, lang string) context.Context {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	b, err := i18n.Load(logger)
	if err != nil {
		t.Fatalf("i18n.Load: %v", err)
	}
	return i18n.WithLang(i18n.WithBundle(context.Background(), b), lang)
}

func render(t *testing.T, ctx context.Context, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestStatusLine_Kinds(t *testing.T) {
	ctx := testContext(t, "en")

	tests := []struct {
		res  controller.Result
		want string
	}{
		{controller.Result{Kind: controller.KindPending, Message: controller.MsgUploading}, "uploading…"},
		{controller.Result{Kind: controller.KindSuccess, Message: controller.MsgUploadOK}, "upload ok"},
		{controller.Result{Kind: controller.KindValidationError, Message: controller.MsgChooseFile}, "choose a file"},
		{controller.Result{Kind: controller.KindValidationError, Message: controller.MsgFileTooLarge, Args: []any{"20 MiB"}}, "file too large (limit 20 MiB)"},
		{controller.Result{Kind: controller.KindServerError, Message: controller.MsgUploadFailed, Args: []any{413}}, "upload failed (413)"},
		{controller.Result{Kind: controller.KindNetworkError, Message: controller.MsgUploadNetworkErr}, "network error"},
		{controller.Result{Kind: controller.KindSuccess, Message: controller.MsgListFound, Args: []any{0}}, "found 0 item(s)"},
		{controller.Result{Kind: controller.KindNetworkError, Message: controller.MsgListError}, ">error<"},
	}

	for _, tt := range tests {
		got := render(t, ctx, StatusLine(tt.res))
		if !strings.Contains(got, tt.want) {
			t.Errorf("StatusLine(%v) = %q, ожидалось %q", tt.res.Message, got, tt.want)
		}
		if !strings.Contains(got, "status-"+tt.res.Kind.String()) {
			t.Errorf("StatusLine(%v) = %q, нет класса вида", tt.res.Message, got)
		}
	}

	if got := render(t, ctx, StatusLine(controller.Result{})); got != `<span class="status"></span>` {
		t.Errorf("пустой результат = %q", got)
	}
}

func TestListResult_RowFormatting(t *testing.T) {
	ctx := testContext(t, "en")
	panel := controller.ListPanel{
		Status: controller.Result{Kind: controller.KindSuccess, Message: controller.MsgListFound, Args: []any{1}},
		Rows: []controller.Row{{
			ID:          "0f8fad5b-d9cb-469f-a165-70867728950e",
			Name:        "report <final>.pdf",
			Size:        1000000,
			UploadedAt:  0,
			DownloadURL: "http://127.0.0.1:8000/files/0f8fad5b-d9cb-469f-a165-70867728950e",
		}},
	}

	got := render(t, ctx, ListResult(panel, time.UTC, false))

	for _, want := range []string{
		`id="list-result"`,
		"found 1 item(s)",
		`title="0f8fad5b-d9cb-469f-a165-70867728950e"`,
		"report &lt;final&gt;.pdf",
		">1,000,000<",
		"1/1/1970, 12:00:00 AM",
		`href="http://127.0.0.1:8000/files/0f8fad5b-d9cb-469f-a165-70867728950e" download`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("таблица не содержит %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "<final>") {
		t.Error("имя файла не экранировано")
	}
}

func TestListResult_Empty(t *testing.T) {
	ctx := testContext(t, "en")
	panel := controller.ListPanel{
		Status: controller.Result{Kind: controller.KindSuccess, Message: controller.MsgListFound, Args: []any{0}},
	}

	got := render(t, ctx, ListResult(panel, time.UTC, false))
	if strings.Contains(got, "<tr><td") {
		t.Errorf("для пустого списка не должно быть строк:\n%s", got)
	}
	if !strings.Contains(got, "found 0 item(s)") {
		t.Errorf("нет статуса: %s", got)
	}
}

func TestHealthResult_RawBody(t *testing.T) {
	ctx := testContext(t, "en")

	got := render(t, ctx, HealthResult(controller.HealthPanel{
		Status: controller.Result{Kind: controller.KindSuccess},
		Output: `{"status":"ok"}`,
	}))
	if !strings.Contains(got, `<pre class="output">{&#34;status&#34;:&#34;ok&#34;}</pre>`) {
		t.Errorf("HealthResult = %s", got)
	}

	got = render(t, ctx, HealthResult(controller.HealthPanel{
		Status: controller.Result{Kind: controller.KindNetworkError, Message: controller.MsgHealthError},
	}))
	if !strings.Contains(got, ">error<") {
		t.Errorf("HealthResult при ошибке = %s", got)
	}
}

func TestToast(t *testing.T) {
	ctx := testContext(t, "en")

	got := render(t, ctx, Toast(&controller.Toast{
		Message:   controller.MsgToastUploaded,
		ExpiresAt: time.Now().Add(time.Second),
	}, false))
	for _, want := range []string{"Upload successful", `class="toast show"`, `hx-get="/ui/toast"`, `hx-trigger="load delay:`} {
		if !strings.Contains(got, want) {
			t.Errorf("Toast не содержит %q: %s", want, got)
		}
	}

	got = render(t, ctx, Toast(&controller.Toast{
		Message:   controller.MsgToastUploaded,
		ExpiresAt: time.Now().Add(-time.Second),
	}, false))
	if strings.Contains(got, "Upload successful") {
		t.Errorf("истёкшее уведомление не должно отображаться: %s", got)
	}

	if got := render(t, ctx, Toast(nil, false)); got != `<div id="toast" class="toast"></div>` {
		t.Errorf("Toast(nil) = %s", got)
	}
	if got := render(t, ctx, Toast(nil, true)); got != `<div id="toast" class="toast" hx-swap-oob="true"></div>` {
		t.Errorf("Toast(nil, oob) = %s", got)
	}
}

func TestToastTrigger(t *testing.T) {
	toast := &controller.Toast{ExpiresAt: time.Now().Add(3 * time.Second)}
	got := toastTrigger(toast)
	if !strings.HasPrefix(got, "load delay:") || !strings.HasSuffix(got, "ms") {
		t.Fatalf("toastTrigger = %q", got)
	}
	ms, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(got, "load delay:"), "ms"))
	if err != nil || ms <= 2000 || ms > 3000 {
		t.Errorf("задержка %q вне ожидаемого диапазона", got)
	}
}

func TestUploadResponse_SwapsListAndToastByID(t *testing.T) {
	ctx := testContext(t, "en")

	got := render(t, ctx, UploadResponse(controller.PageState{
		Upload: controller.UploadPanel{
			Status: controller.Result{Kind: controller.KindSuccess, Message: controller.MsgUploadOK},
			Output: `{"id":"x"}`,
		},
		List: controller.ListPanel{
			Status: controller.Result{Kind: controller.KindSuccess, Message: controller.MsgListFound, Args: []any{0}},
		},
		Toast: &controller.Toast{Message: controller.MsgToastUploaded, ExpiresAt: time.Now().Add(time.Second)},
	}, time.UTC))

	if !strings.HasPrefix(got, `<div id="upload-result" class="result">`) {
		t.Errorf("ответ должен начинаться с результата загрузки: %.80s", got)
	}
	if strings.Contains(got, `id="upload-result" class="result" hx-swap-oob`) {
		t.Error("результат загрузки заменяет цель запроса, а не элемент по id")
	}
	for _, want := range []string{
		`<div id="list-result" class="result" hx-swap-oob="true">`,
		`hx-swap-oob="true">Upload successful</div>`,
		"upload ok",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("ответ не содержит %q:\n%s", want, got)
		}
	}
}
