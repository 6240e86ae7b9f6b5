package hxbridge

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRenderNotices(t *testing.T) {
	if got := RenderNotices(nil); got != "" {
		t.Errorf("RenderNotices(nil) = %q, want empty", got)
	}

	html := RenderNotices([]Notice{
		{Level: FlashSuccess, Message: "Saved <b>it</b>"},
		{Level: FlashCritical, Message: "Credentials missing"},
	})

	if !strings.Contains(html, `class="toast toast-success" data-auto-dismiss="3000"`) {
		t.Errorf("success toast missing auto-dismiss: %s", html)
	}
	if !strings.Contains(html, "Saved &lt;b&gt;it&lt;/b&gt;") {
		t.Errorf("message not escaped: %s", html)
	}
	if !strings.Contains(html, `<div class="toast toast-critical">Credentials missing</div>`) {
		t.Errorf("critical toast should not auto-dismiss: %s", html)
	}
}

func TestNoticeCritical(t *testing.T) {
	for _, level := range []string{FlashSuccess, FlashInfo, FlashWarning, FlashError} {
		if (Notice{Level: level}).Critical() {
			t.Errorf("%s notice reported critical", level)
		}
	}
	if !(Notice{Level: FlashCritical}).Critical() {
		t.Error("critical notice not critical")
	}
}

func TestToastContainer(t *testing.T) {
	var buf bytes.Buffer
	if err := ToastContainer().Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if want := `<div id="toasts" class="toast-container"></div>`; buf.String() != want {
		t.Errorf("ToastContainer() = %q, want %q", buf.String(), want)
	}
}
