package hxbridge

import (
	"context"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Notice levels.
const (
	FlashSuccess  = "success"
	FlashInfo     = "info"
	FlashWarning  = "warning"
	FlashError    = "error"
	FlashCritical = "critical"
)

// Notice is a one-time message shown in the panel's toast container, or,
// at critical level, also handed to the Notifier.
//
//	panel.Flash(ctx, hxbridge.FlashSuccess, "Import queued")
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Critical reports whether the notice needs the blocking channel.
func (n Notice) Critical() bool {
	return n.Level == FlashCritical
}

// RenderNotices renders notices as toast elements.
//
// The data-auto-dismiss attribute tells the surface runtime when to drop a
// toast; critical toasts stay until dismissed.
func RenderNotices(notices []Notice) string {
	if len(notices) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, n := range notices {
		sb.WriteString(`<div class="toast toast-`)
		sb.WriteString(html.EscapeString(n.Level))
		sb.WriteString(`"`)
		if !n.Critical() {
			sb.WriteString(` data-auto-dismiss="3000"`)
		}
		sb.WriteString(`>`)
		sb.WriteString(html.EscapeString(n.Message))
		sb.WriteString(`</div>`)
	}
	return sb.String()
}

// ToastContainer returns a templ component for the toast container. The
// Composer places it at the top of the content region.
func ToastContainer() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div id="`+ToastContainerID+`" class="toast-container"></div>`)
		return err
	})
}
