package hxbridge

import (
	"encoding/json"
	"net/http"

	"github.com/a-h/templ"
)

// Render writes a templ component, usually a composed Document, to the
// HTTP response.
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    hxbridge.Render(w, r, panel.Document())
//	}
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// WriteManifest writes a document's resource manifest as JSON.
func WriteManifest(w http.ResponseWriter, m Manifest) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(m)
}

// PanelHeader carries the panel id on document responses so a surface can
// subscribe to the right channel.
const PanelHeader = "X-Hxbridge-Panel"
