package hxbridge

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)

	if err := Render(w, r, Compose([]Composable{newCounter("c1")})); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), `data-component-id="c1"`) {
		t.Error("body missing component root")
	}
}

func TestWriteManifest(t *testing.T) {
	w := httptest.NewRecorder()
	m := Manifest{Styles: []string{"a.css"}, Scripts: []string{}}

	if err := WriteManifest(w, m); err != nil {
		t.Fatal(err)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var got Manifest
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got.Styles) != 1 || got.Styles[0] != "a.css" {
		t.Errorf("Styles = %v", got.Styles)
	}
}
