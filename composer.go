package hxbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Manifest lists the resources a composed document loads, deduplicated
// in first-seen order.
type Manifest struct {
	Styles  []string `json:"styles"`
	Scripts []string `json:"scripts"`
}

// Document is a composed panel layout. It implements templ.Component.
//
// The skeleton is fixed:
//
//	<div id="hx-control">      control-region components
//	<main id="hx-content">
//	  <div id="toasts">        in-panel notices
//	  <div id="hx-content-body"> content components
type Document struct {
	Title    string
	Control  []Composable
	Content  []Composable
	Manifest Manifest
}

var _ templ.Component = (*Document)(nil)

// Compose assembles components into a Document. Components are placed by
// the region they declare, keeping their relative order, and their styles
// and scripts are resolved and collected once each.
//
// Components are trusted: validation happened when they were constructed.
func Compose(components []Composable, opts ...Option) *Document {
	o := buildOptions(opts)
	doc := &Document{Title: o.title}

	styles := newOrderedSet()
	scripts := newOrderedSet()
	for _, c := range components {
		if c.Region() == RegionControl {
			doc.Control = append(doc.Control, c)
		} else {
			doc.Content = append(doc.Content, c)
		}
		for _, name := range c.Styles() {
			styles.add(o.resolver.Resolve(name))
		}
		for _, name := range c.Scripts() {
			scripts.add(o.resolver.Resolve(name))
		}
	}
	doc.Manifest = Manifest{Styles: styles.items, Scripts: scripts.items}
	return doc
}

// Render writes the full HTML document.
func (d *Document) Render(ctx context.Context, w io.Writer) error {
	var buf bytes.Buffer

	buf.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	if d.Title != "" {
		fmt.Fprintf(&buf, "<title>%s</title>", templ.EscapeString(d.Title))
	}
	for _, href := range d.Manifest.Styles {
		fmt.Fprintf(&buf, `<link rel="stylesheet" href="%s">`, templ.EscapeString(href))
	}
	buf.WriteString("</head><body>")

	fmt.Fprintf(&buf, `<div id="%s" class="control-region">`, ControlRegionID)
	if err := renderAll(ctx, &buf, d.Control); err != nil {
		return err
	}
	buf.WriteString("</div>")

	fmt.Fprintf(&buf, `<main id="%s" class="content-region">`, ContentRegionID)
	if err := ToastContainer().Render(ctx, &buf); err != nil {
		return err
	}
	fmt.Fprintf(&buf, `<div id="%s" class="content-sub-region">`, ContentSubRegionID)
	if err := renderAll(ctx, &buf, d.Content); err != nil {
		return err
	}
	buf.WriteString("</div></main>")

	for _, src := range d.Manifest.Scripts {
		fmt.Fprintf(&buf, `<script src="%s"></script>`, templ.EscapeString(src))
	}
	buf.WriteString("</body></html>")

	_, err := w.Write(buf.Bytes())
	return err
}

// HTML renders the document to a string.
func (d *Document) HTML(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	if err := d.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderAll(ctx context.Context, w io.Writer, components []Composable) error {
	for _, c := range components {
		if err := wrap(c).Render(ctx, w); err != nil {
			return fmt.Errorf("hxbridge: render %s %q: %w", c.Kind(), c.ID(), err)
		}
	}
	return nil
}

// wrap renders the component root that the surface looks for.
func wrap(c Composable) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		attrs := fmt.Sprintf(`<div id="%s" class="hx-component hx-%s" %s="%s" %s="%s"`,
			templ.EscapeString(DOMID(c.Kind(), c.ID())),
			templ.EscapeString(c.Kind()),
			componentAttr, templ.EscapeString(c.Kind()),
			componentIDAttr, templ.EscapeString(c.ID()),
		)
		if cfg, ok := c.(Configurer); ok && cfg.Config() != nil {
			raw, err := json.Marshal(cfg.Config())
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			attrs += fmt.Sprintf(` %s="%s"`, componentConfigAttr, templ.EscapeString(string(raw)))
		}
		if _, err := io.WriteString(w, attrs+">"); err != nil {
			return err
		}
		if m := c.Markup(); m != nil {
			if err := m.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</div>")
		return err
	})
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{}), items: []string{}}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}
