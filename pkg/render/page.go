package render

import (
	"fmt"
	"io"

	"github.com/vango-dev/treepatch/pkg/dom"
)

// DocumentData contains everything needed to render a full HTML page
// around a tree.
type DocumentData struct {
	// Body is the tree rendered inside <body>.
	Body dom.Node

	// Title is the page title.
	Title string

	// Meta contains meta tags for the page.
	Meta []MetaTag

	// StyleSheets contains paths to external stylesheets.
	StyleSheets []string

	// Scripts contains paths to scripts loaded with defer.
	Scripts []string

	// Lang is the language attribute for the html element.
	// Defaults to "en" if not specified.
	Lang string
}

// MetaTag represents a meta element in the document head.
type MetaTag struct {
	Name    string // name attribute
	Content string // content attribute
	Charset string // charset attribute
}

// RenderDocument renders a complete HTML document to w.
func (r *Renderer) RenderDocument(w io.Writer, doc DocumentData) error {
	if err := r.renderDocumentOpen(w, doc); err != nil {
		return err
	}
	if err := r.renderHead(w, doc); err != nil {
		return err
	}
	return r.renderBody(w, doc)
}

func (r *Renderer) renderDocumentOpen(w io.Writer, doc DocumentData) error {
	lang := doc.Lang
	if lang == "" {
		lang = "en"
	}

	if _, err := io.WriteString(w, "<!DOCTYPE html>\n"); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, `<html lang="%s">`+"\n", escapeAttr(lang))
	return err
}

// renderHead renders the document head section.
func (r *Renderer) renderHead(w io.Writer, doc DocumentData) error {
	if _, err := io.WriteString(w, "<head>\n"); err != nil {
		return err
	}

	if _, err := io.WriteString(w, `<meta charset="utf-8">`+"\n"); err != nil {
		return err
	}

	for _, meta := range doc.Meta {
		if err := r.renderMetaTag(w, meta); err != nil {
			return err
		}
	}

	if doc.Title != "" {
		if _, err := fmt.Fprintf(w, "<title>%s</title>\n", escapeText(doc.Title)); err != nil {
			return err
		}
	}

	for _, href := range doc.StyleSheets {
		if _, err := fmt.Fprintf(w, `<link rel="stylesheet" href="%s">`+"\n", escapeAttr(href)); err != nil {
			return err
		}
	}

	for _, src := range doc.Scripts {
		if _, err := fmt.Fprintf(w, `<script src="%s" defer></script>`+"\n", escapeAttr(src)); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</head>\n")
	return err
}

func (r *Renderer) renderMetaTag(w io.Writer, meta MetaTag) error {
	if meta.Charset != "" {
		_, err := fmt.Fprintf(w, `<meta charset="%s">`+"\n", escapeAttr(meta.Charset))
		return err
	}
	_, err := fmt.Fprintf(w, `<meta name="%s" content="%s">`+"\n", escapeAttr(meta.Name), escapeAttr(meta.Content))
	return err
}

func (r *Renderer) renderBody(w io.Writer, doc DocumentData) error {
	if _, err := io.WriteString(w, "<body>\n"); err != nil {
		return err
	}
	if err := r.RenderToWriter(w, doc.Body); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n</body>\n</html>\n")
	return err
}
