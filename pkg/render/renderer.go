package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"

	"github.com/vango-dev/treepatch/pkg/dom"
)

// RendererConfig configures the markup renderer.
// The zero value produces the canonical output.
type RendererConfig struct {
	// Pretty enables indented output. Use it for debugging only; it adds
	// whitespace text that the tree does not contain.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces if not specified.
	Indent string

	// Minify passes the output through an HTML minifier.
	Minify bool
}

// Renderer serializes dom trees.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// Serialize renders node with the default configuration.
func Serialize(node dom.Node) string {
	var buf bytes.Buffer
	// bytes.Buffer writes never fail.
	_ = defaultRenderer.renderNode(&buf, node, 0)
	return buf.String()
}

var defaultRenderer = NewRenderer(RendererConfig{})

// RenderToString renders node to a string.
func (r *Renderer) RenderToString(node dom.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter streams node to w.
func (r *Renderer) RenderToWriter(w io.Writer, node dom.Node) error {
	if !r.config.Minify {
		return r.renderNode(w, node, 0)
	}
	mw := getMinifier().Writer("text/html", w)
	if err := r.renderNode(mw, node, 0); err != nil {
		mw.Close()
		return err
	}
	return mw.Close()
}

// renderNode dispatches rendering based on node kind.
func (r *Renderer) renderNode(w io.Writer, node dom.Node, depth int) error {
	switch n := node.(type) {
	case nil:
		return nil
	case *dom.Element:
		if n == nil {
			return nil
		}
		return r.renderElement(w, n, depth)
	case *dom.Text:
		if n == nil {
			return nil
		}
		return r.renderText(w, n)
	default:
		return fmt.Errorf("unknown node type: %T", node)
	}
}

// renderElement renders an element with its attributes and children.
func (r *Renderer) renderElement(w io.Writer, el *dom.Element, depth int) error {
	tag := el.Tag()

	if r.config.Pretty && depth > 0 {
		r.writeIndent(w, depth)
	}

	if _, err := io.WriteString(w, "<"+tag); err != nil {
		return err
	}
	if err := r.renderAttributes(w, el); err != nil {
		return err
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}

	// Void elements never close. Children, if any were attached anyway,
	// follow the open tag directly.
	if IsVoidElement(tag) {
		if r.config.Pretty {
			io.WriteString(w, "\n")
		}
		return r.renderChildren(w, el, depth)
	}

	hasBlockChildren := el.ChildCount() > 0 && !isInlineElement(tag)
	if r.config.Pretty && hasBlockChildren {
		io.WriteString(w, "\n")
	}

	if err := r.renderChildren(w, el, depth+1); err != nil {
		return err
	}

	if r.config.Pretty && hasBlockChildren {
		r.writeIndent(w, depth)
	}

	if _, err := io.WriteString(w, "</"+tag+">"); err != nil {
		return err
	}
	if r.config.Pretty {
		io.WriteString(w, "\n")
	}

	return nil
}

func (r *Renderer) renderChildren(w io.Writer, el *dom.Element, depth int) error {
	for i := 0; i < el.ChildCount(); i++ {
		if err := r.renderNode(w, el.Child(i), depth); err != nil {
			return err
		}
	}
	return nil
}

// renderText renders a text node with escaping.
func (r *Renderer) renderText(w io.Writer, t *dom.Text) error {
	_, err := io.WriteString(w, escapeText(t.Content()))
	return err
}

// renderAttributes writes class, style, then the literal attribute table.
func (r *Renderer) renderAttributes(w io.Writer, el *dom.Element) error {
	if classes := el.Classes(); classes.Len() > 0 {
		if _, err := fmt.Fprintf(w, ` class="%s"`, escapeAttr(classes.String())); err != nil {
			return err
		}
	}

	if styles := el.Styles(); styles.Len() > 0 {
		if _, err := fmt.Fprintf(w, ` style="%s"`, escapeAttr(styleString(styles))); err != nil {
			return err
		}
	}

	for key, value := range el.Attributes() {
		// Only the class list and style table reach the output.
		if key == "class" || key == "style" {
			continue
		}

		if value.Bool {
			if _, err := io.WriteString(w, " "+key); err != nil {
				return err
			}
			continue
		}

		if _, err := fmt.Fprintf(w, ` %s="%s"`, key, escapeAttr(value.Value)); err != nil {
			return err
		}
	}

	return nil
}

// styleString joins escaped "key: value" pairs with "; ".
func styleString(styles *dom.StyleMap) string {
	var b strings.Builder
	first := true
	for key, value := range styles.All() {
		if !first {
			b.WriteString("; ")
		}
		first = false
		b.WriteString(escapeStyle(key))
		b.WriteString(": ")
		b.WriteString(escapeStyle(value))
	}
	return b.String()
}

// writeIndent writes indentation for pretty printing.
func (r *Renderer) writeIndent(w io.Writer, depth int) {
	for i := 0; i < depth; i++ {
		io.WriteString(w, r.config.Indent)
	}
}

var (
	minifier     *minify.M
	minifierOnce sync.Once
)

// getMinifier returns the shared HTML minifier.
func getMinifier() *minify.M {
	minifierOnce.Do(func() {
		minifier = minify.New()
		minifier.AddFunc("text/html", html.Minify)
	})
	return minifier
}
