package dom

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/treepatch/internal/errors"
)

// Parse reads a markup fragment and returns its top-level nodes as
// detached subtrees, parsed as if they appeared inside <body>.
//
// A class attribute fills the class list and a style attribute fills the
// style table. Attributes written without a value become boolean
// attributes; an explicit empty value such as value="" stays a string.
// Comments and doctypes are dropped.
func Parse(r io.Reader) ([]Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New(errors.CodeMalformed).WithOp("parse").Wrap(err)
	}

	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	parsed, err := html.ParseFragment(bytes.NewReader(markBareAttrs(src)), context)
	if err != nil {
		return nil, errors.New(errors.CodeMalformed).WithOp("parse").Wrap(err)
	}

	nodes := make([]Node, 0, len(parsed))
	for _, p := range parsed {
		if n := convert(p); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// ParseString is Parse over a string.
func ParseString(markup string) ([]Node, error) {
	return Parse(strings.NewReader(markup))
}

func convert(h *html.Node) Node {
	switch h.Type {
	case html.TextNode:
		return NewText(h.Data)
	case html.ElementNode:
		el := NewElement(h.Data)
		for _, a := range h.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + a.Key
			}
			switch {
			case key == "class":
				el.classes.Add(strings.Fields(a.Val)...)
			case key == "style":
				parseStyle(&el.styles, a.Val)
			case a.Val == bareMarker:
				el.SetBoolAttr(key, true)
			default:
				el.SetAttr(key, a.Val)
			}
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if n := convert(c); n != nil {
				el.children = append(el.children, n)
			}
		}
		return el
	default:
		return nil
	}
}

// parseStyle splits "a: b; c: d" declarations into s.
func parseStyle(s *StyleMap, decl string) {
	for _, part := range strings.Split(decl, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.TrimSpace(prop)
		if prop == "" {
			continue
		}
		s.Set(prop, strings.TrimSpace(value))
	}
}

// bareMarker stands in for the value of an attribute written without "=".
// The parser reports both <input disabled> and <input disabled=""> with an
// empty value, so bare attributes are tagged before parsing.
const bareMarker = "\uE000"

// markBareAttrs rewrites start tags in src so that attributes written
// without a value carry bareMarker. Everything else is copied unchanged.
func markBareAttrs(src []byte) []byte {
	z := html.NewTokenizer(bytes.NewReader(src))
	out := make([]byte, 0, len(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return append(out, z.Raw()...)
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out = append(out, z.Raw()...)
			continue
		}
		bare := bareAttrNames(z.Raw())
		if len(bare) == 0 {
			out = append(out, z.Raw()...)
			continue
		}
		tok := z.Token()
		for i, a := range tok.Attr {
			if a.Val == "" && bare[a.Key] {
				tok.Attr[i].Val = bareMarker
			}
		}
		out = append(out, tok.String()...)
	}
}

// bareAttrNames scans a raw start tag and returns the lower-cased names of
// attributes whose first occurrence has no "=".
func bareAttrNames(raw []byte) map[string]bool {
	s := string(raw)
	i := 1
	for i < len(s) && !isTagSpace(s[i]) && s[i] != '/' && s[i] != '>' {
		i++
	}

	var bare map[string]bool
	seen := make(map[string]bool)
	for i < len(s) {
		for i < len(s) && (isTagSpace(s[i]) || s[i] == '/') {
			i++
		}
		if i >= len(s) || s[i] == '>' {
			break
		}

		// The first character of a name may be '='.
		start := i
		i++
		for i < len(s) && !isTagSpace(s[i]) && s[i] != '/' && s[i] != '>' && s[i] != '=' {
			i++
		}
		name := strings.ToLower(s[start:i])

		j := i
		for j < len(s) && isTagSpace(s[j]) {
			j++
		}
		valued := j < len(s) && s[j] == '='
		if valued {
			i = skipAttrValue(s, j+1)
		}

		if seen[name] {
			continue
		}
		seen[name] = true
		if !valued {
			if bare == nil {
				bare = make(map[string]bool)
			}
			bare[name] = true
		}
	}
	return bare
}

// skipAttrValue returns the index just past the value starting at i.
func skipAttrValue(s string, i int) int {
	for i < len(s) && isTagSpace(s[i]) {
		i++
	}
	if i < len(s) && (s[i] == '"' || s[i] == '\'') {
		q := s[i]
		i++
		for i < len(s) && s[i] != q {
			i++
		}
		return i + 1
	}
	for i < len(s) && !isTagSpace(s[i]) && s[i] != '>' {
		i++
	}
	return i
}

func isTagSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}
