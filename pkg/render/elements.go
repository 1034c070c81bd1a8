package render

import "slices"

// Void elements are written without children or a closing tag.
var voidElements = []string{
	"area", "base", "br", "col", "embed", "hr", "img",
	"input", "link", "meta", "param", "source", "track", "wbr",
}

// Inline elements stay on the current line in pretty output.
var inlineElements = []string{
	"a", "abbr", "b", "bdi", "bdo", "br", "cite", "code", "data",
	"dfn", "em", "i", "kbd", "mark", "q", "s", "samp", "small",
	"span", "strong", "sub", "sup", "time", "u", "var", "wbr",
}

// IsVoidElement reports whether tag is an HTML void element.
func IsVoidElement(tag string) bool {
	return slices.Contains(voidElements, tag)
}

func isInlineElement(tag string) bool {
	return slices.Contains(inlineElements, tag)
}
