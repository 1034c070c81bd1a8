package render

import "strings"

var (
	// Text content keeps quotes as written.
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

	// Attribute values are double-quoted. Whitespace that a parser would
	// normalize is written as a numeric reference.
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#9;", "\n", "&#10;", "\r", "&#13;",
	)

	// Style keys and values are escaped once here and again by attrEscaper
	// when the whole style string is written.
	styleEscaper = strings.NewReplacer(
		"\t", "&#9;", "\n", "&#10;", "\r", "&#13;",
		"&", "&amp;", "<", "&lt;", ">", "&gt;",
	)
)

func escapeText(s string) string { return textEscaper.Replace(s) }
func escapeAttr(s string) string { return attrEscaper.Replace(s) }
func escapeStyle(s string) string { return styleEscaper.Replace(s) }
