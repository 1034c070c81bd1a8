// Package render serializes dom trees to markup.
//
// Output is deterministic: attributes appear in table order, preceded by a
// synthetic class attribute and a synthetic style attribute when the
// element has classes or styles. Escaping is applied at serialization time
// and never recognizes existing entities, so "&amp;" in a text node is
// written as "&amp;amp;".
//
// # Basic Usage
//
//	html := render.Serialize(root)
//
//	renderer := render.NewRenderer(render.RendererConfig{})
//	err := renderer.RenderToWriter(w, root)
//
// # Void Elements
//
// Void tags (br, img, input, ...) are written as an open tag only. Children
// attached to a void element are still written, directly after the open
// tag, and no closing tag follows.
//
// # Style Values
//
// Style keys and values are escaped once while building the style string,
// and the whole string is escaped again as an attribute value. A literal
// "&" in a style value therefore renders as "&amp;amp;".
//
// # Full Documents
//
// RenderDocument wraps a tree in a complete HTML page. StreamingRenderer
// does the same over HTTP, flushing the head before the body.
package render
