package dom

import "iter"

// Element is a container node with a tag, attributes, classes, styles and
// children.
type Element struct {
	tag      string
	attrs    OrderedMap[AttrValue]
	classes  ClassList
	styles   StyleMap
	children []Node
}

// NewElement creates a detached element with no attributes or children.
func NewElement(tag string) *Element {
	return &Element{tag: tag}
}

// Kind implements Node.
func (e *Element) Kind() Kind { return KindElement }

func (e *Element) node() {}

// Tag returns the element's tag name.
func (e *Element) Tag() string {
	return e.tag
}

// Attribute returns the value stored for name.
func (e *Element) Attribute(name string) (AttrValue, bool) {
	return e.attrs.Get(name)
}

// Attr returns the string value of name. Boolean attributes return "".
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs.Get(name)
	return v.String(), ok
}

// SetAttr sets a string attribute.
func (e *Element) SetAttr(name, value string) {
	e.attrs.Set(name, AttrValue{Value: value})
}

// SetBoolAttr makes name a bare attribute when present is true and
// removes it otherwise.
func (e *Element) SetBoolAttr(name string, present bool) {
	if !present {
		e.attrs.Delete(name)
		return
	}
	e.attrs.Set(name, AttrValue{Bool: true})
}

// RemoveAttr removes name and reports whether it was set.
func (e *Element) RemoveAttr(name string) bool {
	return e.attrs.Delete(name)
}

// HasAttr reports whether name is set.
func (e *Element) HasAttr(name string) bool {
	return e.attrs.Has(name)
}

// Attributes yields the literal attribute table in order. Literal "class"
// and "style" entries are included here but never rendered.
func (e *Element) Attributes() iter.Seq2[string, AttrValue] {
	return e.attrs.All()
}

// AttrCount returns the size of the literal attribute table.
func (e *Element) AttrCount() int {
	return e.attrs.Len()
}

// Classes returns the element's class list.
func (e *Element) Classes() *ClassList {
	return &e.classes
}

// Styles returns the element's style table.
func (e *Element) Styles() *StyleMap {
	return &e.styles
}

// ID returns the id attribute.
func (e *Element) ID() (string, bool) {
	return e.Attr("id")
}

// SetID sets the id attribute.
func (e *Element) SetID(id string) {
	e.SetAttr("id", id)
}

// InnerText returns the content of the only child when that child is a
// text node. Any other shape reports false.
func (e *Element) InnerText() (string, bool) {
	if len(e.children) != 1 {
		return "", false
	}
	t, ok := e.children[0].(*Text)
	if !ok {
		return "", false
	}
	return t.content, true
}

// SetInnerText replaces all children with a single text node.
func (e *Element) SetInnerText(text string) {
	e.Clear()
	e.children = append(e.children, NewText(text))
}

// UnsetInnerText removes all children.
func (e *Element) UnsetInnerText() {
	e.Clear()
}
