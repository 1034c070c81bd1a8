package dom

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement Kind = iota // <div>, <span>, etc.
	KindText                // Plain text leaf
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// Node is either an *Element or a *Text. No other implementations exist.
type Node interface {
	Kind() Kind
	node()
}

// Text is a leaf node with raw content.
type Text struct {
	content string
}

// NewText creates a text node.
func NewText(content string) *Text {
	return &Text{content: content}
}

// Kind implements Node.
func (t *Text) Kind() Kind { return KindText }

func (t *Text) node() {}

// Content returns the raw text.
func (t *Text) Content() string {
	return t.content
}

// SetContent replaces the raw text. Every parent holding t sees the change.
func (t *Text) SetContent(content string) {
	t.content = content
}

// String returns the raw text.
func (t *Text) String() string {
	return t.content
}
