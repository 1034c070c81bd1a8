package protocol

import (
	"github.com/vango-dev/treepatch/pkg/dom"
)

// MaxNodeDepth limits the nesting depth of decoded subtrees.
const MaxNodeDepth = 256

// Node kinds on the wire.
const (
	wireElement byte = 0x00
	wireText    byte = 0x01
)

// EncodeNode writes a subtree.
//
//	Text:    [0x01][Content: string]
//	Element: [0x00][Tag: string]
//	         [AttrCount: varint]{[Key: string][Bool: bool][Value: string if !Bool]}
//	         [ClassCount: varint]{[Name: string]}
//	         [StyleCount: varint]{[Prop: string][Value: string]}
//	         [ChildCount: varint]{Node}
func EncodeNode(e *Encoder, n dom.Node) {
	switch n := n.(type) {
	case *dom.Text:
		e.WriteByte(wireText)
		e.WriteString(n.Content())
	case *dom.Element:
		e.WriteByte(wireElement)
		e.WriteString(n.Tag())

		e.WriteUvarint(uint64(n.AttrCount()))
		for key, value := range n.Attributes() {
			e.WriteString(key)
			e.WriteBool(value.Bool)
			if !value.Bool {
				e.WriteString(value.Value)
			}
		}

		classes := n.Classes().Values()
		e.WriteUvarint(uint64(len(classes)))
		for _, c := range classes {
			e.WriteString(c)
		}

		e.WriteUvarint(uint64(n.Styles().Len()))
		for prop, value := range n.Styles().All() {
			e.WriteString(prop)
			e.WriteString(value)
		}

		e.WriteUvarint(uint64(n.ChildCount()))
		for i := 0; i < n.ChildCount(); i++ {
			EncodeNode(e, n.Child(i))
		}
	}
}

// DecodeNode reads a subtree written by EncodeNode.
func DecodeNode(d *Decoder) (dom.Node, error) {
	return decodeNode(d, 0)
}

func decodeNode(d *Decoder, depth int) (dom.Node, error) {
	if depth > MaxNodeDepth {
		return nil, ErrMaxDepthExceeded
	}

	kind, err := d.ReadByte()
	if err != nil {
		return nil, err
	}

	switch kind {
	case wireText:
		content, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return dom.NewText(content), nil

	case wireElement:
		tag, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		el := dom.NewElement(tag)

		if err := decodeAttrs(d, el); err != nil {
			return nil, err
		}

		classCount, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		for i := 0; i < classCount; i++ {
			name, err := d.ReadString()
			if err != nil {
				return nil, err
			}
			el.Classes().Add(name)
		}

		styleCount, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		for i := 0; i < styleCount; i++ {
			prop, err := d.ReadString()
			if err != nil {
				return nil, err
			}
			value, err := d.ReadString()
			if err != nil {
				return nil, err
			}
			el.Styles().Set(prop, value)
		}

		childCount, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		for i := 0; i < childCount; i++ {
			child, err := decodeNode(d, depth+1)
			if err != nil {
				return nil, err
			}
			el.Append(child)
		}
		return el, nil

	default:
		return nil, errUnknownNodeKind
	}
}

func decodeAttrs(d *Decoder, el *dom.Element) error {
	count, err := d.ReadCollectionCount()
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		key, err := d.ReadString()
		if err != nil {
			return err
		}
		isBool, err := d.ReadBool()
		if err != nil {
			return err
		}
		if isBool {
			el.SetBoolAttr(key, true)
			continue
		}
		value, err := d.ReadString()
		if err != nil {
			return err
		}
		el.SetAttr(key, value)
	}
	return nil
}
