package protocol

import (
	"fmt"

	"gopkg.in/yaml.v3"

	treeerrors "github.com/vango-dev/treepatch/internal/errors"
	"github.com/vango-dev/treepatch/pkg/applier"
	"github.com/vango-dev/treepatch/pkg/dom"
	"github.com/vango-dev/treepatch/pkg/render"
)

// Script is the YAML form of a batch:
//
//	seq: 3
//	ops:
//	  - op: insertBottomUp
//	    index: 0
//	    html: <li class="item">one</li>
//	  - op: move
//	    from: 0
//	    to: 2
//	  - op: down
//	    index: 1
//	  - op: insertBottomUp
//	    index: 0
//	    text: hello
//	  - op: up
//
// A document that is a bare list of operations is read with Seq 0.
// Count defaults to 1 for remove and move.
type Script struct {
	Seq uint64     `yaml:"seq,omitempty"`
	Ops []ScriptOp `yaml:"ops"`
}

// ScriptOp is one operation in a Script.
type ScriptOp struct {
	Op    string  `yaml:"op"`
	Index *int    `yaml:"index,omitempty"`
	From  *int    `yaml:"from,omitempty"`
	To    *int    `yaml:"to,omitempty"`
	Count *int    `yaml:"count,omitempty"`
	HTML  string  `yaml:"html,omitempty"`
	Text  *string `yaml:"text,omitempty"`
}

// ParseScript reads a YAML script into a batch.
func ParseScript(data []byte) (*Batch, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, malformed(err)
	}

	var script Script
	if len(doc.Content) > 0 {
		root := doc.Content[0]
		var err error
		if root.Kind == yaml.SequenceNode {
			err = root.Decode(&script.Ops)
		} else {
			err = root.Decode(&script)
		}
		if err != nil {
			return nil, malformed(err)
		}
	}

	b := &Batch{Seq: script.Seq, Ops: make([]Op, 0, len(script.Ops))}
	for i, so := range script.Ops {
		op, err := so.toOp()
		if err != nil {
			return nil, fmt.Errorf("script op %d (%s): %w", i, so.Op, err)
		}
		b.Ops = append(b.Ops, op)
	}
	return b, nil
}

func (so ScriptOp) toOp() (Op, error) {
	switch so.Op {
	case applier.OpInsertTopDown, applier.OpInsertBottomUp:
		node, err := so.node()
		if err != nil {
			return Op{}, err
		}
		kind := OpInsertBottomUp
		if so.Op == applier.OpInsertTopDown {
			kind = OpInsertTopDown
		}
		return Op{Kind: kind, Index: intOr(so.Index, 0), Node: node}, nil
	case applier.OpRemove:
		return Remove(intOr(so.Index, 0), intOr(so.Count, 1)), nil
	case applier.OpMove:
		from := so.From
		if from == nil {
			from = so.Index
		}
		if so.To == nil {
			return Op{}, malformed(fmt.Errorf("move requires to"))
		}
		return Move(intOr(from, 0), *so.To, intOr(so.Count, 1)), nil
	case applier.OpDown:
		return Down(intOr(so.Index, 0)), nil
	case applier.OpUp:
		return Up(), nil
	case applier.OpClear:
		return Clear(), nil
	default:
		return Op{}, treeerrors.New(treeerrors.CodeUnknownOp).
			WithDetail(fmt.Sprintf("unknown operation %q", so.Op))
	}
}

// node builds the inserted subtree from either text or a single markup root.
func (so ScriptOp) node() (dom.Node, error) {
	if so.Text != nil {
		return dom.NewText(*so.Text), nil
	}
	nodes, err := dom.ParseString(so.HTML)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, malformed(fmt.Errorf("html must contain exactly one root node, got %d", len(nodes)))
	}
	return nodes[0], nil
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// MarshalScript writes a batch in the YAML form read by ParseScript.
func MarshalScript(b *Batch) ([]byte, error) {
	script := Script{Seq: b.Seq, Ops: make([]ScriptOp, 0, len(b.Ops))}
	for _, op := range b.Ops {
		so := ScriptOp{Op: op.Kind.String()}
		switch op.Kind {
		case OpInsertTopDown, OpInsertBottomUp:
			so.Index = intPtr(op.Index)
			if t, ok := op.Node.(*dom.Text); ok {
				content := t.Content()
				so.Text = &content
			} else if op.Node != nil {
				so.HTML = render.Serialize(op.Node)
			}
		case OpRemove:
			so.Index = intPtr(op.Index)
			so.Count = intPtr(op.Count)
		case OpMove:
			so.From = intPtr(op.Index)
			so.To = intPtr(op.To)
			so.Count = intPtr(op.Count)
		case OpDown:
			so.Index = intPtr(op.Index)
		}
		script.Ops = append(script.Ops, so)
	}
	return yaml.Marshal(&script)
}

func intPtr(v int) *int { return &v }
