package protocol

import (
	"fmt"

	treeerrors "github.com/vango-dev/treepatch/internal/errors"
	"github.com/vango-dev/treepatch/pkg/applier"
	"github.com/vango-dev/treepatch/pkg/dom"
)

// ApplyTo replays the batch against a, stopping at the first failing
// operation. The returned error names the position of that operation and
// wraps the applier's error, so errors.Is still matches its code.
//
// Operations before the failing one stay applied.
func (b *Batch) ApplyTo(a applier.Applier) error {
	for i := range b.Ops {
		if err := applyOp(a, &b.Ops[i]); err != nil {
			return fmt.Errorf("batch %d: op %d (%s): %w", b.Seq, i, b.Ops[i].Kind, err)
		}
	}
	return nil
}

func applyOp(a applier.Applier, op *Op) error {
	switch op.Kind {
	case OpInsertTopDown:
		return a.InsertTopDown(op.Index, op.Node)
	case OpInsertBottomUp:
		return a.InsertBottomUp(op.Index, op.Node)
	case OpRemove:
		return a.Remove(op.Index, op.Count)
	case OpMove:
		return a.Move(op.Index, op.To, op.Count)
	case OpDown:
		node, err := childAt(a, op.Index)
		if err != nil {
			return err
		}
		return a.Down(node)
	case OpUp:
		return a.Up()
	case OpClear:
		return a.Clear()
	default:
		return treeerrors.New(treeerrors.CodeUnknownOp).
			WithDetail(fmt.Sprintf("operation kind 0x%02x", uint8(op.Kind)))
	}
}

// childAt resolves a Down target by position in the current container.
func childAt(a applier.Applier, index int) (dom.Node, error) {
	switch cur := a.Current().(type) {
	case *dom.Element:
		n := cur.ChildCount()
		if index < 0 || index >= n {
			return nil, treeerrors.Bounds(applier.OpDown, index, n)
		}
		return cur.Child(index), nil
	case *dom.Text:
		return nil, treeerrors.TextNode(applier.OpDown)
	default:
		return nil, treeerrors.New(treeerrors.CodeNilNode).WithOp(applier.OpDown)
	}
}
