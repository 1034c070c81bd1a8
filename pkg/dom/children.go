package dom

import (
	"slices"

	"github.com/vango-dev/treepatch/internal/errors"
)

// ChildCount returns the number of children.
func (e *Element) ChildCount() int {
	return len(e.children)
}

// Child returns the child at index, or nil when index is out of range.
func (e *Element) Child(index int) Node {
	if index < 0 || index >= len(e.children) {
		return nil
	}
	return e.children[index]
}

// Children returns a copy of the child list.
func (e *Element) Children() []Node {
	return slices.Clone(e.children)
}

// IndexOf returns the position of n among the children, or -1.
// Nodes are compared by identity.
func (e *Element) IndexOf(n Node) int {
	for i, c := range e.children {
		if c == n {
			return i
		}
	}
	return -1
}

// Append adds children at the end and returns e. Nil children are skipped.
func (e *Element) Append(children ...Node) *Element {
	for _, c := range children {
		if isNil(c) {
			continue
		}
		e.children = append(e.children, c)
	}
	return e
}

// InsertChild inserts n at index, which must be in [0, ChildCount()].
func (e *Element) InsertChild(index int, n Node) error {
	if isNil(n) {
		return errors.New(errors.CodeNilNode).WithOp("insertAt")
	}
	if index < 0 || index > len(e.children) {
		return errors.Bounds("insertAt", index, len(e.children))
	}
	e.children = slices.Insert(e.children, index, n)
	return nil
}

// RemoveAt detaches and returns the child at index.
func (e *Element) RemoveAt(index int) (Node, error) {
	if index < 0 || index >= len(e.children) {
		return nil, errors.Bounds("removeAt", index, len(e.children))
	}
	n := e.children[index]
	e.children = slices.Delete(e.children, index, index+1)
	return n, nil
}

// ReplaceAt swaps the child at index for n and returns the old child.
func (e *Element) ReplaceAt(index int, n Node) (Node, error) {
	if isNil(n) {
		return nil, errors.New(errors.CodeNilNode).WithOp("replaceAt")
	}
	if index < 0 || index >= len(e.children) {
		return nil, errors.Bounds("replaceAt", index, len(e.children))
	}
	old := e.children[index]
	e.children[index] = n
	return old, nil
}

// RemoveChild detaches n and reports whether it was a child.
func (e *Element) RemoveChild(n Node) bool {
	i := e.IndexOf(n)
	if i < 0 {
		return false
	}
	e.children = slices.Delete(e.children, i, i+1)
	return true
}

// RemoveRange detaches count consecutive children starting at index.
func (e *Element) RemoveRange(index, count int) error {
	if err := checkRange("remove", index, count, len(e.children)); err != nil {
		return err
	}
	e.children = slices.Delete(e.children, index, index+count)
	return nil
}

// MoveRange relocates count consecutive children starting at from so that
// the block lands where original index to was. to is expressed in the
// index space before the move. A forward move reinserts the block at
// to-count in the shortened list; a backward move reinserts it at to.
// A to that falls inside the block is a no-op.
func (e *Element) MoveRange(from, to, count int) error {
	n := len(e.children)
	if err := checkRange("move", from, count, n); err != nil {
		return err
	}
	if to < 0 || to > n {
		return errors.Bounds("move", to, n)
	}
	if count == 0 || (to >= from && to-from <= count) {
		return nil
	}

	dest := to
	if to > from {
		dest = to - count
	}
	block := slices.Clone(e.children[from : from+count])
	rest := slices.Delete(e.children, from, from+count)
	e.children = slices.Insert(rest, dest, block...)
	return nil
}

// Clear detaches every child.
func (e *Element) Clear() {
	clear(e.children)
	e.children = e.children[:0]
}

func checkRange(op string, index, count, length int) error {
	if count < 0 {
		err := errors.BoundsRange(op, index, count, length)
		err.Message = "count must not be negative"
		return err
	}
	if index < 0 || index > length {
		return errors.Bounds(op, index, length)
	}
	if count > length-index {
		return errors.BoundsRange(op, index, count, length)
	}
	return nil
}

func isNil(n Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *Element:
		return v == nil
	case *Text:
		return v == nil
	}
	return false
}
