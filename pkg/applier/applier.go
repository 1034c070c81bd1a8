package applier

import (
	"context"
	"log/slog"

	"github.com/vango-dev/treepatch/internal/errors"
	"github.com/vango-dev/treepatch/pkg/dom"
)

// Operation names used in errors, logs and metrics.
const (
	OpInsertTopDown  = "insertTopDown"
	OpInsertBottomUp = "insertBottomUp"
	OpRemove         = "remove"
	OpMove           = "move"
	OpDown           = "down"
	OpUp             = "up"
	OpClear          = "clear"
)

// Applier is the operation set a reconciler drives.
type Applier interface {
	// Current returns the container the next operation targets.
	Current() dom.Node

	// Depth returns how many Down calls are outstanding.
	Depth() int

	InsertTopDown(index int, node dom.Node) error
	InsertBottomUp(index int, node dom.Node) error
	Remove(index, count int) error
	Move(from, to, count int) error
	Down(node dom.Node) error
	Up() error
	Clear() error
}

// Option configures a TreeApplier.
type Option func(*TreeApplier)

// WithLogger sets the logger. Operations are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(a *TreeApplier) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithStrictDescent makes Down fail immediately when asked to enter a text
// node. Without it, Down succeeds and the next container operation fails.
func WithStrictDescent() Option {
	return func(a *TreeApplier) {
		a.strict = true
	}
}

// TreeApplier is the Applier over a dom tree.
type TreeApplier struct {
	root    *dom.Element
	current dom.Node
	stack   []dom.Node
	strict  bool
	logger  *slog.Logger
}

var _ Applier = (*TreeApplier)(nil)

// New creates an applier whose cursor starts at root.
func New(root *dom.Element, opts ...Option) *TreeApplier {
	a := &TreeApplier{
		root:    root,
		current: root,
		logger:  slog.Default().With("component", "applier"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Root returns the tree root.
func (a *TreeApplier) Root() *dom.Element {
	return a.root
}

// Current returns the current container.
func (a *TreeApplier) Current() dom.Node {
	return a.current
}

// Depth returns the number of containers on the ancestor stack.
func (a *TreeApplier) Depth() int {
	return len(a.stack)
}

// Reset returns the cursor to the root and drops the ancestor stack.
func (a *TreeApplier) Reset() {
	clear(a.stack)
	a.stack = a.stack[:0]
	a.current = a.root
}

// InsertTopDown does nothing. Trees are always built leaf-first.
func (a *TreeApplier) InsertTopDown(index int, node dom.Node) error {
	return nil
}

// InsertBottomUp inserts an already built subtree at index, which must be
// in [0, ChildCount()].
func (a *TreeApplier) InsertBottomUp(index int, node dom.Node) error {
	el, err := a.container(OpInsertBottomUp)
	if err != nil {
		return err
	}
	if err := el.InsertChild(index, node); err != nil {
		return rename(err, OpInsertBottomUp)
	}
	a.debug(OpInsertBottomUp, "index", index, "kind", node.Kind().String())
	return nil
}

// Remove detaches count children starting at index.
func (a *TreeApplier) Remove(index, count int) error {
	el, err := a.container(OpRemove)
	if err != nil {
		return err
	}
	if err := el.RemoveRange(index, count); err != nil {
		return err
	}
	a.debug(OpRemove, "index", index, "count", count)
	return nil
}

// Move relocates count children starting at from so that they begin at
// original index to. See dom.Element.MoveRange.
func (a *TreeApplier) Move(from, to, count int) error {
	el, err := a.container(OpMove)
	if err != nil {
		return err
	}
	if err := el.MoveRange(from, to, count); err != nil {
		return err
	}
	a.debug(OpMove, "from", from, "to", to, "count", count)
	return nil
}

// Down makes node, a child of the current container, the new current
// container.
func (a *TreeApplier) Down(node dom.Node) error {
	el, err := a.container(OpDown)
	if err != nil {
		return err
	}
	if node == nil || el.IndexOf(node) < 0 {
		return errors.New(errors.CodeNotChild).WithOp(OpDown)
	}
	if _, isText := node.(*dom.Text); isText && a.strict {
		return errors.TextNode(OpDown)
	}

	a.stack = append(a.stack, a.current)
	a.current = node
	a.debug(OpDown, "depth", len(a.stack), "kind", node.Kind().String())
	return nil
}

// Up restores the container that was current before the matching Down.
func (a *TreeApplier) Up() error {
	if len(a.stack) == 0 {
		return errors.New(errors.CodeUnderflow).WithOp(OpUp)
	}
	last := len(a.stack) - 1
	a.current = a.stack[last]
	a.stack[last] = nil
	a.stack = a.stack[:last]
	a.debug(OpUp, "depth", len(a.stack))
	return nil
}

// Clear detaches every child of the current container.
func (a *TreeApplier) Clear() error {
	el, err := a.container(OpClear)
	if err != nil {
		return err
	}
	n := el.ChildCount()
	el.Clear()
	a.debug(OpClear, "removed", n)
	return nil
}

// container returns the current container as an element.
func (a *TreeApplier) container(op string) (*dom.Element, error) {
	switch n := a.current.(type) {
	case *dom.Element:
		if n == nil {
			return nil, errors.New(errors.CodeNilNode).WithOp(op)
		}
		return n, nil
	case *dom.Text:
		return nil, errors.TextNode(op)
	default:
		return nil, errors.New(errors.CodeNilNode).WithOp(op)
	}
}

func (a *TreeApplier) debug(op string, args ...any) {
	if !a.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	a.logger.Debug(op, args...)
}

// rename reports err under op, keeping its code.
func rename(err error, op string) error {
	if te, ok := err.(*errors.TreeError); ok {
		te.Op = op
		return te
	}
	return err
}
