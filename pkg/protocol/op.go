package protocol

import (
	"errors"
	"fmt"

	treeerrors "github.com/vango-dev/treepatch/internal/errors"
	"github.com/vango-dev/treepatch/pkg/applier"
	"github.com/vango-dev/treepatch/pkg/dom"
)

// OpKind identifies an applier operation on the wire.
type OpKind uint8

const (
	OpInsertTopDown  OpKind = 0x01
	OpInsertBottomUp OpKind = 0x02
	OpRemove         OpKind = 0x03
	OpMove           OpKind = 0x04
	OpDown           OpKind = 0x05
	OpUp             OpKind = 0x06
	OpClear          OpKind = 0x07
)

var errUnknownNodeKind = errors.New("protocol: unknown node kind")

// String returns the applier operation name.
func (k OpKind) String() string {
	switch k {
	case OpInsertTopDown:
		return applier.OpInsertTopDown
	case OpInsertBottomUp:
		return applier.OpInsertBottomUp
	case OpRemove:
		return applier.OpRemove
	case OpMove:
		return applier.OpMove
	case OpDown:
		return applier.OpDown
	case OpUp:
		return applier.OpUp
	case OpClear:
		return applier.OpClear
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Op is a single applier operation.
//
// Field use by kind:
//
//	InsertTopDown, InsertBottomUp: Index, Node
//	Remove:                        Index, Count
//	Move:                          Index (from), To, Count
//	Down:                          Index (child position)
//	Up, Clear:                     none
type Op struct {
	Kind  OpKind
	Index int
	To    int
	Count int
	Node  dom.Node
}

// Batch is an ordered list of operations applied as a unit.
type Batch struct {
	Seq uint64
	Ops []Op
}

// Constructors for common operations.

// InsertBottomUp returns an insert of node at index.
func InsertBottomUp(index int, node dom.Node) Op {
	return Op{Kind: OpInsertBottomUp, Index: index, Node: node}
}

// InsertTopDown returns a top-down insert of node at index.
func InsertTopDown(index int, node dom.Node) Op {
	return Op{Kind: OpInsertTopDown, Index: index, Node: node}
}

// Remove returns a removal of count children starting at index.
func Remove(index, count int) Op {
	return Op{Kind: OpRemove, Index: index, Count: count}
}

// Move returns a move of count children from from to to.
func Move(from, to, count int) Op {
	return Op{Kind: OpMove, Index: from, To: to, Count: count}
}

// Down returns a descent into the child at index.
func Down(index int) Op {
	return Op{Kind: OpDown, Index: index}
}

// Up returns an ascent.
func Up() Op {
	return Op{Kind: OpUp}
}

// Clear returns a clear of the current container.
func Clear() Op {
	return Op{Kind: OpClear}
}

// EncodeBatch encodes a batch to bytes.
func EncodeBatch(b *Batch) []byte {
	e := NewEncoder()
	EncodeBatchTo(e, b)
	return e.Bytes()
}

// EncodeBatchTo encodes a batch using the provided encoder.
func EncodeBatchTo(e *Encoder, b *Batch) {
	e.WriteUvarint(b.Seq)
	e.WriteUvarint(uint64(len(b.Ops)))
	for i := range b.Ops {
		encodeOp(e, &b.Ops[i])
	}
}

func encodeOp(e *Encoder, op *Op) {
	e.WriteByte(byte(op.Kind))
	switch op.Kind {
	case OpInsertTopDown, OpInsertBottomUp:
		e.WriteSvarint(int64(op.Index))
		EncodeNode(e, op.Node)
	case OpRemove:
		e.WriteSvarint(int64(op.Index))
		e.WriteSvarint(int64(op.Count))
	case OpMove:
		e.WriteSvarint(int64(op.Index))
		e.WriteSvarint(int64(op.To))
		e.WriteSvarint(int64(op.Count))
	case OpDown:
		e.WriteSvarint(int64(op.Index))
	case OpUp, OpClear:
	}
}

// DecodeBatch decodes a batch from bytes. Errors carry code E120 for
// truncated or invalid data and E121 for unknown operation kinds.
func DecodeBatch(data []byte) (*Batch, error) {
	d := NewDecoder(data)
	b, err := DecodeBatchFrom(d)
	if err != nil {
		return nil, err
	}
	if !d.EOF() {
		return nil, malformed(fmt.Errorf("%d trailing bytes", d.Remaining()))
	}
	return b, nil
}

// DecodeBatchFrom decodes a batch using the provided decoder.
func DecodeBatchFrom(d *Decoder) (*Batch, error) {
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, malformed(err)
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, malformed(err)
	}

	b := &Batch{Seq: seq, Ops: make([]Op, 0, count)}
	for i := 0; i < count; i++ {
		op, err := decodeOp(d)
		if err != nil {
			if te, ok := err.(*treeerrors.TreeError); ok {
				te.Op = fmt.Sprintf("op %d", i)
				return nil, te
			}
			return nil, err
		}
		b.Ops = append(b.Ops, op)
	}
	return b, nil
}

func decodeOp(d *Decoder) (Op, error) {
	kind, err := d.ReadByte()
	if err != nil {
		return Op{}, malformed(err)
	}

	op := Op{Kind: OpKind(kind)}
	switch op.Kind {
	case OpInsertTopDown, OpInsertBottomUp:
		if op.Index, err = d.ReadInt(); err != nil {
			return Op{}, malformed(err)
		}
		if op.Node, err = DecodeNode(d); err != nil {
			return Op{}, malformed(err)
		}
	case OpRemove:
		if op.Index, err = d.ReadInt(); err != nil {
			return Op{}, malformed(err)
		}
		if op.Count, err = d.ReadInt(); err != nil {
			return Op{}, malformed(err)
		}
	case OpMove:
		if op.Index, err = d.ReadInt(); err != nil {
			return Op{}, malformed(err)
		}
		if op.To, err = d.ReadInt(); err != nil {
			return Op{}, malformed(err)
		}
		if op.Count, err = d.ReadInt(); err != nil {
			return Op{}, malformed(err)
		}
	case OpDown:
		if op.Index, err = d.ReadInt(); err != nil {
			return Op{}, malformed(err)
		}
	case OpUp, OpClear:
	default:
		return Op{}, treeerrors.New(treeerrors.CodeUnknownOp).
			WithDetail(fmt.Sprintf("operation kind 0x%02x", kind))
	}
	return op, nil
}

func malformed(err error) *treeerrors.TreeError {
	return treeerrors.New(treeerrors.CodeMalformed).Wrap(err)
}
