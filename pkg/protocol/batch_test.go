package protocol

import (
	"errors"
	"math"
	"testing"

	treeerrors "github.com/vango-dev/treepatch/internal/errors"
	"github.com/vango-dev/treepatch/pkg/applier"
	"github.com/vango-dev/treepatch/pkg/dom"
	"github.com/vango-dev/treepatch/pkg/render"
)

func item(label string) *dom.Element {
	li := dom.NewElement("li")
	li.Classes().Add("item")
	li.SetAttr("data-key", label)
	li.Append(dom.NewText(label))
	return li
}

func TestBatchWireApply(t *testing.T) {
	batch := &Batch{
		Seq: 7,
		Ops: []Op{
			InsertTopDown(0, item("ignored")),
			InsertBottomUp(0, item("a")),
			InsertBottomUp(1, item("b")),
			InsertBottomUp(2, item("c")),
			Move(0, 3, 1),
			Down(0),
			InsertBottomUp(1, dom.NewText("!")),
			Up(),
			Remove(1, 1),
		},
	}

	decoded, err := DecodeBatch(EncodeBatch(batch))
	if err != nil {
		t.Fatalf("DecodeBatch() error = %v", err)
	}
	if decoded.Seq != 7 || len(decoded.Ops) != len(batch.Ops) {
		t.Fatalf("decoded seq=%d ops=%d", decoded.Seq, len(decoded.Ops))
	}

	root := dom.NewElement("ul")
	a := applier.New(root)
	if err := decoded.ApplyTo(a); err != nil {
		t.Fatalf("ApplyTo() error = %v", err)
	}

	want := `<ul><li class="item" data-key="b">b!</li><li class="item" data-key="a">a</li></ul>`
	if got := render.Serialize(root); got != want {
		t.Errorf("tree = %s, want %s", got, want)
	}
	if a.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", a.Depth())
	}
}

func TestBatchNodeAttributes(t *testing.T) {
	input := dom.NewElement("input")
	input.SetAttr("type", "checkbox")
	input.SetBoolAttr("checked", true)
	input.Styles().Set("color", "red")

	decoded, err := DecodeBatch(EncodeBatch(&Batch{Ops: []Op{InsertBottomUp(0, input)}}))
	if err != nil {
		t.Fatalf("DecodeBatch() error = %v", err)
	}
	got := decoded.Ops[0].Node.(*dom.Element)
	if v, ok := got.Attribute("checked"); !ok || !v.Bool {
		t.Errorf("checked = %+v, %v", v, ok)
	}
	if v, _ := got.Attr("type"); v != "checkbox" {
		t.Errorf("type = %q", v)
	}
	if v, _ := got.Styles().Get("color"); v != "red" {
		t.Errorf("color = %q", v)
	}
}

func TestDecodeBatchErrors(t *testing.T) {
	t.Run("truncated", func(t *testing.T) {
		data := EncodeBatch(&Batch{Ops: []Op{Move(0, 2, 1)}})
		_, err := DecodeBatch(data[:len(data)-1])
		if !errors.Is(err, treeerrors.ErrMalformed) {
			t.Errorf("err = %v, want E120", err)
		}
	})
	t.Run("unknown_op", func(t *testing.T) {
		_, err := DecodeBatch([]byte{0x00, 0x01, 0x7f})
		if !errors.Is(err, treeerrors.ErrUnknownOp) {
			t.Errorf("err = %v, want E121", err)
		}
	})
	t.Run("trailing_bytes", func(t *testing.T) {
		data := append(EncodeBatch(&Batch{Ops: []Op{Up()}}), 0x00)
		_, err := DecodeBatch(data)
		if !errors.Is(err, treeerrors.ErrMalformed) {
			t.Errorf("err = %v, want E120", err)
		}
	})
	t.Run("depth_limit", func(t *testing.T) {
		root := dom.NewElement("div")
		cur := root
		for i := 0; i < MaxNodeDepth+1; i++ {
			next := dom.NewElement("div")
			cur.Append(next)
			cur = next
		}
		_, err := DecodeBatch(EncodeBatch(&Batch{Ops: []Op{InsertBottomUp(0, root)}}))
		if !errors.Is(err, ErrMaxDepthExceeded) {
			t.Errorf("err = %v, want ErrMaxDepthExceeded", err)
		}
	})
}

func TestApplyToErrors(t *testing.T) {
	tests := []struct {
		name string
		ops  []Op
		want error
	}{
		{"negative_index", []Op{InsertBottomUp(-1, dom.NewText("x"))}, treeerrors.ErrBounds},
		{"remove_past_end", []Op{Remove(0, 1)}, treeerrors.ErrBounds},
		{"down_out_of_range", []Op{Down(0)}, treeerrors.ErrBounds},
		{"up_at_root", []Op{Up()}, treeerrors.ErrUnderflow},
		{"insert_into_text", []Op{InsertBottomUp(0, dom.NewText("t")), Down(0), InsertBottomUp(0, dom.NewText("u"))}, treeerrors.ErrTextNode},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Negative indices must survive the wire and fail in the applier.
			decoded, err := DecodeBatch(EncodeBatch(&Batch{Ops: tc.ops}))
			if err != nil {
				t.Fatalf("DecodeBatch() error = %v", err)
			}
			err = decoded.ApplyTo(applier.New(dom.NewElement("div")))
			if !errors.Is(err, tc.want) {
				t.Errorf("ApplyTo() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestApplyToHugeCounts(t *testing.T) {
	tests := []struct {
		name string
		op   Op
	}{
		{"remove", Remove(1, math.MaxInt)},
		{"move_count", Move(1, 0, math.MaxInt)},
		{"move_target", Move(0, math.MaxInt, 1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := DecodeBatch(EncodeBatch(&Batch{Ops: []Op{tc.op}}))
			if err != nil {
				t.Fatalf("DecodeBatch() error = %v", err)
			}
			root := dom.NewElement("ul").Append(item("a"), item("b"), item("c"))
			before := render.Serialize(root)

			err = decoded.ApplyTo(applier.New(root))
			if !errors.Is(err, treeerrors.ErrBounds) {
				t.Errorf("ApplyTo() error = %v, want a bounds error", err)
			}
			if got := render.Serialize(root); got != before {
				t.Errorf("failed op mutated tree: %s", got)
			}
		})
	}
}

func TestApplyToStopsAtFirstError(t *testing.T) {
	root := dom.NewElement("div")
	b := &Batch{Ops: []Op{
		InsertBottomUp(0, dom.NewText("a")),
		Remove(5, 1),
		InsertBottomUp(1, dom.NewText("b")),
	}}
	if err := b.ApplyTo(applier.New(root)); err == nil {
		t.Fatal("ApplyTo() succeeded, want error")
	}
	if root.ChildCount() != 1 {
		t.Errorf("ChildCount() = %d, want 1", root.ChildCount())
	}
}

func TestOpKindString(t *testing.T) {
	if OpMove.String() != "move" {
		t.Errorf("OpMove.String() = %q", OpMove.String())
	}
	if OpKind(0x42).String() != "Unknown(66)" {
		t.Errorf("unknown String() = %q", OpKind(0x42).String())
	}
}
