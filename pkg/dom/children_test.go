package dom

import (
	stderrors "errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/vango-dev/treepatch/internal/errors"
)

// labels returns the text of each child: text content for text nodes,
// inner text (or tag) for elements.
func labels(e *Element) []string {
	out := make([]string, 0, e.ChildCount())
	for _, c := range e.Children() {
		switch n := c.(type) {
		case *Text:
			out = append(out, n.Content())
		case *Element:
			if s, ok := n.InnerText(); ok {
				out = append(out, s)
			} else {
				out = append(out, n.Tag())
			}
		}
	}
	return out
}

func letters(s string) *Element {
	e := NewElement("div")
	for _, r := range s {
		e.Append(NewText(string(r)))
	}
	return e
}

func TestRemoveRange(t *testing.T) {
	e := letters("ABCD")
	if err := e.RemoveRange(1, 2); err != nil {
		t.Fatalf("RemoveRange: %v", err)
	}
	if got := labels(e); !slices.Equal(got, []string{"A", "D"}) {
		t.Errorf("children = %v, want [A D]", got)
	}
}

func TestMoveRange(t *testing.T) {
	tests := []struct {
		name            string
		from, to, count int
		want            string
	}{
		{"forward block", 1, 4, 2, "ADBCE"},
		{"backward block", 3, 1, 2, "ADEBC"},
		{"forward single", 0, 5, 1, "BCDEA"},
		{"backward single to front", 4, 0, 1, "EABCD"},
		{"adjacent forward is identity", 1, 3, 2, "ABCDE"},
		{"same index", 2, 2, 1, "ABCDE"},
		{"zero count", 0, 3, 0, "ABCDE"},
		{"whole tail to front", 2, 0, 3, "CDEAB"},
		{"target inside block", 0, 1, 3, "ABCDE"},
		{"target at last block item", 1, 2, 2, "ABCDE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := letters("ABCDE")
			if err := e.MoveRange(tt.from, tt.to, tt.count); err != nil {
				t.Fatalf("MoveRange(%d, %d, %d): %v", tt.from, tt.to, tt.count, err)
			}
			if got := strings.Join(labels(e), ""); got != tt.want {
				t.Errorf("children = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMoveRangeNumericBackward(t *testing.T) {
	e := NewElement("ol")
	for _, s := range []string{"1", "2", "3", "4", "5"} {
		e.Append(NewText(s))
	}
	if err := e.MoveRange(3, 1, 2); err != nil {
		t.Fatal(err)
	}
	if got := labels(e); !slices.Equal(got, []string{"1", "4", "5", "2", "3"}) {
		t.Errorf("children = %v, want [1 4 5 2 3]", got)
	}
}

func TestRangeBoundsErrors(t *testing.T) {
	tests := []struct {
		name string
		op   func(e *Element) error
	}{
		{"remove past end", func(e *Element) error { return e.RemoveRange(3, 2) }},
		{"remove negative index", func(e *Element) error { return e.RemoveRange(-1, 1) }},
		{"remove negative count", func(e *Element) error { return e.RemoveRange(0, -1) }},
		{"move source past end", func(e *Element) error { return e.MoveRange(3, 0, 2) }},
		{"move target past end", func(e *Element) error { return e.MoveRange(0, 5, 1) }},
		{"remove huge count", func(e *Element) error { return e.RemoveRange(1, math.MaxInt) }},
		{"move huge count", func(e *Element) error { return e.MoveRange(1, 0, math.MaxInt) }},
		{"move huge target", func(e *Element) error { return e.MoveRange(0, math.MaxInt, 1) }},
		{"move huge source", func(e *Element) error { return e.MoveRange(math.MaxInt, 0, 1) }},
		{"insert past end", func(e *Element) error { return e.InsertChild(5, NewText("x")) }},
		{"removeAt at length", func(e *Element) error { _, err := e.RemoveAt(4); return err }},
		{"replaceAt negative", func(e *Element) error { _, err := e.ReplaceAt(-1, NewText("x")); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := letters("ABCD")
			err := tt.op(e)
			if err == nil {
				t.Fatal("expected bounds error")
			}
			if !stderrors.Is(err, errors.ErrBounds) {
				t.Errorf("error %v should be a bounds error", err)
			}
			if got := strings.Join(labels(e), ""); got != "ABCD" {
				t.Errorf("failed call mutated children: %s", got)
			}
		})
	}
}

func TestInsertChildAtEdges(t *testing.T) {
	e := NewElement("div")
	if err := e.InsertChild(0, NewText("b")); err != nil {
		t.Fatal(err)
	}
	if err := e.InsertChild(0, NewText("a")); err != nil {
		t.Fatal(err)
	}
	if err := e.InsertChild(2, NewText("c")); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(labels(e), ""); got != "abc" {
		t.Errorf("children = %s, want abc", got)
	}
	if err := e.InsertChild(0, nil); !stderrors.Is(err, errors.ErrNilNode) {
		t.Errorf("InsertChild(nil) error = %v, want ErrNilNode", err)
	}
}

func TestRemoveAtAndReplaceAt(t *testing.T) {
	e := letters("ABC")

	old, err := e.ReplaceAt(1, NewText("X"))
	if err != nil {
		t.Fatal(err)
	}
	if old.(*Text).Content() != "B" {
		t.Errorf("ReplaceAt returned %v, want B", old)
	}

	removed, err := e.RemoveAt(0)
	if err != nil {
		t.Fatal(err)
	}
	if removed.(*Text).Content() != "A" {
		t.Errorf("RemoveAt returned %v, want A", removed)
	}
	if got := strings.Join(labels(e), ""); got != "XC" {
		t.Errorf("children = %s, want XC", got)
	}
}

func TestRemoveChildByIdentity(t *testing.T) {
	e := NewElement("div")
	a := NewText("same")
	b := NewText("same")
	e.Append(a, b)

	if !e.RemoveChild(b) {
		t.Fatal("RemoveChild(b) should be true")
	}
	if e.RemoveChild(b) {
		t.Error("RemoveChild(b) twice should be false")
	}
	if e.ChildCount() != 1 || e.Child(0) != Node(a) {
		t.Error("RemoveChild removed the wrong node")
	}
}

func TestSharedTextVisibleInAllParents(t *testing.T) {
	shared := NewText("hello")
	left := NewElement("p").Append(shared)
	right := NewElement("p").Append(shared)

	shared.SetContent("bye")

	for _, p := range []*Element{left, right} {
		if s, _ := p.InnerText(); s != "bye" {
			t.Errorf("InnerText = %q, want bye", s)
		}
	}
}

func TestInnerText(t *testing.T) {
	e := NewElement("span")
	if _, ok := e.InnerText(); ok {
		t.Error("empty element should have no inner text")
	}

	e.SetInnerText("hi")
	if s, ok := e.InnerText(); !ok || s != "hi" {
		t.Errorf("InnerText() = %q, %v", s, ok)
	}

	e.Append(NewText("there"))
	if _, ok := e.InnerText(); ok {
		t.Error("two children should have no inner text")
	}

	e.SetInnerText("reset")
	if e.ChildCount() != 1 {
		t.Errorf("SetInnerText should leave one child, got %d", e.ChildCount())
	}

	e.UnsetInnerText()
	if e.ChildCount() != 0 {
		t.Errorf("UnsetInnerText should clear children, got %d", e.ChildCount())
	}

	e.Append(NewElement("b"))
	if _, ok := e.InnerText(); ok {
		t.Error("element child should have no inner text")
	}
}

func TestID(t *testing.T) {
	e := NewElement("div")
	if _, ok := e.ID(); ok {
		t.Error("new element should have no id")
	}
	e.SetID("main")
	if id, ok := e.ID(); !ok || id != "main" {
		t.Errorf("ID() = %q, %v", id, ok)
	}
}

func TestChildOutOfRange(t *testing.T) {
	e := letters("A")
	if e.Child(1) != nil || e.Child(-1) != nil {
		t.Error("Child out of range should be nil")
	}
}

func TestClear(t *testing.T) {
	e := letters("ABC")
	snapshot := e.Children()
	e.Clear()
	if e.ChildCount() != 0 {
		t.Errorf("ChildCount() = %d after Clear", e.ChildCount())
	}
	if len(snapshot) != 3 || snapshot[0] == nil {
		t.Error("Children() copy should survive Clear")
	}
}
