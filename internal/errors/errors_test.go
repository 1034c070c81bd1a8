package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "bounds",
			code:    CodeBounds,
			wantMsg: "Index out of bounds",
			wantCat: CategoryBounds,
		},
		{
			name:    "text node",
			code:    CodeTextNode,
			wantMsg: "target is a text node",
			wantCat: CategoryStructural,
		},
		{
			name:    "protocol error",
			code:    CodeMalformed,
			wantMsg: "Malformed patch data",
			wantCat: CategoryProtocol,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestBoundsMessage(t *testing.T) {
	err := Bounds("insertBottomUp", 4, 2)
	want := "E100: insertBottomUp: index 4 out of bounds for length 2"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.Index != 4 || err.Length != 2 {
		t.Errorf("Index/Length = %d/%d, want 4/2", err.Index, err.Length)
	}

	r := BoundsRange("move", 3, 2, 4)
	if !strings.Contains(r.Error(), "range [3, 5) out of bounds for length 4") {
		t.Errorf("unexpected range message %q", r.Error())
	}
}

func TestTextNodeMessageNamesOperation(t *testing.T) {
	err := TextNode("insertBottomUp")
	msg := err.Error()
	if !strings.Contains(msg, "insertBottomUp") {
		t.Errorf("message %q should name the operation", msg)
	}
	if !strings.Contains(msg, "text node") {
		t.Errorf("message %q should mention text node", msg)
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("batch op 3: %w", TextNode("remove"))
	if !stderrors.Is(err, ErrTextNode) {
		t.Error("errors.Is should match ErrTextNode through wrapping")
	}
	if stderrors.Is(err, ErrBounds) {
		t.Error("errors.Is should not match ErrBounds")
	}
	if !IsStructural(err) {
		t.Error("IsStructural should be true")
	}
	if IsBounds(err) {
		t.Error("IsBounds should be false")
	}
	if !IsBounds(Bounds("remove", 1, 0)) {
		t.Error("IsBounds should be true for a bounds error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeStorage) != nil {
		t.Error("FromError(nil) should be nil")
	}

	orig := Bounds("move", 1, 0)
	if FromError(orig, CodeStorage) != orig {
		t.Error("FromError should return an existing TreeError unchanged")
	}

	cause := stderrors.New("connection reset")
	wrapped := FromError(cause, CodeStorage)
	if wrapped.Code != CodeStorage {
		t.Errorf("Code = %q, want %q", wrapped.Code, CodeStorage)
	}
	if !stderrors.Is(wrapped, cause) {
		t.Error("wrapped error should unwrap to cause")
	}
	if !strings.HasSuffix(wrapped.Error(), "connection reset") {
		t.Errorf("Error() = %q should end with the cause", wrapped.Error())
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := TextNode("down").WithSuggestion("enter an element instead")
	out := err.Format()

	for _, want := range []string{"ERROR E101: down: target is a text node", "Hint: enter an element instead", "Text nodes are leaves"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q longer than width", l)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six" {
		t.Errorf("wrapText lost words: %v", lines)
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText(\"\") should be nil")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("batch 3: %w", Bounds("remove", 4, 2))
	if !HasCode(err, CodeBounds) {
		t.Error("HasCode(wrapped bounds, E100) = false")
	}
	if HasCode(err, CodeUnderflow) {
		t.Error("HasCode(wrapped bounds, E103) = true")
	}
	if HasCode(nil, CodeBounds) {
		t.Error("HasCode(nil) = true")
	}
}

func TestFprintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var b strings.Builder
	FprintError(&b, fmt.Errorf("edits.yaml: %w", Bounds("remove", 3, 1)))
	out := b.String()
	for _, want := range []string{"edits.yaml: ", "ERROR E100: remove: "} {
		if !strings.Contains(out, want) {
			t.Errorf("FprintError() missing %q in:\n%s", want, out)
		}
	}

	b.Reset()
	FprintError(&b, stderrors.New("plain failure"))
	if !strings.Contains(b.String(), "ERROR: plain failure") {
		t.Errorf("FprintError(plain) = %q", b.String())
	}
}
