package errors

import (
	"fmt"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryBounds     Category = "bounds"
	CategoryStructural Category = "structural"
	CategoryProtocol   Category = "protocol"
	CategoryConfig     Category = "config"
	CategoryStorage    Category = "storage"
)

// TreeError is a structured error with a registered code.
type TreeError struct {
	// Code is a unique error identifier (e.g., "E100").
	Code string

	// Category is the error type.
	Category Category

	// Op names the operation that failed (e.g., "insertBottomUp").
	Op string

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Index and Length describe a bounds failure. Length is -1 when unknown.
	Index  int
	Length int

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Sentinels for errors.Is. Matching is by code only.
var (
	ErrBounds    = &TreeError{Code: CodeBounds}
	ErrTextNode  = &TreeError{Code: CodeTextNode}
	ErrNotChild  = &TreeError{Code: CodeNotChild}
	ErrUnderflow = &TreeError{Code: CodeUnderflow}
	ErrNilNode   = &TreeError{Code: CodeNilNode}
	ErrMalformed = &TreeError{Code: CodeMalformed}
	ErrUnknownOp = &TreeError{Code: CodeUnknownOp}
	ErrNotFound  = &TreeError{Code: CodeNotFound}
)

// Error implements the error interface.
func (e *TreeError) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *TreeError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a TreeError with the same code.
func (e *TreeError) Is(target error) bool {
	t, ok := target.(*TreeError)
	if !ok || t.Code == "" {
		return false
	}
	return e.Code == t.Code
}

// WithOp sets the failing operation name.
func (e *TreeError) WithOp(op string) *TreeError {
	e.Op = op
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *TreeError) WithDetail(d string) *TreeError {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *TreeError) WithSuggestion(s string) *TreeError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *TreeError) Wrap(err error) *TreeError {
	e.Wrapped = err
	return e
}

// New creates a TreeError from a registered error code.
func New(code string) *TreeError {
	template, ok := registry[code]
	if !ok {
		return &TreeError{
			Code:    code,
			Message: "Unknown error",
			Length:  -1,
		}
	}
	return &TreeError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		Length:   -1,
	}
}

// Newf creates a new TreeError with a formatted message and no code.
func Newf(category Category, format string, args ...any) *TreeError {
	return &TreeError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		Length:   -1,
	}
}

// Bounds reports an index that does not fit a child list of the given length.
func Bounds(op string, index, length int) *TreeError {
	e := New(CodeBounds).WithOp(op)
	e.Index = index
	e.Length = length
	e.Message = fmt.Sprintf("index %d out of bounds for length %d", index, length)
	return e
}

// BoundsRange reports a range [index, index+count) that does not fit.
func BoundsRange(op string, index, count, length int) *TreeError {
	e := New(CodeBounds).WithOp(op)
	e.Index = index
	e.Length = length
	e.Message = fmt.Sprintf("range [%d, %d) out of bounds for length %d", index, index+count, length)
	return e
}

// TextNode reports an attempt to use a text node as a container.
func TextNode(op string) *TreeError {
	return New(CodeTextNode).WithOp(op)
}

// FromError wraps a standard error in a TreeError.
func FromError(err error, code string) *TreeError {
	if err == nil {
		return nil
	}
	if te, ok := err.(*TreeError); ok {
		return te
	}
	return New(code).Wrap(err)
}

// IsBounds reports whether err is a bounds error.
func IsBounds(err error) bool {
	return hasCategory(err, CategoryBounds)
}

// IsStructural reports whether err is a structural-type error.
func IsStructural(err error) bool {
	return hasCategory(err, CategoryStructural)
}

func hasCategory(err error, c Category) bool {
	for err != nil {
		if te, ok := err.(*TreeError); ok && te.Category == c {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// HasCode reports whether err or any error it wraps carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		if te, ok := err.(*TreeError); ok && te.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
