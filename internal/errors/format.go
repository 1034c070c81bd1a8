package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

const detailWidth = 70

var (
	red  = color.New(color.FgRed, color.Bold).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
	cyan = color.New(color.FgCyan).SprintFunc()
	gray = color.New(color.FgHiBlack).SprintFunc()
)

func DisableColors() { color.NoColor = true }
func EnableColors() { color.NoColor = false }

// Format renders e as an indented block for terminal output: a headline
// with code and op, then cause, wrapped detail and hint when present.
func (e *TreeError) Format() string {
	var b strings.Builder

	head := red("ERROR:")
	if e.Code != "" {
		head = red("ERROR") + " " + bold(e.Code+":")
	}
	fmt.Fprintf(&b, "\n%s ", head)
	if e.Op != "" {
		b.WriteString(bold(e.Op + ": "))
	}
	fmt.Fprintf(&b, "%s\n\n", e.Message)

	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s%s\n\n", gray("cause: "), e.Wrapped)
	}
	if lines := wrapText(e.Detail, detailWidth); len(lines) > 0 {
		for _, line := range lines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteByte('\n')
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s%s\n\n", cyan("Hint: "), e.Suggestion)
	}
	return b.String()
}

// wrapText breaks text at spaces into lines of at most width bytes.
// A single word longer than width gets a line of its own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	lines := []string{words[0]}
	for _, w := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(w) > width {
			lines = append(lines, w)
			continue
		}
		*last += " " + w
	}
	return lines
}

func PrintError(err error) {
	FprintError(os.Stderr, err)
}

// FprintError writes err to w. When a *TreeError sits anywhere in the
// chain it is rendered with Format, preceded by the outer message if the
// error was wrapped with extra context.
func FprintError(w io.Writer, err error) {
	var te *TreeError
	if !stderrors.As(err, &te) {
		fmt.Fprintf(w, "\n%s %s\n\n", red("ERROR:"), err)
		return
	}
	if outer := err.Error(); outer != te.Error() {
		fmt.Fprintf(w, "\n%s", gray(outer))
	}
	fmt.Fprint(w, te.Format())
}
