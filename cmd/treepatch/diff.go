package main

import (
	"strings"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

var (
	diffAdd = color.New(color.FgGreen).SprintFunc()
	diffDel = color.New(color.FgRed).SprintFunc()
)

// lineDiff returns a unified-style line diff of before and after with
// added lines prefixed "+" and removed lines prefixed "-".
func lineDiff(before, after string) string {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffpatch.DiffInsert:
				sb.WriteString(diffAdd("+" + line))
			case diffpatch.DiffDelete:
				sb.WriteString(diffDel("-" + line))
			case diffpatch.DiffEqual:
				sb.WriteString(" " + line)
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
