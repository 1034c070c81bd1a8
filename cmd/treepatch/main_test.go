package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/vango-dev/treepatch/internal/errors"
)

const appendScript = `
seq: 4
ops:
  - op: insertBottomUp
    index: 1
    html: <li>b</li>
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestApplyScript(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.html", "<ul><li>a</li></ul>")
	script := writeFile(t, dir, "edits.yaml", appendScript)

	out, err := execute(t, "apply", "--base", base, script)
	if err != nil {
		t.Fatalf("apply error = %v", err)
	}
	if want := "<ul><li>a</li><li>b</li></ul>\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestApplyWrapsFragments(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.html", "<p>x</p><p>y</p>")
	script := writeFile(t, dir, "edits.yaml", "- op: remove\n  index: 0\n")

	out, err := execute(t, "apply", "--base", base, "--root-tag", "section", script)
	if err != nil {
		t.Fatalf("apply error = %v", err)
	}
	if want := "<section><p>y</p></section>\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestApplyEmptyBase(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "edits.yaml", "- op: insertTopDown\n  index: 0\n  text: hello\n")

	out, err := execute(t, "apply", script)
	if err != nil {
		t.Fatalf("apply error = %v", err)
	}
	if want := "<div>hello</div>\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestApplyOutOfBounds(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "edits.yaml", "- op: remove\n  index: 3\n")

	_, err := execute(t, "apply", script)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.HasCode(err, errors.CodeBounds) {
		t.Errorf("error = %v, want code %s", err, errors.CodeBounds)
	}
	if !strings.Contains(err.Error(), "edits.yaml") {
		t.Errorf("error %q does not name the patch file", err)
	}
}

func TestApplyDiff(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.html", "<ul><li>a</li></ul>")
	script := writeFile(t, dir, "edits.yaml", appendScript)

	out, err := execute(t, "apply", "--diff", "--base", base, script)
	if err != nil {
		t.Fatalf("apply error = %v", err)
	}

	var added bool
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		if strings.HasPrefix(line, "-") {
			t.Errorf("unexpected removed line %q", line)
		}
		if strings.HasPrefix(line, "+") && strings.Contains(line, "b") {
			added = true
		}
	}
	if !added {
		t.Errorf("diff has no added line for the new item:\n%s", out)
	}
}

func TestEncodeDecode(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.html", "<ul><li>a</li></ul>")
	script := writeFile(t, dir, "edits.yaml", appendScript)

	for _, frame := range []bool{false, true} {
		bin := filepath.Join(dir, "edits.bin")
		args := []string{"encode", script, "-o", bin}
		if frame {
			args = append(args, "--frame")
		}
		if _, err := execute(t, args...); err != nil {
			t.Fatalf("encode (frame=%v) error = %v", frame, err)
		}

		out, err := execute(t, "apply", "--base", base, bin)
		if err != nil {
			t.Fatalf("apply binary (frame=%v) error = %v", frame, err)
		}
		if want := "<ul><li>a</li><li>b</li></ul>\n"; out != want {
			t.Errorf("apply binary (frame=%v) = %q, want %q", frame, out, want)
		}

		out, err = execute(t, "decode", bin)
		if err != nil {
			t.Fatalf("decode (frame=%v) error = %v", frame, err)
		}
		for _, want := range []string{"seq: 4", "op: insertBottomUp", "<li>b</li>"} {
			if !strings.Contains(out, want) {
				t.Errorf("decode (frame=%v) output missing %q:\n%s", frame, want, out)
			}
		}
	}
}

func TestEncodeSeqOverride(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "edits.yaml", appendScript)
	bin := filepath.Join(dir, "edits.bin")

	if _, err := execute(t, "encode", "--seq", "9", script, "-o", bin); err != nil {
		t.Fatalf("encode error = %v", err)
	}
	out, err := execute(t, "decode", bin)
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if !strings.Contains(out, "seq: 9") {
		t.Errorf("decode output missing seq 9:\n%s", out)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	bin := writeFile(t, dir, "junk.bin", "\x05\x01\x7f")

	_, err := execute(t, "decode", bin)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.HasCode(err, errors.CodeMalformed) && !errors.HasCode(err, errors.CodeUnknownOp) {
		t.Errorf("error = %v, want a protocol error", err)
	}
}

func TestVersionShort(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if out != version+"\n" {
		t.Errorf("output = %q, want %q", out, version+"\n")
	}
}

func TestLogLevelValidated(t *testing.T) {
	_, err := execute(t, "--log-level", "loud", "version")
	if !errors.HasCode(err, errors.CodeConfigInvalid) {
		t.Errorf("error = %v, want code %s", err, errors.CodeConfigInvalid)
	}
}

func TestLineDiff(t *testing.T) {
	color.NoColor = true
	got := lineDiff("a\nb\nc\n", "a\nc\nd\n")
	want := " a\n-b\n c\n+d\n"
	if got != want {
		t.Errorf("lineDiff() = %q, want %q", got, want)
	}
}
