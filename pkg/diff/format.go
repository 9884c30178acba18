package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const noNewlineMarker = "\\ No newline at end of file\n"

// Unified renders the change from oldContent to newContent as a unified
// diff labelled a/<path> and b/<path>. A side that does not exist is
// labelled /dev/null. Identical content renders as "".
func Unified(path string, oldContent, newContent []byte, existsOld, existsNew bool, context int) string {
	from, to := "/dev/null", "/dev/null"
	if existsOld {
		from = "a/" + path
	}
	if existsNew {
		to = "b/" + path
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(oldContent),
		B:        splitLines(newContent),
		FromFile: from,
		ToFile:   to,
		Context:  context,
	})
	if err != nil {
		// Writes go to a strings.Builder, which never fails.
		panic(fmt.Sprintf("diff: render %s: %v", path, err))
	}
	return text
}

// splitLines splits content after each newline. A last line without a
// newline gets the "\ No newline at end of file" marker so every element
// ends in "\n".
func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(content), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	last := lines[len(lines)-1]
	if !strings.HasSuffix(last, "\n") {
		lines[len(lines)-1] = last + "\n" + noNewlineMarker
	}
	return lines
}

// Write prints records the way `git diff` lays out a patch: a
// "diff --git" line per path followed by its body.
func Write(w io.Writer, records []Record) error {
	for _, r := range records {
		if _, err := fmt.Fprintf(w, "diff --git a/%s b/%s\n", r.Path, r.Path); err != nil {
			return err
		}
		body := r.Patch
		if body != "" && !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		if _, err := io.WriteString(w, body); err != nil {
			return err
		}
	}
	return nil
}

// NameStatus renders one "<kind>\t<path>" line per record.
func NameStatus(records []Record) string {
	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "%s\t%s\n", r.Kind, r.Path)
	}
	return b.String()
}
