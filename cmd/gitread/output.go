package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/odvcencio/gitread/pkg/diff"
	"github.com/odvcencio/gitread/pkg/object"
)

// palette holds the colors used for log and diff output. Every color is
// switched on or off as a unit, independent of fatih/color's global NoColor.
type palette struct {
	enabled bool
	commit  *color.Color
	meta    *color.Color
	hunk    *color.Color
	add     *color.Color
	del     *color.Color
}

func newPalette(mode string, w io.Writer) *palette {
	p := &palette{
		commit: color.New(color.FgYellow),
		meta:   color.New(color.Bold),
		hunk:   color.New(color.FgCyan),
		add:    color.New(color.FgGreen),
		del:    color.New(color.FgRed),
	}
	p.enabled = colorEnabled(mode, w)
	for _, c := range []*color.Color{p.commit, p.meta, p.hunk, p.add, p.del} {
		if p.enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) palette(w io.Writer) *palette {
	return newPalette(a.settings.Color, w)
}

const dateLayout = "Mon Jan 2 15:04:05 2006 -0700"

// printCommit writes the medium log format: id, author, date and the
// message indented by four spaces.
func (p *palette) printCommit(w io.Writer, c *object.Commit) {
	fmt.Fprintln(w, p.commit.Sprintf("commit %s", c.Hash))
	if len(c.Parents) > 1 {
		short := make([]string, len(c.Parents))
		for i, parent := range c.Parents {
			short[i] = parent.Short()
		}
		fmt.Fprintf(w, "Merge: %s\n", strings.Join(short, " "))
	}
	fmt.Fprintf(w, "Author: %s <%s>\n", c.Author.Name, c.Author.Email)
	fmt.Fprintf(w, "Date:   %s\n", formatDate(c.Author))
	fmt.Fprintln(w)
	for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}
	fmt.Fprintln(w)
}

func (p *palette) printOneline(w io.Writer, c *object.Commit) {
	fmt.Fprintf(w, "%s %s\n", p.commit.Sprint(c.Hash.Short()), subject(c.Message))
}

func formatDate(sig object.Signature) string {
	return sig.When().Format(dateLayout)
}

func subject(message string) string {
	first, _, _ := strings.Cut(strings.TrimLeft(message, "\n"), "\n")
	return strings.TrimSpace(first)
}

// printPatch colors a unified diff line by line. File headers are only
// recognised before the first hunk.
func (p *palette) printPatch(w io.Writer, patch string) {
	inHunk := false
	for _, line := range strings.SplitAfter(patch, "\n") {
		if line == "" {
			continue
		}
		text := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(text, "@@"):
			inHunk = true
			fmt.Fprintln(w, p.hunk.Sprint(text))
		case !inHunk:
			fmt.Fprintln(w, p.meta.Sprint(text))
		case strings.HasPrefix(text, "+"):
			fmt.Fprintln(w, p.add.Sprint(text))
		case strings.HasPrefix(text, "-"):
			fmt.Fprintln(w, p.del.Sprint(text))
		default:
			fmt.Fprintln(w, text)
		}
	}
}

// printRecords writes a patch for every record. Without color it is exactly
// the layout diff.Write produces.
func (p *palette) printRecords(w io.Writer, records []diff.Record) error {
	if !p.enabled {
		return diff.Write(w, records)
	}
	for _, r := range records {
		fmt.Fprintln(w, p.meta.Sprintf("diff --git a/%s b/%s", r.Path, r.Path))
		p.printPatch(w, r.Patch)
	}
	return nil
}
