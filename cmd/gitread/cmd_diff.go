package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odvcencio/gitread/pkg/diff"
)

func newDiffCmd(a *app) *cobra.Command {
	var (
		stat       bool
		nameStatus bool
		include    []string
		unified    int
	)

	cmd := &cobra.Command{
		Use:   "diff <old> [new]",
		Short: "Show changes between two revisions (new defaults to HEAD)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			newRev := "HEAD"
			if len(args) == 2 {
				newRev = args[1]
			}
			oldHash, err := r.ResolveRevision(args[0])
			if err != nil {
				return fmt.Errorf("diff: %w", err)
			}
			newHash, err := r.ResolveRevision(newRev)
			if err != nil {
				return fmt.Errorf("diff: %w", err)
			}
			oldCommit, err := r.Store.ReadCommit(oldHash)
			if err != nil {
				return fmt.Errorf("diff: %w", err)
			}
			newCommit, err := r.Store.ReadCommit(newHash)
			if err != nil {
				return fmt.Errorf("diff: %w", err)
			}

			opts := a.diffOptions(include)
			if cmd.Flags().Changed("unified") {
				opts.Context = unified
			}
			records, err := diff.Commits(r.Store, oldCommit, newCommit, opts)
			if err != nil {
				return fmt.Errorf("diff: %w", err)
			}

			out := cmd.OutOrStdout()
			switch {
			case nameStatus:
				_, err := io.WriteString(out, diff.NameStatus(records))
				return err
			case stat:
				printStat(out, diff.Stat(records))
				return nil
			default:
				return a.palette(out).printRecords(out, records)
			}
		},
	}

	cmd.Flags().BoolVar(&stat, "stat", false, "show a diffstat instead of the patch")
	cmd.Flags().BoolVar(&nameStatus, "name-status", false, "show only the kind and path of each change")
	cmd.Flags().StringSliceVar(&include, "include", nil, "only show paths matching these globs")
	cmd.Flags().IntVarP(&unified, "unified", "U", diff.DefaultContext, "lines of context around each change")
	return cmd
}

func (a *app) diffOptions(include []string) diff.Options {
	return diff.Options{
		Context: a.settings.Context,
		Include: include,
	}
}

var numFormat = message.NewPrinter(language.English)

func printStat(w io.Writer, s diff.Stats) {
	width := 0
	for _, f := range s.Files {
		width = max(width, len(f.Path))
	}
	for _, f := range s.Files {
		if f.Binary {
			fmt.Fprintf(w, " %-*s | Bin\n", width, f.Path)
			continue
		}
		changed := f.Insertions + f.Deletions
		fmt.Fprintf(w, " %-*s | %s %s%s\n", width, f.Path,
			numFormat.Sprintf("%d", changed),
			strings.Repeat("+", min(f.Insertions, 40)),
			strings.Repeat("-", min(f.Deletions, 40)))
	}
	fmt.Fprintln(w, " "+statSummary(s))
}

func statSummary(s diff.Stats) string {
	parts := []string{plural(s.FilesChanged(), "file changed", "files changed")}
	if s.Insertions > 0 || s.Deletions == 0 {
		parts = append(parts, plural(s.Insertions, "insertion(+)", "insertions(+)"))
	}
	if s.Deletions > 0 {
		parts = append(parts, plural(s.Deletions, "deletion(-)", "deletions(-)"))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return numFormat.Sprintf("%d %s", n, one)
	}
	return numFormat.Sprintf("%d %s", n, many)
}
