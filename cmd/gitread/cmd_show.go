package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/gitread/pkg/diff"
	"github.com/odvcencio/gitread/pkg/object"
)

func newShowCmd(a *app) *cobra.Command {
	var (
		stat    bool
		include []string
	)

	cmd := &cobra.Command{
		Use:   "show [revision]",
		Short: "Show a commit and its changes against the first parent",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			rev := "HEAD"
			if len(args) == 1 {
				rev = args[0]
			}
			h, err := r.ResolveRevision(rev)
			if err != nil {
				return fmt.Errorf("show: %w", err)
			}
			commit, err := r.Store.ReadCommit(h)
			if err != nil {
				return fmt.Errorf("show: %w", err)
			}

			var parent *object.Commit
			if first := commit.FirstParent(); first != "" {
				parent, err = r.Store.ReadCommit(first)
				if err != nil {
					return fmt.Errorf("show: %w", err)
				}
			}
			records, err := diff.Commits(r.Store, parent, commit, a.diffOptions(include))
			if err != nil {
				return fmt.Errorf("show: %w", err)
			}

			out := cmd.OutOrStdout()
			p := a.palette(out)
			p.printCommit(out, commit)
			if stat {
				printStat(out, diff.Stat(records))
				return nil
			}
			return p.printRecords(out, records)
		},
	}

	cmd.Flags().BoolVar(&stat, "stat", false, "show a diffstat instead of the patch")
	cmd.Flags().StringSliceVar(&include, "include", nil, "only show paths matching these globs")
	return cmd
}
