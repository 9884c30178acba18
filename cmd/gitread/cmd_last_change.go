package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLastChangeCmd(a *app) *cobra.Command {
	var oneline bool

	cmd := &cobra.Command{
		Use:   "last-change <path> [revision]",
		Short: "Show the most recent commit that changed a path",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			rev := "HEAD"
			if len(args) == 2 {
				rev = args[1]
			}
			start, err := r.ResolveRevision(rev)
			if err != nil {
				return fmt.Errorf("last-change: %w", err)
			}
			c, err := r.LatestChange(start, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if c == nil {
				fmt.Fprintf(out, "no commit changed %s\n", args[0])
				return nil
			}
			p := a.palette(out)
			if oneline {
				p.printOneline(out, c)
			} else {
				p.printCommit(out, c)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "show the commit on a single line")
	return cmd
}
