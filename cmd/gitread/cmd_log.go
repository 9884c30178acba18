package main

import (
	"fmt"
	"iter"

	"github.com/spf13/cobra"

	"github.com/odvcencio/gitread/pkg/object"
	"github.com/odvcencio/gitread/pkg/repo"
)

func newLogCmd(a *app) *cobra.Command {
	var (
		oneline bool
		limit   int
		path    string
	)

	cmd := &cobra.Command{
		Use:   "log [revision]",
		Short: "Show commit history, newest first",
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
			start, err := r.ResolveRevision(rev)
			if err != nil {
				return fmt.Errorf("log: %w", err)
			}
			if !cmd.Flags().Changed("num") {
				limit = a.settings.Limit
			}

			var commits iter.Seq2[*object.Commit, error]
			if path != "" {
				commits = r.PathLog(start, path, repo.WalkOptions{Limit: limit})
			} else {
				commits = r.Walk(start, repo.WalkOptions{Limit: limit})
			}

			out := cmd.OutOrStdout()
			p := a.palette(out)
			for c, err := range commits {
				if err != nil {
					return fmt.Errorf("log: %w", err)
				}
				if oneline {
					p.printOneline(out, c)
				} else {
					p.printCommit(out, c)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "show each commit on a single line")
	cmd.Flags().IntVarP(&limit, "num", "n", 0, "maximum number of commits to show (0 = no limit)")
	cmd.Flags().StringVar(&path, "path", "", "only show commits that changed this path")
	return cmd
}
