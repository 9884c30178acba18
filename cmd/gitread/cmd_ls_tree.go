package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLsTreeCmd(a *app) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "ls-tree [revision]",
		Short: "List the tree of a commit",
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
				return fmt.Errorf("ls-tree: %w", err)
			}
			c, err := r.Store.ReadCommit(h)
			if err != nil {
				return fmt.Errorf("ls-tree: %w", err)
			}

			out := cmd.OutOrStdout()
			if !recursive {
				tree, err := r.Store.ReadTree(c.Tree)
				if err != nil {
					return fmt.Errorf("ls-tree: %w", err)
				}
				return printTree(out, tree)
			}

			files, err := r.FlattenTree(c.Tree)
			if err != nil {
				return fmt.Errorf("ls-tree: %w", err)
			}
			for _, f := range files {
				e := f.Entry
				fmt.Fprintf(out, "%06o %s %s\t%s\n", uint32(e.Mode), entryType(e), e.Hash, f.Path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recurse into subtrees")
	return cmd
}
