package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newRefsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refs [category...]",
		Short: "List HEAD and references (default categories: heads, tags)",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			out := cmd.OutOrStdout()
			head, err := r.Head()
			if err != nil {
				return err
			}
			if head.IsSymbolic() {
				fmt.Fprintf(out, "HEAD -> %s\n", head.Ref)
			} else {
				fmt.Fprintf(out, "HEAD %s\n", head.Hash)
			}

			categories := args
			if len(categories) == 0 {
				categories = []string{"heads", "tags"}
			}
			for _, category := range categories {
				refs, err := r.ListRefs(category)
				if err != nil {
					return err
				}
				names := make([]string, 0, len(refs))
				for name := range refs {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(out, "%s refs/%s/%s\n", refs[name], category, name)
				}
			}
			return nil
		},
	}
}
