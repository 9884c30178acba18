package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReflogCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reflog [ref]",
		Short: "Show the recorded updates of a reference (default HEAD)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			ref := "HEAD"
			if len(args) == 1 {
				ref = args[0]
			}
			if !cmd.Flags().Changed("num") {
				limit = a.settings.Limit
			}
			entries, err := r.ReadReflog(ref, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			p := a.palette(out)
			for i, e := range entries {
				fmt.Fprintf(out, "%s %s@{%d}: %s\n",
					p.commit.Sprint(e.NewHash.Short()), ref, i, e.Message)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "num", "n", 0, "show at most n entries")
	return cmd
}
