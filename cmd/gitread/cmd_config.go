package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	var remotes bool

	cmd := &cobra.Command{
		Use:   "config [key]",
		Short: "Print repository configuration values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			cfg, err := r.ReadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case remotes:
				for _, remote := range cfg.Remotes() {
					fmt.Fprintf(out, "%s\t%s\n", remote.Name, remote.URL)
				}
			case len(args) == 1:
				if !cfg.IsSet(args[0]) {
					return fmt.Errorf("config: key %q is not set", args[0])
				}
				fmt.Fprintln(out, cfg.Get(args[0]))
			default:
				for _, key := range cfg.Keys() {
					fmt.Fprintf(out, "%s=%s\n", key, cfg.Get(key))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&remotes, "remotes", false, "list remotes and their URLs")
	return cmd
}
