package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/odvcencio/gitread/pkg/object"
)

func newCatFileCmd(a *app) *cobra.Command {
	var (
		showType bool
		showSize bool
	)

	cmd := &cobra.Command{
		Use:   "cat-file <object>",
		Short: "Print an object's content, type or size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			h, err := r.ResolveRevision(args[0])
			if err != nil {
				return fmt.Errorf("cat-file: %w", err)
			}
			objType, data, err := r.Store.Read(h)
			if err != nil {
				return fmt.Errorf("cat-file: %w", err)
			}

			out := cmd.OutOrStdout()
			switch {
			case showType:
				fmt.Fprintln(out, objType)
				return nil
			case showSize:
				fmt.Fprintln(out, len(data))
				return nil
			}

			if objType != object.TypeTree {
				_, err := out.Write(data)
				return err
			}
			tree, err := object.UnmarshalTree(data)
			if err != nil {
				return fmt.Errorf("cat-file: %w", err)
			}
			return printTree(out, tree)
		},
	}

	cmd.Flags().BoolVarP(&showType, "type", "t", false, "print the object type")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "print the object size in bytes")
	cmd.MarkFlagsMutuallyExclusive("type", "size")
	return cmd
}

// printTree uses the ls-tree layout: "<mode> <type> <id>\t<name>".
func printTree(w io.Writer, tree *object.Tree) error {
	for _, e := range tree.Entries {
		if _, err := fmt.Fprintf(w, "%06o %s %s\t%s\n", uint32(e.Mode), entryType(e), e.Hash, e.Name); err != nil {
			return err
		}
	}
	return nil
}

func entryType(e object.TreeEntry) object.Type {
	switch e.Kind() {
	case object.KindDir:
		return object.TypeTree
	case object.KindSubmodule:
		return object.TypeCommit
	default:
		return object.TypeBlob
	}
}
