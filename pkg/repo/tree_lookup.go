package repo

import (
	"fmt"
	"strings"

	"github.com/odvcencio/gitread/pkg/object"
)

// TreeSame reports whether the trees a and b hold the same entry at path.
//
// Components are compared level by level. Identical subtree ids end the
// comparison early. A path missing from both trees, or blocked on both sides
// by a non-directory, counts as the same. A path present on one side only,
// or of different kinds, counts as different. At the last component both the
// id and the mode must match. An empty path compares the root trees.
func (r *Repo) TreeSame(a, b object.Hash, path string) (bool, error) {
	parts := splitPath(path)
	curA, curB := a, b

	for i, part := range parts {
		if curA == curB {
			return true, nil
		}
		entryA, okA, err := r.treeEntry(curA, part)
		if err != nil {
			return false, err
		}
		entryB, okB, err := r.treeEntry(curB, part)
		if err != nil {
			return false, err
		}

		if i == len(parts)-1 {
			if !okA && !okB {
				return true, nil
			}
			if okA != okB {
				return false, nil
			}
			return entryA.Hash == entryB.Hash && entryA.Mode == entryB.Mode, nil
		}

		dirA := okA && entryA.Kind() == object.KindDir
		dirB := okB && entryB.Kind() == object.KindDir
		switch {
		case !dirA && !dirB:
			return true, nil
		case dirA != dirB:
			return false, nil
		}
		curA, curB = entryA.Hash, entryB.Hash
	}
	return curA == curB, nil
}

// EntryAt returns the entry reached by walking path from tree.
func (r *Repo) EntryAt(tree object.Hash, path string) (object.TreeEntry, bool, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return object.TreeEntry{}, false, nil
	}

	cur := tree
	for i, part := range parts {
		entry, ok, err := r.treeEntry(cur, part)
		if err != nil || !ok {
			return object.TreeEntry{}, false, err
		}
		if i == len(parts)-1 {
			return entry, true, nil
		}
		if entry.Kind() != object.KindDir {
			return object.TreeEntry{}, false, nil
		}
		cur = entry.Hash
	}
	return object.TreeEntry{}, false, nil
}

func (r *Repo) treeEntry(tree object.Hash, name string) (object.TreeEntry, bool, error) {
	if tree == "" {
		return object.TreeEntry{}, false, nil
	}
	t, err := r.Store.ReadTree(tree)
	if err != nil {
		return object.TreeEntry{}, false, fmt.Errorf("read tree %s: %w", tree, err)
	}
	entry, ok := t.Entry(name)
	return entry, ok, nil
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" && p != "." {
			parts = append(parts, p)
		}
	}
	return parts
}
