package repo

import (
	"fmt"
	"path"

	"github.com/odvcencio/gitread/pkg/object"
)

// TreeFile is a non-directory entry of a flattened tree.
type TreeFile struct {
	Path  string // slash-separated, relative to the root tree
	Entry object.TreeEntry
}

// FlattenTree walks a tree recursively and returns every non-directory entry
// with its full path, in stored order. Submodules are leaves.
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFile, error) {
	return r.flattenTreeRec(h, "")
}

func (r *Repo) flattenTreeRec(h object.Hash, prefix string) ([]TreeFile, error) {
	tree, err := r.Store.ReadTree(h)
	if err != nil {
		return nil, fmt.Errorf("flatten tree %s: %w", h, err)
	}

	var files []TreeFile
	for _, e := range tree.Entries {
		full := path.Join(prefix, e.Name)
		if e.Kind() != object.KindDir {
			files = append(files, TreeFile{Path: full, Entry: e})
			continue
		}
		sub, err := r.flattenTreeRec(e.Hash, full)
		if err != nil {
			return nil, err
		}
		files = append(files, sub...)
	}
	return files, nil
}
