// Package diff compares two tree snapshots and renders the changed blobs as
// unified diffs.
package diff

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/odvcencio/gitread/pkg/object"
)

// ChangeKind classifies what happened to a path between two trees.
type ChangeKind int

const (
	Added    ChangeKind = iota // Path exists only in the new tree.
	Modified                   // Path exists in both trees with different content.
	Deleted                    // Path exists only in the old tree.
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "A"
	case Modified:
		return "M"
	case Deleted:
		return "D"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Record is one changed path. Directories are never recorded themselves;
// their descendants are.
type Record struct {
	Path string
	Kind ChangeKind
	// Patch is a unified diff, or one of the binary sentinels when Binary is
	// set.
	Patch  string
	Binary bool
}

// DefaultContext is the number of unchanged lines shown around each hunk.
const DefaultContext = 3

// Options tunes a diff. The zero value shows no context lines; use
// DefaultOptions for git's usual three.
type Options struct {
	// Context is the number of unchanged lines shown around each hunk.
	// Negative values count as zero.
	Context int
	// Include keeps only records whose path matches at least one doublestar
	// glob, e.g. "pkg/**/*.go". Empty keeps everything.
	Include []string
}

// DefaultOptions returns Options with DefaultContext lines of context.
func DefaultOptions() Options {
	return Options{Context: DefaultContext}
}

func (o Options) contextLines() int {
	return max(o.Context, 0)
}

// Reader is the object access a diff needs. *object.Store satisfies it.
type Reader interface {
	ReadTree(h object.Hash) (*object.Tree, error)
	ReadBlob(h object.Hash) (*object.Blob, error)
}

// Commits diffs the trees of two commits. A nil old commit makes every path
// in newCommit an addition.
func Commits(store Reader, oldCommit, newCommit *object.Commit, opts Options) ([]Record, error) {
	if newCommit == nil {
		return nil, fmt.Errorf("diff commits: new commit is required")
	}
	var oldTree object.Hash
	if oldCommit != nil {
		oldTree = oldCommit.Tree
	}
	return Trees(store, oldTree, newCommit.Tree, opts)
}

// Trees diffs two trees by id. An empty id stands for a tree with no
// entries.
//
// Within each directory, deletions come first, then additions, then
// modifications, each in stored entry order. Subdirectories are expanded
// depth-first where they occur. An entry whose kind changes (file, directory,
// symlink, submodule) is reported as a deletion plus an addition. Entries
// with the same kind and id produce nothing, even if the mode differs.
func Trees(store Reader, oldTree, newTree object.Hash, opts Options) ([]Record, error) {
	for _, pattern := range opts.Include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("diff: invalid include pattern %q", pattern)
		}
	}
	if oldTree == newTree {
		return nil, nil
	}

	d := &differ{store: store, opts: opts, context: opts.contextLines()}
	oldT, err := d.readTree(oldTree)
	if err != nil {
		return nil, err
	}
	newT, err := d.readTree(newTree)
	if err != nil {
		return nil, err
	}
	if err := d.diffTrees(nil, oldT, newT); err != nil {
		return nil, err
	}
	return d.records, nil
}

type differ struct {
	store   Reader
	opts    Options
	context int
	records []Record
}

func (d *differ) readTree(h object.Hash) (*object.Tree, error) {
	if h == "" {
		return &object.Tree{}, nil
	}
	t, err := d.store.ReadTree(h)
	if err != nil {
		return nil, fmt.Errorf("diff: read tree %s: %w", h, err)
	}
	return t, nil
}

func (d *differ) diffTrees(dir []string, oldT, newT *object.Tree) error {
	oldByName := indexEntries(oldT)
	newByName := indexEntries(newT)

	for _, e := range oldT.Entries {
		if ne, ok := newByName[e.Name]; !ok || ne.Kind() != e.Kind() {
			if err := d.removed(join(dir, e.Name), e); err != nil {
				return err
			}
		}
	}
	for _, e := range newT.Entries {
		if oe, ok := oldByName[e.Name]; !ok || oe.Kind() != e.Kind() {
			if err := d.added(join(dir, e.Name), e); err != nil {
				return err
			}
		}
	}
	for _, e := range newT.Entries {
		oe, ok := oldByName[e.Name]
		if !ok || oe.Kind() != e.Kind() || oe.Hash == e.Hash {
			continue
		}
		path := join(dir, e.Name)
		if e.Kind() == object.KindDir {
			oldSub, err := d.readTree(oe.Hash)
			if err != nil {
				return err
			}
			newSub, err := d.readTree(e.Hash)
			if err != nil {
				return err
			}
			if err := d.diffTrees(path, oldSub, newSub); err != nil {
				return err
			}
			continue
		}
		if err := d.modified(path, oe, e); err != nil {
			return err
		}
	}
	return nil
}

func (d *differ) added(path []string, e object.TreeEntry) error {
	if e.Kind() == object.KindDir {
		sub, err := d.readTree(e.Hash)
		if err != nil {
			return err
		}
		for _, child := range sub.Entries {
			if err := d.added(join(path, child.Name), child); err != nil {
				return err
			}
		}
		return nil
	}

	p := strings.Join(path, "/")
	if !d.included(p) {
		return nil
	}
	content, binary, err := d.content(e)
	if err != nil {
		return fmt.Errorf("diff %s: %w", p, err)
	}
	if binary {
		d.emitBinary(p, Added)
		return nil
	}
	d.records = append(d.records, Record{
		Path:  p,
		Kind:  Added,
		Patch: Unified(p, nil, content, false, true, d.context),
	})
	return nil
}

func (d *differ) removed(path []string, e object.TreeEntry) error {
	if e.Kind() == object.KindDir {
		sub, err := d.readTree(e.Hash)
		if err != nil {
			return err
		}
		for _, child := range sub.Entries {
			if err := d.removed(join(path, child.Name), child); err != nil {
				return err
			}
		}
		return nil
	}

	p := strings.Join(path, "/")
	if !d.included(p) {
		return nil
	}
	content, binary, err := d.content(e)
	if err != nil {
		return fmt.Errorf("diff %s: %w", p, err)
	}
	if binary {
		d.emitBinary(p, Deleted)
		return nil
	}
	d.records = append(d.records, Record{
		Path:  p,
		Kind:  Deleted,
		Patch: Unified(p, content, nil, true, false, d.context),
	})
	return nil
}

func (d *differ) modified(path []string, oldE, newE object.TreeEntry) error {
	p := strings.Join(path, "/")
	if !d.included(p) {
		return nil
	}
	oldContent, oldBinary, err := d.content(oldE)
	if err != nil {
		return fmt.Errorf("diff %s: %w", p, err)
	}
	newContent, newBinary, err := d.content(newE)
	if err != nil {
		return fmt.Errorf("diff %s: %w", p, err)
	}
	if oldBinary || newBinary {
		d.emitBinary(p, Modified)
		return nil
	}
	d.records = append(d.records, Record{
		Path:  p,
		Kind:  Modified,
		Patch: Unified(p, oldContent, newContent, true, true, d.context),
	})
	return nil
}

// content returns the bytes compared for a non-directory entry. Submodules
// are described by the commit they point at and are never read from the
// store.
func (d *differ) content(e object.TreeEntry) ([]byte, bool, error) {
	if e.Kind() == object.KindSubmodule {
		return []byte("Subproject commit " + string(e.Hash) + "\n"), false, nil
	}
	blob, err := d.store.ReadBlob(e.Hash)
	if err != nil {
		return nil, false, err
	}
	return blob.Data, blob.IsBinary(), nil
}

func (d *differ) emitBinary(path string, kind ChangeKind) {
	d.records = append(d.records, Record{
		Path:   path,
		Kind:   kind,
		Patch:  BinarySentinel(kind),
		Binary: true,
	})
}

func (d *differ) included(path string) bool {
	if len(d.opts.Include) == 0 {
		return true
	}
	for _, pattern := range d.opts.Include {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

// BinarySentinel is the Patch text recorded for a binary change.
func BinarySentinel(kind ChangeKind) string {
	switch kind {
	case Added:
		return "Binary file added"
	case Deleted:
		return "Binary file deleted"
	default:
		return "Binary file modified"
	}
}

func indexEntries(t *object.Tree) map[string]object.TreeEntry {
	m := make(map[string]object.TreeEntry, len(t.Entries))
	for _, e := range t.Entries {
		m[e.Name] = e
	}
	return m
}

func join(dir []string, name string) []string {
	out := make([]string, len(dir)+1)
	copy(out, dir)
	out[len(dir)] = name
	return out
}
