// Package gittest builds real git repositories on disk for tests. Objects and
// refs are written by go-git, so the readers under test are checked against
// an independent implementation of the storage format.
package gittest

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	gitobject "github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/gitread/pkg/object"
)

// DefaultBranch is the branch HEAD points at after New.
const DefaultBranch = "main"

// Repo is a scratch repository.
type Repo struct {
	t testing.TB
	// Root is the directory handed to repo.Open: the worktree for
	// NewWorktree, the git directory itself for New.
	Root string
	// GitDir holds HEAD, objects/ and refs/.
	GitDir string

	repo *git.Repository
}

// Entry is one tree entry passed to Tree.
type Entry struct {
	Name string
	Mode filemode.FileMode
	Hash object.Hash
}

// File is a regular-file entry.
func File(name string, h object.Hash) Entry { return Entry{Name: name, Mode: filemode.Regular, Hash: h} }

// Exec is an executable-file entry.
func Exec(name string, h object.Hash) Entry { return Entry{Name: name, Mode: filemode.Executable, Hash: h} }

// Dir is a subtree entry.
func Dir(name string, h object.Hash) Entry { return Entry{Name: name, Mode: filemode.Dir, Hash: h} }

// Symlink is a symlink entry whose blob holds the target.
func Symlink(name string, h object.Hash) Entry { return Entry{Name: name, Mode: filemode.Symlink, Hash: h} }

// Submodule is a gitlink entry pointing at a commit in another repository.
func Submodule(name string, h object.Hash) Entry {
	return Entry{Name: name, Mode: filemode.Submodule, Hash: h}
}

// New initializes a bare repository with HEAD pointing at DefaultBranch.
func New(t testing.TB) *Repo {
	t.Helper()
	dir := t.TempDir()
	r, err := git.PlainInit(dir, true)
	require.NoError(t, err)
	out := &Repo{t: t, Root: dir, GitDir: dir, repo: r}
	out.SetHead(DefaultBranch)
	return out
}

// NewWorktree initializes a non-bare repository; objects live in Root/.git.
func NewWorktree(t testing.TB) *Repo {
	t.Helper()
	dir := t.TempDir()
	r, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	out := &Repo{t: t, Root: dir, GitDir: filepath.Join(dir, ".git"), repo: r}
	out.SetHead(DefaultBranch)
	return out
}

// Blob stores content and returns its id.
func (r *Repo) Blob(content string) object.Hash {
	r.t.Helper()
	obj := r.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	require.NoError(r.t, err)
	_, err = w.Write([]byte(content))
	require.NoError(r.t, err)
	require.NoError(r.t, w.Close())
	h, err := r.repo.Storer.SetEncodedObject(obj)
	require.NoError(r.t, err)
	return object.Hash(h.String())
}

// Tree stores a tree made of entries, sorted the way git sorts them.
func (r *Repo) Tree(entries ...Entry) object.Hash {
	r.t.Helper()
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		return treeSortKey(sorted[i]) < treeSortKey(sorted[j])
	})

	tree := &gitobject.Tree{}
	for _, e := range sorted {
		tree.Entries = append(tree.Entries, gitobject.TreeEntry{
			Name: e.Name,
			Mode: e.Mode,
			Hash: plumbing.NewHash(string(e.Hash)),
		})
	}
	obj := r.repo.Storer.NewEncodedObject()
	require.NoError(r.t, tree.Encode(obj))
	h, err := r.repo.Storer.SetEncodedObject(obj)
	require.NoError(r.t, err)
	return object.Hash(h.String())
}

func treeSortKey(e Entry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

// Files stores a tree built from slash-separated paths mapped to contents.
func (r *Repo) Files(files map[string]string) object.Hash {
	r.t.Helper()
	var entries []Entry
	subdirs := make(map[string]map[string]string)
	for p, content := range files {
		head, rest, nested := strings.Cut(p, "/")
		if !nested {
			entries = append(entries, File(head, r.Blob(content)))
			continue
		}
		if subdirs[head] == nil {
			subdirs[head] = make(map[string]string)
		}
		subdirs[head][rest] = content
	}
	for name, sub := range subdirs {
		entries = append(entries, Dir(name, r.Files(sub)))
	}
	return r.Tree(entries...)
}

// EmptyTree stores the tree with no entries.
func (r *Repo) EmptyTree() object.Hash {
	r.t.Helper()
	return r.Tree()
}

// Commit stores a commit whose author and committer stamps both use ts.
func (r *Repo) Commit(tree object.Hash, ts int64, msg string, parents ...object.Hash) object.Hash {
	r.t.Helper()
	sig := gitobject.Signature{
		Name:  "Test Author",
		Email: "author@example.com",
		When:  time.Unix(ts, 0).UTC(),
	}
	c := &gitobject.Commit{
		Author:    sig,
		Committer: sig,
		Message:   msg,
		TreeHash:  plumbing.NewHash(string(tree)),
	}
	for _, p := range parents {
		c.ParentHashes = append(c.ParentHashes, plumbing.NewHash(string(p)))
	}
	obj := r.repo.Storer.NewEncodedObject()
	require.NoError(r.t, c.Encode(obj))
	h, err := r.repo.Storer.SetEncodedObject(obj)
	require.NoError(r.t, err)
	return object.Hash(h.String())
}

// SetRef points the full reference name at h.
func (r *Repo) SetRef(name string, h object.Hash) {
	r.t.Helper()
	ref := plumbing.NewHashReference(plumbing.ReferenceName(name), plumbing.NewHash(string(h)))
	require.NoError(r.t, r.repo.Storer.SetReference(ref))
}

// SetBranch points refs/heads/<name> at h.
func (r *Repo) SetBranch(name string, h object.Hash) {
	r.t.Helper()
	r.SetRef(plumbing.NewBranchReferenceName(name).String(), h)
}

// SetTag points refs/tags/<name> at h.
func (r *Repo) SetTag(name string, h object.Hash) {
	r.t.Helper()
	r.SetRef(plumbing.NewTagReferenceName(name).String(), h)
}

// SetHead makes HEAD a symbolic reference to refs/heads/<branch>.
func (r *Repo) SetHead(branch string) {
	r.t.Helper()
	ref := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branch))
	require.NoError(r.t, r.repo.Storer.SetReference(ref))
}

// DetachHead writes h directly into HEAD.
func (r *Repo) DetachHead(h object.Hash) {
	r.t.Helper()
	r.WriteFile("HEAD", string(h)+"\n")
}

// PackRefs moves every loose reference into packed-refs.
func (r *Repo) PackRefs() {
	r.t.Helper()
	require.NoError(r.t, r.repo.Storer.PackRefs())
}

// WriteFile writes a file relative to GitDir, creating parents.
func (r *Repo) WriteFile(rel, content string) {
	r.t.Helper()
	path := filepath.Join(r.GitDir, filepath.FromSlash(rel))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.t, os.WriteFile(path, []byte(content), 0o644))
}

// RemoveFile deletes a file relative to GitDir.
func (r *Repo) RemoveFile(rel string) {
	r.t.Helper()
	require.NoError(r.t, os.Remove(filepath.Join(r.GitDir, filepath.FromSlash(rel))))
}
