package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/gitread/internal/gittest"
	"github.com/odvcencio/gitread/pkg/object"
)

func openRepo(t *testing.T, g *gittest.Repo) *Repo {
	t.Helper()
	r, err := Open(g.Root)
	require.NoError(t, err, "Open(%q)", g.Root)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestOpen_Worktree(t *testing.T) {
	g := gittest.NewWorktree(t)

	r := openRepo(t, g)
	assert.Equal(t, g.Root, r.RootDir)
	assert.Equal(t, filepath.Join(g.Root, ".git"), r.GitDir)
}

func TestOpen_WalksUpFromSubdirectory(t *testing.T) {
	g := gittest.NewWorktree(t)
	sub := filepath.Join(g.Root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	r, err := Open(sub)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, g.Root, r.RootDir)
}

func TestOpen_Bare(t *testing.T) {
	g := gittest.New(t)

	r := openRepo(t, g)
	assert.Equal(t, g.GitDir, r.GitDir)
	assert.Equal(t, g.GitDir, r.RootDir)
}

func TestOpen_GitdirFile(t *testing.T) {
	g := gittest.New(t)
	worktree := t.TempDir()
	rel, err := filepath.Rel(worktree, g.GitDir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(worktree, ".git"), []byte("gitdir: "+rel+"\n"), 0o644))

	r, err := Open(worktree)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, g.GitDir, r.GitDir)
	assert.Equal(t, worktree, r.RootDir)
}

func TestOpen_GitdirFileWithBadTarget(t *testing.T) {
	worktree := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(worktree, ".git"), []byte("gitdir: nowhere\n"), 0o644))

	_, err := Open(worktree)
	assert.Error(t, err, "gitdir pointing at a missing directory")
}

func TestOpen_NotRepository(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestLookupThroughRepo(t *testing.T) {
	g := gittest.New(t)
	blob := g.Blob("hello\n")

	r := openRepo(t, g)
	obj, err := r.Lookup(blob)
	require.NoError(t, err)
	assert.Equal(t, object.TypeBlob, obj.Type())
}
