package repo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/gitread/internal/gittest"
	"github.com/odvcencio/gitread/pkg/object"
)

func walkHashes(t *testing.T, r *Repo, start object.Hash, limit int) []object.Hash {
	t.Helper()
	commits, err := r.Log(start, limit)
	require.NoError(t, err, "Log(%s, %d)", start, limit)
	hashes := make([]object.Hash, 0, len(commits))
	for _, c := range commits {
		hashes = append(hashes, c.Hash)
	}
	return hashes
}

// buildRST creates the root/add/modify chain: R has an empty tree, S adds
// a.txt = "x\n", T changes it to "y\n".
func buildRST(t *testing.T, g *gittest.Repo) (rootC, addC, modC object.Hash) {
	t.Helper()
	rootC = g.Commit(g.EmptyTree(), 100, "root\n")
	addC = g.Commit(g.Files(map[string]string{"a.txt": "x\n"}), 200, "add a.txt\n", rootC)
	modC = g.Commit(g.Files(map[string]string{"a.txt": "y\n"}), 300, "modify a.txt\n", addC)
	g.SetBranch("main", modC)
	return rootC, addC, modC
}

func TestWalk_LinearHistory(t *testing.T) {
	g := gittest.New(t)
	rootC, addC, modC := buildRST(t, g)
	r := openRepo(t, g)

	got := walkHashes(t, r, modC, 10)
	want := []object.Hash{modC, addC, rootC}
	require.Equal(t, want, got, "walk order")
}

func TestWalk_Limit(t *testing.T) {
	g := gittest.New(t)
	tree := g.EmptyTree()
	var chain []object.Hash
	var parent []object.Hash
	for i := 0; i < 5; i++ {
		h := g.Commit(tree, int64(100+i), "c\n", parent...)
		chain = append(chain, h)
		parent = []object.Hash{h}
	}
	r := openRepo(t, g)

	got := walkHashes(t, r, chain[4], 2)
	want := []object.Hash{chain[4], chain[3]}
	require.Equal(t, want, got, "limited walk")

	assert.Len(t, walkHashes(t, r, chain[4], 0), 5, "unbounded walk")
}

func TestWalk_DiamondYieldsSharedAncestorOnce(t *testing.T) {
	g := gittest.New(t)
	tree := g.EmptyTree()
	base := g.Commit(tree, 100, "base\n")
	left := g.Commit(tree, 200, "left\n", base)
	right := g.Commit(tree, 300, "right\n", base)
	merge := g.Commit(tree, 400, "merge\n", left, right)
	r := openRepo(t, g)

	got := walkHashes(t, r, merge, 0)
	want := []object.Hash{merge, right, left, base}
	require.Equal(t, want, got, "diamond walk")
}

func TestWalk_EqualTimestampsKeepParentOrder(t *testing.T) {
	g := gittest.New(t)
	tree := g.EmptyTree()
	base := g.Commit(tree, 100, "base\n")
	second := g.Commit(tree, 200, "second\n", base)
	first := g.Commit(tree, 200, "first\n", base)
	merge := g.Commit(tree, 300, "merge\n", first, second)
	r := openRepo(t, g)

	got := walkHashes(t, r, merge, 0)
	want := []object.Hash{merge, first, second, base}
	require.Equal(t, want, got, "tie order")
}

func TestWalk_NonIncreasingTimestamps(t *testing.T) {
	g := gittest.New(t)
	tree := g.EmptyTree()
	a := g.Commit(tree, 10, "a\n")
	b := g.Commit(tree, 50, "b\n", a)
	c := g.Commit(tree, 30, "c\n", a)
	d := g.Commit(tree, 70, "d\n", b)
	e := g.Commit(tree, 90, "e\n", d, c)
	r := openRepo(t, g)

	commits, err := r.Log(e, 0)
	require.NoError(t, err)
	require.Len(t, commits, 5)
	stamps := make([]int64, 0, len(commits))
	for _, c := range commits {
		stamps = append(stamps, c.Committer.Timestamp)
	}
	assert.IsNonIncreasing(t, stamps)
}

func TestWalk_IsLazy(t *testing.T) {
	g := gittest.New(t)
	missing := object.Hash(strings.Repeat("e", 40))
	tip := g.Commit(g.EmptyTree(), 100, "orphaned parent\n", missing)
	r := openRepo(t, g)

	// Stopping after the first commit never touches the missing parent.
	for c, err := range r.Walk(tip, WalkOptions{}) {
		require.NoError(t, err, "error before parent lookup")
		assert.Equal(t, tip, c.Hash)
		break
	}

	// Continuing surfaces the missing parent as the final item.
	var seen int
	var walkErr error
	for c, err := range r.Walk(tip, WalkOptions{}) {
		if err != nil {
			walkErr = err
			continue
		}
		if c != nil {
			seen++
		}
	}
	assert.Equal(t, 1, seen, "commits yielded before the error")
	assert.ErrorIs(t, walkErr, object.ErrMissingObject)
}

func TestWalk_MissingStart(t *testing.T) {
	g := gittest.New(t)
	r := openRepo(t, g)

	_, err := r.Log(object.Hash(strings.Repeat("0", 40)), 0)
	assert.ErrorIs(t, err, object.ErrMissingObject)
}

func TestWalk_ReadsPackedRefsTip(t *testing.T) {
	g := gittest.New(t)
	_, _, modC := buildRST(t, g)
	g.PackRefs()
	r := openRepo(t, g)

	tip, err := r.ResolveRevision("HEAD")
	require.NoError(t, err)
	assert.Equal(t, modC, tip)
	assert.Len(t, walkHashes(t, r, tip, 0), 3, "walk from packed HEAD")
}
