package repo

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/gitread/internal/gittest"
	"github.com/odvcencio/gitread/pkg/object"
)

func seedCommit(t *testing.T, g *gittest.Repo, content string, ts int64, parents ...object.Hash) object.Hash {
	t.Helper()
	return g.Commit(g.Files(map[string]string{"a.txt": content}), ts, "commit "+content, parents...)
}

func TestHead_Symbolic(t *testing.T) {
	g := gittest.New(t)
	r := openRepo(t, g)

	head, err := r.Head()
	require.NoError(t, err)
	assert.True(t, head.IsSymbolic())
	assert.Equal(t, "refs/heads/main", head.Ref)
	assert.True(t, head.Hash.IsZero())
}

func TestHead_Detached(t *testing.T) {
	g := gittest.New(t)
	c := seedCommit(t, g, "x\n", 100)
	g.DetachHead(c)
	r := openRepo(t, g)

	head, err := r.Head()
	require.NoError(t, err)
	assert.False(t, head.IsSymbolic())
	assert.Equal(t, c, head.Hash)
}

func TestHead_Malformed(t *testing.T) {
	g := gittest.New(t)
	g.WriteFile("HEAD", "garbage\n")
	r := openRepo(t, g)

	_, err := r.Head()
	require.ErrorIs(t, err, ErrMalformedRef)
}

func TestListRefs_LooseNested(t *testing.T) {
	g := gittest.New(t)
	c1 := seedCommit(t, g, "1\n", 100)
	c2 := seedCommit(t, g, "2\n", 200, c1)
	g.SetBranch("main", c2)
	g.SetBranch("feature/x", c1)
	g.SetTag("v1", c1)
	r := openRepo(t, g)

	heads, err := r.ListRefs("heads")
	require.NoError(t, err)
	want := map[string]object.Hash{"main": c2, "feature/x": c1}
	require.Empty(t, cmp.Diff(want, heads), "heads (-want +got)")

	tags, err := r.ListRefs("tags")
	require.NoError(t, err)
	assert.Equal(t, map[string]object.Hash{"v1": c1}, tags)
}

func TestListRefs_LooseOverridesPacked(t *testing.T) {
	g := gittest.New(t)
	c1 := seedCommit(t, g, "1\n", 100)
	c2 := seedCommit(t, g, "2\n", 200, c1)
	g.SetBranch("main", c1)
	g.SetBranch("old", c1)
	g.SetTag("v1", c1)
	g.PackRefs()
	g.SetBranch("main", c2)
	r := openRepo(t, g)

	heads, err := r.ListRefs("heads")
	require.NoError(t, err)
	assert.Equal(t, map[string]object.Hash{"main": c2, "old": c1}, heads)

	tags, err := r.ListRefs("tags")
	require.NoError(t, err)
	assert.Equal(t, map[string]object.Hash{"v1": c1}, tags)
}

func TestListRefs_PackedRefsFormat(t *testing.T) {
	g := gittest.New(t)
	a := strings.Repeat("a", 40)
	b := strings.Repeat("b", 40)
	g.WriteFile("packed-refs", "# pack-refs with: peeled fully-peeled sorted \n"+
		a+" refs/heads/main\n"+
		"\n"+
		b+" refs/tags/v2\n"+
		"^"+a+"\n")
	r := openRepo(t, g)

	heads, err := r.ListRefs("heads")
	require.NoError(t, err)
	assert.Equal(t, map[string]object.Hash{"main": object.Hash(a)}, heads)

	tags, err := r.ListRefs("tags")
	require.NoError(t, err)
	assert.Equal(t, map[string]object.Hash{"v2": object.Hash(b)}, tags)
}

func TestListRefs_SkipsSymbolicLooseRefs(t *testing.T) {
	g := gittest.New(t)
	c := seedCommit(t, g, "x\n", 100)
	g.SetRef("refs/remotes/origin/main", c)
	g.WriteFile("refs/remotes/origin/HEAD", "ref: refs/remotes/origin/main\n")
	r := openRepo(t, g)

	remotes, err := r.ListRefs("remotes")
	require.NoError(t, err)
	assert.Equal(t, map[string]object.Hash{"origin/main": c}, remotes)
}

func TestListRefs_SkipsLockFiles(t *testing.T) {
	g := gittest.New(t)
	c1 := seedCommit(t, g, "1\n", 100)
	c2 := seedCommit(t, g, "2\n", 200, c1)
	g.SetBranch("main", c1)
	g.WriteFile("refs/heads/main.lock", string(c2)+"\n")
	g.WriteFile("refs/heads/topic.lock", string(c2)[:12])
	r := openRepo(t, g)

	heads, err := r.ListRefs("heads")
	require.NoError(t, err)
	assert.Equal(t, map[string]object.Hash{"main": c1}, heads)
}

func TestListRefs_MissingCategory(t *testing.T) {
	g := gittest.New(t)
	r := openRepo(t, g)

	refs, err := r.ListRefs("notes")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestListRefs_MalformedLooseRef(t *testing.T) {
	g := gittest.New(t)
	g.WriteFile("refs/heads/broken", "not-a-hash\n")
	r := openRepo(t, g)

	_, err := r.ListRefs("heads")
	require.ErrorIs(t, err, ErrMalformedRef)
}

func TestResolveRevision(t *testing.T) {
	g := gittest.New(t)
	c1 := seedCommit(t, g, "1\n", 100)
	c2 := seedCommit(t, g, "2\n", 200, c1)
	g.SetBranch("main", c2)
	g.SetTag("v1", c1)
	g.SetRef("refs/remotes/origin/main", c1)
	r := openRepo(t, g)

	tests := []struct {
		rev  string
		want object.Hash
	}{
		{"", c2},
		{"HEAD", c2},
		{"main", c2},
		{"v1", c1},
		{"origin/main", c1},
		{"refs/tags/v1", c1},
		{string(c1), c1},
		{strings.ToUpper(string(c1)), c1},
	}
	for _, tc := range tests {
		t.Run(tc.rev, func(t *testing.T) {
			got, err := r.ResolveRevision(tc.rev)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveRevision_NotFound(t *testing.T) {
	g := gittest.New(t)
	r := openRepo(t, g)

	for _, rev := range []string{"HEAD", "nope", "refs/heads/nope", "refs/heads"} {
		_, err := r.ResolveRevision(rev)
		assert.ErrorIs(t, err, ErrRefNotFound, "ResolveRevision(%q)", rev)
	}
}

func TestResolveRevision_DetachedHead(t *testing.T) {
	g := gittest.New(t)
	c := seedCommit(t, g, "x\n", 100)
	g.DetachHead(c)
	r := openRepo(t, g)

	got, err := r.ResolveRevision("HEAD")
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
