package repo

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/gitread/internal/gittest"
	"github.com/odvcencio/gitread/pkg/object"
)

func reflogLine(oldHash, newHash object.Hash, ts int64, msg string) string {
	old := string(oldHash)
	if old == "" {
		old = strings.Repeat("0", object.HashHexSize)
	}
	return fmt.Sprintf("%s %s Test Author <author@example.com> %d +0000\t%s\n", old, newHash, ts, msg)
}

func TestReadReflog(t *testing.T) {
	g := gittest.New(t)
	c1 := seedCommit(t, g, "one\n", 100)
	c2 := g.Commit(g.EmptyTree(), 200, "second\n", c1)

	g.WriteFile("logs/refs/heads/main",
		reflogLine("", c1, 100, "commit (initial): first")+
			reflogLine(c1, c2, 200, "commit: second"))

	r := openRepo(t, g)
	entries, err := r.ReadReflog("main", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "refs/heads/main", entries[0].Ref)
	assert.Equal(t, c1, entries[0].OldHash)
	assert.Equal(t, c2, entries[0].NewHash)
	assert.Equal(t, "commit: second", entries[0].Message)
	assert.Equal(t, "Test Author", entries[0].Committer.Name)
	assert.Equal(t, int64(200), entries[0].Committer.Timestamp)

	assert.True(t, entries[1].OldHash.IsZero())
	assert.Equal(t, c1, entries[1].NewHash)

	limited, err := r.ReadReflog("refs/heads/main", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, c2, limited[0].NewHash)
}

func TestReadReflog_Missing(t *testing.T) {
	g := gittest.New(t)
	r := openRepo(t, g)

	entries, err := r.ReadReflog("HEAD", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadReflog_Malformed(t *testing.T) {
	g := gittest.New(t)
	g.WriteFile("logs/HEAD", "not a reflog line\n")
	r := openRepo(t, g)

	_, err := r.ReadReflog("", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedRef)
}

func TestReflogRefName(t *testing.T) {
	tests := map[string]string{
		"":                 "HEAD",
		"HEAD":             "HEAD",
		"main":             "refs/heads/main",
		"feature/x":        "refs/heads/feature/x",
		"refs/remotes/o/m": "refs/remotes/o/m",
		" refs/tags/v1 ":   "refs/tags/v1",
	}
	for in, want := range tests {
		assert.Equal(t, want, reflogRefName(in), "reflogRefName(%q)", in)
	}
}
