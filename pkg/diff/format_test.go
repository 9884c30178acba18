package diff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnified(t *testing.T) {
	tests := []struct {
		name                 string
		oldText, newText     string
		existsOld, existsNew bool
		want                 string
	}{
		{
			name: "replace single line", oldText: "x\n", newText: "y\n", existsOld: true, existsNew: true,
			want: "--- a/f\n+++ b/f\n@@ -1 +1 @@\n-x\n+y\n",
		},
		{
			name: "add file", newText: "a\nb\n", existsNew: true,
			want: "--- /dev/null\n+++ b/f\n@@ -0,0 +1,2 @@\n+a\n+b\n",
		},
		{
			name: "delete file", oldText: "a\n", existsOld: true,
			want: "--- a/f\n+++ /dev/null\n@@ -1 +0,0 @@\n-a\n",
		},
		{
			name: "identical", oldText: "same\n", newText: "same\n", existsOld: true, existsNew: true,
			want: "",
		},
		{
			name: "empty added file", existsNew: true,
			want: "",
		},
		{
			name: "missing final newline", oldText: "a\n", newText: "a", existsOld: true, existsNew: true,
			want: "--- a/f\n+++ b/f\n@@ -1 +1 @@\n-a\n+a\n\\ No newline at end of file\n",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Unified("f", []byte(tc.oldText), []byte(tc.newText), tc.existsOld, tc.existsNew, DefaultContext)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(nil))
	assert.Equal(t, []string{"a\n", "b\n"}, splitLines([]byte("a\nb\n")))
	assert.Equal(t, []string{"a\n", "b\n" + noNewlineMarker}, splitLines([]byte("a\nb")))
	assert.Equal(t, []string{"\n"}, splitLines([]byte("\n")))
}

func TestWrite(t *testing.T) {
	records := []Record{
		{Path: "a.txt", Kind: Modified, Patch: "--- a/a.txt\n+++ b/a.txt\n@@ -1 +1 @@\n-x\n+y\n"},
		{Path: "img.png", Kind: Added, Patch: BinarySentinel(Added), Binary: true},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, records))

	want := "diff --git a/a.txt b/a.txt\n" +
		"--- a/a.txt\n+++ b/a.txt\n@@ -1 +1 @@\n-x\n+y\n" +
		"diff --git a/img.png b/img.png\n" +
		"Binary file added\n"
	assert.Equal(t, want, buf.String())
}

func TestNameStatus(t *testing.T) {
	records := []Record{
		{Path: "gone", Kind: Deleted},
		{Path: "new", Kind: Added},
		{Path: "changed", Kind: Modified},
	}
	assert.Equal(t, "D\tgone\nA\tnew\nM\tchanged\n", NameStatus(records))
	assert.Equal(t, "ChangeKind(7)", ChangeKind(7).String())
}

func TestStat(t *testing.T) {
	records := []Record{
		{Path: "a.txt", Kind: Modified, Patch: Unified("a.txt", []byte("1\n2\n3\n"), []byte("1\ntwo\n3\n4\n"), true, true, DefaultContext)},
		{Path: "b.txt", Kind: Added, Patch: Unified("b.txt", nil, []byte("--x\n++y\n"), false, true, DefaultContext)},
		{Path: "c.bin", Kind: Deleted, Patch: BinarySentinel(Deleted), Binary: true},
	}

	s := Stat(records)
	assert.Equal(t, 3, s.FilesChanged())
	assert.Equal(t, 4, s.Insertions)
	assert.Equal(t, 1, s.Deletions)
	assert.Equal(t, FileStat{Path: "a.txt", Kind: Modified, Insertions: 2, Deletions: 1}, s.Files[0])
	assert.Equal(t, FileStat{Path: "b.txt", Kind: Added, Insertions: 2}, s.Files[1])
	assert.Equal(t, FileStat{Path: "c.bin", Kind: Deleted, Binary: true}, s.Files[2])
}
