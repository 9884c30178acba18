package object

import "unicode/utf8"

// Type identifies the kind of object stored.
type Type string

const (
	TypeBlob   Type = "blob"
	TypeTree   Type = "tree"
	TypeCommit Type = "commit"
	TypeTag    Type = "tag"
)

// Object is the decoded form of one stored object. The concrete type is one
// of *Blob, *Tree or *Commit; match on it with a type switch.
type Object interface {
	Type() Type
	sealedObject()
}

// FileMode is the octal mode recorded on a tree entry.
type FileMode uint32

const (
	ModeFile      FileMode = 0o100644
	ModeExec      FileMode = 0o100755
	ModeDir       FileMode = 0o40000
	ModeSymlink   FileMode = 0o120000
	ModeSubmodule FileMode = 0o160000
)

// EntryKind collapses a FileMode to what the entry points at.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDir
	KindSymlink
	KindSubmodule
)

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	case KindSubmodule:
		return "submodule"
	default:
		return "unknown"
	}
}

// Kind reports the entry kind for m. Regular and executable files share
// KindFile.
func (m FileMode) Kind() EntryKind {
	switch m & 0o170000 {
	case 0o040000:
		return KindDir
	case 0o120000:
		return KindSymlink
	case 0o160000:
		return KindSubmodule
	default:
		return KindFile
	}
}

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

func (*Blob) Type() Type    { return TypeBlob }
func (*Blob) sealedObject() {}

// IsBinary reports whether the payload contains a NUL byte or is not valid
// UTF-8 text.
func (b *Blob) IsBinary() bool {
	for _, c := range b.Data {
		if c == 0 {
			return true
		}
	}
	return !utf8.Valid(b.Data)
}

// Text returns the payload as a string. Only meaningful when !IsBinary().
func (b *Blob) Text() string {
	return string(b.Data)
}

// TreeEntry is one entry in a tree object.
type TreeEntry struct {
	Name string
	Mode FileMode
	Hash Hash
}

// Kind is shorthand for e.Mode.Kind().
func (e TreeEntry) Kind() EntryKind {
	return e.Mode.Kind()
}

// Tree holds entries in the order they were stored.
type Tree struct {
	Entries []TreeEntry
}

func (*Tree) Type() Type    { return TypeTree }
func (*Tree) sealedObject() {}

// Entry returns the entry called name.
func (t *Tree) Entry(name string) (TreeEntry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}

// Signature is an author or committer stamp.
type Signature struct {
	Name      string
	Email     string
	Timestamp int64
	Timezone  string
}

// Commit points to a tree and records its parents, authorship and message.
// Hash is filled in when the commit is read from a Store; it is not part of
// the encoded form.
type Commit struct {
	Hash      Hash
	Tree      Hash
	Parents   []Hash
	Author    Signature
	Committer Signature
	GPGSig    string
	Message   string
}

func (*Commit) Type() Type    { return TypeCommit }
func (*Commit) sealedObject() {}

// FirstParent returns the first parent, or "" for a root commit.
func (c *Commit) FirstParent() Hash {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}
