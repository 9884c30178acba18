package object

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Envelope
// ---------------------------------------------------------------------------

// parseEnvelope splits an inflated loose object into its type and body. The
// header is "type size" terminated by NUL, and the body must be exactly size
// bytes long.
func parseEnvelope(raw []byte) (Type, []byte, error) {
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("%w: invalid format (no NUL)", ErrCorruptObject)
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] == "" {
		return "", nil, fmt.Errorf("%w: invalid header %q", ErrCorruptObject, header)
	}
	length, err := strconv.Atoi(parts[1])
	if err != nil || length < 0 {
		return "", nil, fmt.Errorf("%w: invalid length %q", ErrCorruptObject, parts[1])
	}
	if len(content) != length {
		return "", nil, fmt.Errorf("%w: length mismatch (header=%d, actual=%d)", ErrCorruptObject, length, len(content))
	}

	objType := Type(parts[0])
	switch objType {
	case TypeBlob, TypeTree, TypeCommit, TypeTag:
	default:
		return "", nil, fmt.Errorf("%w %q", ErrUnknownObjectType, parts[0])
	}
	return objType, content, nil
}

// decodeObject turns a type and body into the matching Object.
func decodeObject(h Hash, objType Type, data []byte) (Object, error) {
	switch objType {
	case TypeBlob:
		return &Blob{Data: data}, nil
	case TypeTree:
		return UnmarshalTree(data)
	case TypeCommit:
		c, err := UnmarshalCommit(data)
		if err != nil {
			return nil, err
		}
		c.Hash = h
		return c, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownObjectType, objType)
	}
}

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// MarshalTree encodes entries in the order given as repeated
// "mode name\0<20-byte id>" records.
func MarshalTree(tr *Tree) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range tr.Entries {
		raw, err := hashHexToBytes(e.Hash)
		if err != nil {
			return nil, fmt.Errorf("marshal tree entry %q: %w", e.Name, err)
		}
		fmt.Fprintf(&buf, "%o %s\x00", uint32(e.Mode), e.Name)
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// UnmarshalTree parses a binary tree body.
func UnmarshalTree(data []byte) (*Tree, error) {
	tr := &Tree{}
	for len(data) > 0 {
		sp := bytes.IndexByte(data, ' ')
		if sp <= 0 {
			return nil, fmt.Errorf("%w: missing mode", ErrMalformedTreeEntry)
		}
		mode, err := strconv.ParseUint(string(data[:sp]), 8, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad mode %q", ErrMalformedTreeEntry, data[:sp])
		}
		data = data[sp+1:]

		nul := bytes.IndexByte(data, 0)
		if nul <= 0 {
			return nil, fmt.Errorf("%w: missing name terminator", ErrMalformedTreeEntry)
		}
		name := string(data[:nul])
		data = data[nul+1:]

		if len(data) < HashSize {
			return nil, fmt.Errorf("%w: truncated id for %q", ErrMalformedTreeEntry, name)
		}
		h, _ := HashFromBytes(data[:HashSize])
		data = data[HashSize:]

		tr.Entries = append(tr.Entries, TreeEntry{
			Name: name,
			Mode: FileMode(mode),
			Hash: h,
		})
	}
	return tr, nil
}

// ---------------------------------------------------------------------------
// Commit
// ---------------------------------------------------------------------------

// MarshalCommit serializes a Commit:
//
//	tree H
//	parent H     (zero or more)
//	author S
//	committer S
//	gpgsig ...   (optional, continuation lines indented by one space)
//
//	message
func MarshalCommit(c *Commit) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.Tree)
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)
	if c.GPGSig != "" {
		fmt.Fprintf(&buf, "gpgsig %s\n", strings.ReplaceAll(c.GPGSig, "\n", "\n "))
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// UnmarshalCommit parses a commit body. Headers run until the first blank
// line; everything after it is the message, kept verbatim. tree, author and
// committer are required. Headers other than those, parent and gpgsig are
// ignored.
func UnmarshalCommit(data []byte) (*Commit, error) {
	header := data
	var message []byte
	if idx := bytes.Index(data, []byte("\n\n")); idx >= 0 {
		header = data[:idx]
		message = data[idx+2:]
	} else {
		header = bytes.TrimSuffix(header, []byte("\n"))
	}

	c := &Commit{Message: string(message)}
	var (
		sawTree, sawAuthor, sawCommitter bool
		lastKey                          string
	)
	for _, line := range strings.Split(string(header), "\n") {
		if strings.HasPrefix(line, " ") {
			if lastKey == "gpgsig" {
				c.GPGSig += "\n" + line[1:]
			}
			continue
		}
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("%w: malformed commit header line %q", ErrCorruptObject, line)
		}
		lastKey = key
		switch key {
		case "tree":
			h, err := ParseHash(val)
			if err != nil {
				return nil, fmt.Errorf("%w: commit tree: %v", ErrCorruptObject, err)
			}
			c.Tree = h
			sawTree = true
		case "parent":
			h, err := ParseHash(val)
			if err != nil {
				return nil, fmt.Errorf("%w: commit parent: %v", ErrCorruptObject, err)
			}
			c.Parents = append(c.Parents, h)
		case "author":
			sig, err := ParseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("commit author: %w", err)
			}
			c.Author = sig
			sawAuthor = true
		case "committer":
			sig, err := ParseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("commit committer: %w", err)
			}
			c.Committer = sig
			sawCommitter = true
		case "gpgsig":
			c.GPGSig = val
		}
	}
	switch {
	case !sawTree:
		return nil, fmt.Errorf("%w: commit has no tree header", ErrCorruptObject)
	case !sawAuthor:
		return nil, fmt.Errorf("%w: commit has no author header", ErrCorruptObject)
	case !sawCommitter:
		return nil, fmt.Errorf("%w: commit has no committer header", ErrCorruptObject)
	}
	return c, nil
}
