package repo

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/gitread/pkg/object"
)

var nullHash = strings.Repeat("0", object.HashHexSize)

// ReflogEntry is one line of logs/<ref>. OldHash is zero for the entry that
// created the ref.
type ReflogEntry struct {
	Ref       string
	OldHash   object.Hash
	NewHash   object.Hash
	Committer object.Signature
	Message   string
}

// ReadReflog returns the reflog of ref, newest first. ref may be "HEAD", a
// full "refs/..." name or a branch name. A ref without a log yields no
// entries. limit <= 0 returns everything.
func (r *Repo) ReadReflog(ref string, limit int) ([]ReflogEntry, error) {
	name := reflogRefName(ref)
	f, err := os.Open(filepath.Join(r.GitDir, "logs", filepath.FromSlash(name)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reflog %s: %w", name, err)
	}
	defer f.Close()

	var entries []ReflogEntry
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := parseReflogLine(line)
		if err != nil {
			return nil, fmt.Errorf("reflog %s line %d: %w", name, lineNo, err)
		}
		entry.Ref = name
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read reflog %s: %w", name, err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// parseReflogLine parses "<old> <new> <name> <email> <ts> <tz>\t<message>".
func parseReflogLine(line string) (ReflogEntry, error) {
	head, msg, _ := strings.Cut(line, "\t")
	oldHex, rest, ok := strings.Cut(head, " ")
	if !ok {
		return ReflogEntry{}, fmt.Errorf("%w: %q", ErrMalformedRef, line)
	}
	newHex, stamp, ok := strings.Cut(rest, " ")
	if !ok {
		return ReflogEntry{}, fmt.Errorf("%w: %q", ErrMalformedRef, line)
	}

	var entry ReflogEntry
	var err error
	if oldHex != nullHash {
		if entry.OldHash, err = object.ParseHash(oldHex); err != nil {
			return ReflogEntry{}, fmt.Errorf("%w: %v", ErrMalformedRef, err)
		}
	}
	if entry.NewHash, err = object.ParseHash(newHex); err != nil {
		return ReflogEntry{}, fmt.Errorf("%w: %v", ErrMalformedRef, err)
	}
	if entry.Committer, err = object.ParseSignature(stamp); err != nil {
		return ReflogEntry{}, err
	}
	entry.Message = msg
	return entry, nil
}

func reflogRefName(ref string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "" || ref == "HEAD":
		return "HEAD"
	case strings.HasPrefix(ref, "refs/"):
		return ref
	}
	return "refs/heads/" + ref
}
