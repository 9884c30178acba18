package repo

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/odvcencio/gitread/pkg/object"
)

var (
	// ErrRefNotFound indicates a name that matches no loose or packed ref.
	ErrRefNotFound = errors.New("reference not found")
	// ErrMalformedRef indicates a ref file whose content is neither an
	// object id nor a "ref:" pointer.
	ErrMalformedRef = errors.New("malformed reference")
)

// Head is the content of HEAD. Exactly one field is set: Ref for a symbolic
// HEAD ("refs/heads/main"), Hash for a detached one.
type Head struct {
	Ref  string
	Hash object.Hash
}

// IsSymbolic reports whether HEAD points at another reference.
func (h Head) IsSymbolic() bool {
	return h.Ref != ""
}

// Head reads HEAD. A symbolic HEAD is returned unresolved; callers look the
// name up once more through ListRefs or ResolveRevision.
func (r *Repo) Head() (Head, error) {
	data, err := os.ReadFile(filepath.Join(r.GitDir, "HEAD"))
	if err != nil {
		return Head{}, fmt.Errorf("head: %w", err)
	}
	content := strings.TrimSpace(string(data))

	if target, ok := strings.CutPrefix(content, "ref:"); ok {
		fields := strings.Fields(target)
		if len(fields) == 0 {
			return Head{}, fmt.Errorf("head: %w: empty ref target", ErrMalformedRef)
		}
		return Head{Ref: fields[0]}, nil
	}
	h, err := object.ParseHash(content)
	if err != nil {
		return Head{}, fmt.Errorf("head: %w: %v", ErrMalformedRef, err)
	}
	return Head{Hash: h}, nil
}

// ListRefs lists references under refs/<category>, e.g. "heads" or "tags".
// Names are returned relative to the category ("main", "feature/x"). Loose
// refs override packed-refs entries with the same name. Symbolic loose refs
// such as refs/remotes/origin/HEAD are skipped.
func (r *Repo) ListRefs(category string) (map[string]object.Hash, error) {
	category = strings.Trim(filepath.ToSlash(category), "/")
	prefix := "refs/"
	if category != "" {
		prefix += category + "/"
	}

	packed, err := r.readPackedRefs()
	if err != nil {
		return nil, fmt.Errorf("list refs %s: %w", category, err)
	}
	refs := make(map[string]object.Hash)
	for name, h := range packed {
		if rel, ok := strings.CutPrefix(name, prefix); ok {
			refs[rel] = h
		}
	}

	dir := filepath.Join(r.GitDir, filepath.FromSlash(strings.TrimSuffix(prefix, "/")))
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		// *.lock files belong to an in-flight update and are never refs.
		if d.IsDir() || strings.HasSuffix(d.Name(), ".lock") {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		content := strings.TrimSpace(string(data))
		if strings.HasPrefix(content, "ref:") {
			r.logger.Debug("skipping symbolic ref", zap.String("ref", prefix+name))
			return nil
		}
		h, err := object.ParseHash(content)
		if err != nil {
			return fmt.Errorf("%s%s: %w: %v", prefix, name, ErrMalformedRef, err)
		}
		refs[name] = h
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("list refs %s: %w", category, err)
	}
	return refs, nil
}

// readPackedRefs parses packed-refs into full ref names. Comment lines and
// "^" peeled-tag lines are skipped. A missing file yields an empty map.
func (r *Repo) readPackedRefs() (map[string]object.Hash, error) {
	data, err := os.ReadFile(filepath.Join(r.GitDir, "packed-refs"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]object.Hash{}, nil
		}
		return nil, fmt.Errorf("read packed-refs: %w", err)
	}

	refs := make(map[string]object.Hash)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '^' {
			continue
		}
		hex, name, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("packed-refs line %d: %w: %q", lineNo, ErrMalformedRef, line)
		}
		h, err := object.ParseHash(hex)
		if err != nil {
			return nil, fmt.Errorf("packed-refs line %d: %w: %v", lineNo, ErrMalformedRef, err)
		}
		refs[strings.TrimSpace(name)] = h
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read packed-refs: %w", err)
	}
	return refs, nil
}

// ResolveRevision turns a user-supplied revision into a commit id.
//
// Resolution order:
//  1. "" or "HEAD": read HEAD; a symbolic HEAD takes one more lookup.
//  2. A full 40-character hex id.
//  3. A full "refs/..." name.
//  4. refs/heads/<rev>, refs/tags/<rev>, refs/remotes/<rev>.
func (r *Repo) ResolveRevision(rev string) (object.Hash, error) {
	rev = strings.TrimSpace(rev)
	if rev == "" || rev == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return "", err
		}
		if !head.IsSymbolic() {
			return head.Hash, nil
		}
		h, err := r.resolveRefName(head.Ref)
		if err != nil {
			return "", fmt.Errorf("resolve HEAD: %w", err)
		}
		return h, nil
	}

	if len(rev) == object.HashHexSize {
		if h, err := object.ParseHash(rev); err == nil {
			return h, nil
		}
	}
	if strings.HasPrefix(rev, "refs/") {
		return r.resolveRefName(rev)
	}
	for _, category := range []string{"heads", "tags", "remotes"} {
		refs, err := r.ListRefs(category)
		if err != nil {
			return "", err
		}
		if h, ok := refs[rev]; ok {
			return h, nil
		}
	}
	return "", fmt.Errorf("resolve %q: %w", rev, ErrRefNotFound)
}

// resolveRefName looks up a full "refs/<category>/<name>" reference.
func (r *Repo) resolveRefName(full string) (object.Hash, error) {
	rest, ok := strings.CutPrefix(full, "refs/")
	if !ok {
		return "", fmt.Errorf("resolve %q: %w", full, ErrRefNotFound)
	}
	category, name, ok := strings.Cut(rest, "/")
	if !ok || name == "" {
		return "", fmt.Errorf("resolve %q: %w", full, ErrRefNotFound)
	}
	refs, err := r.ListRefs(category)
	if err != nil {
		return "", err
	}
	h, ok := refs[name]
	if !ok {
		return "", fmt.Errorf("resolve %q: %w", full, ErrRefNotFound)
	}
	return h, nil
}
