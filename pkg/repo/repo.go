package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/odvcencio/gitread/pkg/object"
)

// ErrNotRepository is returned by Open when no git directory is found.
var ErrNotRepository = errors.New("not a git repository (or any parent up to /)")

// Repo is an opened git repository. It holds nothing but locations and the
// object store; every query reads from disk.
type Repo struct {
	RootDir string        // working tree root, or the git dir for bare repositories
	GitDir  string        // directory holding HEAD, objects/ and refs/
	Store   *object.Store // object lookup

	logger *zap.Logger
}

type options struct {
	logger    *zap.Logger
	cacheSize int
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger for the repository and its object store.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCacheSize bounds the object store's in-memory cache. Zero disables it.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// Open searches upward from path for a git directory and opens the
// repository. A directory qualifies when it contains a .git directory, a
// .git file with a "gitdir:" line, or is itself a bare git directory.
func Open(path string, opts ...Option) (*Repo, error) {
	o := options{
		logger:    zap.NewNop(),
		cacheSize: object.DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		gitDir, ok, err := gitDirAt(cur)
		if err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		if ok {
			o.logger.Debug("opened repository",
				zap.String("root", cur),
				zap.String("git_dir", gitDir),
			)
			return &Repo{
				RootDir: cur,
				GitDir:  gitDir,
				Store: object.NewStore(gitDir,
					object.WithLogger(o.logger),
					object.WithCacheSize(o.cacheSize),
				),
				logger: o.logger,
			}, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open %s: %w", path, ErrNotRepository)
		}
		cur = parent
	}
}

// Close releases files held by the object store.
func (r *Repo) Close() error {
	return r.Store.Close()
}

// Lookup reads and decodes one object.
func (r *Repo) Lookup(h object.Hash) (object.Object, error) {
	return r.Store.Lookup(h)
}

func gitDirAt(dir string) (string, bool, error) {
	dotGit := filepath.Join(dir, ".git")
	info, err := os.Stat(dotGit)
	switch {
	case err == nil && info.IsDir():
		if isGitDir(dotGit) {
			return dotGit, true, nil
		}
	case err == nil && info.Mode().IsRegular():
		target, err := readGitFile(dotGit)
		if err != nil {
			return "", false, err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, target)
		}
		if !isGitDir(target) {
			return "", false, fmt.Errorf("%s points at %s, which is not a git directory", dotGit, target)
		}
		return filepath.Clean(target), true, nil
	}

	if isGitDir(dir) {
		return dir, true, nil
	}
	return "", false, nil
}

func readGitFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	content := strings.TrimSpace(string(data))
	target, ok := strings.CutPrefix(content, "gitdir:")
	if !ok {
		return "", fmt.Errorf("%s: missing gitdir line", path)
	}
	return strings.TrimSpace(target), nil
}

func isGitDir(dir string) bool {
	head, err := os.Stat(filepath.Join(dir, "HEAD"))
	if err != nil || !head.Mode().IsRegular() {
		return false
	}
	objects, err := os.Stat(filepath.Join(dir, "objects"))
	return err == nil && objects.IsDir()
}
