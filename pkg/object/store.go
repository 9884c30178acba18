package object

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/klauspost/compress/zlib"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultCacheSize is the number of inflated objects a Store keeps in memory
// unless WithCacheSize says otherwise.
const DefaultCacheSize = 1024

// Store reads objects from a git directory. Loose objects live under
// objects/ab/cdef0123...; anything not found there is looked up in the pack
// files under objects/pack.
//
// Objects are immutable, so inflated payloads are cached for the lifetime of
// the Store.
type Store struct {
	root   string
	logger *zap.Logger

	mu           sync.Mutex
	cache        *lru.Cache
	hits, misses int
	closed       bool

	packsOnce sync.Once
	packs     []*packFile
	packsErr  error
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for debug events. The default discards
// everything.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCacheSize bounds the number of cached objects. Zero disables caching.
func WithCacheSize(n int) StoreOption {
	return func(s *Store) {
		if n <= 0 {
			s.cache = nil
			return
		}
		s.cache = lru.New(n)
	}
}

// NewStore creates a Store rooted at the given git directory.
func NewStore(root string, opts ...StoreOption) *Store {
	s := &Store{
		root:   root,
		logger: zap.NewNop(),
		cache:  lru.New(DefaultCacheSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type cachedObject struct {
	objType Type
	data    []byte
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash,
// either loose or packed.
func (s *Store) Has(h Hash) bool {
	if _, err := hashHexToBytes(h); err != nil {
		return false
	}
	if s.isClosed() {
		return false
	}
	if _, err := os.Stat(s.objectPath(h)); err == nil {
		return true
	}
	packs, err := s.loadPacks()
	if err != nil {
		return false
	}
	for _, p := range packs {
		if _, ok := p.idx.Find(h); ok {
			return true
		}
	}
	return false
}

// Read retrieves an object by hash, returning its type and raw content.
func (s *Store) Read(h Hash) (Type, []byte, error) {
	if _, err := hashHexToBytes(h); err != nil {
		return "", nil, &LookupError{Hash: h, Err: fmt.Errorf("%w: %v", ErrMissingObject, err)}
	}
	if s.isClosed() {
		return "", nil, &LookupError{Hash: h, Err: ErrStoreClosed}
	}
	if objType, data, ok := s.cacheGet(h); ok {
		return objType, data, nil
	}

	objType, data, err := s.readLoose(h)
	if errors.Is(err, fs.ErrNotExist) {
		objType, data, err = s.readFromPacks(h)
	}
	if err != nil {
		return "", nil, err
	}

	s.cacheAdd(h, objType, data)
	return objType, data, nil
}

func (s *Store) readLoose(h Hash) (Type, []byte, error) {
	f, err := os.Open(s.objectPath(h))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, err
		}
		return "", nil, &LookupError{Hash: h, Err: err}
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return "", nil, lookupErr(h, "%w: inflate: %v", ErrCorruptObject, err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return "", nil, lookupErr(h, "%w: inflate: %v", ErrCorruptObject, err)
	}
	objType, data, err := parseEnvelope(raw)
	if err != nil {
		return "", nil, &LookupError{Hash: h, Err: err}
	}
	return objType, data, nil
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Store) cacheGet(h Hash) (Type, []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		return "", nil, false
	}
	v, ok := s.cache.Get(h)
	if !ok {
		s.misses++
		return "", nil, false
	}
	s.hits++
	obj := v.(cachedObject)
	return obj.objType, bytes.Clone(obj.data), true
}

func (s *Store) cacheAdd(h Hash, objType Type, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		return
	}
	s.cache.Add(h, cachedObject{objType: objType, data: bytes.Clone(data)})
}

// Lookup reads and decodes the object called h.
func (s *Store) Lookup(h Hash) (Object, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	obj, err := decodeObject(h, objType, data)
	if err != nil {
		return nil, &LookupError{Hash: h, Err: err}
	}
	return obj, nil
}

// Close releases any open pack files. Reads after Close fail with
// ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	packs := s.packs
	s.packs = nil
	s.closed = true
	hits, misses := s.hits, s.misses
	s.mu.Unlock()

	if s.cache != nil {
		s.logger.Debug("object cache",
			zap.Int("hits", hits),
			zap.Int("misses", misses),
		)
	}

	var err error
	for _, p := range packs {
		err = multierr.Append(err, p.Close())
	}
	return err
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeBlob {
		return nil, fmt.Errorf("object %s: %w: got %q, want %q", h, ErrTypeMismatch, objType, TypeBlob)
	}
	return &Blob{Data: data}, nil
}

// ReadTree reads and deserializes a Tree.
func (s *Store) ReadTree(h Hash) (*Tree, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeTree {
		return nil, fmt.Errorf("object %s: %w: got %q, want %q", h, ErrTypeMismatch, objType, TypeTree)
	}
	tr, err := UnmarshalTree(data)
	if err != nil {
		return nil, &LookupError{Hash: h, Err: err}
	}
	return tr, nil
}

// ReadCommit reads and deserializes a Commit.
func (s *Store) ReadCommit(h Hash) (*Commit, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeCommit {
		return nil, fmt.Errorf("object %s: %w: got %q, want %q", h, ErrTypeMismatch, objType, TypeCommit)
	}
	c, err := UnmarshalCommit(data)
	if err != nil {
		return nil, &LookupError{Hash: h, Err: err}
	}
	c.Hash = h
	return c, nil
}
