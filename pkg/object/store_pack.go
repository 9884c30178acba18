package object

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// loadPacks opens every pack under objects/pack once per Store.
func (s *Store) loadPacks() ([]*packFile, error) {
	s.packsOnce.Do(func() {
		idxPaths, err := s.listPackIndexPaths()
		if err != nil {
			s.setPacks(nil, err)
			return
		}

		packs := make([]*packFile, 0, len(idxPaths))
		objects := 0
		for _, idxPath := range idxPaths {
			p, err := openPackFile(idxPath)
			if err != nil {
				for _, opened := range packs {
					_ = opened.Close()
				}
				s.setPacks(nil, fmt.Errorf("pack %s: %w", filepath.Base(idxPath), err))
				return
			}
			objects += p.idx.Len()
			packs = append(packs, p)
		}
		s.logger.Debug("loaded pack indexes",
			zap.String("dir", filepath.Join(s.root, "objects", "pack")),
			zap.Int("packs", len(packs)),
			zap.Int("objects", objects),
		)
		s.setPacks(packs, nil)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.packs, s.packsErr
}

func (s *Store) setPacks(packs []*packFile, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		for _, p := range packs {
			_ = p.Close()
		}
		packs, err = nil, ErrStoreClosed
	}
	s.packs = packs
	s.packsErr = err
}

func (s *Store) readFromPacks(h Hash) (Type, []byte, error) {
	packs, err := s.loadPacks()
	if err != nil {
		return "", nil, &LookupError{Hash: h, Err: err}
	}
	for _, p := range packs {
		entry, ok := p.idx.Find(h)
		if !ok {
			continue
		}
		objType, data, err := p.readAt(entry.Offset, s.Read, 0)
		if err != nil {
			return "", nil, lookupErr(h, "%w: pack %s offset %d: %v", ErrCorruptObject, filepath.Base(p.path), entry.Offset, err)
		}
		return objType, data, nil
	}
	return "", nil, &LookupError{Hash: h, Err: ErrMissingObject}
}

func (s *Store) listPackIndexPaths() ([]string, error) {
	packDir := filepath.Join(s.root, "objects", "pack")
	entries, err := os.ReadDir(packDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read pack dir: %w", err)
	}

	idxPaths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".idx") {
			continue
		}
		idxPaths = append(idxPaths, filepath.Join(packDir, entry.Name()))
	}
	sort.Strings(idxPaths)
	return idxPaths, nil
}

func packPathForIndex(idxPath string) string {
	return strings.TrimSuffix(idxPath, ".idx") + ".pack"
}
