package object

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
)

// idx v2 layout: magic, version, 256-entry fanout, then per-object tables of
// names, CRCs and 31-bit offsets, an optional 64-bit offset table, and two
// trailing checksums (pack and index).
var idxMagic = []byte{0xff, 't', 'O', 'c'}

const (
	idxVersion   = 2
	idxFanoutLen = 256
	idxLargeFlag = 1 << 31
)

// PackIndexEntry is one object listed in a pack index.
type PackIndexEntry struct {
	Hash   Hash
	Offset uint64
	CRC32  uint32
}

// PackIndex is a parsed idx v2 file. Entries are sorted by id.
type PackIndex struct {
	PackChecksum Hash

	fanout  [idxFanoutLen]uint32
	entries []PackIndexEntry
}

// Len returns the number of objects in the index.
func (idx *PackIndex) Len() int { return len(idx.entries) }

// Entries returns a copy of the entries in id order.
func (idx *PackIndex) Entries() []PackIndexEntry { return slices.Clone(idx.entries) }

// Find looks h up within its fanout bucket.
func (idx *PackIndex) Find(h Hash) (PackIndexEntry, bool) {
	raw, err := hashHexToBytes(h)
	if err != nil {
		return PackIndexEntry{}, false
	}
	lo := uint32(0)
	if raw[0] > 0 {
		lo = idx.fanout[raw[0]-1]
	}
	bucket := idx.entries[lo:idx.fanout[raw[0]]]
	i, ok := slices.BinarySearchFunc(bucket, h, func(e PackIndexEntry, target Hash) int {
		return strings.Compare(string(e.Hash), string(target))
	})
	if !ok {
		return PackIndexEntry{}, false
	}
	return bucket[i], true
}

// idxCursor reads big-endian fields from an index buffer, tracking the first
// short read.
type idxCursor struct {
	data []byte
	pos  int
}

func (c *idxCursor) take(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.data) {
		return nil, fmt.Errorf("%w: pack index truncated at byte %d", ErrCorruptObject, c.pos)
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *idxCursor) uint32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadPackIndex parses an idx v2 file with 20-byte object ids. Checksums are
// recorded, not verified.
func ReadPackIndex(data []byte) (*PackIndex, error) {
	c := &idxCursor{data: data}
	magic, err := c.take(len(idxMagic))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, idxMagic) {
		return nil, fmt.Errorf("%w: pack index magic %q", ErrCorruptObject, magic)
	}
	version, err := c.uint32()
	if err != nil {
		return nil, err
	}
	if version != idxVersion {
		return nil, fmt.Errorf("%w: pack index version %d", ErrCorruptObject, version)
	}

	idx := &PackIndex{}
	for i := range idx.fanout {
		if idx.fanout[i], err = c.uint32(); err != nil {
			return nil, err
		}
		if i > 0 && idx.fanout[i] < idx.fanout[i-1] {
			return nil, fmt.Errorf("%w: pack index fanout decreases at %d", ErrCorruptObject, i)
		}
	}
	n := int(idx.fanout[idxFanoutLen-1])

	names, err := c.take(n * HashSize)
	if err != nil {
		return nil, err
	}
	crcs, err := c.take(n * 4)
	if err != nil {
		return nil, err
	}
	small, err := c.take(n * 4)
	if err != nil {
		return nil, err
	}

	// The 64-bit table sits between the offsets and the trailer, so its
	// length is whatever remains.
	largeLen := len(data) - c.pos - 2*HashSize
	if largeLen < 0 || largeLen%8 != 0 {
		return nil, fmt.Errorf("%w: pack index large-offset table has %d bytes", ErrCorruptObject, largeLen)
	}
	large, _ := c.take(largeLen)
	sum, err := c.take(HashSize)
	if err != nil {
		return nil, err
	}
	idx.PackChecksum = Hash(hex.EncodeToString(sum))

	idx.entries = make([]PackIndexEntry, n)
	for i := range idx.entries {
		off := binary.BigEndian.Uint32(small[i*4:])
		offset := uint64(off)
		if off&idxLargeFlag != 0 {
			slot := int(off &^ idxLargeFlag)
			if (slot+1)*8 > len(large) {
				return nil, fmt.Errorf("%w: pack index large offset %d missing", ErrCorruptObject, slot)
			}
			offset = binary.BigEndian.Uint64(large[slot*8:])
		}
		idx.entries[i] = PackIndexEntry{
			Hash:   Hash(hex.EncodeToString(names[i*HashSize : (i+1)*HashSize])),
			Offset: offset,
			CRC32:  binary.BigEndian.Uint32(crcs[i*4:]),
		}
	}
	return idx, nil
}
