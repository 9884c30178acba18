package object

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/zlib"
)

// maxDeltaChain bounds delta resolution so a corrupt pack cannot recurse
// forever.
const maxDeltaChain = 10000

// entryPeek covers the largest entry header plus OFS_DELTA distance.
const entryPeek = 32

// packFile is an open pack paired with its parsed index.
type packFile struct {
	path string
	f    *os.File
	size int64
	idx  *PackIndex
}

func openPackFile(idxPath string) (*packFile, error) {
	idxData, err := os.ReadFile(idxPath)
	if err != nil {
		return nil, err
	}
	idx, err := ReadPackIndex(idxData)
	if err != nil {
		return nil, err
	}

	p := &packFile{path: packPathForIndex(idxPath), idx: idx}
	if p.f, err = os.Open(p.path); err != nil {
		return nil, err
	}
	if err := p.checkHeader(); err != nil {
		p.f.Close()
		return nil, err
	}
	return p, nil
}

func (p *packFile) checkHeader() error {
	info, err := p.f.Stat()
	if err != nil {
		return err
	}
	p.size = info.Size()

	header := make([]byte, packHeaderSize)
	if _, err := p.f.ReadAt(header, 0); err != nil {
		return fmt.Errorf("%w: read pack header: %v", ErrCorruptObject, err)
	}
	count, err := checkPackHeader(header)
	if err != nil {
		return err
	}
	if int(count) != p.idx.Len() {
		return fmt.Errorf("%w: pack holds %d objects, index lists %d", ErrCorruptObject, count, p.idx.Len())
	}
	return nil
}

func (p *packFile) Close() error {
	return p.f.Close()
}

// readAt decodes the entry at offset. Delta bases are resolved recursively:
// OFS_DELTA bases within this pack, REF_DELTA bases through resolveRef so
// they may live in another pack or as loose objects.
func (p *packFile) readAt(offset uint64, resolveRef func(Hash) (Type, []byte, error), depth int) (Type, []byte, error) {
	if depth > maxDeltaChain {
		return "", nil, fmt.Errorf("delta chain longer than %d", maxDeltaChain)
	}
	if offset < packHeaderSize || int64(offset) >= p.size {
		return "", nil, fmt.Errorf("entry offset %d out of range", offset)
	}

	peek := make([]byte, entryPeek)
	n, err := p.f.ReadAt(peek, int64(offset))
	if err != nil && err != io.EOF {
		return "", nil, err
	}
	peek = peek[:n]

	typ, size, hdrLen, err := parseEntryHeader(peek)
	if err != nil {
		return "", nil, err
	}
	body := int64(offset) + int64(hdrLen)

	if objType, ok := packBaseTypes[typ]; ok {
		data, err := p.inflate(body, size)
		return objType, data, err
	}

	var baseType Type
	var base []byte
	switch typ {
	case packOfsDelta:
		distance, m, err := decodeOfsDeltaDistance(peek[hdrLen:])
		if err != nil {
			return "", nil, err
		}
		if distance == 0 || distance > offset {
			return "", nil, fmt.Errorf("ofs-delta distance %d invalid at offset %d", distance, offset)
		}
		body += int64(m)
		baseType, base, err = p.readAt(offset-distance, resolveRef, depth+1)
		if err != nil {
			return "", nil, fmt.Errorf("ofs-delta base at %d: %w", offset-distance, err)
		}

	case packRefDelta:
		raw := make([]byte, HashSize)
		if _, err := p.f.ReadAt(raw, body); err != nil {
			return "", nil, fmt.Errorf("ref-delta base id: %w", err)
		}
		body += HashSize
		baseHash, _ := HashFromBytes(raw)
		baseType, base, err = resolveRef(baseHash)
		if err != nil {
			return "", nil, fmt.Errorf("ref-delta base %s: %w", baseHash, err)
		}

	default:
		return "", nil, fmt.Errorf("unsupported pack entry type %d", typ)
	}

	delta, err := p.inflate(body, size)
	if err != nil {
		return "", nil, err
	}
	out, err := applyDelta(base, delta)
	if err != nil {
		return "", nil, err
	}
	return baseType, out, nil
}

// inflate reads exactly size bytes of zlib data starting at pos.
func (p *packFile) inflate(pos int64, size uint64) ([]byte, error) {
	if pos >= p.size {
		return nil, fmt.Errorf("no compressed payload at %d", pos)
	}
	if size > math.MaxInt64-1 {
		return nil, fmt.Errorf("entry at %d declares %d bytes", pos, size)
	}
	zr, err := zlib.NewReader(bufio.NewReader(io.NewSectionReader(p.f, pos, p.size-pos)))
	if err != nil {
		return nil, fmt.Errorf("inflate at %d: %w", pos, err)
	}
	defer zr.Close()

	// size comes from the pack; read at most one byte past it rather than
	// allocating it up front.
	data, err := io.ReadAll(io.LimitReader(zr, int64(size)+1))
	if err != nil {
		return nil, fmt.Errorf("inflate at %d: %w", pos, err)
	}
	if uint64(len(data)) != size {
		return nil, fmt.Errorf("inflate at %d: got %d bytes, header says %d", pos, len(data), size)
	}
	return data, nil
}
