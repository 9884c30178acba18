package object

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zlib"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func hashObject(objType Type, data []byte) Hash {
	h := sha1.New()
	fmt.Fprintf(h, "%s %d\x00", objType, len(data))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

func deflate(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

func writeLoose(t *testing.T, s *Store, objType Type, data []byte) Hash {
	t.Helper()
	h := hashObject(objType, data)
	envelope := append([]byte(fmt.Sprintf("%s %d\x00", objType, len(data))), data...)
	writeLooseFile(t, s, h, deflate(t, envelope))
	return h
}

func writeLooseFile(t *testing.T, s *Store, h Hash, contents []byte) {
	t.Helper()
	path := s.objectPath(h)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, contents, 0o444); err != nil {
		t.Fatalf("write loose object: %v", err)
	}
}

func repeatHex(pair string, n int) string {
	var b bytes.Buffer
	for i := 0; i < n; i++ {
		b.WriteString(pair)
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Pack construction
// ---------------------------------------------------------------------------

// testPackWriter assembles a pack stream in memory and writes it, together
// with a matching idx v2 file, under objects/pack.
type testPackWriter struct {
	buf     bytes.Buffer
	entries []PackIndexEntry
	count   uint32
}

func newTestPackWriter() *testPackWriter {
	p := &testPackWriter{}
	p.buf.Write(packSignature)
	_ = binary.Write(&p.buf, binary.BigEndian, uint32(2))
	_ = binary.Write(&p.buf, binary.BigEndian, uint32(0))
	return p
}

func (p *testPackWriter) offset() uint64 {
	return uint64(p.buf.Len())
}

func (p *testPackWriter) writeEntry(t *testing.T, packType packEntryType, prefix, payload []byte) uint64 {
	t.Helper()
	return p.writeEntrySized(t, packType, uint64(len(payload)), prefix, payload)
}

// writeEntrySized writes an entry whose header claims declared bytes,
// regardless of the payload's real length.
func (p *testPackWriter) writeEntrySized(t *testing.T, packType packEntryType, declared uint64, prefix, payload []byte) uint64 {
	t.Helper()
	off := p.offset()
	p.buf.Write(encodePackEntryHeader(packType, declared))
	p.buf.Write(prefix)
	p.buf.Write(deflate(t, payload))
	p.count++
	return off
}

func (p *testPackWriter) addObject(t *testing.T, objType Type, data []byte) (Hash, uint64) {
	t.Helper()
	var packType packEntryType
	for pt, typ := range packBaseTypes {
		if typ == objType {
			packType = pt
		}
	}
	if packType == 0 {
		t.Fatalf("unsupported pack type %q", objType)
	}
	off := p.writeEntry(t, packType, nil, data)
	h := hashObject(objType, data)
	p.entries = append(p.entries, PackIndexEntry{Hash: h, Offset: off})
	return h, off
}

func (p *testPackWriter) addOfsDelta(t *testing.T, baseOffset uint64, objType Type, base, target []byte) (Hash, uint64) {
	t.Helper()
	current := p.offset()
	off := p.writeEntry(t, packOfsDelta, encodeOfsDeltaDistance(current-baseOffset), buildCopyInsertDelta(base, target))
	h := hashObject(objType, target)
	p.entries = append(p.entries, PackIndexEntry{Hash: h, Offset: off})
	return h, off
}

func (p *testPackWriter) addRefDelta(t *testing.T, baseHash Hash, objType Type, base, target []byte) Hash {
	t.Helper()
	raw, err := hashHexToBytes(baseHash)
	if err != nil {
		t.Fatalf("base hash: %v", err)
	}
	off := p.writeEntry(t, packRefDelta, raw, buildCopyInsertDelta(base, target))
	h := hashObject(objType, target)
	p.entries = append(p.entries, PackIndexEntry{Hash: h, Offset: off})
	return h
}

// finish writes pack-<sum>.pack and pack-<sum>.idx under root/objects/pack.
func (p *testPackWriter) finish(t *testing.T, root string) {
	t.Helper()
	data := append([]byte(nil), p.buf.Bytes()...)
	binary.BigEndian.PutUint32(data[8:12], p.count)
	sum := sha1.Sum(data)
	data = append(data, sum[:]...)

	packDir := filepath.Join(root, "objects", "pack")
	if err := os.MkdirAll(packDir, 0o755); err != nil {
		t.Fatalf("mkdir pack dir: %v", err)
	}
	base := filepath.Join(packDir, "pack-"+hex.EncodeToString(sum[:]))
	if err := os.WriteFile(base+".pack", data, 0o444); err != nil {
		t.Fatalf("write pack: %v", err)
	}
	if err := os.WriteFile(base+".idx", buildPackIndex(t, p.entries, sum[:]), 0o444); err != nil {
		t.Fatalf("write idx: %v", err)
	}
}

func buildPackIndex(t *testing.T, entries []PackIndexEntry, packChecksum []byte) []byte {
	t.Helper()
	sorted := make([]PackIndexEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Hash < sorted[j].Hash })

	var buf bytes.Buffer
	buf.Write(idxMagic)
	_ = binary.Write(&buf, binary.BigEndian, uint32(idxVersion))

	var fanout [256]uint32
	for _, e := range sorted {
		raw, err := hashHexToBytes(e.Hash)
		if err != nil {
			t.Fatalf("index entry: %v", err)
		}
		for b := int(raw[0]); b < 256; b++ {
			fanout[b]++
		}
	}
	for i := 0; i < 256; i++ {
		_ = binary.Write(&buf, binary.BigEndian, fanout[i])
	}
	for _, e := range sorted {
		raw, _ := hashHexToBytes(e.Hash)
		buf.Write(raw)
	}
	for _, e := range sorted {
		_ = binary.Write(&buf, binary.BigEndian, e.CRC32)
	}
	var large []uint64
	for _, e := range sorted {
		if e.Offset < uint64(idxLargeFlag) {
			_ = binary.Write(&buf, binary.BigEndian, uint32(e.Offset))
			continue
		}
		_ = binary.Write(&buf, binary.BigEndian, uint32(idxLargeFlag)|uint32(len(large)))
		large = append(large, e.Offset)
	}
	for _, off := range large {
		_ = binary.Write(&buf, binary.BigEndian, off)
	}

	buf.Write(packChecksum)
	idxSum := sha1.Sum(buf.Bytes())
	buf.Write(idxSum[:])
	return buf.Bytes()
}

func encodePackEntryHeader(objType packEntryType, size uint64) []byte {
	b := byte((objType & 0x7) << 4)
	b |= byte(size & 0x0f)
	size >>= 4

	out := make([]byte, 0, 10)
	if size > 0 {
		b |= 0x80
	}
	out = append(out, b)

	for size > 0 {
		next := byte(size & 0x7f)
		size >>= 7
		if size > 0 {
			next |= 0x80
		}
		out = append(out, next)
	}
	return out
}

func encodeDeltaVarint(v uint64) []byte {
	if v == 0 {
		return []byte{0}
	}
	out := make([]byte, 0, 10)
	for v > 0 {
		b := byte(v & 0x7f)
		v >>= 7
		if v > 0 {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

func encodeOfsDeltaDistance(distance uint64) []byte {
	if distance == 0 {
		return []byte{0}
	}
	b := []byte{byte(distance & 0x7f)}
	for distance >>= 7; distance > 0; distance >>= 7 {
		distance--
		b = append([]byte{byte((distance & 0x7f) | 0x80)}, b...)
	}
	return b
}

// buildCopyInsertDelta copies the common prefix of base and target (up to
// 64 KiB) and inserts the remainder literally.
func buildCopyInsertDelta(base, target []byte) []byte {
	var out bytes.Buffer
	out.Write(encodeDeltaVarint(uint64(len(base))))
	out.Write(encodeDeltaVarint(uint64(len(target))))

	prefix := 0
	for prefix < len(base) && prefix < len(target) && prefix < 0xffff && base[prefix] == target[prefix] {
		prefix++
	}
	if prefix > 0 {
		// offset 0, two size bytes
		out.WriteByte(0x80 | 0x10 | 0x20)
		out.WriteByte(byte(prefix))
		out.WriteByte(byte(prefix >> 8))
	}
	for pos := prefix; pos < len(target); {
		chunk := len(target) - pos
		if chunk > 127 {
			chunk = 127
		}
		out.WriteByte(byte(chunk))
		out.Write(target[pos : pos+chunk])
		pos += chunk
	}
	return out.Bytes()
}
