package object

import (
	"errors"
	"fmt"
)

var errDeltaTruncated = errors.New("delta truncated")

// deltaStream walks the instruction bytes of a git delta.
type deltaStream struct {
	buf []byte
	pos int
}

func (d *deltaStream) more() bool { return d.pos < len(d.buf) }

func (d *deltaStream) next() (byte, error) {
	if !d.more() {
		return 0, errDeltaTruncated
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// varint reads a little-endian base-128 size.
func (d *deltaStream) varint() (uint64, error) {
	var v uint64
	for shift := uint(0); shift < 64; shift += 7 {
		b, err := d.next()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, fmt.Errorf("delta size overflows 64 bits")
}

// copyArgs reads the sparse offset and size of a copy instruction. Bits 0-3
// of op select offset bytes, bits 4-6 size bytes; a zero size means 64KiB.
func (d *deltaStream) copyArgs(op byte) (uint64, uint64, error) {
	var offset, size uint64
	for bit := uint(0); bit < 7; bit++ {
		if op&(1<<bit) == 0 {
			continue
		}
		b, err := d.next()
		if err != nil {
			return 0, 0, err
		}
		if bit < 4 {
			offset |= uint64(b) << (8 * bit)
		} else {
			size |= uint64(b) << (8 * (bit - 4))
		}
	}
	if size == 0 {
		size = 0x10000
	}
	return offset, size, nil
}

// decodeOfsDeltaDistance decodes the backward distance that follows an
// OFS_DELTA entry header. Each continuation adds one before shifting, so
// encodings are unique.
func decodeOfsDeltaDistance(data []byte) (uint64, int, error) {
	d := deltaStream{buf: data}
	b, err := d.next()
	if err != nil {
		return 0, 0, fmt.Errorf("ofs-delta distance: %w", err)
	}
	dist := uint64(b & 0x7f)
	for b&0x80 != 0 {
		if b, err = d.next(); err != nil {
			return 0, 0, fmt.Errorf("ofs-delta distance: %w", err)
		}
		dist = (dist+1)<<7 | uint64(b&0x7f)
	}
	return dist, d.pos, nil
}

// applyDelta rebuilds a target object from base and a delta made of copy and
// insert instructions.
func applyDelta(base, delta []byte) ([]byte, error) {
	d := &deltaStream{buf: delta}
	baseSize, err := d.varint()
	if err != nil {
		return nil, fmt.Errorf("delta base size: %w", err)
	}
	if baseSize != uint64(len(base)) {
		return nil, fmt.Errorf("delta expects %d-byte base, have %d", baseSize, len(base))
	}
	targetSize, err := d.varint()
	if err != nil {
		return nil, fmt.Errorf("delta target size: %w", err)
	}

	// targetSize is untrusted; the final length check catches a mismatch.
	out := make([]byte, 0, min(targetSize, uint64(len(base)+len(delta))))
	for d.more() {
		op, _ := d.next()
		switch {
		case op&0x80 != 0:
			offset, size, err := d.copyArgs(op)
			if err != nil {
				return nil, fmt.Errorf("delta copy: %w", err)
			}
			if offset+size > uint64(len(base)) {
				return nil, fmt.Errorf("delta copy [%d,%d) past base of %d bytes", offset, offset+size, len(base))
			}
			out = append(out, base[offset:offset+size]...)
		case op == 0:
			return nil, fmt.Errorf("delta opcode 0 is reserved")
		default:
			end := d.pos + int(op)
			if end > len(d.buf) {
				return nil, fmt.Errorf("delta insert: %w", errDeltaTruncated)
			}
			out = append(out, d.buf[d.pos:end]...)
			d.pos = end
		}
	}

	if uint64(len(out)) != targetSize {
		return nil, fmt.Errorf("delta produced %d bytes, want %d", len(out), targetSize)
	}
	return out, nil
}
