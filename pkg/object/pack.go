package object

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// A pack starts with "PACK", a big-endian version and an object count.
const packHeaderSize = 12

var packSignature = []byte("PACK")

// packEntryType is the 3-bit type field of a pack entry header.
type packEntryType uint8

const (
	packCommit   packEntryType = 1
	packTree     packEntryType = 2
	packBlob     packEntryType = 3
	packTag      packEntryType = 4
	packOfsDelta packEntryType = 6
	packRefDelta packEntryType = 7
)

var packBaseTypes = map[packEntryType]Type{
	packCommit: TypeCommit,
	packTree:   TypeTree,
	packBlob:   TypeBlob,
	packTag:    TypeTag,
}

// checkPackHeader validates the signature and version and returns the object
// count. Versions 2 and 3 share an entry layout.
func checkPackHeader(header []byte) (uint32, error) {
	if len(header) < packHeaderSize {
		return 0, fmt.Errorf("%w: pack header is %d bytes", ErrCorruptObject, len(header))
	}
	if !bytes.Equal(header[:4], packSignature) {
		return 0, fmt.Errorf("%w: pack signature %q", ErrCorruptObject, header[:4])
	}
	if v := binary.BigEndian.Uint32(header[4:8]); v != 2 && v != 3 {
		return 0, fmt.Errorf("%w: pack version %d", ErrCorruptObject, v)
	}
	return binary.BigEndian.Uint32(header[8:12]), nil
}

// parseEntryHeader decodes the type and inflated size of a pack entry. The
// first byte holds the type and the low four size bits; each continuation
// byte adds seven more size bits.
func parseEntryHeader(data []byte) (typ packEntryType, size uint64, n int, err error) {
	for shift := uint(0); ; n++ {
		if n >= len(data) || shift > 63 {
			return 0, 0, 0, fmt.Errorf("%w: pack entry header truncated", ErrCorruptObject)
		}
		b := data[n]
		if n == 0 {
			typ = packEntryType((b >> 4) & 0x7)
			size = uint64(b & 0x0f)
			shift = 4
		} else {
			size |= uint64(b&0x7f) << shift
			shift += 7
		}
		if b&0x80 == 0 {
			return typ, size, n + 1, nil
		}
	}
}
