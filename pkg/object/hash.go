package object

import (
	"encoding/hex"
	"fmt"
)

const (
	// HashSize is the length in bytes of a raw SHA-1 object id.
	HashSize = 20
	// HashHexSize is the length of the hex-encoded form.
	HashHexSize = HashSize * 2
)

// Hash is a 40-character lowercase hex-encoded SHA-1 object id.
type Hash string

// ParseHash validates s as a full hex object id.
func ParseHash(s string) (Hash, error) {
	if len(s) != HashHexSize {
		return "", fmt.Errorf("hash length must be %d hex chars, got %d", HashHexSize, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return Hash(hex.EncodeToString(raw)), nil
}

// HashFromBytes renders a raw 20-byte id as a Hash.
func HashFromBytes(raw []byte) (Hash, error) {
	if len(raw) != HashSize {
		return "", fmt.Errorf("raw hash must be %d bytes, got %d", HashSize, len(raw))
	}
	return Hash(hex.EncodeToString(raw)), nil
}

// IsZero reports whether h is empty.
func (h Hash) IsZero() bool {
	return h == ""
}

// Short returns the 7-character abbreviation used in one-line output.
func (h Hash) Short() string {
	if len(h) > 7 {
		return string(h[:7])
	}
	return string(h)
}

func (h Hash) String() string {
	return string(h)
}

func hashHexToBytes(h Hash) ([]byte, error) {
	if len(h) != HashHexSize {
		return nil, fmt.Errorf("hash length must be %d hex chars, got %d", HashHexSize, len(h))
	}
	raw, err := hex.DecodeString(string(h))
	if err != nil {
		return nil, fmt.Errorf("invalid hash %q: %w", h, err)
	}
	return raw, nil
}
