package dwarfdb

import (
	"fmt"
	"math/big"
)

// NewID returns the entity id n.
func NewID(n uint64) *big.Int {
	return new(big.Int).SetUint64(n)
}

// ParseID parses a non-negative decimal entity id.
func ParseID(s string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(s, 10)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("%w: entity id %q", ErrInvalidKey, s)
	}
	return id, nil
}

// EncodeID returns the persisted key of an entity id: the big-endian,
// minimal-length magnitude of the id, which is what big.Int.Bytes returns and
// what two's-complement exports produce for non-negative values minus any
// leading sign byte. Id 0 is the one exception: it encodes as a single 0x00
// byte, since tables reject empty keys. No other id starts with 0x00, so the
// encoding stays unambiguous.
func EncodeID(id *big.Int) ([]byte, error) {
	if id == nil {
		return nil, fmt.Errorf("%w: nil entity id", ErrInvalidKey)
	}
	if id.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative entity id %v", ErrInvalidKey, id)
	}
	if id.Sign() == 0 {
		return []byte{0}, nil
	}
	return id.Bytes(), nil
}

// DecodeID is the inverse of EncodeID. It rejects empty and non-minimal
// input, so every id has exactly one accepted encoding.
func DecodeID(raw []byte) (*big.Int, error) {
	if len(raw) == 0 {
		return nil, dataErrf(raw, 0, ErrInvalidKey, "empty entity id")
	}
	if raw[0] == 0 {
		if len(raw) == 1 {
			return new(big.Int), nil
		}
		return nil, dataErrf(raw, 0, ErrInvalidKey, "non-minimal entity id")
	}
	return new(big.Int).SetBytes(raw), nil
}
