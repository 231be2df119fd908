package dwarfdb

import "math/big"

// Converter maps values of type A to their stored representation B and back.
// Decode(Encode(x)) must equal x, and Decode must accept anything Encode
// produces. Converters are stateless and safe for concurrent use; a converter
// may still fail on input it did not produce, or when it delegates to
// something that can fail (see EntityIDConverter).
type Converter[A, B any] interface {
	Encode(value A) (B, error)
	Decode(raw B) (A, error)
}

// ConverterFuncs builds a Converter out of two functions.
type ConverterFuncs[A, B any] struct {
	EncodeFunc func(A) (B, error)
	DecodeFunc func(B) (A, error)
}

func (c ConverterFuncs[A, B]) Encode(value A) (B, error) { return c.EncodeFunc(value) }
func (c ConverterFuncs[A, B]) Decode(raw B) (A, error)   { return c.DecodeFunc(raw) }

type identityConverter[T any] struct{}

func (identityConverter[T]) Encode(value T) (T, error) { return value, nil }
func (identityConverter[T]) Decode(raw T) (T, error)   { return raw, nil }

// Identity returns a converter that passes values through unchanged.
func Identity[T any]() Converter[T, T] {
	return identityConverter[T]{}
}

type stringBytesConverter struct{}

func (stringBytesConverter) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (stringBytesConverter) Decode(b []byte) (string, error) { return string(b), nil }

// StringBytes stores strings as their raw bytes, unmodified.
func StringBytes() Converter[string, []byte] {
	return stringBytesConverter{}
}

type idBytesConverter struct{}

func (idBytesConverter) Encode(id *big.Int) ([]byte, error) { return EncodeID(id) }
func (idBytesConverter) Decode(b []byte) (*big.Int, error)  { return DecodeID(b) }

// IDBytes stores entity ids using the persisted id encoding, see EncodeID.
func IDBytes() Converter[*big.Int, []byte] {
	return idBytesConverter{}
}

type chainConverter[A, B, C any] struct {
	first  Converter[A, B]
	second Converter[B, C]
}

// Chain composes two converters: A is encoded by first, then by second.
func Chain[A, B, C any](first Converter[A, B], second Converter[B, C]) Converter[A, C] {
	return chainConverter[A, B, C]{first, second}
}

func (c chainConverter[A, B, C]) Encode(value A) (C, error) {
	b, err := c.first.Encode(value)
	if err != nil {
		var zero C
		return zero, err
	}
	return c.second.Encode(b)
}

func (c chainConverter[A, B, C]) Decode(raw C) (A, error) {
	b, err := c.second.Decode(raw)
	if err != nil {
		var zero A
		return zero, err
	}
	return c.first.Decode(b)
}
