package dwarfdb

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Serializer turns entities into blobs and back. Deserialize(Serialize(e))
// must produce a value equal to e.
type Serializer interface {
	Serialize(e Entity) ([]byte, error)
	Deserialize(blob []byte) (Entity, error)
}

/*
Blob format:

 1. Flags (uvarint): format version in bits 0-3, payload encoding in bit 4.
 2. Type name (uvarint length, bytes).
 3. Payload, msgpack or JSON of the struct the entity points to.
 4. xxhash64 of everything above, 8 bytes big-endian.
*/

type blobFlags uint64

const (
	bfVerBit0 = blobFlags(1 << iota)
	bfVerBit1
	bfVerBit2
	bfVerBit3
	bfJSON

	bfVerMask       = (bfVerBit0 | bfVerBit1 | bfVerBit2 | bfVerBit3)
	bfVer1          = bfVerBit0
	bfSupportedMask = (bfVerMask | bfJSON)

	checksumSize = 8
	minBlobSize  = 2 + checksumSize
)

func (bf blobFlags) ver() blobFlags {
	return bf & bfVerMask
}

func (bf blobFlags) encoding() Encoding {
	if bf&bfJSON != 0 {
		return JSON
	}
	return MsgPack
}

type CodecOptions struct {
	Encoding Encoding
}

// Codec is the stock Serializer. Entities are pointers to types registered
// with Register; the registered name is persisted in every blob, so it must
// stay stable while the type can change shape in whatever ways the payload
// encoding tolerates.
type Codec struct {
	enc Encoding

	mu     sync.RWMutex
	byName map[string]reflect.Type
	byType map[reflect.Type]string
}

var _ Serializer = (*Codec)(nil)

func NewCodec(opt CodecOptions) *Codec {
	return &Codec{
		enc:    opt.Encoding,
		byName: make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
}

// Register makes *T serializable under the given name. Registering a name or
// a type twice panics.
func Register[T any](c *Codec, name string) {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		panic(fmt.Errorf("Register[%v]: pass the element type, entities are pointers to it", t))
	}
	if name == "" {
		panic(fmt.Errorf("Register[%v]: empty name", t))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev := c.byName[name]; prev != nil {
		panic(fmt.Errorf("Register[%v]: name %q already used by %v", t, name, prev))
	}
	if prev, ok := c.byType[t]; ok {
		panic(fmt.Errorf("Register[%v]: already registered as %q", t, prev))
	}
	c.byName[name] = t
	c.byType[t] = name
}

// TypeName returns the registered name of the entity's type.
func (c *Codec) TypeName(e Entity) (string, error) {
	v, err := entityValue(e)
	if err != nil {
		return "", err
	}
	c.mu.RLock()
	name, ok := c.byType[v.Type().Elem()]
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %v", ErrUnknownType, v.Type())
	}
	return name, nil
}

func (c *Codec) Serialize(e Entity) ([]byte, error) {
	name, err := c.TypeName(e)
	if err != nil {
		return nil, err
	}
	flags := bfVer1
	if c.enc == JSON {
		flags |= bfJSON
	}

	buf := appendUvarint(nil, uint64(flags))
	buf = appendVarbytes(buf, unsafeBytesFromString(name))
	buf, err = c.enc.encodeValue(buf, reflect.ValueOf(e))
	if err != nil {
		return nil, err
	}
	return appendFixedUint64(buf, xxhash.Sum64(buf)), nil
}

func (c *Codec) Deserialize(blob []byte) (Entity, error) {
	name, enc, payload, err := decodeBlobHeader(blob)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	t := c.byName[name]
	c.mu.RUnlock()
	if t == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	ptr := reflect.New(t)
	if err := enc.decodeValue(payload, ptr); err != nil {
		return nil, err
	}
	return ptr.Interface(), nil
}

// DecodeGeneric decodes a blob without knowing its Go type, for inspection.
func DecodeGeneric(blob []byte) (typeName string, value any, err error) {
	name, enc, payload, err := decodeBlobHeader(blob)
	if err != nil {
		return "", nil, err
	}
	v, err := enc.decodeAny(payload)
	if err != nil {
		return name, nil, err
	}
	return name, v, nil
}

func decodeBlobHeader(blob []byte) (name string, enc Encoding, payload []byte, err error) {
	n := len(blob)
	if n < minBlobSize {
		return "", 0, nil, dataErrf(blob, 0, nil, "invalid blob: at least %d bytes required", minBlobSize)
	}
	body := blob[:n-checksumSize]
	if sum := binary.BigEndian.Uint64(blob[n-checksumSize:]); sum != xxhash.Sum64(body) {
		return "", 0, nil, dataErrf(blob, n-checksumSize, nil, "invalid blob: checksum mismatch")
	}

	d := makeByteDecoder(body)
	v, err := d.Uvarint()
	if err != nil {
		return "", 0, nil, err
	}
	flags := blobFlags(v)
	if flags&^bfSupportedMask != 0 || flags.ver() != bfVer1 {
		return "", 0, nil, dataErrf(blob, 0, nil, "invalid blob: unsupported flags %x", v)
	}
	rawName, err := d.VarBytes()
	if err != nil {
		return "", 0, nil, err
	}
	return string(rawName), flags.encoding(), d.Buf, nil
}

func entityValue(e Entity) (reflect.Value, error) {
	v := reflect.ValueOf(e)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: %T", ErrNotEntity, e)
	}
	return v, nil
}
