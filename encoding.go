package dwarfdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoding selects how entity payloads are encoded.
type Encoding int

const (
	MsgPack Encoding = iota
	JSON
)

func (enc Encoding) String() string {
	switch enc {
	case MsgPack:
		return "msgpack"
	case JSON:
		return "json"
	default:
		return fmt.Sprintf("encoding(%d)", int(enc))
	}
}

func (enc Encoding) encodeValue(buf []byte, objVal reflect.Value) ([]byte, error) {
	switch enc {
	case MsgPack:
		bb := bytesBuilder{buf}
		e := msgpack.GetEncoder()
		e.ResetDict(&bb, nil)
		e.SetSortMapKeys(true)
		err := e.EncodeValue(objVal)
		msgpack.PutEncoder(e)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %T using MsgPack: %w", objVal.Interface(), err)
		}
		return bb.Buf, nil
	case JSON:
		raw, err := json.Marshal(objVal.Interface())
		if err != nil {
			return nil, fmt.Errorf("failed to encode %T to JSON: %w", objVal.Interface(), err)
		}
		return appendRaw(buf, raw), nil
	default:
		panic("unsupported encoding")
	}
}

func (enc Encoding) decodeValue(buf []byte, objPtrVal reflect.Value) error {
	switch enc {
	case MsgPack:
		var r bytes.Reader
		r.Reset(buf)
		d := msgpack.GetDecoder()
		d.ResetDict(&r, nil)
		err := d.DecodeValue(objPtrVal)
		msgpack.PutDecoder(d)
		if err != nil {
			return dataErrf(buf, 0, err, "failed to decode msgpack into %T", objPtrVal.Interface())
		}
		return nil
	case JSON:
		err := json.Unmarshal(buf, objPtrVal.Interface())
		if err != nil {
			return dataErrf(buf, 0, err, "failed to decode JSON into %T", objPtrVal.Interface())
		}
		return nil
	default:
		panic("unsupported encoding")
	}
}

// decodeAny decodes into generic maps, slices and scalars.
func (enc Encoding) decodeAny(buf []byte) (any, error) {
	var v any
	var err error
	switch enc {
	case MsgPack:
		err = msgpack.Unmarshal(buf, &v)
	case JSON:
		err = json.Unmarshal(buf, &v)
	default:
		panic("unsupported encoding")
	}
	if err != nil {
		return nil, dataErrf(buf, 0, err, "failed to decode %v", enc)
	}
	return v, nil
}
