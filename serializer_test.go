package dwarfdb

import (
	"errors"
	"reflect"
	"testing"
)

func TestCodec_RoundTrip(t *testing.T) {
	for _, enc := range []Encoding{MsgPack, JSON} {
		t.Run(enc.String(), func(t *testing.T) {
			c := NewCodec(CodecOptions{Encoding: enc})
			Register[Player](c, "player")
			Register[Room](c, "room")

			for _, e := range []Entity{
				&Player{Name: "alice", Score: 10},
				&Player{},
				&Room{Title: "hall", Capacity: 5, Tags: []string{"big", "loud"}},
			} {
				blob, err := c.Serialize(e)
				noerr(t, err)
				back, err := c.Deserialize(blob)
				noerr(t, err)
				deepEqual(t, back, e)
			}
		})
	}
}

func TestCodec_BlobLayout(t *testing.T) {
	c := NewCodec(CodecOptions{})
	Register[Player](c, "player")

	blob := must(c.Serialize(&Player{Name: "a", Score: 1}))
	deepEqual(t, blob[0], byte(bfVer1))
	deepEqual(t, string(blob[1:8]), "\x06player")

	name, v, err := DecodeGeneric(blob)
	noerr(t, err)
	deepEqual(t, name, "player")
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("** DecodeGeneric value = %T, wanted map", v)
	}
	deepEqual(t, m["n"], any("a"))

	// encoding is deterministic
	deepEqual(t, must(c.Serialize(&Player{Name: "a", Score: 1})), blob)
}

func TestCodec_JSONFlag(t *testing.T) {
	c := NewCodec(CodecOptions{Encoding: JSON})
	Register[Player](c, "player")
	blob := must(c.Serialize(&Player{Name: "a", Score: 1}))
	deepEqual(t, blob[0], byte(bfVer1|bfJSON))

	// a msgpack codec reads JSON blobs too
	c2 := NewCodec(CodecOptions{})
	Register[Player](c2, "player")
	deepEqual(t, must(c2.Deserialize(blob)), Entity(&Player{Name: "a", Score: 1}))
}

func TestCodec_Errors(t *testing.T) {
	c := NewCodec(CodecOptions{})
	Register[Player](c, "player")

	for _, e := range []Entity{nil, Player{}, (*Player)(nil), 42} {
		if _, err := c.Serialize(e); !errors.Is(err, ErrNotEntity) {
			t.Errorf("** Serialize(%#v) err = %v, wanted ErrNotEntity", e, err)
		}
	}
	if _, err := c.Serialize(&Room{}); !errors.Is(err, ErrUnknownType) {
		t.Errorf("** Serialize(Room) err = %v, wanted ErrUnknownType", err)
	}

	other := NewCodec(CodecOptions{})
	Register[Room](other, "room")
	if _, err := c.Deserialize(must(other.Serialize(&Room{}))); !errors.Is(err, ErrUnknownType) {
		t.Errorf("** Deserialize(room) err = %v, wanted ErrUnknownType", err)
	}

	blob := must(c.Serialize(&Player{Name: "alice"}))
	var de *DataError

	corrupted := append([]byte(nil), blob...)
	corrupted[len(corrupted)-checksumSize-1] ^= 0x01
	if _, err := c.Deserialize(corrupted); !errors.As(err, &de) {
		t.Errorf("** Deserialize(corrupted) err = %v, wanted DataError", err)
	}

	if _, err := c.Deserialize(blob[:5]); !errors.As(err, &de) {
		t.Errorf("** Deserialize(truncated) err = %v, wanted DataError", err)
	}
	if _, err := c.Deserialize(nil); !errors.As(err, &de) {
		t.Errorf("** Deserialize(nil) err = %v, wanted DataError", err)
	}
}

func TestRegister_Panics(t *testing.T) {
	c := NewCodec(CodecOptions{})
	Register[Player](c, "player")
	assertPanics(t, func() { Register[Room](c, "player") })
	assertPanics(t, func() { Register[Player](c, "player2") })
	assertPanics(t, func() { Register[*Room](c, "room") })
	assertPanics(t, func() { Register[Room](c, "") })

	name, err := c.TypeName(&Player{})
	noerr(t, err)
	deepEqual(t, name, "player")
	deepEqual(t, c.byName["player"], reflect.TypeFor[Player]())
}
