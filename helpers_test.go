package dwarfdb

import (
	"encoding/hex"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type (
	Player struct {
		Name  string `msgpack:"n"`
		Score int    `msgpack:"s"`
	}

	Room struct {
		Title    string   `msgpack:"t"`
		Capacity int      `msgpack:"c"`
		Tags     []string `msgpack:"g,omitempty"`
	}

	// Badge compares by Code only.
	Badge struct {
		Code  string `msgpack:"c"`
		Label string `msgpack:"l"`
	}
)

func (b *Badge) Equal(other *Badge) bool {
	return other != nil && b.Code == other.Code
}

func init() {
	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func testCodec() *Codec {
	c := NewCodec(CodecOptions{})
	Register[Player](c, "player")
	Register[Room](c, "room")
	Register[Badge](c, "badge")
	return c
}

// setup opens a fresh database, in memory under -short and on Bolt otherwise.
func setup(t testing.TB) *DB {
	t.Helper()
	return openAt(t, filepath.Join(t.TempDir(), "db_test.db"))
}

func openAt(t testing.TB, path string) *DB {
	t.Helper()
	db := must(Open(path, Options{
		IsTesting:  true,
		Verbose:    true,
		InMemory:   testing.Short(),
		Serializer: testCodec(),
	}))
	t.Cleanup(func() { db.Close() })
	return db
}

// setupBolt always uses Bolt, for tests that reopen the file.
func setupBolt(t testing.TB) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db_test.db")
	return openBolt(t, path), path
}

func openBolt(t testing.TB, path string) *DB {
	t.Helper()
	db := must(Open(path, Options{
		IsTesting:  true,
		Verbose:    true,
		Serializer: testCodec(),
	}))
	t.Cleanup(func() { db.Close() })
	return db
}

func update(t testing.TB, db *DB, f func(tx *Tx) error) {
	t.Helper()
	if err := db.Update(f); err != nil {
		t.Fatalf("** Update: %v", err)
	}
}

func view(t testing.TB, db *DB, f func(tx *Tx) error) {
	t.Helper()
	if err := db.View(f); err != nil {
		t.Fatalf("** View: %v", err)
	}
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func isempty[T any, S ~[]T](t testing.TB, a S) {
	if len(a) > 0 {
		t.Helper()
		t.Errorf("** got %v, wanted empty slice", a)
	}
}

func noerr(t testing.TB, err error) {
	if err != nil {
		t.Helper()
		t.Fatalf("** unexpected error: %v", err)
	}
}

func x(data string) []byte {
	data = strings.ReplaceAll(data, " ", "")
	return must(hex.DecodeString(data))
}

func assertPanics(t testing.TB, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Helper()
			t.Fatalf("** expected panic")
		}
	}()
	f()
}
