package dwarfdb

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Separator joins a set prefix and a member suffix in binding names. Set
// prefixes must not contain it.
const Separator = "."

// Suffixes are zero-padded to the width of the largest uint64, so the byte
// order of member names is their numeric order.
const suffixWidth = 20

// RecoverableSet is a set of entities kept entirely in a binding store, as
// the bindings named prefix + Separator + suffix. It has no state besides
// its prefix: every call reads the bindings afresh, so two sets with the same
// prefix over the same store always agree, including after a restart.
//
// Members are kept in insertion order. Adding a value equal to an existing
// member returns the existing key. A new member gets the suffix one above the
// highest present, so the suffix of a removed last member is handed out
// again by the next Add. Keys of removed members must not be kept around.
// Values are compared with their Equal(T) bool method if T has one, and with
// reflect.DeepEqual otherwise.
//
// The Add sequence (scan, then bind) is not atomic by itself. It relies on
// the enclosing Tx, and the storage backends run writable transactions one at
// a time, so concurrent adds never pick the same suffix.
type RecoverableSet[T any] struct {
	prefix   string
	bindings Table[string, Entity]
}

func NewRecoverableSet[T any](prefix string, bindings Table[string, Entity]) *RecoverableSet[T] {
	if prefix == "" {
		panic("dwarfdb: empty set prefix")
	}
	if strings.Contains(prefix, Separator) {
		panic(fmt.Errorf("dwarfdb: set prefix %q contains separator %q", prefix, Separator))
	}
	return &RecoverableSet[T]{prefix, bindings}
}

func (s *RecoverableSet[T]) Prefix() string {
	return s.prefix
}

type setMember[T any] struct {
	key    string
	suffix uint64
	value  T
}

// Add binds value under a fresh key unless an equal value is already a
// member, and returns the key of the member.
func (s *RecoverableSet[T]) Add(value T) (string, error) {
	members, err := s.members()
	if err != nil {
		return "", err
	}
	for _, m := range members {
		if equalValues(m.value, value) {
			return m.key, nil
		}
	}

	var next uint64
	if n := len(members); n > 0 {
		last := members[n-1].suffix
		if last == math.MaxUint64 {
			return "", fmt.Errorf("dwarfdb: set %q: suffixes exhausted", s.prefix)
		}
		next = last + 1
	}
	key := s.memberKey(next)
	if err := s.bindings.Update(key, value); err != nil {
		return "", err
	}
	return key, nil
}

// Get returns the member bound to key. Keys that Add could not have
// returned, including ones outside the set, fail with ErrInvalidKey.
func (s *RecoverableSet[T]) Get(key string) (T, bool, error) {
	var zero T
	if err := s.checkKey(key); err != nil {
		return zero, false, err
	}
	v, ok, err := s.bindings.Read(key)
	if err != nil || !ok {
		return zero, ok, err
	}
	t, err := s.cast(key, v)
	return t, true, err
}

// Remove unbinds key and returns the member it was bound to. Keys that Add
// could not have returned fail with ErrInvalidKey.
func (s *RecoverableSet[T]) Remove(key string) (T, bool, error) {
	var zero T
	if err := s.checkKey(key); err != nil {
		return zero, false, err
	}
	v, ok, err := s.bindings.Delete(key)
	if err != nil || !ok {
		return zero, ok, err
	}
	t, err := s.cast(key, v)
	return t, true, err
}

// GetAll returns the members in insertion order.
func (s *RecoverableSet[T]) GetAll() ([]T, error) {
	members, err := s.members()
	if err != nil {
		return nil, err
	}
	values := make([]T, len(members))
	for i, m := range members {
		values[i] = m.value
	}
	return values, nil
}

// Keys returns the member keys in insertion order without loading members.
func (s *RecoverableSet[T]) Keys() ([]string, error) {
	var keys []string
	for key, err := range s.bindings.KeysWithPrefix([]byte(s.prefix + Separator)) {
		if err != nil {
			return nil, err
		}
		if _, ok := s.parseKey(key); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *RecoverableSet[T]) Len() (int, error) {
	keys, err := s.Keys()
	return len(keys), err
}

func (s *RecoverableSet[T]) members() ([]setMember[T], error) {
	// collect first, reading while walking would interleave with the scan
	keys, err := s.Keys()
	if err != nil {
		return nil, err
	}
	members := make([]setMember[T], 0, len(keys))
	for _, key := range keys {
		v, ok, err := s.bindings.Read(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		t, err := s.cast(key, v)
		if err != nil {
			return nil, err
		}
		suffix, _ := s.parseKey(key)
		members = append(members, setMember[T]{key, suffix, t})
	}
	return members, nil
}

func (s *RecoverableSet[T]) memberKey(suffix uint64) string {
	return fmt.Sprintf("%s%s%0*d", s.prefix, Separator, suffixWidth, suffix)
}

// parseKey accepts only the member names memberKey produces.
func (s *RecoverableSet[T]) parseKey(key string) (uint64, bool) {
	rest, ok := strings.CutPrefix(key, s.prefix+Separator)
	if !ok || len(rest) != suffixWidth {
		return 0, false
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *RecoverableSet[T]) checkKey(key string) error {
	if _, ok := s.parseKey(key); !ok {
		return keyErrf(s.prefix, key, ErrInvalidKey, "not a member key of this set")
	}
	return nil
}

func (s *RecoverableSet[T]) cast(key string, v Entity) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, keyErrf(s.prefix, key, ErrNotEntity, "bound to %T, want %v", v, reflect.TypeFor[T]())
	}
	return t, nil
}

func equalValues[T any](a, b T) bool {
	if eq, ok := any(a).(interface{ Equal(T) bool }); ok {
		return eq.Equal(b)
	}
	return reflect.DeepEqual(a, b)
}
