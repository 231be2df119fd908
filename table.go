package dwarfdb

import (
	"iter"
	"log/slog"
	"slices"
)

// Table is an ordered key-value table. Implementations hold no state of their
// own beyond references to the tables they wrap, so reads always reflect the
// enclosing transaction.
//
// KeysWithPrefix walks keys whose raw encoding starts with prefix, in
// ascending raw byte order. The sequence is only valid while the transaction
// is open, and the table must not be modified while it is being walked.
type Table[K, V any] interface {
	Read(key K) (V, bool, error)
	Update(key K, value V) error
	Delete(key K) (V, bool, error)
	KeysWithPrefix(prefix []byte) iter.Seq2[K, error]
}

// RawTable is a byte-keyed table backed by one storage bucket. Values it
// returns are copies and stay valid after the transaction ends.
type RawTable struct {
	tx   *Tx
	name string
	b    storageBucket
}

var _ Table[[]byte, []byte] = (*RawTable)(nil)

func (t *RawTable) Name() string {
	return t.name
}

func (t *RawTable) Read(key []byte) ([]byte, bool, error) {
	v := t.b.Get(key)
	if t.tx.isVerboseLoggingEnabled() {
		if v != nil {
			t.tx.logDebug("db: GET", slog.String("table", t.name), hexAttr("key", key), slog.Int("size", len(v)))
		} else {
			t.tx.logDebug("db: GET.NOTFOUND", slog.String("table", t.name), hexAttr("key", key))
		}
	}
	if v == nil {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (t *RawTable) Update(key, value []byte) error {
	if len(key) == 0 {
		return keyErrf(t.name, key, ErrInvalidKey, "empty key")
	}
	if value == nil {
		value = []byte{}
	}
	if err := t.b.Put(key, value); err != nil {
		return keyErrf(t.name, key, err, "put")
	}
	if t.tx.isVerboseLoggingEnabled() {
		t.tx.logDebug("db: PUT", slog.String("table", t.name), hexAttr("key", key), slog.Int("size", len(value)))
	}
	return nil
}

func (t *RawTable) Delete(key []byte) ([]byte, bool, error) {
	if !t.tx.IsWritable() {
		return nil, false, keyErrf(t.name, key, ErrTxNotWritable, "delete")
	}
	old := t.b.Get(key)
	if old == nil {
		if t.tx.isVerboseLoggingEnabled() {
			t.tx.logDebug("db: DELETE.NOOP", slog.String("table", t.name), hexAttr("key", key))
		}
		return nil, false, nil
	}
	old = slices.Clone(old)
	if err := t.b.Delete(key); err != nil {
		return nil, false, keyErrf(t.name, key, err, "delete")
	}
	if t.tx.isVerboseLoggingEnabled() {
		t.tx.logDebug("db: DELETE", slog.String("table", t.name), hexAttr("key", key))
	}
	return old, true, nil
}

func (t *RawTable) KeysWithPrefix(prefix []byte) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if t.tx.isVerboseLoggingEnabled() {
			t.tx.logDebug("db: SCAN", slog.String("table", t.name), hexAttr("prefix", prefix))
		}
		rang := RawPrefix(prefix)
		if len(prefix) == 0 {
			rang = RawOO()
		}
		for c := rang.newCursor(t.b.Cursor()); c.Next(); {
			if !yield(slices.Clone(c.Key()), nil) {
				return
			}
		}
	}
}

// Scan walks the keys and values in the given range. Unlike KeysWithPrefix,
// the slices it yields are only valid during the callback.
func (t *RawTable) Scan(rang RawRange) iter.Seq2[[]byte, []byte] {
	return func(yield func([]byte, []byte) bool) {
		for c := rang.newCursor(t.b.Cursor()); c.Next(); {
			if !yield(c.Key(), c.Value()) {
				return
			}
		}
	}
}

// NextSequence returns the next value of the table's persisted counter.
func (t *RawTable) NextSequence() (uint64, error) {
	seq, err := t.b.NextSequence()
	if err != nil {
		return 0, keyErrf(t.name, nil, err, "next sequence")
	}
	return seq, nil
}
