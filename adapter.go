package dwarfdb

import "iter"

// Adapter presents a Table[K2, V2] as a Table[K1, V1], converting keys and
// values on the way in and out. It has no state of its own, so adapters can
// be created per call and stacked on top of each other.
type Adapter[K1, V1, K2, V2 any] struct {
	inner  Table[K2, V2]
	keys   Converter[K1, K2]
	values Converter[V1, V2]
}

var _ Table[string, []byte] = (*Adapter[string, []byte, []byte, []byte])(nil)

func NewAdapter[K1, V1, K2, V2 any](inner Table[K2, V2], keys Converter[K1, K2], values Converter[V1, V2]) *Adapter[K1, V1, K2, V2] {
	return &Adapter[K1, V1, K2, V2]{inner, keys, values}
}

// Read returns ok == false when the key has no entry.
func (a *Adapter[K1, V1, K2, V2]) Read(key K1) (V1, bool, error) {
	var zero V1
	k, err := a.keys.Encode(key)
	if err != nil {
		return zero, false, err
	}
	raw, ok, err := a.inner.Read(k)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := a.values.Decode(raw)
	if err != nil {
		return zero, true, err
	}
	return v, true, nil
}

// Update writes value under key, replacing any existing entry.
func (a *Adapter[K1, V1, K2, V2]) Update(key K1, value V1) error {
	k, err := a.keys.Encode(key)
	if err != nil {
		return err
	}
	v, err := a.values.Encode(value)
	if err != nil {
		return err
	}
	return a.inner.Update(k, v)
}

// Delete removes key and returns the value it held, if any. The old value is
// decoded before anything is removed, so a value that fails to decode stays
// in place.
func (a *Adapter[K1, V1, K2, V2]) Delete(key K1) (V1, bool, error) {
	var zero V1
	k, err := a.keys.Encode(key)
	if err != nil {
		return zero, false, err
	}
	raw, ok, err := a.inner.Read(k)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := a.values.Decode(raw)
	if err != nil {
		return zero, true, err
	}
	if _, _, err := a.inner.Delete(k); err != nil {
		return zero, true, err
	}
	return v, true, nil
}

// KeysWithPrefix decodes the keys of the wrapped table. The first decoding
// error is yielded and ends the sequence.
func (a *Adapter[K1, V1, K2, V2]) KeysWithPrefix(prefix []byte) iter.Seq2[K1, error] {
	return func(yield func(K1, error) bool) {
		var zero K1
		for raw, err := range a.inner.KeysWithPrefix(prefix) {
			if err != nil {
				yield(zero, err)
				return
			}
			k, err := a.keys.Decode(raw)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(k, nil) {
				return
			}
		}
	}
}
