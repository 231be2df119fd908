package dwarfdb

import (
	"math/big"
)

// EntityStore keeps serialized entities keyed by their numeric id.
//
// A write to an id without a record creates it, and there is no separate
// create operation. Absence is a normal state, and only Read reports it as
// ErrEntityNotFound.
type EntityStore struct {
	name string
	t    *Adapter[*big.Int, []byte, []byte, []byte]
	ser  Serializer
}

func NewEntityStore(raw Table[[]byte, []byte], ser Serializer) *EntityStore {
	return &EntityStore{
		name: tableName(raw, EntitiesTable),
		t:    NewAdapter(raw, IDBytes(), Identity[[]byte]()),
		ser:  ser,
	}
}

// Read loads and deserializes the entity stored under id. Missing and empty
// records fail with ErrEntityNotFound.
func (s *EntityStore) Read(id *big.Int) (Entity, error) {
	e, _, err := s.read(id)
	return e, err
}

func (s *EntityStore) read(id *big.Int) (Entity, []byte, error) {
	blob, err := s.ReadBlob(id)
	if err != nil {
		return nil, nil, err
	}
	e, err := s.ser.Deserialize(blob)
	if err != nil {
		return nil, nil, keyErrf(s.name, id, err, "")
	}
	return e, blob, nil
}

// ReadBlob returns the serialized record stored under id, failing like Read
// when there is none.
func (s *EntityStore) ReadBlob(id *big.Int) ([]byte, error) {
	blob, ok, err := s.t.Read(id)
	if err != nil {
		return nil, rekeyErr(s.name, id, err)
	}
	if !ok || len(blob) == 0 {
		return nil, keyErrf(s.name, id, ErrEntityNotFound, "")
	}
	return blob, nil
}

// Update serializes e and stores it under id, replacing any previous record.
func (s *EntityStore) Update(id *big.Int, e Entity) error {
	blob, err := s.ser.Serialize(e)
	if err != nil {
		return keyErrf(s.name, id, err, "")
	}
	return s.write(id, blob)
}

func (s *EntityStore) write(id *big.Int, blob []byte) error {
	if err := s.t.Update(id, blob); err != nil {
		return rekeyErr(s.name, id, err)
	}
	return nil
}

// Delete removes the record stored under id. Deleting a missing id is not an
// error.
func (s *EntityStore) Delete(id *big.Int) error {
	_, _, err := s.t.Delete(id)
	if err != nil {
		return rekeyErr(s.name, id, err)
	}
	return nil
}

// Exists reports whether a non-empty record is stored under id.
func (s *EntityStore) Exists(id *big.Int) (bool, error) {
	blob, ok, err := s.t.Read(id)
	if err != nil {
		return false, rekeyErr(s.name, id, err)
	}
	return ok && len(blob) > 0, nil
}

func tableName(t any, fallback string) string {
	if named, ok := t.(interface{ Name() string }); ok {
		return named.Name()
	}
	return fallback
}
