package dwarfdb

import (
	"math/big"
)

// EntityIDConverter stores entities as their ids. Encoding asks Manager for
// the id (assigning one to new entities) and decoding asks Loader for the
// entity, so a missing entity surfaces as ErrEntityNotFound.
type EntityIDConverter struct {
	Manager EntityManager
	Loader  EntityLoader
}

var _ Converter[Entity, *big.Int] = EntityIDConverter{}

func (c EntityIDConverter) Encode(e Entity) (*big.Int, error) {
	return c.Manager.IDFor(e)
}

func (c EntityIDConverter) Decode(id *big.Int) (Entity, error) {
	return c.Loader.EntityFor(id)
}

// BindingStore maps names to entities. Names are stored verbatim, so they
// sort by raw bytes; the values on disk are entity ids.
type BindingStore struct {
	*Adapter[string, Entity, string, *big.Int]
	ids *Adapter[string, *big.Int, []byte, []byte]
}

var _ Table[string, Entity] = (*BindingStore)(nil)

func NewBindingStore(raw Table[[]byte, []byte], m EntityManager, l EntityLoader) *BindingStore {
	ids := NewAdapter(raw, StringBytes(), IDBytes())
	return &BindingStore{
		Adapter: NewAdapter[string, Entity, string, *big.Int](ids, Identity[string](), EntityIDConverter{m, l}),
		ids:     ids,
	}
}

// Lookup returns the id a name is bound to without loading the entity.
func (s *BindingStore) Lookup(name string) (*big.Int, bool, error) {
	return s.ids.Read(name)
}
