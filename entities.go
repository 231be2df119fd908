package dwarfdb

import (
	"bytes"
	"fmt"
	"log/slog"
	"math/big"
	"slices"
)

// Entity is a pointer to a value of a type the serializer knows about. Its
// identity is the pointer itself: two distinct pointers are two entities even
// if the values they point to are equal.
type Entity = any

// EntityManager assigns ids to live entities.
type EntityManager interface {
	// IDFor returns the id of e, assigning a fresh one if e is new.
	IDFor(e Entity) (*big.Int, error)
}

// EntityLoader turns ids back into live entities.
type EntityLoader interface {
	// EntityFor returns the entity with the given id, failing with
	// ErrEntityNotFound if there is none.
	EntityFor(id *big.Int) (Entity, error)
}

type sequencer interface {
	NextSequence() (uint64, error)
}

// Entities is the identity map of one transaction. Within a Tx every id maps
// to exactly one live instance, and every registered instance is written back
// by Flush when the Tx commits.
type Entities struct {
	store  *EntityStore
	seq    sequencer
	logger *slog.Logger

	ids  map[Entity]*big.Int
	byID map[string]*entityEntry
}

type entityEntry struct {
	id     *big.Int
	e      Entity
	loaded []byte
}

var (
	_ EntityManager = (*Entities)(nil)
	_ EntityLoader  = (*Entities)(nil)
)

func newEntities(store *EntityStore, seq sequencer, logger *slog.Logger) *Entities {
	return &Entities{
		store:  store,
		seq:    seq,
		logger: logger,
		ids:    make(map[Entity]*big.Int),
		byID:   make(map[string]*entityEntry),
	}
}

// IDFor returns the id of e. Entities seen for the first time get an id from
// the persisted sequence of the entities table and will be stored on Flush.
func (m *Entities) IDFor(e Entity) (*big.Int, error) {
	if _, err := entityValue(e); err != nil {
		return nil, err
	}
	if id := m.ids[e]; id != nil {
		return new(big.Int).Set(id), nil
	}
	n, err := m.seq.NextSequence()
	if err != nil {
		return nil, fmt.Errorf("assigning id to %T: %w", e, err)
	}
	id := NewID(n)
	m.register(&entityEntry{id: id, e: e})
	m.logger.Debug("db: NEWENTITY", "id", id, "type", fmt.Sprintf("%T", e))
	return new(big.Int).Set(id), nil
}

// EntityFor returns the instance registered for id, loading it from the
// entity store on first access.
func (m *Entities) EntityFor(id *big.Int) (Entity, error) {
	if id == nil || id.Sign() < 0 {
		return nil, fmt.Errorf("%w: entity id %v", ErrInvalidKey, id)
	}
	if ent := m.byID[id.String()]; ent != nil {
		return ent.e, nil
	}
	e, blob, err := m.store.read(id)
	if err != nil {
		return nil, err
	}
	if prev, ok := m.ids[e]; ok {
		// only possible if the serializer hands out shared instances
		return nil, fmt.Errorf("entity %v deserialized into instance already registered as %v", id, prev)
	}
	m.register(&entityEntry{id: new(big.Int).Set(id), e: e, loaded: blob})
	return e, nil
}

func (m *Entities) register(ent *entityEntry) {
	m.ids[ent.e] = ent.id
	m.byID[ent.id.String()] = ent
}

// Remove deletes e from the entity store and forgets it. Removing an entity
// this Tx has never seen is a no-op.
func (m *Entities) Remove(e Entity) error {
	if _, err := entityValue(e); err != nil {
		return err
	}
	id := m.ids[e]
	if id == nil {
		return nil
	}
	if err := m.store.Delete(id); err != nil {
		return err
	}
	delete(m.ids, e)
	delete(m.byID, id.String())
	return nil
}

// Count returns the number of registered entities.
func (m *Entities) Count() int {
	return len(m.byID)
}

// Flush writes every registered entity whose serialized form differs from
// what was loaded, in ascending id order.
func (m *Entities) Flush() error {
	ents := make([]*entityEntry, 0, len(m.byID))
	for _, ent := range m.byID {
		ents = append(ents, ent)
	}
	slices.SortFunc(ents, func(a, b *entityEntry) int {
		return a.id.Cmp(b.id)
	})

	var written int
	for _, ent := range ents {
		blob, err := m.store.ser.Serialize(ent.e)
		if err != nil {
			return keyErrf(m.store.name, ent.id, err, "")
		}
		if ent.loaded != nil && bytes.Equal(blob, ent.loaded) {
			continue
		}
		if err := m.store.write(ent.id, blob); err != nil {
			return err
		}
		ent.loaded = blob
		written++
	}
	m.logger.Debug("db: FLUSH", "entities", len(ents), "written", written)
	return nil
}
