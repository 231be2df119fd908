package dwarfdb

import (
	"errors"
	"math"
	"math/big"
	"testing"
)

func TestEntityStore(t *testing.T) {
	db := setup(t)
	p := &Player{Name: "alice", Score: 10}

	update(t, db, func(tx *Tx) error {
		s := tx.EntityStore()

		_, err := s.Read(NewID(1))
		if !errors.Is(err, ErrEntityNotFound) {
			t.Fatalf("Read(never written) err = %v, wanted ErrEntityNotFound", err)
		}
		var ke *KeyError
		if !errors.As(err, &ke) || ke.Table != EntitiesTable || ke.Key.(*big.Int).Uint64() != 1 {
			t.Fatalf("Read err = %#v, wanted KeyError naming entities/1", err)
		}

		noerr(t, s.Update(NewID(1), p))
		deepEqual(t, must(s.Read(NewID(1))), Entity(p))
		deepEqual(t, must(s.Exists(NewID(1))), true)

		p2 := &Player{Name: "alice", Score: 11}
		noerr(t, s.Update(NewID(1), p2))
		deepEqual(t, must(s.Read(NewID(1))), Entity(p2))

		noerr(t, s.Delete(NewID(1)))
		if _, err := s.Read(NewID(1)); !errors.Is(err, ErrEntityNotFound) {
			t.Fatalf("Read(deleted) err = %v, wanted ErrEntityNotFound", err)
		}
		deepEqual(t, must(s.Exists(NewID(1))), false)

		noerr(t, s.Delete(NewID(99)))
		return nil
	})
}

func TestEntityStore_BoundaryIDs(t *testing.T) {
	db := setup(t)
	ids := []*big.Int{
		NewID(0),
		NewID(math.MaxUint64),
		new(big.Int).Lsh(big.NewInt(1), 100),
	}
	update(t, db, func(tx *Tx) error {
		s := tx.EntityStore()
		for i, id := range ids {
			noerr(t, s.Update(id, &Player{Score: i}))
		}
		return nil
	})
	view(t, db, func(tx *Tx) error {
		s := tx.EntityStore()
		for i, id := range ids {
			deepEqual(t, must(s.Read(id)), Entity(&Player{Score: i}))
		}
		raw := tx.fixedTable(EntitiesTable)
		_, ok, _ := raw.Read(x("00"))
		deepEqual(t, ok, true)
		return nil
	})
}

func TestEntityStore_EmptyBlobIsNotFound(t *testing.T) {
	db := setup(t)
	update(t, db, func(tx *Tx) error {
		noerr(t, tx.fixedTable(EntitiesTable).Update(x("05"), nil))
		_, err := tx.EntityStore().Read(NewID(5))
		if !errors.Is(err, ErrEntityNotFound) {
			t.Fatalf("Read(empty blob) err = %v, wanted ErrEntityNotFound", err)
		}
		deepEqual(t, must(tx.EntityStore().Exists(NewID(5))), false)
		return nil
	})
}

func TestEntityStore_Errors(t *testing.T) {
	db := setup(t)
	update(t, db, func(tx *Tx) error {
		s := tx.EntityStore()

		if err := s.Update(NewID(1), &struct{ X int }{1}); !errors.Is(err, ErrUnknownType) {
			t.Errorf("** Update(unregistered) err = %v, wanted ErrUnknownType", err)
		}
		if err := s.Update(big.NewInt(-1), &Player{}); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("** Update(-1) err = %v, wanted ErrInvalidKey", err)
		}
		if _, err := s.Read(nil); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("** Read(nil) err = %v, wanted ErrInvalidKey", err)
		}

		noerr(t, tx.fixedTable(EntitiesTable).Update(x("07"), x("deadbeef")))
		var de *DataError
		if _, err := s.Read(NewID(7)); !errors.As(err, &de) {
			t.Errorf("** Read(garbage) err = %v, wanted DataError", err)
		}
		return nil
	})
	view(t, db, func(tx *Tx) error {
		if err := tx.EntityStore().Update(NewID(1), &Player{}); !errors.Is(err, ErrTxNotWritable) {
			t.Errorf("** Update in read-only tx err = %v, wanted ErrTxNotWritable", err)
		}
		return nil
	})
}
