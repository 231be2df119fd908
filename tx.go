package dwarfdb

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// Tx is a unit of work. Every table, binding, set and entity operation runs
// inside one, and is atomic and isolated exactly as far as the Tx is: reads
// observe earlier writes of the same Tx, and writable transactions are
// serialized by the storage backend.
//
// A Tx is not safe for concurrent use.
type Tx struct {
	db        *DB
	stx       storageTx
	startTime time.Time
	stack     []byte
	done      bool

	entities *Entities
}

func (db *DB) Begin(writable bool) (*Tx, error) {
	stx, err := db.st.BeginTx(writable)
	if err != nil {
		return nil, fmt.Errorf("dwarfdb: begin: %w", err)
	}
	tx := &Tx{
		db:        db,
		stx:       stx,
		startTime: time.Now(),
	}
	if trackTxns {
		tx.stack = debug.Stack()
	}
	if writable {
		db.WriterCount.Add(1)
		db.WriteCount.Add(1)
	} else {
		db.ReaderCount.Add(1)
		db.ReadCount.Add(1)
	}
	db.addTx(tx)
	return tx, nil
}

// Update runs f inside a writable transaction. The transaction commits if f
// returns nil, after every entity registered with tx.Entities() has been
// written back; it rolls back if f returns an error or panics.
func (db *DB) Update(f func(tx *Tx) error) error {
	tx, err := db.Begin(true)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = safelyCall(f, tx)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// View runs f inside a read-only transaction.
func (db *DB) View(f func(tx *Tx) error) error {
	tx, err := db.Begin(false)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return safelyCall(f, tx)
}

type panicked struct {
	reason any
	stack  string
}

func (p panicked) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", p.reason, p.stack)
}

func safelyCall(fn func(*Tx) error, tx *Tx) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicked{p, string(debug.Stack())}
		}
	}()
	return fn(tx)
}

func (tx *Tx) DB() *DB {
	return tx.db
}

func (tx *Tx) IsWritable() bool {
	return tx.stx.Writable()
}

// Commit flushes registered entities and commits. The Tx is finished
// afterwards, whether or not the commit succeeded.
func (tx *Tx) Commit() error {
	if tx.done {
		return fmt.Errorf("dwarfdb: commit: tx already finished")
	}
	if !tx.IsWritable() {
		return fmt.Errorf("dwarfdb: commit: %w", ErrTxNotWritable)
	}
	if tx.entities != nil {
		if err := tx.entities.Flush(); err != nil {
			tx.Rollback()
			return fmt.Errorf("dwarfdb: flushing entities: %w", err)
		}
	}
	err := tx.stx.Commit()
	tx.finish()
	if err != nil {
		return fmt.Errorf("dwarfdb: commit: %w", err)
	}
	return nil
}

// Rollback discards the transaction. Calling it on a finished Tx is a no-op,
// so it is safe to defer.
func (tx *Tx) Rollback() {
	if tx.done {
		return
	}
	err := tx.stx.Rollback()
	tx.finish()
	if err != nil {
		tx.db.logger.Error("db: rollback failed", "err", err)
	}
}

func (tx *Tx) finish() {
	tx.done = true
	if tx.IsWritable() {
		tx.db.WriterCount.Add(-1)
	} else {
		tx.db.ReaderCount.Add(-1)
	}
	tx.db.removeTx(tx)
}

// Table returns the raw table stored in the named bucket. Writable
// transactions create the bucket on first use.
func (tx *Tx) Table(name string) (*RawTable, error) {
	b := tx.stx.Bucket(name)
	if b == nil {
		if !tx.IsWritable() {
			return nil, fmt.Errorf("%s: %w", name, ErrBucketNotFound)
		}
		var err error
		b, err = tx.stx.CreateBucket(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return &RawTable{tx: tx, name: name, b: b}, nil
}

// DropTable deletes the named table with all its rows. The bindings and
// entities tables cannot be dropped.
func (tx *Tx) DropTable(name string) error {
	if name == BindingsTable || name == EntitiesTable {
		return fmt.Errorf("%s: cannot drop a built-in table", name)
	}
	if err := tx.stx.DeleteBucket(name); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if tx.isVerboseLoggingEnabled() {
		tx.logDebug("db: DROP", slog.String("table", name))
	}
	return nil
}

// fixedTable returns one of the tables Open guarantees to exist.
func (tx *Tx) fixedTable(name string) *RawTable {
	b := tx.stx.Bucket(name)
	if b == nil {
		panic(fmt.Errorf("%s: %w", name, ErrBucketNotFound))
	}
	return &RawTable{tx: tx, name: name, b: b}
}

// Bindings returns the name-to-entity binding store of this transaction.
func (tx *Tx) Bindings() *BindingStore {
	ents := tx.Entities()
	return NewBindingStore(tx.fixedTable(BindingsTable), ents, ents)
}

// EntityStore returns the id-keyed store of serialized entities.
func (tx *Tx) EntityStore() *EntityStore {
	return NewEntityStore(tx.fixedTable(EntitiesTable), tx.db.serializer)
}

// Entities returns the identity map of this transaction, creating it on
// first use.
func (tx *Tx) Entities() *Entities {
	if tx.entities == nil {
		tx.entities = newEntities(tx.EntityStore(), tx.fixedTable(EntitiesTable), tx.db.logger)
	}
	return tx.entities
}

func (tx *Tx) isVerboseLoggingEnabled() bool {
	return tx.db.verbose
}

func (tx *Tx) logDebug(msg string, attrs ...slog.Attr) {
	tx.db.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}
