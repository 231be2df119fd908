package dwarfdb

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"
)

const trackTxns = true

// Names of the buckets every database has.
const (
	BindingsTable = "bindings"
	EntitiesTable = "entities"
)

var fixedTables = []string{BindingsTable, EntitiesTable}

type DB struct {
	st         storage
	bdb        *bbolt.DB
	logger     *slog.Logger
	verbose    bool
	serializer Serializer

	ReaderCount atomic.Int64
	WriterCount atomic.Int64
	ReadCount   atomic.Uint64
	WriteCount  atomic.Uint64

	txns     []*Tx
	txnsLock sync.Mutex
}

type Options struct {
	Logger  *slog.Logger
	Verbose bool

	// IsTesting trades durability for speed.
	IsTesting bool
	MmapSize  int

	// Timeout bounds the wait for the file lock held by another process.
	Timeout time.Duration

	ReadOnly bool

	// InMemory keeps everything in a transient in-memory store; the path
	// passed to Open is ignored.
	InMemory bool

	// Serializer encodes entities for the entity store. Defaults to an empty
	// Codec, so entity types must be registered on a Codec passed here.
	Serializer Serializer
}

func Open(path string, opt Options) (*DB, error) {
	db := &DB{
		logger:     opt.Logger,
		verbose:    opt.Verbose,
		serializer: opt.Serializer,
	}
	if db.logger == nil {
		db.logger = slog.Default()
	}
	if db.serializer == nil {
		db.serializer = NewCodec(CodecOptions{})
	}

	if opt.InMemory {
		db.st = newMemStorage()
	} else {
		bopt := &bbolt.Options{}
		*bopt = *bbolt.DefaultOptions
		bopt.Timeout = 10 * time.Second
		if opt.Timeout != 0 {
			bopt.Timeout = opt.Timeout
		}
		bopt.ReadOnly = opt.ReadOnly
		if opt.IsTesting {
			bopt.NoSync = true
			bopt.NoFreelistSync = true
			bopt.InitialMmapSize = 1024 * 1024 * 5
		} else {
			bopt.InitialMmapSize = 1024 * 1024 * 64
			bopt.FreelistType = bbolt.FreelistMapType
		}
		if opt.MmapSize != 0 {
			bopt.InitialMmapSize = opt.MmapSize
		}

		bdb, err := bbolt.Open(path, 0666, bopt)
		if err != nil {
			return nil, fmt.Errorf("dwarfdb: %w", err)
		}
		db.bdb = bdb
		db.st = newBoltStorage(bdb)
	}

	var err error
	if opt.ReadOnly && !opt.InMemory {
		err = db.View(func(tx *Tx) error {
			for _, name := range fixedTables {
				if tx.stx.Bucket(name) == nil {
					return fmt.Errorf("%s: %w", name, ErrBucketNotFound)
				}
			}
			return nil
		})
	} else {
		err = db.Update(func(tx *Tx) error {
			for _, name := range fixedTables {
				if _, err := tx.stx.CreateBucket(name); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
			}
			return nil
		})
	}
	if err != nil {
		db.st.Close()
		return nil, fmt.Errorf("dwarfdb: preparing: %w", err)
	}

	return db, nil
}

// Bolt returns the underlying Bolt database, or nil for in-memory databases.
func (db *DB) Bolt() *bbolt.DB {
	return db.bdb
}

func (db *DB) Serializer() Serializer {
	return db.serializer
}

func (db *DB) Close() error {
	err := db.st.Close()
	if err != nil {
		return fmt.Errorf("dwarfdb: closing: %w", err)
	}
	return nil
}

func (db *DB) addTx(tx *Tx) {
	if !trackTxns {
		return
	}
	db.txnsLock.Lock()
	defer db.txnsLock.Unlock()
	db.txns = append(db.txns, tx)
}

func (db *DB) removeTx(tx *Tx) {
	if !trackTxns {
		return
	}
	db.txnsLock.Lock()
	defer db.txnsLock.Unlock()

	found := slices.Index(db.txns, tx)
	if found < 0 {
		panic("tx not found in list")
	}

	n := len(db.txns)
	db.txns[found] = db.txns[n-1]
	db.txns[n-1] = nil // ensure it gets collected
	db.txns = db.txns[:n-1]
}

func (db *DB) DescribeOpenTxns() string {
	if !trackTxns {
		return "OPEN TX TRACKING DISABLED"
	}

	db.txnsLock.Lock()
	txns := slices.Clone(db.txns)
	db.txnsLock.Unlock()

	if len(txns) == 0 {
		return "NO OPEN TRANSACTIONS"
	}

	slices.SortFunc(txns, func(a, b *Tx) int {
		return a.startTime.Compare(b.startTime)
	})

	now := time.Now()

	var buf strings.Builder
	fmt.Fprintf(&buf, "%d OPEN TRANSACTIONS:\n", len(txns))
	for _, tx := range txns {
		ms := now.Sub(tx.startTime).Milliseconds()
		mode := "read"
		if tx.IsWritable() {
			mode = "write"
		}
		if ms < 100 {
			fmt.Fprintf(&buf, "\n---\n%s, open for %d ms\n", mode, ms)
		} else {
			fmt.Fprintf(&buf, "\n---\n%s, open for %d ms:\n%s", mode, ms, tx.stack)
		}
	}

	return buf.String()
}
