package dwarfdb

import "errors"

// ErrBucketNotFound is returned when a bucket does not exist.
var ErrBucketNotFound = errors.New("bucket not found")

// storage is an ordered key-value backend (Bolt, in-memory).
//
// Writable transactions must be serialized: a writable transaction begins
// only after the previous one has committed or rolled back. Everything above
// this layer that does read-then-write within one unit of work (allocating
// entity ids, picking the next set member suffix) relies on that.
type storage interface {
	// BeginTx starts a new transaction.
	BeginTx(writable bool) (storageTx, error)
	// Close closes the storage.
	Close() error
}

type storageTx interface {
	Writable() bool

	// Bucket returns nil if the bucket doesn't exist.
	Bucket(name string) storageBucket

	// CreateBucket creates a bucket if it doesn't exist.
	CreateBucket(name string) (storageBucket, error)

	// DeleteBucket returns ErrBucketNotFound if the bucket doesn't exist.
	DeleteBucket(name string) error

	// BucketNames lists buckets in ascending order.
	BucketNames() []string

	Commit() error

	// Rollback aborts the transaction. It should be safe to call multiple times.
	Rollback() error

	// Size returns the database size in bytes (0 if unknown / not applicable).
	Size() int64
}

// storageBucket is a sorted key-value collection.
type storageBucket interface {
	// Get returns nil if not found. The returned slice is only valid for the
	// life of the transaction.
	Get(key []byte) []byte

	Put(key, value []byte) error

	Delete(key []byte) error

	Cursor() storageCursor

	// NextSequence returns a persisted, monotonically increasing integer
	// for the bucket, starting at 1.
	NextSequence() (uint64, error)

	// Stats returns storage-specific bucket statistics.
	// Backends that don't track allocation sizes may return zero values except KeyN.
	Stats() bucketStats
}

type bucketStats struct {
	KeyN        int
	LeafInuse   int64
	LeafAlloc   int64
	BranchAlloc int64
}

func (s bucketStats) TotalAlloc() int64 { return s.BranchAlloc + s.LeafAlloc }

// storageCursor iterates over a sorted bucket.
type storageCursor interface {
	First() (key, value []byte)
	Last() (key, value []byte)

	// Seek moves to the first key >= seek.
	Seek(seek []byte) (key, value []byte)

	// SeekLast moves to the last key that has the given prefix or sorts before it.
	SeekLast(prefix []byte) (key, value []byte)

	Next() (key, value []byte)
	Prev() (key, value []byte)
}
