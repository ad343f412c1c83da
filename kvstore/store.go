// Package kvstore defines the deterministic key/value persistence contract
// that spec.md treats as an external host collaborator. spvchain is written
// once against this interface; kvstore/leveldb backs it with a real embedded
// database (the same one the teacher repository itself depends on) and
// kvstore/memkv backs it with an in-memory map for tests and short-lived
// tooling.
package kvstore

import "errors"

// ErrNotFound is returned by Get when the key is absent. Callers that want
// "absent" to mean something other than an error (spvchain, which detects a
// missing header record this way) should treat it as equivalent to a nil,
// nil result.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the minimal ordered key/value store the chain engine needs: point
// reads and writes, deletion, and a prefix iterator for height-range scans.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound if absent.
	Get(key []byte) ([]byte, error)

	// Put writes value under key, creating or overwriting it.
	Put(key, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key []byte) error

	// NewIterator returns an iterator over all keys sharing prefix, in
	// ascending key order.
	NewIterator(prefix []byte) Iterator

	// NewBatch returns a Batch for accumulating writes that are applied
	// atomically by Batch.Commit. This is what gives BatchSubmit its
	// fail-whole-batch semantics (spec §5).
	NewBatch() Batch

	// Close releases any resources held by the store.
	Close() error
}

// Iterator walks a key range in ascending order.
type Iterator interface {
	// Next advances the iterator and reports whether a new element is
	// available.
	Next() bool

	// Key returns the current key. Valid only after a Next call returning
	// true, and only until the next call to Next.
	Key() []byte

	// Value returns the current value under the same validity rules as Key.
	Value() []byte

	// Release frees the iterator's resources. Safe to call multiple times.
	Release()

	// Error returns any error encountered during iteration.
	Error() error
}

// Batch accumulates writes to be applied as a single atomic unit.
type Batch interface {
	Put(key, value []byte)
	Delete(key []byte)
	Commit() error
}
