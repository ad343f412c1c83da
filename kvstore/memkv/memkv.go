// Package memkv provides an in-memory kvstore.Store implementation, used by
// spvchain's tests; it keeps nothing across process restarts.
package memkv

import (
	"bytes"
	"sort"
	"sync"

	"github.com/excc-labs/spvoracle/kvstore"
)

// Store is a kvstore.Store backed by an in-memory map whose keys are sorted
// when an iterator is created. All operations
// are guarded by a single mutex; it is not built for throughput, only for
// correctness and test speed.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty in-memory Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get implements kvstore.Store.
func (s *Store) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[string(key)]
	if !ok {
		return nil, kvstore.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put implements kvstore.Store.
func (s *Store) Put(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.data[string(key)] = v
	return nil
}

// Delete implements kvstore.Store.
func (s *Store) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, string(key))
	return nil
}

// Close implements kvstore.Store.
func (s *Store) Close() error {
	return nil
}

// NewIterator implements kvstore.Store by taking a point-in-time sorted
// snapshot of all keys sharing prefix.
func (s *Store) NewIterator(prefix []byte) kvstore.Iterator {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k := range s.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	it := &iterator{keys: keys, values: make([][]byte, len(keys)), idx: -1}
	for i, k := range keys {
		it.values[i] = s.data[k]
	}
	return it
}

type iterator struct {
	keys   []string
	values [][]byte
	idx    int
}

func (it *iterator) Next() bool {
	it.idx++
	return it.idx < len(it.keys)
}

func (it *iterator) Key() []byte {
	if it.idx < 0 || it.idx >= len(it.keys) {
		return nil
	}
	return []byte(it.keys[it.idx])
}

func (it *iterator) Value() []byte {
	if it.idx < 0 || it.idx >= len(it.values) {
		return nil
	}
	return it.values[it.idx]
}

func (it *iterator) Release()     {}
func (it *iterator) Error() error { return nil }

// NewBatch implements kvstore.Store.
func (s *Store) NewBatch() kvstore.Batch {
	return &batch{store: s}
}

type batchOp struct {
	key    []byte
	value  []byte
	delete bool
}

type batch struct {
	store *Store
	ops   []batchOp
}

func (b *batch) Put(key, value []byte) {
	k := make([]byte, len(key))
	copy(k, key)
	v := make([]byte, len(value))
	copy(v, value)
	b.ops = append(b.ops, batchOp{key: k, value: v})
}

func (b *batch) Delete(key []byte) {
	k := make([]byte, len(key))
	copy(k, key)
	b.ops = append(b.ops, batchOp{key: k, delete: true})
}

// Commit applies every accumulated operation under a single lock acquisition,
// giving callers atomic-looking all-or-nothing visibility.
func (b *batch) Commit() error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	for _, op := range b.ops {
		if op.delete {
			delete(b.store.data, string(op.key))
			continue
		}
		b.store.data[string(op.key)] = op.value
	}
	return nil
}
