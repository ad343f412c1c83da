// Package leveldb adapts github.com/syndtr/goleveldb, the embedded database
// the teacher corpus depends on, to the kvstore.Store interface.
package leveldb

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/excc-labs/spvoracle/kvstore"
)

// Store is a kvstore.Store backed by an on-disk goleveldb database.
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if absent) a goleveldb database at dir.
func Open(dir string) (*Store, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Get implements kvstore.Store.
func (s *Store) Get(key []byte) ([]byte, error) {
	v, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, kvstore.ErrNotFound
	}
	return v, err
}

// Put implements kvstore.Store.
func (s *Store) Put(key, value []byte) error {
	return s.db.Put(key, value, nil)
}

// Delete implements kvstore.Store.
func (s *Store) Delete(key []byte) error {
	return s.db.Delete(key, nil)
}

// Close implements kvstore.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewIterator implements kvstore.Store.
func (s *Store) NewIterator(prefix []byte) kvstore.Iterator {
	rng := util.BytesPrefix(prefix)
	return &wrappedIterator{it: s.db.NewIterator(rng, nil)}
}

type wrappedIterator struct {
	it iterator.Iterator
}

func (w *wrappedIterator) Next() bool    { return w.it.Next() }
func (w *wrappedIterator) Key() []byte   { return w.it.Key() }
func (w *wrappedIterator) Value() []byte { return w.it.Value() }
func (w *wrappedIterator) Release()      { w.it.Release() }
func (w *wrappedIterator) Error() error  { return w.it.Error() }

// NewBatch implements kvstore.Store.
func (s *Store) NewBatch() kvstore.Batch {
	return &batch{db: s.db, b: new(leveldb.Batch)}
}

type batch struct {
	db *leveldb.DB
	b  *leveldb.Batch
}

func (b *batch) Put(key, value []byte) { b.b.Put(key, value) }
func (b *batch) Delete(key []byte)     { b.b.Delete(key) }
func (b *batch) Commit() error         { return b.db.Write(b.b, nil) }
