package spvchain

import (
	"encoding/binary"

	"github.com/excc-labs/spvoracle/chainhash"
	"github.com/excc-labs/spvoracle/kvstore"
)

// stagedTxn buffers every write a submission (or a whole batch of them)
// wants to make, and lets later reads within the same transaction see
// earlier writes from it, without touching the underlying store until
// commit. This is what gives Submit and BatchSubmit their atomic,
// fail-whole-operation semantics (spec §5): on any error the caller simply
// discards the txn.
type stagedTxn struct {
	store kvstore.Store

	headers map[chainhash.Hash]*Record

	// heights maps height to hash; a present zero hash represents an
	// explicit clear (spec §3's heightToHash being rewritten to zero during
	// a shortening reorg), distinct from "not yet staged."
	heights map[uint64]chainhash.Hash

	latest     *chainhash.Hash
	first      *chainhash.Hash
	haveLat    bool
	haveFirst  bool
	initHeight *uint64
}

func newStagedTxn(store kvstore.Store) *stagedTxn {
	return &stagedTxn{
		store:   store,
		headers: make(map[chainhash.Hash]*Record),
		heights: make(map[uint64]chainhash.Hash),
	}
}

func (t *stagedTxn) getHeader(hash chainhash.Hash) (*Record, bool, error) {
	if rec, ok := t.headers[hash]; ok {
		return rec, true, nil
	}
	raw, err := t.store.Get(headerKey(hash))
	if err == kvstore.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (t *stagedTxn) putHeader(rec *Record) {
	cp := *rec
	t.headers[rec.Hash] = &cp
}

func (t *stagedTxn) getHeightHash(height uint64) (chainhash.Hash, bool, error) {
	if hash, ok := t.heights[height]; ok {
		return hash, hash != chainhash.Zero, nil
	}
	raw, err := t.store.Get(heightKey(height))
	if err == kvstore.ErrNotFound {
		return chainhash.Zero, false, nil
	}
	if err != nil {
		return chainhash.Zero, false, err
	}
	var h chainhash.Hash
	if err := h.SetBytes(raw); err != nil {
		return chainhash.Zero, false, err
	}
	return h, h != chainhash.Zero, nil
}

func (t *stagedTxn) setHeightHash(height uint64, hash chainhash.Hash) {
	t.heights[height] = hash
}

func (t *stagedTxn) clearHeightHash(height uint64) {
	t.heights[height] = chainhash.Zero
}

func (t *stagedTxn) getLatest() (chainhash.Hash, error) {
	if t.haveLat {
		return *t.latest, nil
	}
	raw, err := t.store.Get(keyLatestHash)
	if err == kvstore.ErrNotFound {
		return chainhash.Zero, nil
	}
	if err != nil {
		return chainhash.Zero, err
	}
	var h chainhash.Hash
	if err := h.SetBytes(raw); err != nil {
		return chainhash.Zero, err
	}
	return h, nil
}

func (t *stagedTxn) setLatest(hash chainhash.Hash) {
	t.latest = &hash
	t.haveLat = true
}

func (t *stagedTxn) getFirst() (chainhash.Hash, error) {
	if t.haveFirst {
		return *t.first, nil
	}
	raw, err := t.store.Get(keyFirstHash)
	if err == kvstore.ErrNotFound {
		return chainhash.Zero, nil
	}
	if err != nil {
		return chainhash.Zero, err
	}
	var h chainhash.Hash
	if err := h.SetBytes(raw); err != nil {
		return chainhash.Zero, err
	}
	return h, nil
}

func (t *stagedTxn) setFirst(hash chainhash.Hash) {
	t.first = &hash
	t.haveFirst = true
}

// setInitHeight stages the persisted anchor height, written once by
// NewChain so a later process can reopen the chain via OpenChain without
// re-running initialization.
func (t *stagedTxn) setInitHeight(height uint64) {
	t.initHeight = &height
}

// commit flushes every staged write into a single kvstore.Batch and commits
// it atomically.
func (t *stagedTxn) commit() error {
	b := t.store.NewBatch()

	for hash, rec := range t.headers {
		b.Put(headerKey(hash), encodeRecord(rec))
	}
	for height, hash := range t.heights {
		if hash == chainhash.Zero {
			b.Delete(heightKey(height))
			continue
		}
		b.Put(heightKey(height), hash.CloneBytes())
	}
	if t.haveLat {
		b.Put(keyLatestHash, t.latest.CloneBytes())
	}
	if t.haveFirst {
		b.Put(keyFirstHash, t.first.CloneBytes())
	}
	if t.initHeight != nil {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], *t.initHeight)
		b.Put(keyInitHeight, buf[:])
	}

	return b.Commit()
}
