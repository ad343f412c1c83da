package spvchain

import (
	"encoding/binary"

	"github.com/excc-labs/spvoracle/chainhash"
	"github.com/excc-labs/spvoracle/kvstore"
)

func (c *Chain) loadRecord(hash chainhash.Hash) (*Record, error) {
	raw, err := c.store.Get(headerKey(hash))
	if err == kvstore.ErrNotFound {
		return nil, ErrBlockNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(raw)
}

func (c *Chain) loadHashAtHeight(height uint64) (chainhash.Hash, error) {
	raw, err := c.store.Get(heightKey(height))
	if err == kvstore.ErrNotFound {
		return chainhash.Zero, ErrBlockNotFound
	}
	if err != nil {
		return chainhash.Zero, err
	}
	var h chainhash.Hash
	if err := h.SetBytes(raw); err != nil {
		return chainhash.Zero, err
	}
	if h.IsZero() {
		return chainhash.Zero, ErrBlockNotFound
	}
	return h, nil
}

func (c *Chain) latestRecord() (*Record, error) {
	raw, err := c.store.Get(keyLatestHash)
	if err != nil {
		return nil, err
	}
	var h chainhash.Hash
	if err := h.SetBytes(raw); err != nil {
		return nil, err
	}
	return c.loadRecord(h)
}

// checkSafe enforces the requireSafe gate described in spec §4.6: the block
// must be canonical and at least minConfirmations deep below the tip.
func (c *Chain) checkSafe(rec *Record, requireSafe bool) error {
	if !requireSafe {
		return nil
	}
	if !rec.IsCanonical {
		return ErrNotCanonical
	}
	latest, err := c.latestRecord()
	if err != nil {
		return err
	}
	if rec.Height+minConfirmations-1 > latest.Height {
		return ErrInsufficientConfirmations
	}
	return nil
}

// IsFinalizedByHash reports whether the block with the given hash is
// canonical and finalized.
func (c *Chain) IsFinalizedByHash(hash chainhash.Hash) (bool, error) {
	rec, err := c.loadRecord(hash)
	if err != nil {
		return false, err
	}
	return c.isFinalized(rec)
}

// IsFinalizedByHeight reports whether the canonical block at the given
// height is finalized.
func (c *Chain) IsFinalizedByHeight(height uint64) (bool, error) {
	hash, err := c.loadHashAtHeight(height)
	if err != nil {
		return false, err
	}
	rec, err := c.loadRecord(hash)
	if err != nil {
		return false, err
	}
	return c.isFinalized(rec)
}

func (c *Chain) isFinalized(rec *Record) (bool, error) {
	if !rec.IsCanonical {
		return false, nil
	}
	latest, err := c.latestRecord()
	if err != nil {
		return false, err
	}
	return rec.Height+minConfirmations-1 <= latest.Height, nil
}

// GetBlockHashByHeight resolves a canonical height to its block hash. It is
// the only supported way to resolve heights externally; heightToHash is not
// exposed directly because unsafe lookups of recent heights may flip under
// reorg (spec §4.6).
func (c *Chain) GetBlockHashByHeight(height uint64, requireSafe bool) (chainhash.Hash, error) {
	hash, err := c.loadHashAtHeight(height)
	if err != nil {
		return chainhash.Zero, err
	}
	rec, err := c.loadRecord(hash)
	if err != nil {
		return chainhash.Zero, err
	}
	if err := c.checkSafe(rec, requireSafe); err != nil {
		return chainhash.Zero, err
	}
	return hash, nil
}

// GetBlockByHash returns the full stored record for hash.
func (c *Chain) GetBlockByHash(hash chainhash.Hash, requireSafe bool) (*Record, error) {
	rec, err := c.loadRecord(hash)
	if err != nil {
		return nil, err
	}
	if err := c.checkSafe(rec, requireSafe); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetBlockByHeight returns the full stored record for the canonical block
// at height.
func (c *Chain) GetBlockByHeight(height uint64, requireSafe bool) (*Record, error) {
	hash, err := c.loadHashAtHeight(height)
	if err != nil {
		return nil, err
	}
	return c.GetBlockByHash(hash, requireSafe)
}

// GetCanonicalHashesInRange returns the canonical block hashes for every
// height in [fromHeight, toHeight], inclusive, in ascending height order. It
// walks the heightToHash index with a single ordered prefix scan instead of
// one point lookup per height, for bulk range queries such as backfilling a
// light client over many blocks at once.
func (c *Chain) GetCanonicalHashesInRange(fromHeight, toHeight uint64) ([]chainhash.Hash, error) {
	if toHeight < fromHeight {
		return nil, ErrBlockNotFound
	}

	it := c.store.NewIterator(prefixHeightHash)
	defer it.Release()

	var hashes []chainhash.Hash
	for it.Next() {
		key := it.Key()
		if len(key) != len(prefixHeightHash)+8 {
			continue
		}
		height := binary.BigEndian.Uint64(key[len(prefixHeightHash):])
		if height < fromHeight {
			continue
		}
		if height > toHeight {
			break
		}
		var h chainhash.Hash
		if err := h.SetBytes(it.Value()); err != nil {
			return nil, err
		}
		if h.IsZero() {
			continue
		}
		hashes = append(hashes, h)
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return hashes, nil
}

// GetRawHeaderByHash returns the 80-byte serialized header for hash.
func (c *Chain) GetRawHeaderByHash(hash chainhash.Hash, requireSafe bool) ([]byte, error) {
	rec, err := c.GetBlockByHash(hash, requireSafe)
	if err != nil {
		return nil, err
	}
	return rec.Header.Serialize(), nil
}

// GetRawHeaderByHeight returns the 80-byte serialized header for the
// canonical block at height.
func (c *Chain) GetRawHeaderByHeight(height uint64, requireSafe bool) ([]byte, error) {
	rec, err := c.GetBlockByHeight(height, requireSafe)
	if err != nil {
		return nil, err
	}
	return rec.Header.Serialize(), nil
}

// GetVersionByHash returns the header version field for hash.
func (c *Chain) GetVersionByHash(hash chainhash.Hash, requireSafe bool) (int32, error) {
	rec, err := c.GetBlockByHash(hash, requireSafe)
	if err != nil {
		return 0, err
	}
	return rec.Header.Version, nil
}

// GetVersionByHeight returns the header version field for the canonical
// block at height.
func (c *Chain) GetVersionByHeight(height uint64, requireSafe bool) (int32, error) {
	rec, err := c.GetBlockByHeight(height, requireSafe)
	if err != nil {
		return 0, err
	}
	return rec.Header.Version, nil
}

// GetTimestampByHash returns the header timestamp, as Unix seconds, for
// hash.
func (c *Chain) GetTimestampByHash(hash chainhash.Hash, requireSafe bool) (int64, error) {
	rec, err := c.GetBlockByHash(hash, requireSafe)
	if err != nil {
		return 0, err
	}
	return rec.Header.Timestamp.Unix(), nil
}

// GetTimestampByHeight returns the header timestamp, as Unix seconds, for
// the canonical block at height.
func (c *Chain) GetTimestampByHeight(height uint64, requireSafe bool) (int64, error) {
	rec, err := c.GetBlockByHeight(height, requireSafe)
	if err != nil {
		return 0, err
	}
	return rec.Header.Timestamp.Unix(), nil
}

// GetBitsByHash returns the compact difficulty bits for hash.
func (c *Chain) GetBitsByHash(hash chainhash.Hash, requireSafe bool) (uint32, error) {
	rec, err := c.GetBlockByHash(hash, requireSafe)
	if err != nil {
		return 0, err
	}
	return rec.Header.Bits, nil
}

// GetBitsByHeight returns the compact difficulty bits for the canonical
// block at height.
func (c *Chain) GetBitsByHeight(height uint64, requireSafe bool) (uint32, error) {
	rec, err := c.GetBlockByHeight(height, requireSafe)
	if err != nil {
		return 0, err
	}
	return rec.Header.Bits, nil
}

// GetNonceByHash returns the header nonce for hash.
func (c *Chain) GetNonceByHash(hash chainhash.Hash, requireSafe bool) (uint32, error) {
	rec, err := c.GetBlockByHash(hash, requireSafe)
	if err != nil {
		return 0, err
	}
	return rec.Header.Nonce, nil
}

// GetNonceByHeight returns the header nonce for the canonical block at
// height.
func (c *Chain) GetNonceByHeight(height uint64, requireSafe bool) (uint32, error) {
	rec, err := c.GetBlockByHeight(height, requireSafe)
	if err != nil {
		return 0, err
	}
	return rec.Header.Nonce, nil
}

// GetMerkleRootByHash returns the transaction Merkle root for hash.
func (c *Chain) GetMerkleRootByHash(hash chainhash.Hash, requireSafe bool) (chainhash.Hash, error) {
	rec, err := c.GetBlockByHash(hash, requireSafe)
	if err != nil {
		return chainhash.Zero, err
	}
	return rec.Header.MerkleRoot, nil
}

// GetMerkleRootByHeight returns the transaction Merkle root for the
// canonical block at height.
func (c *Chain) GetMerkleRootByHeight(height uint64, requireSafe bool) (chainhash.Hash, error) {
	rec, err := c.GetBlockByHeight(height, requireSafe)
	if err != nil {
		return chainhash.Zero, err
	}
	return rec.Header.MerkleRoot, nil
}

// GetPrevHashByHash returns the parent block hash for hash.
func (c *Chain) GetPrevHashByHash(hash chainhash.Hash, requireSafe bool) (chainhash.Hash, error) {
	rec, err := c.GetBlockByHash(hash, requireSafe)
	if err != nil {
		return chainhash.Zero, err
	}
	return rec.Header.PrevBlock, nil
}

// GetPrevHashByHeight returns the parent block hash for the canonical block
// at height.
func (c *Chain) GetPrevHashByHeight(height uint64, requireSafe bool) (chainhash.Hash, error) {
	rec, err := c.GetBlockByHeight(height, requireSafe)
	if err != nil {
		return chainhash.Zero, err
	}
	return rec.Header.PrevBlock, nil
}
