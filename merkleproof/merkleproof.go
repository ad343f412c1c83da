// Package merkleproof verifies that a transaction is committed to a block's
// Merkle root, walking a supplied sibling-hash proof bottom-up with the same
// CVE-2012-2459 duplicate-sibling guard Bitcoin Core added after the 2012
// incident, grounded on the teacher corpus's Merkle-construction idiom and
// adapted here to proof verification rather than tree construction.
package merkleproof

import (
	"github.com/excc-labs/spvoracle/chainhash"
	"github.com/excc-labs/spvoracle/spvchain"
)

// Chain is the subset of *spvchain.Chain that proof verification needs: the
// block resolution and safety gating behind getBlockHashByHeight, plus the
// committed Merkle root.
type Chain interface {
	GetBlockHashByHeight(height uint64, requireSafe bool) (chainhash.Hash, error)
	GetMerkleRootByHash(hash chainhash.Hash, requireSafe bool) (chainhash.Hash, error)
}

// Verify checks that txData, at position txIndex within its block, is
// committed to by the Merkle root of the block identified by blockHeight or
// blockHash, per spec §4.7. A non-zero blockHash selects the block by hash
// and then blockHeight must be zero; a zero blockHash selects by
// blockHeight.
//
// A malformed selector or undersized txData is reported as
// spvchain.ErrBadProofInput; a
// well-formed but cryptographically invalid proof returns (false, nil) so
// callers can distinguish "this proof doesn't check out" from "this query
// couldn't even be attempted."
func Verify(chain Chain, blockHeight uint64, blockHash chainhash.Hash, requireSafe bool, txIndex uint32, txData []byte, proof []chainhash.Hash) (bool, error) {
	if len(txData) <= 64 {
		return false, spvchain.ErrBadProofInput
	}

	useHash := blockHash != chainhash.Zero
	if useHash && blockHeight != 0 {
		return false, spvchain.ErrBadProofInput
	}

	var resolvedHash chainhash.Hash
	if useHash {
		resolvedHash = blockHash
	} else {
		hash, err := chain.GetBlockHashByHeight(blockHeight, requireSafe)
		if err != nil {
			return false, err
		}
		resolvedHash = hash
	}

	root, err := chain.GetMerkleRootByHash(resolvedHash, requireSafe)
	if err != nil {
		return false, err
	}

	h := chainhash.DoubleHashH(txData)

	for _, sibling := range proof {
		if txIndex%2 == 0 {
			h = hashPair(h, sibling)
		} else {
			if sibling == h {
				return false, nil
			}
			h = hashPair(sibling, h)
		}
		txIndex /= 2
	}

	if txIndex != 0 {
		return false, nil
	}

	return h.Reverse() == root, nil
}

func hashPair(left, right chainhash.Hash) chainhash.Hash {
	buf := make([]byte, 0, chainhash.HashSize*2)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return chainhash.DoubleHashH(buf)
}
