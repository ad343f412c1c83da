package merkleproof

import (
	"bytes"
	"testing"

	"github.com/excc-labs/spvoracle/chainhash"
)

// fakeChain is a minimal merkleproof.Chain double that serves one block at
// a fixed height/hash with a fixed Merkle root.
type fakeChain struct {
	height uint64
	hash   chainhash.Hash
	root   chainhash.Hash
}

func (f *fakeChain) GetBlockHashByHeight(height uint64, requireSafe bool) (chainhash.Hash, error) {
	if height != f.height {
		return chainhash.Zero, errNotFound
	}
	return f.hash, nil
}

func (f *fakeChain) GetMerkleRootByHash(hash chainhash.Hash, requireSafe bool) (chainhash.Hash, error) {
	if hash != f.hash {
		return chainhash.Zero, errNotFound
	}
	return f.root, nil
}

type sentinelErr string

func (e sentinelErr) Error() string { return string(e) }

const errNotFound = sentinelErr("not found")

// buildTree computes a Merkle root over leaves (already double-hashed) the
// way Bitcoin does: pairwise combine, duplicating the last element of an odd
// row. It also returns the bottom-up sibling proof for leafIndex.
func buildTree(leaves []chainhash.Hash, leafIndex int) (root chainhash.Hash, proof []chainhash.Hash) {
	level := append([]chainhash.Hash(nil), leaves...)
	idx := leafIndex

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}

		var sibling chainhash.Hash
		if idx%2 == 0 {
			sibling = level[idx+1]
		} else {
			sibling = level[idx-1]
		}
		proof = append(proof, sibling)

		next := make([]chainhash.Hash, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = hashPair(level[i], level[i+1])
		}
		level = next
		idx /= 2
	}

	return level[0], proof
}

func TestVerifyValidProofByHeight(t *testing.T) {
	tx0 := bytes.Repeat([]byte{0xaa}, 70)
	tx1 := bytes.Repeat([]byte{0xbb}, 70)
	tx2 := bytes.Repeat([]byte{0xcc}, 70)

	leaves := []chainhash.Hash{
		chainhash.DoubleHashH(tx0),
		chainhash.DoubleHashH(tx1),
		chainhash.DoubleHashH(tx2),
	}
	rootInternal, proof := buildTree(leaves, 1)

	chain := &fakeChain{
		height: 100,
		hash:   chainhash.HashH([]byte("block")),
		root:   rootInternal.Reverse(),
	}

	ok, err := Verify(chain, 100, chainhash.Zero, false, 1, tx1, proof)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected valid proof to verify")
	}
}

func TestVerifyValidProofByHash(t *testing.T) {
	tx0 := bytes.Repeat([]byte{0x01}, 65)
	tx1 := bytes.Repeat([]byte{0x02}, 65)

	leaves := []chainhash.Hash{
		chainhash.DoubleHashH(tx0),
		chainhash.DoubleHashH(tx1),
	}
	rootInternal, proof := buildTree(leaves, 0)

	hash := chainhash.HashH([]byte("block2"))
	chain := &fakeChain{height: 5, hash: hash, root: rootInternal.Reverse()}

	ok, err := Verify(chain, 0, hash, false, 0, tx0, proof)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected valid proof to verify")
	}
}

func TestVerifyRejectsShortTxData(t *testing.T) {
	chain := &fakeChain{height: 1, hash: chainhash.HashH([]byte("b")), root: chainhash.HashH([]byte("r"))}
	_, err := Verify(chain, 1, chainhash.Zero, false, 0, make([]byte, 64), nil)
	if err == nil {
		t.Fatalf("expected error for txData at the 64-byte boundary")
	}
}

func TestVerifyRejectsAmbiguousSelector(t *testing.T) {
	chain := &fakeChain{height: 1, hash: chainhash.HashH([]byte("b")), root: chainhash.HashH([]byte("r"))}
	_, err := Verify(chain, 1, chainhash.HashH([]byte("b")), false, 0, make([]byte, 65), nil)
	if err == nil {
		t.Fatalf("expected error when both height and hash selectors are set")
	}
}

func TestVerifyRejectsDuplicateOddSibling(t *testing.T) {
	tx := bytes.Repeat([]byte{0x05}, 70)
	leaf := chainhash.DoubleHashH(tx)

	chain := &fakeChain{height: 1, hash: chainhash.HashH([]byte("b")), root: chainhash.HashH([]byte("r"))}

	// txIndex odd with a sibling equal to the running hash reproduces the
	// CVE-2012-2459 duplicate-last-element attack and must return false.
	ok, err := Verify(chain, 1, chainhash.Zero, false, 1, tx, []chainhash.Hash{leaf})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatalf("expected duplicated odd sibling to be rejected")
	}
}

func TestVerifyRejectsTruncatedProof(t *testing.T) {
	tx0 := bytes.Repeat([]byte{0x01}, 70)
	tx1 := bytes.Repeat([]byte{0x02}, 70)
	tx2 := bytes.Repeat([]byte{0x03}, 70)
	tx3 := bytes.Repeat([]byte{0x04}, 70)

	leaves := []chainhash.Hash{
		chainhash.DoubleHashH(tx0),
		chainhash.DoubleHashH(tx1),
		chainhash.DoubleHashH(tx2),
		chainhash.DoubleHashH(tx3),
	}
	rootInternal, proof := buildTree(leaves, 2)

	chain := &fakeChain{height: 9, hash: chainhash.HashH([]byte("b4")), root: rootInternal.Reverse()}

	// Drop the final proof step: txIndex never reaches 0.
	ok, err := Verify(chain, 9, chainhash.Zero, false, 2, tx2, proof[:len(proof)-1])
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatalf("expected truncated proof to be rejected")
	}
}

func TestVerifyRejectsMutatedSibling(t *testing.T) {
	tx0 := bytes.Repeat([]byte{0x10}, 70)
	tx1 := bytes.Repeat([]byte{0x20}, 70)

	leaves := []chainhash.Hash{
		chainhash.DoubleHashH(tx0),
		chainhash.DoubleHashH(tx1),
	}
	rootInternal, proof := buildTree(leaves, 0)
	proof[0][0] ^= 0x01 // flip a single bit

	chain := &fakeChain{height: 3, hash: chainhash.HashH([]byte("b3")), root: rootInternal.Reverse()}

	ok, err := Verify(chain, 3, chainhash.Zero, false, 0, tx0, proof)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatalf("expected mutated sibling to fail verification")
	}
}
