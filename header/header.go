// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package header implements the 80-byte Bitcoin block header wire format:
// parsing, serialization, and block-hash computation. It follows the
// teacher corpus's wire.BlockHeader convention (fixed fields, Timestamp
// carried as time.Time and serialized as a uint32 Unix timestamp) rather
// than spec.md's literal byte-offset description of the same format.
package header

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/excc-labs/spvoracle/chainhash"
)

// Size is the fixed length of a serialized block header.
const Size = 80

// ErrInvalidLength is returned by Parse when the input is not exactly Size
// bytes long.
var ErrInvalidLength = errors.New("header: raw header must be exactly 80 bytes")

// Header is a Bitcoin block header: the fixed-size, 80-byte record that
// commits to a block's parent, its transaction Merkle root, and the
// proof-of-work solving it.
type Header struct {
	// Version of the block.
	Version int32

	// PrevBlock is the hash of the parent block, in display (reversed)
	// byte order so it compares directly against a computed block hash.
	PrevBlock chainhash.Hash

	// MerkleRoot is the root of the block's transaction tree, in display
	// (reversed) byte order like PrevBlock.
	MerkleRoot chainhash.Hash

	// Timestamp the block was created, truncated to one-second precision
	// (the wire format only carries a uint32 of seconds since the epoch).
	Timestamp time.Time

	// Bits is the compact encoding of the block's difficulty target.
	Bits uint32

	// Nonce used to satisfy the proof-of-work for this header.
	Nonce uint32
}

// Parse decodes an 80-byte raw header. Fields are read at the fixed offsets
// from spec §4.3: version(0:4), prevBlock(4:36), merkleRoot(36:68),
// timestamp(68:72), bits(72:76), nonce(76:80). The embedded prevBlock and
// merkleRoot hashes are read in internal (wire) order and then reversed to
// display order, per the little-endian/display-endian split documented in
// spec §4.1.
func Parse(raw []byte) (Header, error) {
	var h Header
	if len(raw) != Size {
		return h, ErrInvalidLength
	}

	h.Version = int32(binary.LittleEndian.Uint32(raw[0:4]))

	var prevInternal, merkleInternal chainhash.Hash
	copy(prevInternal[:], raw[4:36])
	copy(merkleInternal[:], raw[36:68])
	h.PrevBlock = prevInternal.Reverse()
	h.MerkleRoot = merkleInternal.Reverse()

	h.Timestamp = time.Unix(int64(binary.LittleEndian.Uint32(raw[68:72])), 0).UTC()
	h.Bits = binary.LittleEndian.Uint32(raw[72:76])
	h.Nonce = binary.LittleEndian.Uint32(raw[76:80])

	return h, nil
}

// Serialize re-encodes the header to its 80-byte wire form, the inverse of
// Parse. Parse ∘ Serialize and Serialize ∘ Parse are both required to
// be identity by spec §8 property 4.
func (h Header) Serialize() []byte {
	raw := make([]byte, Size)

	binary.LittleEndian.PutUint32(raw[0:4], uint32(h.Version))

	prevInternal := h.PrevBlock.Reverse()
	merkleInternal := h.MerkleRoot.Reverse()
	copy(raw[4:36], prevInternal[:])
	copy(raw[36:68], merkleInternal[:])

	binary.LittleEndian.PutUint32(raw[68:72], uint32(h.Timestamp.Unix()))
	binary.LittleEndian.PutUint32(raw[72:76], h.Bits)
	binary.LittleEndian.PutUint32(raw[76:80], h.Nonce)

	return raw
}

// BlockHash computes the block identifier hash for the header: the
// byte-reversed double-SHA-256 of its serialized form, per spec §4.3.
func (h Header) BlockHash() chainhash.Hash {
	return chainhash.DoubleHashH(h.Serialize()).Reverse()
}
