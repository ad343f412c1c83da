package spvchain

import (
	"encoding/binary"

	"github.com/excc-labs/spvoracle/chainhash"
)

// Key namespaces over the underlying kvstore.Store. A two-byte prefix keeps
// the three logical indexes (spec §3: blockHeaders, heightToHash, and the
// two root pointers) from colliding inside one flat keyspace.
var (
	prefixHeader     = []byte("h/")
	prefixHeightHash = []byte("H/")
	keyLatestHash    = []byte("m/latest")
	keyFirstHash     = []byte("m/first")
	keyInitHeight    = []byte("m/initheight")
)

func headerKey(h chainhash.Hash) []byte {
	key := make([]byte, 0, len(prefixHeader)+chainhash.HashSize)
	key = append(key, prefixHeader...)
	key = append(key, h[:]...)
	return key
}

// heightKey encodes height big-endian so that lexicographic key order
// matches numeric height order, which GetCanonicalHashesInRange's
// prefix-iterator scan (spvchain/query.go) relies on.
func heightKey(height uint64) []byte {
	key := make([]byte, 0, len(prefixHeightHash)+8)
	key = append(key, prefixHeightHash...)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], height)
	key = append(key, buf[:]...)
	return key
}
