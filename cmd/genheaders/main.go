// Command genheaders generates a chain of synthetic, PoW-disabled test
// headers for exercising spvoraclectl without mining real proof-of-work,
// in the spirit of the teacher corpus's testtools block-generation helpers.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/excc-labs/spvoracle/chainhash"
	"github.com/excc-labs/spvoracle/header"
)

func main() {
	var (
		count     = flag.Int("count", 6, "number of headers to generate")
		bits      = flag.Uint("bits", 0x207fffff, "compact difficulty bits to stamp on every header")
		prevHex   = flag.String("prev", "", "hex-encoded display-order hash of the parent block")
		startTime = flag.Int64("start-time", time.Now().Unix(), "unix timestamp of the first generated header")
	)
	flag.Parse()

	var prev chainhash.Hash
	if *prevHex != "" {
		h, err := chainhash.NewHashFromStr(*prevHex)
		if err != nil {
			fmt.Fprintln(os.Stderr, "genheaders:", err)
			os.Exit(1)
		}
		prev = *h
	}

	for i := 0; i < *count; i++ {
		h := header.Header{
			Version:    1,
			PrevBlock:  prev,
			MerkleRoot: chainhash.HashH([]byte(fmt.Sprintf("genheaders-%d-%d", *startTime, i))),
			Timestamp:  time.Unix(*startTime+int64(i)*600, 0).UTC(),
			Bits:       uint32(*bits),
			Nonce:      uint32(i),
		}
		fmt.Println(hex.EncodeToString(h.Serialize()))
		prev = h.BlockHash()
	}
}
