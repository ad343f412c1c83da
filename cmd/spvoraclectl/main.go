// Command spvoraclectl is an operator-facing CLI over a single SPV
// header-chain instance, following the teacher corpus's command structure
// of a go-flags-parsed config plus a small dispatcher over subcommands.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/excc-labs/spvoracle/chainhash"
	"github.com/excc-labs/spvoracle/kvstore"
	"github.com/excc-labs/spvoracle/kvstore/leveldb"
	"github.com/excc-labs/spvoracle/merkleproof"
	"github.com/excc-labs/spvoracle/spvchain"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "spvoraclectl:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, args, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Version {
		fmt.Println("spvoraclectl version 1.0.0")
		return nil
	}

	if err := initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename)); err != nil {
		return err
	}
	setLogLevel(cfg.DebugLevel)

	if len(args) == 0 {
		return fmt.Errorf("usage: spvoraclectl [options] <init|submit|query|verify-proof> ...")
	}

	store, err := leveldb.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening data directory %s: %w", cfg.DataDir, err)
	}
	defer store.Close()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "init":
		return cmdInit(cfg, store, rest)
	case "submit":
		return cmdSubmit(cfg, store, rest)
	case "query":
		return cmdQuery(cfg, store, rest)
	case "verify-proof":
		return cmdVerifyProof(cfg, store, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdInit(cfg *config, store kvstore.Store, _ []string) error {
	raw, err := hex.DecodeString(cfg.InitHeader)
	if err != nil {
		return fmt.Errorf("decoding --initheader: %w", err)
	}

	c, err := spvchain.NewChain(spvchain.Config{
		Store:           store,
		InitBlockHeight: cfg.InitHeight,
		InitHeader:      raw,
		CheckPoW:        cfg.CheckPoW,
		EventSink:       newEventSink(),
	})
	if err != nil {
		return err
	}

	latest, err := c.GetBlockHashByHeight(cfg.InitHeight, false)
	if err != nil {
		return err
	}
	fmt.Printf("chain initialized at height %d, anchor %s\n", cfg.InitHeight, latest)
	return nil
}

func cmdSubmit(cfg *config, store kvstore.Store, args []string) error {
	c, err := spvchain.OpenChain(store, cfg.CheckPoW, newEventSink())
	if err != nil {
		return fmt.Errorf("opening chain: %w", err)
	}

	var raws [][]byte
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		for _, line := range splitNonEmptyLines(string(data)) {
			raw, err := hex.DecodeString(line)
			if err != nil {
				return fmt.Errorf("decoding header: %w", err)
			}
			raws = append(raws, raw)
		}
	} else {
		for _, arg := range args {
			raw, err := hex.DecodeString(arg)
			if err != nil {
				return fmt.Errorf("decoding header: %w", err)
			}
			raws = append(raws, raw)
		}
	}

	if len(raws) == 0 {
		return fmt.Errorf("no headers given; pass hex headers as arguments or \"-\" to read from stdin")
	}
	if len(raws) == 1 {
		if err := c.Submit(raws[0]); err != nil {
			return err
		}
	} else if err := c.BatchSubmit(raws); err != nil {
		return err
	}

	fmt.Printf("accepted %d header(s)\n", len(raws))
	return nil
}

func cmdQuery(cfg *config, store kvstore.Store, args []string) error {
	c, err := spvchain.OpenChain(store, cfg.CheckPoW, newEventSink())
	if err != nil {
		return fmt.Errorf("opening chain: %w", err)
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: query <hash-by-height|header-by-hash|finalized|hashes-in-range> ...")
	}

	switch args[0] {
	case "hash-by-height":
		if len(args) != 2 {
			return fmt.Errorf("usage: query hash-by-height <height>")
		}
		height, err := parseUint64(args[1])
		if err != nil {
			return err
		}
		hash, err := c.GetBlockHashByHeight(height, false)
		if err != nil {
			return err
		}
		fmt.Println(hash)

	case "header-by-hash":
		if len(args) != 2 {
			return fmt.Errorf("usage: query header-by-hash <hash>")
		}
		hash, err := chainhash.NewHashFromStr(args[1])
		if err != nil {
			return err
		}
		raw, err := c.GetRawHeaderByHash(*hash, false)
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(raw))

	case "finalized":
		if len(args) != 2 {
			return fmt.Errorf("usage: query finalized <height>")
		}
		height, err := parseUint64(args[1])
		if err != nil {
			return err
		}
		ok, err := c.IsFinalizedByHeight(height)
		if err != nil {
			return err
		}
		fmt.Println(ok)

	case "hashes-in-range":
		if len(args) != 3 {
			return fmt.Errorf("usage: query hashes-in-range <fromHeight> <toHeight>")
		}
		from, err := parseUint64(args[1])
		if err != nil {
			return err
		}
		to, err := parseUint64(args[2])
		if err != nil {
			return err
		}
		hashes, err := c.GetCanonicalHashesInRange(from, to)
		if err != nil {
			return err
		}
		for _, h := range hashes {
			fmt.Println(h)
		}

	default:
		return fmt.Errorf("unknown query %q", args[0])
	}

	return nil
}

func cmdVerifyProof(cfg *config, store kvstore.Store, args []string) error {
	c, err := spvchain.OpenChain(store, cfg.CheckPoW, newEventSink())
	if err != nil {
		return fmt.Errorf("opening chain: %w", err)
	}
	if len(args) < 3 {
		return fmt.Errorf("usage: verify-proof <height> <txIndex> <txDataHex> [proofSiblingHex...]")
	}

	height, err := parseUint64(args[0])
	if err != nil {
		return err
	}
	txIndex, err := parseUint64(args[1])
	if err != nil {
		return err
	}
	txData, err := hex.DecodeString(args[2])
	if err != nil {
		return fmt.Errorf("decoding txdata: %w", err)
	}

	var proof []chainhash.Hash
	for _, s := range args[3:] {
		h, err := chainhash.NewHashFromStr(s)
		if err != nil {
			return fmt.Errorf("decoding proof sibling: %w", err)
		}
		proof = append(proof, *h)
	}

	ok, err := merkleproof.Verify(c, height, chainhash.Zero, false, uint32(txIndex), txData, proof)
	if err != nil {
		return err
	}
	fmt.Println(ok)
	return nil
}

func parseUint64(s string) (uint64, error) {
	var v uint64
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

func splitNonEmptyLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			line := s[start:i]
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			if line != "" {
				lines = append(lines, line)
			}
			start = i + 1
		}
	}
	return lines
}
