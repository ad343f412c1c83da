// Package spvchain implements the Bitcoin SPV header-chain oracle: header
// submission with proof-of-work and difficulty-retarget validation, fork
// tracking with lazy canonicalization, reorg handling by cumulative work,
// and a finality-gated query surface. It is grounded on the teacher
// corpus's blockchain engine (the blockNode/chainLock mutual-exclusion
// pattern from blockchain/difficulty.go and the headers-as-DAG idiom) but
// persists through the kvstore.Store host collaborator instead of an
// in-process index, per this project's external-persistence boundary.
package spvchain

import (
	"encoding/binary"
	"math/big"
	"sync"

	"github.com/excc-labs/spvoracle/chainhash"
	"github.com/excc-labs/spvoracle/header"
	"github.com/excc-labs/spvoracle/kvstore"
	"github.com/excc-labs/spvoracle/powlimit"
)

func beUint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// Consensus-level constants (spec §6).
const (
	powTargetTimespan            = 1_209_600 // two weeks, in seconds
	difficultyAdjustmentInterval = 2016
	minConfirmations             = 6
)

// Config supplies everything NewChain needs to anchor a new chain instance.
type Config struct {
	// Store is the persistence collaborator backing every mapping the
	// engine maintains.
	Store kvstore.Store

	// InitBlockHeight is the height assigned to InitHeader. It must be a
	// multiple of difficultyAdjustmentInterval.
	InitBlockHeight uint64

	// InitHeader is the raw 80-byte anchor header.
	InitHeader []byte

	// CheckPoW enables proof-of-work and difficulty-retarget validation on
	// every subsequent submission. Must be true in production; false is
	// only for deterministic tests that don't want to mine valid headers.
	CheckPoW bool

	// EventSink receives a NewBlockHeader notification for every accepted
	// submission. NopEventSink is used if nil.
	EventSink EventSink
}

// Chain is a single SPV header-chain oracle instance.
type Chain struct {
	mu sync.Mutex

	store           kvstore.Store
	checkPoW        bool
	initBlockHeight uint64
	eventSink       EventSink
}

// NewChain constructs a Chain anchored at cfg.InitBlockHeight with
// cfg.InitHeader, per spec §4.9.
func NewChain(cfg Config) (*Chain, error) {
	if cfg.InitBlockHeight%difficultyAdjustmentInterval != 0 {
		return nil, ErrInitNotAtRetargetBoundary
	}

	anchor, err := header.Parse(cfg.InitHeader)
	if err != nil {
		return nil, err
	}
	hash := anchor.BlockHash()

	target, err := powlimit.CompactToTarget(anchor.Bits)
	if err != nil {
		return nil, err
	}
	work := powlimit.TargetToWork(target)

	sink := cfg.EventSink
	if sink == nil {
		sink = NopEventSink{}
	}

	c := &Chain{
		store:           cfg.Store,
		checkPoW:        cfg.CheckPoW,
		initBlockHeight: cfg.InitBlockHeight,
		eventSink:       sink,
	}

	rec := &Record{
		Header:      anchor,
		Hash:        hash,
		Height:      cfg.InitBlockHeight,
		IsCanonical: true,
		ChainWork:   work,
	}

	txn := newStagedTxn(cfg.Store)
	txn.putHeader(rec)
	txn.setHeightHash(cfg.InitBlockHeight, hash)
	txn.setLatest(hash)
	txn.setFirst(hash)
	txn.setInitHeight(cfg.InitBlockHeight)
	if err := txn.commit(); err != nil {
		return nil, err
	}

	sink.EmitNewBlockHeader(Event{
		Hash:          hash,
		Height:        cfg.InitBlockHeight,
		RawHeader:     append([]byte(nil), cfg.InitHeader...),
		LatestUpdated: true,
	})

	return c, nil
}

// OpenChain reattaches to a chain previously created by NewChain, reading
// its anchor height back from store rather than re-anchoring it. Use this
// to reopen a persistent leveldb-backed chain across process restarts.
func OpenChain(store kvstore.Store, checkPoW bool, sink EventSink) (*Chain, error) {
	raw, err := store.Get(keyInitHeight)
	if err != nil {
		return nil, err
	}
	if len(raw) != 8 {
		return nil, errShortRecord
	}

	if sink == nil {
		sink = NopEventSink{}
	}

	return &Chain{
		store:           store,
		checkPoW:        checkPoW,
		initBlockHeight: beUint64(raw),
		eventSink:       sink,
	}, nil
}

// Submit validates and, if accepted, stores a single raw 80-byte header.
func (c *Chain) Submit(raw []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	txn := newStagedTxn(c.store)
	ev, err := c.submitOne(txn, raw)
	if err != nil {
		return err
	}
	if err := txn.commit(); err != nil {
		return err
	}
	c.eventSink.EmitNewBlockHeader(ev)
	return nil
}

// BatchSubmit validates and stores a sequence of raw headers as a single
// atomic unit: if any one of them is rejected, none of them are stored
// (spec §4.5's "exactly sequential single submission ... each element
// either commits or fails the whole transaction").
func (c *Chain) BatchSubmit(raws [][]byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	txn := newStagedTxn(c.store)
	events := make([]Event, 0, len(raws))
	for _, raw := range raws {
		ev, err := c.submitOne(txn, raw)
		if err != nil {
			return err
		}
		events = append(events, ev)
	}

	if err := txn.commit(); err != nil {
		return err
	}
	for _, ev := range events {
		c.eventSink.EmitNewBlockHeader(ev)
	}
	return nil
}

func (c *Chain) submitOne(txn *stagedTxn, raw []byte) (Event, error) {
	if len(raw) != header.Size {
		return Event{}, ErrInvalidHeaderLength
	}

	h, err := header.Parse(raw)
	if err != nil {
		return Event{}, err
	}
	hash := h.BlockHash()

	if _, exists, err := txn.getHeader(hash); err != nil {
		return Event{}, err
	} else if exists {
		return Event{}, ErrHeaderAlreadyExists
	}

	prevRec, havePrev, err := txn.getHeader(h.PrevBlock)
	if err != nil {
		return Event{}, err
	}

	if !havePrev {
		firstHash, err := txn.getFirst()
		if err != nil {
			return Event{}, err
		}
		firstRec, ok, err := txn.getHeader(firstHash)
		if err != nil {
			return Event{}, err
		}
		if ok && hash == firstRec.Header.PrevBlock {
			return c.submitPreAnchorExtension(txn, h, raw, hash, firstRec)
		}
		return Event{}, ErrPrevBlockNotFound
	}

	return c.submitNormal(txn, h, raw, hash, prevRec)
}

func (c *Chain) submitPreAnchorExtension(txn *stagedTxn, h header.Header, raw []byte, hash chainhash.Hash, firstRec *Record) (Event, error) {
	firstWork, err := powlimit.BitsToWork(firstRec.Header.Bits)
	if err != nil {
		return Event{}, err
	}

	newHeight := firstRec.Height - 1
	newWork := new(big.Int).Sub(firstRec.ChainWork, firstWork)

	rec := &Record{
		Header:      h,
		Hash:        hash,
		Height:      newHeight,
		IsCanonical: true,
		ChainWork:   newWork,
	}
	txn.putHeader(rec)
	txn.setFirst(hash)
	txn.setHeightHash(newHeight, hash)

	return Event{
		Hash:          hash,
		Height:        newHeight,
		RawHeader:     raw,
		LatestUpdated: false,
	}, nil
}

func (c *Chain) submitNormal(txn *stagedTxn, h header.Header, raw []byte, hash chainhash.Hash, prevRec *Record) (Event, error) {
	newHeight := prevRec.Height + 1
	if newHeight <= c.initBlockHeight {
		return Event{}, ErrForkBelowAnchor
	}

	target, err := powlimit.CompactToTarget(h.Bits)
	if err != nil {
		return Event{}, err
	}

	if c.checkPoW {
		requiredBits, err := c.nextBlockBits(txn, prevRec, newHeight)
		if err != nil {
			return Event{}, err
		}
		if h.Bits != requiredBits {
			return Event{}, ErrInvalidBits
		}
		if !powlimit.Compare(hash[:], target) {
			return Event{}, ErrInvalidProofOfWork
		}
	}

	newWork := new(big.Int).Add(prevRec.ChainWork, powlimit.TargetToWork(target))
	rec := &Record{
		Header:      h,
		Hash:        hash,
		Height:      newHeight,
		IsCanonical: true,
		ChainWork:   newWork,
	}
	txn.putHeader(rec)

	tipHash, err := txn.getLatest()
	if err != nil {
		return Event{}, err
	}
	tipRec, _, err := txn.getHeader(tipHash)
	if err != nil {
		return Event{}, err
	}

	latestUpdated := false
	switch {
	case prevRec.Hash == tipHash:
		txn.setHeightHash(newHeight, hash)
		txn.setLatest(hash)
		latestUpdated = true

	case tipRec != nil && newWork.Cmp(tipRec.ChainWork) > 0:
		if err := c.reorg(txn, prevRec, hash, newHeight); err != nil {
			return Event{}, err
		}
		txn.setLatest(hash)
		latestUpdated = true

	default:
		rec.IsCanonical = false
		txn.putHeader(rec)
	}

	return Event{
		Hash:          hash,
		Height:        newHeight,
		RawHeader:     raw,
		LatestUpdated: latestUpdated,
	}, nil
}

// nextBlockBits implements the difficulty-retargeting rule from spec
// §4.5.1.
func (c *Chain) nextBlockBits(txn *stagedTxn, prev *Record, newHeight uint64) (uint32, error) {
	if newHeight%difficultyAdjustmentInterval != 0 {
		return prev.Header.Bits, nil
	}

	periodStartHash, ok, err := txn.getHeightHash(newHeight - difficultyAdjustmentInterval)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrBlockNotFound
	}
	periodStartRec, ok, err := txn.getHeader(periodStartHash)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrBlockNotFound
	}

	// Unsigned 32-bit subtraction, intentionally allowing wraparound on a
	// period-start timestamp that is later than prev's — matching upstream
	// Bitcoin Core's behavior (spec §9 open question).
	timespan := int64(uint32(prev.Header.Timestamp.Unix()) - uint32(periodStartRec.Header.Timestamp.Unix()))
	timespan = powlimit.ClampTimespan(timespan, powTargetTimespan/4, powTargetTimespan*4)

	prevTarget, err := powlimit.CompactToTarget(prev.Header.Bits)
	if err != nil {
		return 0, err
	}

	newTarget := new(big.Int).Mul(prevTarget, big.NewInt(timespan))
	newTarget.Div(newTarget, big.NewInt(powTargetTimespan))
	newTarget = powlimit.Min(newTarget, powlimit.PowLimitMainNet)

	return powlimit.TargetToCompact(newTarget), nil
}

// reorg replaces a suffix of the canonical chain with the branch ending at
// newHash, per spec §4.5's reorg algorithm.
func (c *Chain) reorg(txn *stagedTxn, prev *Record, newHash chainhash.Hash, newHeight uint64) error {
	cur := prev
	for !cur.IsCanonical {
		cur.IsCanonical = true
		txn.putHeader(cur)
		txn.setHeightHash(cur.Height, cur.Hash)

		parent, ok, err := txn.getHeader(cur.Header.PrevBlock)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		cur = parent
	}
	commonAncestor := cur.Hash

	oldTipHash, err := txn.getLatest()
	if err != nil {
		return err
	}
	walker, ok, err := txn.getHeader(oldTipHash)
	if err != nil {
		return err
	}
	for ok && walker.Hash != commonAncestor {
		walker.IsCanonical = false
		txn.putHeader(walker)
		if walker.Height > newHeight {
			txn.clearHeightHash(walker.Height)
		}

		parent, pok, err := txn.getHeader(walker.Header.PrevBlock)
		if err != nil {
			return err
		}
		if !pok {
			break
		}
		walker = parent
		ok = pok
	}

	txn.setHeightHash(newHeight, newHash)
	return nil
}
