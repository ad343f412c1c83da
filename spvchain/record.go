package spvchain

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/excc-labs/spvoracle/chainhash"
	"github.com/excc-labs/spvoracle/header"
)

// Record is the persisted entry for one observed block hash, spec §3's
// "Header record": the wire header plus the chain-engine bookkeeping fields
// that don't travel over the wire (height, canonicity, cumulative work).
type Record struct {
	Header      header.Header
	Hash        chainhash.Hash
	Height      uint64
	IsCanonical bool

	// ChainWork is signed: negative for pre-anchor-extension blocks, per
	// spec §3's chainWorkSinceInitBlock field.
	ChainWork *big.Int
}

// errShortRecord is returned, unwrapped, when a stored byte slice is too
// short to contain a valid record or anchor height.
var errShortRecord = errors.New("spvchain: truncated record")

// encodeRecord serializes a Record to bytes for storage. The wire header is
// stored verbatim (header.Size bytes) followed by height, a canonicity flag,
// and the chain work's sign and magnitude, so decodeRecord can reconstruct
// the signed big.Int exactly.
func encodeRecord(r *Record) []byte {
	raw := r.Header.Serialize()

	workBytes := r.ChainWork.Bytes()
	buf := make([]byte, 0, len(raw)+8+1+1+4+len(workBytes))
	buf = append(buf, raw...)

	var heightBuf [8]byte
	binary.BigEndian.PutUint64(heightBuf[:], r.Height)
	buf = append(buf, heightBuf[:]...)

	if r.IsCanonical {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	switch r.ChainWork.Sign() {
	case -1:
		buf = append(buf, 0xff)
	default:
		buf = append(buf, 0x00)
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(workBytes)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, workBytes...)

	return buf
}

// decodeRecord is the inverse of encodeRecord.
func decodeRecord(data []byte) (*Record, error) {
	if len(data) < header.Size+8+1+1+4 {
		return nil, errShortRecord
	}

	h, err := header.Parse(data[:header.Size])
	if err != nil {
		return nil, err
	}
	off := header.Size

	height := binary.BigEndian.Uint64(data[off : off+8])
	off += 8

	isCanonical := data[off] == 1
	off++

	negative := data[off] == 0xff
	off++

	workLen := binary.BigEndian.Uint32(data[off : off+4])
	off += 4
	if len(data) < off+int(workLen) {
		return nil, errShortRecord
	}
	mag := data[off : off+int(workLen)]

	work := new(big.Int).SetBytes(mag)
	if negative {
		work.Neg(work)
	}

	return &Record{
		Header:      h,
		Hash:        h.BlockHash(),
		Height:      height,
		IsCanonical: isCanonical,
		ChainWork:   work,
	}, nil
}
