// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package powlimit implements Bitcoin's compact-target ("bits") encoding,
// the conversion between a compact target and the 256-bit target it
// represents, and the per-block work a target implies. The algorithms
// mirror Bitcoin Core's arith_uint256::SetCompact / GetCompact and
// GetBlockProof, grounded on the teacher repository's own
// blockchain/standalone CompactToBig/BigToCompact and its
// blockchain/difficulty.go use of math/big for all target arithmetic.
package powlimit

import (
	"errors"
	"math/big"
)

// Sentinel errors for malformed compact encodings (spec §7 taxonomy).
var (
	// ErrBitsNegative is returned when the compact encoding's sign bit is
	// set with a nonzero mantissa.
	ErrBitsNegative = errors.New("powlimit: bits represents a negative value")

	// ErrBitsOverflow is returned when the compact encoding's mantissa or
	// exponent overflow the representable 256-bit range.
	ErrBitsOverflow = errors.New("powlimit: bits overflows 256 bits")
)

var (
	bigOne = big.NewInt(1)
	two256 = new(big.Int).Lsh(bigOne, 256)
)

// PowLimitMainNet is Bitcoin's mainnet minimum-difficulty target, 2^224-1
// (spec §6's powLimit): a 4-byte zero prefix followed by 28 0xff bytes,
// reinterpreted as a 256-bit integer.
var PowLimitMainNet = mustParseHex("00000000ffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

func mustParseHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("powlimit: invalid hex constant " + s)
	}
	return n
}

// CompactToTarget converts a compact "bits" representation, the difficulty
// target stored in a block header, to a big.Int. It implements spec §4.2's
// bitsToTarget: errors on the sign bit or on mantissa/exponent overflow
// before scaling the 3-byte mantissa by the encoded exponent.
func CompactToTarget(bits uint32) (*big.Int, error) {
	nSize := bits >> 24
	nWord := bits & 0x007fffff

	if nWord != 0 && bits&0x00800000 != 0 {
		return nil, ErrBitsNegative
	}
	if nSize > 34 {
		return nil, ErrBitsOverflow
	}
	if nWord != 0 {
		if nSize > 33 && nWord > 0xff {
			return nil, ErrBitsOverflow
		}
		if nSize > 32 && nWord > 0xffff {
			return nil, ErrBitsOverflow
		}
	}

	target := big.NewInt(int64(nWord))
	if nSize <= 3 {
		target.Rsh(target, uint(8*(3-nSize)))
	} else {
		target.Lsh(target, uint(8*(nSize-3)))
	}
	return target, nil
}

// TargetToCompact converts a 256-bit target into its compact "bits"
// representation. It implements spec §4.2's targetToBits: the exponent is
// the target's byte length, and the mantissa is right-shifted (bumping the
// exponent) when its top bit would otherwise be mistaken for the compact
// encoding's sign bit.
func TargetToCompact(target *big.Int) uint32 {
	if target.Sign() == 0 {
		return 0
	}

	var nCompact uint32
	nSize := uint((target.BitLen() + 7) / 8)
	var mantissa *big.Int
	if nSize <= 3 {
		mantissa = new(big.Int).Lsh(target, uint(8*(3-nSize)))
	} else {
		mantissa = new(big.Int).Rsh(target, uint(8*(nSize-3)))
	}

	nCompact = uint32(mantissa.Uint64())

	// The 0x00800000 bit represents the sign of a negative number, so if the
	// calculated mantissa has that bit set, shift the mantissa right one
	// byte and increment the exponent to avoid the misinterpretation.
	if nCompact&0x00800000 != 0 {
		nCompact >>= 8
		nSize++
	}

	return nCompact | uint32(nSize)<<24
}

// TargetToWork computes the work a block mined at the given target
// represents: (~target) / (target + 1) + 1 in 256-bit unsigned arithmetic,
// per spec §4.2. The division is performed exactly in the unsigned domain
// before the result is handed back as a signed big.Int (it is always
// nonnegative for any valid target).
func TargetToWork(target *big.Int) *big.Int {
	if target.Sign() <= 0 {
		return new(big.Int).Set(bigOne)
	}

	// (~target) interpreted over 256 bits is (2^256 - 1 - target).
	notTarget := new(big.Int).Sub(new(big.Int).Sub(two256, bigOne), target)
	denom := new(big.Int).Add(target, bigOne)

	work := new(big.Int).Div(notTarget, denom)
	return work.Add(work, bigOne)
}

// BitsToTarget is an alias for CompactToTarget using the spec's naming.
func BitsToTarget(bits uint32) (*big.Int, error) {
	return CompactToTarget(bits)
}

// TargetToBits is an alias for TargetToCompact using the spec's naming.
func TargetToBits(target *big.Int) uint32 {
	return TargetToCompact(target)
}

// BitsToWork computes bitsToWork(bits) = targetToWork(bitsToTarget(bits)).
func BitsToWork(bits uint32) (*big.Int, error) {
	target, err := CompactToTarget(bits)
	if err != nil {
		return nil, err
	}
	return TargetToWork(target), nil
}

// Compare reports whether the hash, read as a big-endian 256-bit unsigned
// integer, is less than or equal to target — the proof-of-work check in
// spec §4.5 step 7.
func Compare(hashBigEndian []byte, target *big.Int) bool {
	hashInt := new(big.Int).SetBytes(hashBigEndian)
	return hashInt.Cmp(target) <= 0
}

// ClampTimespan clamps an observed retarget timespan into
// [min, max] as used by the difficulty-adjustment algorithm in spec §4.5.1.
func ClampTimespan(timespan, min, max int64) int64 {
	switch {
	case timespan < min:
		return min
	case timespan > max:
		return max
	default:
		return timespan
	}
}

// Min returns the lesser of two targets, never returning a value larger than
// limit.
func Min(target, limit *big.Int) *big.Int {
	if target.Cmp(limit) > 0 {
		return new(big.Int).Set(limit)
	}
	return new(big.Int).Set(target)
}
