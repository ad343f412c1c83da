// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package powlimit

import (
	"math/big"
	"testing"
)

// TestCompactToTargetKnownVector exercises the worked example from the
// teacher's blockchain/standalone ExampleCompactToBig.
func TestCompactToTargetKnownVector(t *testing.T) {
	target, err := CompactToTarget(453115903)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := mustParseHex("000000000001ffff000000000000000000000000000000000000000000000000")
	if target.Cmp(want) != 0 {
		t.Fatalf("got %064x, want %064x", target, want)
	}
}

// TestTargetToCompactKnownVector is the inverse of the above, from the
// teacher's ExampleBigToCompact.
func TestTargetToCompactKnownVector(t *testing.T) {
	target := mustParseHex("000000000001ffff000000000000000000000000000000000000000000000000")
	got := TargetToCompact(target)
	if got != 453115903 {
		t.Fatalf("got %d, want 453115903", got)
	}
}

// TestCompactTargetRoundTrip ensures targetToBits(bitsToTarget(bits)) == bits
// for every representable compact value (spec §8 property 5).
func TestCompactTargetRoundTrip(t *testing.T) {
	cases := []uint32{
		0x1d00ffff, // Bitcoin mainnet genesis bits.
		0x1b0404cb,
		0x207fffff, // regtest-style minimum difficulty.
		0x03123456,
		0x04123456,
		0x05009234,
	}
	for _, bits := range cases {
		target, err := CompactToTarget(bits)
		if err != nil {
			t.Fatalf("bits=%#x: unexpected error: %v", bits, err)
		}
		gotBits := TargetToCompact(target)
		if gotBits != bits {
			t.Errorf("bits=%#x: round trip gave %#x", bits, gotBits)
		}
	}
}

// TestCompactToTargetNegative ensures the sign-bit guard fires.
func TestCompactToTargetNegative(t *testing.T) {
	_, err := CompactToTarget(0x01800001)
	if err != ErrBitsNegative {
		t.Fatalf("got %v, want ErrBitsNegative", err)
	}
}

// TestCompactToTargetOverflow ensures oversized exponent/mantissa
// combinations are rejected rather than silently wrapping.
func TestCompactToTargetOverflow(t *testing.T) {
	tests := []uint32{
		0x21010000, // nSize = 33 > 32, too large a mantissa for that size? handled below
		0x23010000, // nSize = 35 > 34
	}
	for _, bits := range tests {
		if _, err := CompactToTarget(bits); err == nil {
			t.Errorf("bits=%#x: expected overflow error", bits)
		}
	}
}

// TestTargetToWorkMonotone ensures a smaller target (harder difficulty)
// yields strictly more work, matching Bitcoin Core's GetBlockProof.
func TestTargetToWorkMonotone(t *testing.T) {
	easy, _ := CompactToTarget(0x1d00ffff)
	hard, _ := CompactToTarget(0x1b0404cb)

	easyWork := TargetToWork(easy)
	hardWork := TargetToWork(hard)

	if hardWork.Cmp(easyWork) <= 0 {
		t.Fatalf("harder target should produce more work: hard=%s easy=%s", hardWork, easyWork)
	}
}

// TestTargetToWorkPositive ensures every accepted block contributes
// strictly positive work, the property chain-work monotonicity in spec §3
// invariant 3 depends on.
func TestTargetToWorkPositive(t *testing.T) {
	target, _ := CompactToTarget(0x1d00ffff)
	work := TargetToWork(target)
	if work.Sign() <= 0 {
		t.Fatalf("expected strictly positive work, got %s", work)
	}
}

// TestClampTimespan exercises the retarget timespan clamp bounds used by
// the chain engine's difficulty adjustment (spec §4.5.1).
func TestClampTimespan(t *testing.T) {
	const (
		target = 1209600
		min    = target / 4
		max    = target * 4
	)
	cases := []struct {
		in, want int64
	}{
		{1, min},
		{1_000_000_000, max},
		{target, target},
	}
	for _, c := range cases {
		got := ClampTimespan(c.in, min, max)
		if got != c.want {
			t.Errorf("ClampTimespan(%d): got %d, want %d", c.in, got, c.want)
		}
	}
}

// TestMinCapsAtLimit ensures Min never returns a target easier (larger) than
// limit.
func TestMinCapsAtLimit(t *testing.T) {
	limit := big.NewInt(1000)
	below := big.NewInt(500)
	above := big.NewInt(1500)

	if got := Min(below, limit); got.Cmp(below) != 0 {
		t.Errorf("Min should pass through values below the limit: got %s", got)
	}
	if got := Min(above, limit); got.Cmp(limit) != 0 {
		t.Errorf("Min should cap at the limit: got %s", got)
	}
}
