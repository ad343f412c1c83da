package spvchain

import "github.com/excc-labs/spvoracle/chainhash"

// Event is emitted on every accepted header submission, including pre-anchor
// extensions and the initial anchor write (spec §4.8).
type Event struct {
	// Hash is the submitted header's block hash, in display order.
	Hash chainhash.Hash

	// Height is the submitted header's chain height (may be less than the
	// anchor's height for a pre-anchor extension).
	Height uint64

	// RawHeader is the original 80-byte wire form of the submitted header.
	RawHeader []byte

	// LatestUpdated is true only when latestBlockHash changed as a result
	// of this submission.
	LatestUpdated bool
}

// EventSink receives NewBlockHeader notifications. Implementations must not
// block the caller for long; the chain engine emits synchronously from
// inside Submit/BatchSubmit.
type EventSink interface {
	EmitNewBlockHeader(Event)
}

// NopEventSink discards every event. It is useful for tests and for callers
// that don't care about notifications.
type NopEventSink struct{}

// EmitNewBlockHeader implements EventSink.
func (NopEventSink) EmitNewBlockHeader(Event) {}
