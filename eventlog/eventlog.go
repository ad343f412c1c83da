// Package eventlog provides the default spvchain.EventSink, logging every
// accepted header submission through the teacher corpus's logging stack
// (github.com/decred/slog) rather than introducing a second logging
// dependency.
package eventlog

import (
	"github.com/decred/slog"

	"github.com/excc-labs/spvoracle/spvchain"
)

// Sink logs every NewBlockHeader event at Info level.
type Sink struct {
	log slog.Logger
}

// New returns a Sink that logs through log.
func New(log slog.Logger) *Sink {
	return &Sink{log: log}
}

// EmitNewBlockHeader implements spvchain.EventSink.
func (s *Sink) EmitNewBlockHeader(ev spvchain.Event) {
	s.log.Infof("new block header accepted: hash=%s height=%d latestUpdated=%v",
		ev.Hash, ev.Height, ev.LatestUpdated)
}
