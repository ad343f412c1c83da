package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"

	"github.com/excc-labs/spvoracle/eventlog"
	"github.com/excc-labs/spvoracle/spvchain"
)

// logRotator writes into a size-capped rotation of files in the log
// directory; logWriter pairs it with stdout, the same two-destination
// pattern the teacher corpus's logger uses.
var logRotator *rotator.Rotator

// logWriter implements io.Writer so that slog's backend can fan out to both
// stdout and the on-disk rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

var backendLog = slog.NewBackend(logWriter{})

var log = backendLog.Logger("CTL")

// initLogRotator creates a rotating log file at the given path, replacing
// the no-op rotator used before configuration is parsed.
func initLogRotator(logFile string) error {
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}
	logRotator = r
	return nil
}

// setLogLevel sets the logger's level, defaulting to Info on an
// unrecognized name.
func setLogLevel(levelStr string) {
	level, ok := slog.LevelFromString(levelStr)
	if !ok {
		level = slog.LevelInfo
	}
	log.SetLevel(level)
}

// newEventSink returns the process-wide spvchain.EventSink, logging through
// a "CHN" subsystem logger on the CLI's shared log backend.
func newEventSink() spvchain.EventSink {
	return eventlog.New(backendLog.Logger("CHN"))
}
