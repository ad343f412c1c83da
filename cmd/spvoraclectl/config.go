package main

import (
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"
)

const (
	defaultDataDirname = "data"
	defaultLogFilename = "spvoraclectl.log"
	defaultLogLevel    = "info"
)

var (
	defaultHomeDir = filepath.Join(os.Getenv("HOME"), ".spvoraclectl")
)

// config defines the command-line and config-file options for
// spvoraclectl, following the teacher corpus's go-flags-based config
// layout.
type config struct {
	HomeDir     string `short:"A" long:"appdata" description:"Path to application data directory"`
	DataDir     string `short:"b" long:"datadir" description:"Directory to store the leveldb header index"`
	LogDir      string `long:"logdir" description:"Directory to log output"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	CheckPoW    bool   `long:"checkpow" description:"Enable proof-of-work and retarget validation on submission"`
	InitHeight  uint64 `long:"initheight" description:"Height to anchor a new chain at (must be a multiple of 2016)"`
	InitHeader  string `long:"initheader" description:"Hex-encoded 80-byte header to anchor a new chain with"`

	Version bool `short:"V" long:"version" description:"Display version information and exit"`
}

// loadConfig parses command-line flags, filling in defaults for anything
// left unset.
func loadConfig() (*config, []string, error) {
	cfg := config{
		HomeDir:    defaultHomeDir,
		DebugLevel: defaultLogLevel,
	}

	parser := flags.NewParser(&cfg, flags.Default)
	remainingArgs, err := parser.Parse()
	if err != nil {
		if flagErr, ok := err.(*flags.Error); ok && flagErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, err
	}

	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(cfg.HomeDir, defaultDataDirname)
	}
	if cfg.LogDir == "" {
		cfg.LogDir = cfg.HomeDir
	}

	if err := os.MkdirAll(cfg.HomeDir, 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create home directory: %w", err)
	}

	return &cfg, remainingArgs, nil
}
