package tastingsim

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/terptaster/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging initializes the logger on stdout, teeing to logFile when set.
func SetupLogging(logFile string, verbose bool) error {
	var w io.Writer = os.Stdout
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
	}
	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "info"
	if verbose {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`TerpTaster Tasting Simulator
============================

Submits generated tastings to a running service and checks that every
taster's rank and the leaderboard match scores computed locally.

Usage:
  go run ./cmd/tasting-sim [options]

Options:
  -url string         Base URL of the service (default "http://localhost:9080")
  -tastings int       Number of tastings to submit (default 5000)
  -tasters int        Number of distinct tasters (default 500)
  -top int            Leaderboard entries to verify (default 50)
  -workers int        Concurrent HTTP workers (default CPU cores * 2)
  -timeout duration   HTTP request timeout (default 30s)
  -settle duration    Max wait for the queue to drain (default 1m)
  -seed uint          Seed for reproducible tastings (default random)
  -output string      Write generated tastings to this JSON file
  -log string         Also write logs to this file
  -verbose            Enable debug logging
  -help               Show this help message

Note: keep -top at or below the service's max_leaderboard_limit, and raise
rate_limit_requests for large runs.
`)
}
