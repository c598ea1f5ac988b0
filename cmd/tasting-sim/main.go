package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/terptaster/internal/tastingsim"
)

const (
	defaultNumTastings = 5000
	defaultNumTasters  = 500
	defaultTopN        = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultSettleWait  = time.Minute
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		tastings   = flag.Int("tastings", defaultNumTastings, "Number of tastings to submit")
		tasters    = flag.Int("tasters", defaultNumTasters, "Number of distinct tasters")
		topN       = flag.Int("top", defaultTopN, "Leaderboard entries to verify")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent HTTP workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle     = flag.Duration("settle", defaultSettleWait, "Max wait for the queue to drain")
		seed       = flag.Uint64("seed", 0, "Seed for reproducible tastings (0 picks one)")
		outputFile = flag.String("output", "", "Write generated tastings to this JSON file")
		logFile    = flag.String("log", "", "Also write logs to this file")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		tastingsim.ShowHelp()
		return
	}

	if err := tastingsim.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg := &tastingsim.Config{
		BaseURL:     *baseURL,
		NumTastings: *tastings,
		NumTasters:  *tasters,
		TopN:        *topN,
		Workers:     max(*workers, 1),
		Timeout:     *timeout,
		SettleWait:  *settle,
		Seed:        *seed,
		OutputFile:  *outputFile,
		Verbose:     *verbose,
	}

	if _, err := tastingsim.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
