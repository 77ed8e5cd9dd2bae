// Command simulate floods a running engine with synthetic classified
// signals and reads back the ranked exposures.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/supplyline/internal/simulator"
	"github.com/okian/supplyline/pkg/logger"
)

const (
	defaultNumSignals = 5000
	defaultTopN       = 25
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the engine")
		numSignals = flag.Int("signals", defaultNumSignals, "Number of signals to generate and submit")
		topN       = flag.Int("top", defaultTopN, "Number of top exposures to fetch afterwards")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "RNG seed for reproducible runs")
		verbose    = flag.Bool("verbose", false, "Log every fetched exposure")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &simulator.Config{
		BaseURL:    *baseURL,
		NumSignals: *numSignals,
		TopN:       *topN,
		Workers:    *workers,
		Timeout:    *timeout,
		Seed:       *seed,
		Verbose:    *verbose,
	}

	if err := simulator.Run(ctx, config); err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		os.Exit(1)
	}
}
