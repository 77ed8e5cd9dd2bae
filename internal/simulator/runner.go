package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/supplyline/pkg/logger"
)

// processingGrace is how long the run waits for the engine to drain its
// queue before reading back exposures.
const processingGrace = 3 * time.Second

// Run executes a complete simulation: health check, generate, submit,
// read back the ranked exposures.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting simulation",
		logger.String("base_url", config.BaseURL),
		logger.Int("signals", config.NumSignals),
		logger.Int("workers", config.Workers))

	if err := checkHealth(ctx, config); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	signals := generateSignals(ctx, config, stats)
	submitSignals(ctx, config, signals, stats)

	logger.Get().Info(ctx, "waiting for signals to be scored")
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(processingGrace):
	}

	if err := fetchTopExposures(ctx, config, stats); err != nil {
		return fmt.Errorf("exposure readback failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return nil
}

func checkHealth(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)
	resp, err := client.get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("connect to engine: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("engine unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// fetchTopExposures reads the ranked exposure list and logs the leaders.
func fetchTopExposures(ctx context.Context, config *Config, stats *Stats) error {
	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/exposures?limit=" + strconv.Itoa(config.TopN)

	resp, err := client.get(ctx, url)
	if err != nil {
		return fmt.Errorf("fetch exposures: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch exposures: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read exposures body: %w", err)
	}

	var exposures []struct {
		OEMID         string  `json:"oem_id"`
		RiskID        string  `json:"risk_id"`
		ExposureScore float64 `json:"exposure_score"`
		Commodity     string  `json:"commodity"`
	}
	if err := json.Unmarshal(body, &exposures); err != nil {
		return fmt.Errorf("decode exposures: %w", err)
	}
	stats.ExposuresFetched = len(exposures)

	for i, e := range exposures {
		if !config.Verbose && i >= 10 {
			break
		}
		logger.Get().Info(ctx, "exposure",
			logger.Int("rank", i+1),
			logger.String("oem_id", e.OEMID),
			logger.String("commodity", e.Commodity),
			logger.Float64("score", e.ExposureScore))
	}
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.SignalsSubmitted) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "simulation finished",
		logger.Int("generated", stats.SignalsGenerated),
		logger.Int("submitted", stats.SignalsSubmitted),
		logger.Int("accepted", stats.SignalsAccepted),
		logger.Int("duplicate", stats.SignalsDuplicate),
		logger.Int("failed", stats.SignalsFailed),
		logger.Int("exposures", stats.ExposuresFetched),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("signals_per_second", perSecond))
}
