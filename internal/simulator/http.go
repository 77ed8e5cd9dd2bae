package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/supplyline/pkg/logger"
)

type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}}
}

func (c *httpClient) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.client.Do(req)
}

func (c *httpClient) postJSON(ctx context.Context, url string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// submitSignals posts the signals concurrently and tallies the outcomes.
func submitSignals(ctx context.Context, config *Config, signals []Signal, stats *Stats) {
	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/events"

	var accepted, duplicate, failed, submitted int64

	signalChan := make(chan Signal, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range signalChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				atomic.AddInt64(&submitted, 1)
				switch submitSingleSignal(ctx, client, url, s) {
				case "accepted":
					atomic.AddInt64(&accepted, 1)
				case "duplicate":
					atomic.AddInt64(&duplicate, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(signalChan)
		for _, s := range signals {
			select {
			case <-ctx.Done():
				return
			case signalChan <- s:
			}
		}
	}()

	wg.Wait()

	stats.SignalsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.SignalsAccepted = int(atomic.LoadInt64(&accepted))
	stats.SignalsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.SignalsFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "signal submission completed",
		logger.Int("accepted", stats.SignalsAccepted),
		logger.Int("duplicate", stats.SignalsDuplicate),
		logger.Int("failed", stats.SignalsFailed))
}

func submitSingleSignal(ctx context.Context, client *httpClient, url string, s Signal) string {
	resp, err := client.postJSON(ctx, url, s)
	if err != nil {
		return "failed"
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case http.StatusAccepted:
		return "accepted"
	case http.StatusOK:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
			return "duplicate"
		}
		return "duplicate"
	default:
		return "failed"
	}
}
