package searchindex

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// SearchIndexHealthChecker monitors search index health via periodic probes.
type SearchIndexHealthChecker struct {
	index        Index
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewSearchIndexHealthChecker creates a new search index health checker.
func NewSearchIndexHealthChecker(index Index, log zerolog.Logger, probeTimeout time.Duration) *SearchIndexHealthChecker {
	hc := &SearchIndexHealthChecker{index: index, log: log, probeTimeout: probeTimeout}
	hc.healthy.Store(0)
	return hc
}

// Name returns the checker name.
func (hc *SearchIndexHealthChecker) Name() string { return "searchindex" }

// IsHealthy returns the cached health status (non-blocking).
func (hc *SearchIndexHealthChecker) IsHealthy() bool { return hc.healthy.Load() == 1 }

// Start begins periodic health checking.
func (hc *SearchIndexHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check := func() {
		to := hc.probeTimeout
		if to <= 0 {
			to = 2 * time.Second
		}
		checkCtx, cancel := context.WithTimeout(ctx, to)
		defer cancel()

		if err := hc.probe(checkCtx); err != nil {
			hc.log.Error().Stack().Str("checker", hc.Name()).Err(err).Msg("search index health check failed")
			hc.healthy.Store(0)
		} else {
			hc.healthy.Store(1)
		}
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

func (hc *SearchIndexHealthChecker) probe(ctx context.Context) error {
	if p, ok := hc.index.(HealthPinger); ok {
		return p.HealthPing(ctx)
	}
	if hc.index == nil {
		return fmt.Errorf("search index not configured")
	}
	return nil
}
