package importer

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CheckResult is the outcome of one HEAD request. Status is 0 on network errors.
type CheckResult struct {
	AdapterID string
	URL       string
	Status    int
	Err       string
}

// Reachable reports a 2xx or 3xx answer.
func (r CheckResult) Reachable() bool { return r.Status >= 200 && r.Status < 400 }

// Checker verifies that every import source URL still answers.
type Checker struct {
	sources  *SourceDB
	logger   *zap.Logger
	interval time.Duration
	parallel int
	client   *http.Client
}

// NewChecker returns a Checker that runs every interval. A nil logger uses
// the global zap logger.
func NewChecker(sources *SourceDB, logger *zap.Logger, interval time.Duration) *Checker {
	if logger == nil {
		logger = zap.L()
	}
	return &Checker{
		sources:  sources,
		logger:   logger,
		interval: interval,
		parallel: 4,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Start checks immediately, then every interval until ctx is cancelled.
func (c *Checker) Start(ctx context.Context) {
	c.CheckAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll HEADs every source URL, a few at a time, records each status and
// returns the results in source order.
func (c *Checker) CheckAll(ctx context.Context) []CheckResult {
	sources, err := c.sources.ListSources()
	if err != nil {
		c.logger.Error("source check: cannot list sources", zap.Error(err))
		return nil
	}
	if len(sources) == 0 {
		return nil
	}

	results := make([]CheckResult, len(sources))
	var mu sync.Mutex // serializes SQLite writes
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallel)
	for i, src := range sources {
		g.Go(func() error {
			res := CheckResult{AdapterID: src.AdapterID, URL: src.SourceURL}
			status, err := c.head(gctx, src.SourceURL)
			res.Status = status
			if err != nil {
				res.Err = err.Error()
			}
			results[i] = res

			mu.Lock()
			defer mu.Unlock()
			if err := c.sources.UpdateCheck(src.AdapterID, res.Status, res.Err); err != nil {
				c.logger.Error("source check: update failed", zap.String("adapter", src.AdapterID), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	var failed int
	for _, r := range results {
		if r.Reachable() {
			continue
		}
		failed++
		c.logger.Warn("source unreachable",
			zap.String("adapter", r.AdapterID),
			zap.String("url", r.URL),
			zap.Int("status", r.Status),
			zap.String("error", r.Err))
	}
	c.logger.Info("source check complete",
		zap.Int("total", len(results)),
		zap.Int("ok", len(results)-failed),
		zap.Int("failed", failed))
	return results
}

func (c *Checker) head(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, eris.Wrap(err, "build request")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, eris.Wrapf(err, "HEAD %s", url)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
