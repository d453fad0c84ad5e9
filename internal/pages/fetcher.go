// Package pages retrieves reading-room pages and extracts document
// candidates from them.
package pages

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mwhitaker/foia-archive/internal/archive"
)

// Config controls collector behavior for room fetches.
type Config struct {
	UserAgent     string
	Timeout       time.Duration
	RespectRobots bool
}

// Fetcher implements archive.PageFetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	limiter       *rate.Limiter
	logger        *zap.Logger
}

var _ archive.PageFetcher = (*Fetcher)(nil)

// NewFetcher builds a Fetcher. limiter may be nil to disable pacing.
func NewFetcher(cfg Config, limiter *rate.Limiter, logger *zap.Logger) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		limiter:       limiter,
		logger:        logger,
	}
}

// FetchCandidates retrieves one reading-room page and returns its candidate
// document links in document order. A transport error or non-2xx response is
// returned to the caller, which treats it as a soft failure: one room's
// failure must not abort the crawl of others.
func (f *Fetcher) FetchCandidates(ctx context.Context, pageURL string) ([]archive.Candidate, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var (
		body     []byte
		finalURL *url.URL
		fetchErr error
	)
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = !f.cfg.RespectRobots
	collector.SetRequestTimeout(f.cfg.Timeout)

	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
		finalURL = r.Request.URL
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := f.runCollector(ctx, collector, pageURL, &fetchErr); err != nil {
		return nil, err
	}
	if finalURL == nil {
		return nil, fmt.Errorf("fetch %s: empty response", pageURL)
	}
	return ExtractCandidates(body, finalURL)
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, pageURL string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(pageURL)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch %s canceled: %w", pageURL, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("fetch %s: %w", pageURL, err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("fetch %s: %w", pageURL, *fetchErr)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
