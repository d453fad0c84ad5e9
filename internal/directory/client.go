// Package directory fetches and normalizes the upstream agency/office
// directory. It isolates the rest of the pipeline from the directory's wire
// format and pagination mechanics: the upstream schema is not contractually
// stable, so parsing stays defensive and a malformed entry degrades to a
// partial record instead of aborting the run.
package directory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mwhitaker/foia-archive/internal/archive"
)

const unitsPath = "/foia_units"

// Config controls the directory client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// APIKey is sent as X-API-Key when present.
	APIKey string
	// RequireAPIKey marks deployments where the upstream rejects anonymous
	// requests; a missing key is then a configuration error reported before
	// any network call.
	RequireAPIKey bool
	UserAgent     string
	// PageSize is the requested page size for paginated collections.
	PageSize int
	// MaxPages bounds the pagination loop against servers that never return
	// a short page.
	MaxPages int
}

// Client fetches the upstream directory over HTTP.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

var _ archive.DirectoryClient = (*Client)(nil)

// New validates the config and builds a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("directory base URL is required")
	}
	if cfg.RequireAPIKey && cfg.APIKey == "" {
		return nil, fmt.Errorf("directory access key is required but not configured")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PageSize < 0 {
		cfg.PageSize = 0
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 500
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// FetchDirectory retrieves every directory page and returns the normalized
// records. Any transport or non-2xx response is a hard failure for the whole
// run: partial directory results are never committed.
//
// The pagination loop terminates when the server returns a batch smaller than
// the requested page size, when no further next reference is present, or when
// the same next URL is seen twice. Malformed next links have been observed in
// the wild and must not hang the pipeline.
func (c *Client) FetchDirectory(ctx context.Context) ([]archive.DirectoryRecord, error) {
	pageURL := c.pageURL(0)
	seen := map[string]struct{}{}
	offset := 0

	var records []archive.DirectoryRecord
	for page := 0; page < c.cfg.MaxPages; page++ {
		if _, dup := seen[pageURL]; dup {
			c.logger.Warn("directory pagination cycle detected", zap.String("url", pageURL))
			return records, nil
		}
		seen[pageURL] = struct{}{}

		body, err := c.getJSON(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		units, next, paged := normalizePage(body, c.logger)
		for _, u := range units {
			records = append(records, u.record(c.logger))
		}

		switch {
		case next != "":
			pageURL = c.resolve(next)
		case paged && c.cfg.PageSize > 0 && len(units) >= c.cfg.PageSize:
			offset += c.cfg.PageSize
			pageURL = c.pageURL(offset)
		default:
			return records, nil
		}
	}
	c.logger.Warn("directory pagination page cap reached", zap.Int("max_pages", c.cfg.MaxPages))
	return records, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string) (Value, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Value{}, fmt.Errorf("build directory request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Value{}, fmt.Errorf("fetch directory %s: %w", rawURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Value{}, fmt.Errorf("fetch directory %s: unexpected status %d", rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Value{}, fmt.Errorf("read directory response: %w", err)
	}
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return Value{}, fmt.Errorf("parse directory response: %w", err)
	}
	return v, nil
}

// pageURL composes the units URL with an offset/limit cursor when a page size
// is configured.
func (c *Client) pageURL(offset int) string {
	base := strings.TrimRight(c.cfg.BaseURL, "/") + unitsPath
	if c.cfg.PageSize <= 0 {
		return base
	}
	q := url.Values{}
	q.Set("page[limit]", strconv.Itoa(c.cfg.PageSize))
	q.Set("page[offset]", strconv.Itoa(offset))
	return base + "?" + q.Encode()
}

// resolve absolutizes a server-supplied next reference against the base URL.
func (c *Client) resolve(next string) string {
	ref, err := url.Parse(next)
	if err != nil {
		return next
	}
	if ref.IsAbs() {
		return next
	}
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return next
	}
	return base.ResolveReference(ref).String()
}
