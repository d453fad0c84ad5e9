// Package lifecycle advances discovered documents through the
// discovered -> downloaded state machine, one reading room at a time.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mwhitaker/foia-archive/internal/archive"
	"github.com/mwhitaker/foia-archive/internal/metrics"
	"github.com/mwhitaker/foia-archive/internal/pages"
)

// Config controls download behavior.
type Config struct {
	UserAgent       string
	DownloadTimeout time.Duration
	// MaxPerSource caps newly discovered documents per room. The cap binds
	// in simulate mode only; execute mode always processes every candidate
	// so coverage stays complete.
	MaxPerSource int
}

// Manager deduplicates candidate links against the catalog, persists new
// documents, and drives their download to blob storage.
type Manager struct {
	store   archive.CatalogStore
	fetcher archive.PageFetcher
	blobs   archive.BlobStore
	clock   archive.Clock
	client  *http.Client
	limiter *rate.Limiter
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Manager. limiter may be nil to disable download pacing.
func New(
	store archive.CatalogStore,
	fetcher archive.PageFetcher,
	blobs archive.BlobStore,
	clock archive.Clock,
	limiter *rate.Limiter,
	cfg Config,
	logger *zap.Logger,
) *Manager {
	if cfg.DownloadTimeout == 0 {
		cfg.DownloadTimeout = 60 * time.Second
	}
	return &Manager{
		store:   store,
		fetcher: fetcher,
		blobs:   blobs,
		clock:   clock,
		client:  &http.Client{Timeout: cfg.DownloadTimeout},
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
	}
}

// CrawlRoom crawls one reading room. Every state transition is committed
// individually, so aborting mid-room never corrupts the catalog. The room's
// last-crawled timestamp is updated unconditionally at the end, even when
// zero new documents were found or the page fetch failed, so "last attempted"
// is always observable.
func (m *Manager) CrawlRoom(ctx context.Context, roomID int64, mode archive.Mode, maxDocs int) (archive.RoomReport, error) {
	report := archive.RoomReport{RoomID: roomID}

	room, err := m.store.GetReadingRoom(ctx, roomID)
	if errors.Is(err, archive.ErrNotFound) {
		m.logger.Warn("reading room not found", zap.Int64("room_id", roomID))
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("load reading room %d: %w", roomID, err)
	}

	candidates, err := m.fetcher.FetchCandidates(ctx, room.URL)
	if err != nil {
		// Soft failure: one room's fetch error must not abort the crawl of
		// the others.
		m.logger.Warn("reading room fetch failed",
			zap.String("url", room.URL), zap.Error(err))
		metrics.RecordRoomFetchFailure()
		report.FetchFailed = true
		return report, m.touch(ctx, roomID)
	}
	report.Candidates = len(candidates)
	m.logger.Info("found candidate documents",
		zap.String("url", room.URL), zap.Int("candidates", len(candidates)))

	for _, cand := range candidates {
		known, err := m.store.DocumentExists(ctx, cand.URL)
		if err != nil {
			return report, fmt.Errorf("check document %q: %w", cand.URL, err)
		}
		if known {
			continue
		}
		if mode == archive.ModeSimulate && m.capFor(maxDocs) > 0 && report.Discovered >= m.capFor(maxDocs) {
			m.logger.Info("simulate cap reached", zap.String("url", room.URL))
			break
		}

		hint := filenameHint(cand.URL)
		doc := archive.Document{
			URL:           cand.URL,
			Filename:      hint,
			FileType:      fileType(cand.URL),
			Title:         cand.Title,
			AgencyID:      room.AgencyID,
			OfficeID:      room.OfficeID,
			ReadingRoomID: &room.ID,
			DiscoveredAt:  m.clock.Now(),
		}
		docID, inserted, err := m.store.InsertDocument(ctx, doc)
		if err != nil {
			return report, fmt.Errorf("insert document %q: %w", cand.URL, err)
		}
		if !inserted {
			// Lost a race to another worker; the URL is cataloged either way.
			continue
		}
		report.Discovered++
		metrics.RecordDocumentDiscovered()

		if mode != archive.ModeExecute {
			continue
		}
		if err := m.download(ctx, docID, cand.URL, hint); err != nil {
			// The document stays discovered and eligible for a future
			// attempt; the crawl of the remaining candidates continues.
			m.logger.Warn("document download failed",
				zap.String("url", cand.URL), zap.Error(err))
			metrics.RecordDownloadFailure()
			report.DownloadFailures++
			continue
		}
		report.Downloaded++
		metrics.RecordDocumentDownloaded()
	}

	return report, m.touch(ctx, roomID)
}

// download retrieves the document bytes and commits the downloaded state.
func (m *Manager) download(ctx context.Context, docID int64, rawURL, hint string) error {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	if m.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", m.cfg.UserAgent)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read download body: %w", err)
	}

	localPath, err := m.blobs.Save(ctx, objectName(rawURL, hint), data)
	if err != nil {
		return fmt.Errorf("save document bytes: %w", err)
	}
	if err := m.store.MarkDownloaded(ctx, docID, localPath, m.clock.Now()); err != nil {
		return err
	}
	return nil
}

func (m *Manager) touch(ctx context.Context, roomID int64) error {
	if err := m.store.TouchReadingRoom(ctx, roomID, m.clock.Now()); err != nil {
		return fmt.Errorf("touch reading room %d: %w", roomID, err)
	}
	return nil
}

// capFor prefers the per-call cap, falling back to the configured default.
func (m *Manager) capFor(maxDocs int) int {
	if maxDocs > 0 {
		return maxDocs
	}
	return m.cfg.MaxPerSource
}

// fileType derives the catalog file-type from the URL's path extension.
func fileType(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return pages.PathExtension(u.Path)
}
