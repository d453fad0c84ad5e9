// Package engine orchestrates one full discovery-and-crawl cycle: directory
// refresh, entity reconciliation, then a crawl pass over every known reading
// room.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mwhitaker/foia-archive/internal/archive"
	"github.com/mwhitaker/foia-archive/internal/metrics"
	"github.com/mwhitaker/foia-archive/internal/reconcile"
)

// reconciler is the slice of reconcile.Reconciler the engine needs.
type reconciler interface {
	Reconcile(ctx context.Context, records []archive.DirectoryRecord) (reconcile.Stats, error)
}

// roomCrawler is the slice of lifecycle.Manager the engine needs.
type roomCrawler interface {
	CrawlRoom(ctx context.Context, roomID int64, mode archive.Mode, maxDocs int) (archive.RoomReport, error)
}

// Config controls one cycle.
type Config struct {
	Mode         archive.Mode
	MaxPerSource int
	// RoomLimit bounds how many rooms one cycle crawls; <= 0 means all.
	RoomLimit int
	// Concurrency bounds parallel room crawls. Rooms are independent units
	// of work; each one's transitions are individually committed.
	Concurrency int
}

// Engine wires the pipeline stages together.
type Engine struct {
	directory  archive.DirectoryClient
	reconciler reconciler
	store      archive.CatalogStore
	crawler    roomCrawler
	clock      archive.Clock
	cfg        Config
	logger     *zap.Logger
}

// New constructs an Engine.
func New(
	directory archive.DirectoryClient,
	rec reconciler,
	store archive.CatalogStore,
	crawler roomCrawler,
	clock archive.Clock,
	cfg Config,
	logger *zap.Logger,
) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Engine{
		directory:  directory,
		reconciler: rec,
		store:      store,
		crawler:    crawler,
		clock:      clock,
		cfg:        cfg,
		logger:     logger,
	}
}

// RunOnce executes one cycle. Directory and reconciliation failures are fatal
// to the cycle (the prior catalog state stays valid); per-room failures are
// logged inside the crawl stage and only counted here.
func (e *Engine) RunOnce(ctx context.Context) (archive.RunReport, error) {
	report := archive.RunReport{RunID: uuid.NewString(), Started: e.clock.Now()}
	logger := e.logger.With(zap.String("run_id", report.RunID))

	logger.Info("refreshing metadata from upstream directory")
	records, err := e.directory.FetchDirectory(ctx)
	if err != nil {
		metrics.RecordRun("directory_failed")
		return report, fmt.Errorf("fetch directory: %w", err)
	}
	report.Units = len(records)
	metrics.RecordDirectoryUnits(len(records))
	logger.Info("fetched directory units", zap.Int("units", len(records)))

	stats, err := e.reconciler.Reconcile(ctx, records)
	if err != nil {
		metrics.RecordRun("reconcile_failed")
		return report, fmt.Errorf("reconcile directory: %w", err)
	}
	report.Agencies = stats.Agencies
	report.Offices = stats.Offices
	report.ReadingRooms = stats.ReadingRooms
	metrics.RecordReconciled("agency", stats.Agencies)
	metrics.RecordReconciled("office", stats.Offices)
	metrics.RecordReconciled("reading_room", stats.ReadingRooms)

	rooms, err := e.store.ListReadingRooms(ctx, e.cfg.RoomLimit)
	if err != nil {
		metrics.RecordRun("crawl_failed")
		return report, fmt.Errorf("list reading rooms: %w", err)
	}
	logger.Info("crawling reading rooms",
		zap.Int("rooms", len(rooms)), zap.String("mode", string(e.cfg.Mode)))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for _, room := range rooms {
		g.Go(func() error {
			roomReport, err := e.crawler.CrawlRoom(gctx, room.ID, e.cfg.Mode, e.cfg.MaxPerSource)
			if err != nil {
				return err
			}
			metrics.RecordRoomCrawled()
			mu.Lock()
			report.Merge(roomReport)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.RecordRun("crawl_failed")
		return report, fmt.Errorf("crawl reading rooms: %w", err)
	}

	report.Finished = e.clock.Now()
	metrics.RecordRun("ok")
	logger.Info("cycle complete",
		zap.Int("units", report.Units),
		zap.Int("agencies", report.Agencies),
		zap.Int("offices", report.Offices),
		zap.Int("reading_rooms", report.ReadingRooms),
		zap.Int("rooms_crawled", report.RoomsCrawled),
		zap.Int("rooms_failed", report.RoomsFailed),
		zap.Int("candidates", report.Candidates),
		zap.Int("discovered", report.Discovered),
		zap.Int("downloaded", report.Downloaded),
		zap.Int("download_failures", report.DownloadFailures),
		zap.Duration("elapsed", report.Finished.Sub(report.Started)),
	)
	return report, nil
}
