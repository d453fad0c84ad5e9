package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mwhitaker/foia-archive/internal/archive"
	"github.com/mwhitaker/foia-archive/internal/catalog"
	"github.com/mwhitaker/foia-archive/internal/clock/system"
	"github.com/mwhitaker/foia-archive/internal/config"
	"github.com/mwhitaker/foia-archive/internal/directory"
	"github.com/mwhitaker/foia-archive/internal/engine"
	"github.com/mwhitaker/foia-archive/internal/lifecycle"
	"github.com/mwhitaker/foia-archive/internal/metrics"
	"github.com/mwhitaker/foia-archive/internal/pages"
	"github.com/mwhitaker/foia-archive/internal/reconcile"
	"github.com/mwhitaker/foia-archive/internal/storage"
)

// pipeline bundles the wired crawl stages plus the resources that need
// shutting down when the command exits.
type pipeline struct {
	engine *engine.Engine
	store  *catalog.Store
	blobs  archive.BlobStore
}

func (p *pipeline) close() {
	if closer, ok := p.blobs.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	p.store.Close()
}

// buildPipeline assembles the full crawl pipeline from configuration:
// catalog store (with schema), blob storage, directory client, page
// fetcher, lifecycle manager, and the engine on top.
func buildPipeline(ctx context.Context, cfg config.Config, mode archive.Mode, logger *zap.Logger) (*pipeline, error) {
	metrics.Init()

	store, err := catalog.New(ctx, catalog.Config{
		DSN:      cfg.DB.DSN,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("connect catalog: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	blobs, err := storage.New(ctx, cfg.Files, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init blob storage: %w", err)
	}

	dirClient, err := directory.New(directory.Config{
		BaseURL:       cfg.Hub.BaseURL,
		Timeout:       cfg.HubTimeout(),
		APIKey:        cfg.Hub.APIKey,
		RequireAPIKey: cfg.Hub.RequireAPIKey,
		UserAgent:     cfg.Crawler.UserAgent,
		PageSize:      cfg.Hub.PageSize,
		MaxPages:      cfg.Hub.MaxPages,
	}, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build directory client: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.Crawler.RequestsPerSecond), 1)
	fetcher := pages.NewFetcher(pages.Config{
		UserAgent:     cfg.Crawler.UserAgent,
		Timeout:       cfg.CrawlTimeout(),
		RespectRobots: cfg.Crawler.RespectRobots,
	}, limiter, logger)

	clk := system.New()
	manager := lifecycle.New(store, fetcher, blobs, clk, limiter, lifecycle.Config{
		UserAgent:       cfg.Crawler.UserAgent,
		DownloadTimeout: cfg.CrawlTimeout(),
		MaxPerSource:    cfg.Crawler.MaxDocsPerSource,
	}, logger)

	eng := engine.New(
		dirClient,
		reconcile.New(store, logger),
		store,
		manager,
		clk,
		engine.Config{
			Mode:         mode,
			MaxPerSource: cfg.Crawler.MaxDocsPerSource,
			RoomLimit:    cfg.Crawler.RoomLimit,
			Concurrency:  cfg.Crawler.Concurrency,
		},
		logger,
	)

	return &pipeline{engine: eng, store: store, blobs: blobs}, nil
}
