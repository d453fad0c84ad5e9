// Package storage selects and constructs the blob storage backend that holds
// downloaded document bytes. The catalog only records the location string the
// backend returns, so backends are interchangeable.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mwhitaker/foia-archive/internal/archive"
	"github.com/mwhitaker/foia-archive/internal/storage/gcs"
	"github.com/mwhitaker/foia-archive/internal/storage/local"
)

// Config selects the backend and its parameters.
type Config struct {
	// Provider is "local" or "gcs".
	Provider string `mapstructure:"provider"`
	// BaseDir is the root directory for the local backend.
	BaseDir string `mapstructure:"base_dir"`
	// Bucket and Prefix configure the GCS backend.
	Bucket string `mapstructure:"gcs_bucket"`
	Prefix string `mapstructure:"prefix"`
}

// NoOp discards writes. Used in simulate-heavy setups and tests.
type NoOp struct{}

// Save implements archive.BlobStore and does nothing.
func (NoOp) Save(_ context.Context, objectName string, _ []byte) (string, error) {
	return "noop://" + objectName, nil
}

// New builds the configured blob store, failing fast on a bad backend.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (archive.BlobStore, error) {
	switch cfg.Provider {
	case "", "local":
		logger.Info("using local file storage", zap.String("base_dir", cfg.BaseDir))
		return local.New(local.Config{BaseDir: cfg.BaseDir})
	case "gcs":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("files.provider is 'gcs' but files.gcs_bucket is not set")
		}
		logger.Info("using GCS storage", zap.String("bucket", cfg.Bucket))
		return gcs.New(ctx, gcs.Config{Bucket: cfg.Bucket, Prefix: cfg.Prefix})
	default:
		return nil, fmt.Errorf("unknown files.provider %q", cfg.Provider)
	}
}
