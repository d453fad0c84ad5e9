// Package gcs implements a Google Cloud Storage blob store.
package gcs

import (
	"context"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
)

// Config captures the parameters for the GCS blob store.
type Config struct {
	Bucket string `mapstructure:"gcs_bucket"`
	Prefix string `mapstructure:"prefix"`
}

// BlobStore writes document bytes to a GCS bucket.
type BlobStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// New initializes a GCS client and verifies the bucket is reachable.
// Authentication uses Application Default Credentials.
func New(ctx context.Context, cfg Config) (*BlobStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	// Fail fast on startup if the bucket is misconfigured.
	if _, err := client.Bucket(cfg.Bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("get gcs bucket %q attributes: %w", cfg.Bucket, err)
	}
	return &BlobStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Save uploads data to the bucket and returns a gs:// URI.
func (s *BlobStore) Save(ctx context.Context, objectName string, data []byte) (string, error) {
	name := objectName
	if s.prefix != "" {
		name = path.Join(s.prefix, objectName)
	}
	wc := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	if _, err := wc.Write(data); err != nil {
		// Close anyway to release the upload session; the write error wins.
		_ = wc.Close()
		return "", fmt.Errorf("write gcs object %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("close gcs writer for %s: %w", name, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, name), nil
}

// Close releases the underlying client.
func (s *BlobStore) Close() error {
	return s.client.Close()
}
