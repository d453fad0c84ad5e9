package archive

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by store lookups when no row matches.
var ErrNotFound = errors.New("not found")

// CatalogStore is the write-side contract over the durable catalog. Every
// insert-or-fetch is idempotent: the natural-key uniqueness constraint at the
// storage layer absorbs races and re-runs.
type CatalogStore interface {
	// UpsertAgency inserts or fetches an agency by slug, refreshing the raw
	// payload either way, and returns its identity.
	UpsertAgency(ctx context.Context, slug, name string, raw []byte) (int64, error)

	// UpsertOffice inserts or fetches an office by slug under an agency.
	UpsertOffice(ctx context.Context, slug, name string, agencyID int64, raw []byte) (int64, error)

	// UpsertReadingRoom inserts or fetches a reading room keyed by the exact
	// URL string.
	UpsertReadingRoom(ctx context.Context, url, label string, level Level, agencyID, officeID *int64) (int64, error)

	// GetReadingRoom returns one room or ErrNotFound.
	GetReadingRoom(ctx context.Context, id int64) (ReadingRoom, error)

	// ListReadingRooms returns rooms ordered by identity; limit <= 0 means all.
	ListReadingRooms(ctx context.Context, limit int) ([]ReadingRoom, error)

	// DocumentExists reports whether a document URL is already cataloged.
	DocumentExists(ctx context.Context, url string) (bool, error)

	// InsertDocument inserts a newly discovered document. When the URL is
	// already present the insert is a no-op and inserted is false.
	InsertDocument(ctx context.Context, doc Document) (id int64, inserted bool, err error)

	// MarkDownloaded records a successful byte retrieval.
	MarkDownloaded(ctx context.Context, documentID int64, localPath string, at time.Time) error

	// TouchReadingRoom updates the room's last-crawled timestamp.
	TouchReadingRoom(ctx context.Context, roomID int64, at time.Time) error
}

// CatalogReader is the read-only projection consumed by the browse surface.
type CatalogReader interface {
	ListAgencies(ctx context.Context, limit, offset int) ([]Agency, error)
	ListOffices(ctx context.Context, agencyID int64, limit, offset int) ([]Office, error)
	ListReadingRooms(ctx context.Context, limit int) ([]ReadingRoom, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]Document, error)
	Stats(ctx context.Context) (CatalogStats, error)
}

// DirectoryClient fetches and normalizes the upstream agency directory.
type DirectoryClient interface {
	FetchDirectory(ctx context.Context) ([]DirectoryRecord, error)
}

// PageFetcher retrieves a reading-room page and extracts document candidates.
type PageFetcher interface {
	FetchCandidates(ctx context.Context, pageURL string) ([]Candidate, error)
}

// BlobStore writes document bytes to durable storage and returns the stored
// location.
type BlobStore interface {
	Save(ctx context.Context, objectName string, data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
