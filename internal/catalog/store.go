// Package catalog provides the Postgres-backed durable store for agencies,
// offices, reading rooms, and documents.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwhitaker/foia-archive/internal/archive"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store implements archive.CatalogStore and archive.CatalogReader over
// Postgres. Every logical operation is a single statement, so each one is
// individually atomic and a run may be aborted between operations without
// corrupting state.
type Store struct {
	pool dbConn
}

var (
	_ archive.CatalogStore  = (*Store)(nil)
	_ archive.CatalogReader = (*Store)(nil)
)

// New connects a Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(pool dbConn) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the catalog tables when absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// upsertID is the single insert-or-fetch primitive behind all three entity
// upserts: the statement must be an INSERT ... ON CONFLICT ... RETURNING id,
// so the row identity comes back whether the row was created or matched.
func (s *Store) upsertID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// UpsertAgency implements archive.CatalogStore. The raw payload is refreshed
// on conflict so stale metadata never persists silently; identity and name
// remain stable.
func (s *Store) UpsertAgency(ctx context.Context, slug, name string, raw []byte) (int64, error) {
	id, err := s.upsertID(ctx, `
INSERT INTO agencies (slug, name, raw_json)
VALUES ($1, $2, $3)
ON CONFLICT (slug) DO UPDATE SET raw_json = EXCLUDED.raw_json
RETURNING id`, slug, name, raw)
	if err != nil {
		return 0, fmt.Errorf("upsert agency: %w", err)
	}
	return id, nil
}

// UpsertOffice implements archive.CatalogStore.
func (s *Store) UpsertOffice(ctx context.Context, slug, name string, agencyID int64, raw []byte) (int64, error) {
	id, err := s.upsertID(ctx, `
INSERT INTO offices (slug, name, agency_id, raw_json)
VALUES ($1, $2, $3, $4)
ON CONFLICT (slug) DO UPDATE SET raw_json = EXCLUDED.raw_json
RETURNING id`, slug, name, agencyID, raw)
	if err != nil {
		return 0, fmt.Errorf("upsert office: %w", err)
	}
	return id, nil
}

// UpsertReadingRoom implements archive.CatalogStore. On conflict the existing
// row wins unchanged; the no-op update only makes RETURNING yield the id.
func (s *Store) UpsertReadingRoom(ctx context.Context, url, label string, level archive.Level, agencyID, officeID *int64) (int64, error) {
	id, err := s.upsertID(ctx, `
INSERT INTO reading_rooms (url, label, level, agency_id, office_id)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (url) DO UPDATE SET url = EXCLUDED.url
RETURNING id`, url, label, string(level), agencyID, officeID)
	if err != nil {
		return 0, fmt.Errorf("upsert reading room: %w", err)
	}
	return id, nil
}

// GetReadingRoom implements archive.CatalogStore.
func (s *Store) GetReadingRoom(ctx context.Context, id int64) (archive.ReadingRoom, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, url, label, level, agency_id, office_id, last_crawled_at
FROM reading_rooms WHERE id = $1`, id)
	room, err := scanReadingRoom(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return archive.ReadingRoom{}, archive.ErrNotFound
	}
	if err != nil {
		return archive.ReadingRoom{}, fmt.Errorf("get reading room: %w", err)
	}
	return room, nil
}

// ListReadingRooms implements archive.CatalogStore and archive.CatalogReader.
func (s *Store) ListReadingRooms(ctx context.Context, limit int) ([]archive.ReadingRoom, error) {
	query := `
SELECT id, url, label, level, agency_id, office_id, last_crawled_at
FROM reading_rooms ORDER BY id`
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reading rooms: %w", err)
	}
	defer rows.Close()

	var out []archive.ReadingRoom
	for rows.Next() {
		room, err := scanReadingRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reading room: %w", err)
		}
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reading rooms: %w", err)
	}
	return out, nil
}

// DocumentExists implements archive.CatalogStore.
func (s *Store) DocumentExists(ctx context.Context, url string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM documents WHERE url = $1`, url).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("document exists: %w", err)
	}
	return true, nil
}

// InsertDocument implements archive.CatalogStore. ON CONFLICT DO NOTHING is
// the dedup guarantee: two in-flight inserts for one URL can both succeed at
// the call site, but only one row ever exists.
func (s *Store) InsertDocument(ctx context.Context, doc archive.Document) (int64, bool, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
INSERT INTO documents (
	url, filename, file_type, title, description,
	agency_id, office_id, reading_room_id, published_date, discovered_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (url) DO NOTHING
RETURNING id`,
		doc.URL, doc.Filename, doc.FileType, doc.Title, doc.Description,
		doc.AgencyID, doc.OfficeID, doc.ReadingRoomID, doc.PublishedDate, doc.DiscoveredAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("insert document: %w", err)
	}
	return id, true, nil
}

// MarkDownloaded implements archive.CatalogStore. local_path and
// downloaded_at are set together, keeping the lifecycle monotonic.
func (s *Store) MarkDownloaded(ctx context.Context, documentID int64, localPath string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE documents SET local_path = $1, downloaded_at = $2 WHERE id = $3`,
		localPath, at, documentID)
	if err != nil {
		return fmt.Errorf("mark downloaded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return archive.ErrNotFound
	}
	return nil
}

// TouchReadingRoom implements archive.CatalogStore.
func (s *Store) TouchReadingRoom(ctx context.Context, roomID int64, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE reading_rooms SET last_crawled_at = $1 WHERE id = $2`, at, roomID)
	if err != nil {
		return fmt.Errorf("touch reading room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return archive.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReadingRoom(row scanner) (archive.ReadingRoom, error) {
	var room archive.ReadingRoom
	var level string
	if err := row.Scan(&room.ID, &room.URL, &room.Label, &level,
		&room.AgencyID, &room.OfficeID, &room.LastCrawledAt); err != nil {
		return archive.ReadingRoom{}, err
	}
	room.Level = archive.Level(level)
	return room, nil
}
