package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mwhitaker/foia-archive/internal/archive"
)

// Read-only projections consumed by the browse surface. No pagination state
// lives server-side; callers pass limit/offset on every request.

// ListAgencies implements archive.CatalogReader.
func (s *Store) ListAgencies(ctx context.Context, limit, offset int) ([]archive.Agency, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, slug, name FROM agencies ORDER BY id`+limitOffset(limit, offset))
	if err != nil {
		return nil, fmt.Errorf("list agencies: %w", err)
	}
	defer rows.Close()

	var out []archive.Agency
	for rows.Next() {
		var a archive.Agency
		if err := rows.Scan(&a.ID, &a.Slug, &a.Name); err != nil {
			return nil, fmt.Errorf("scan agency: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListOffices implements archive.CatalogReader. agencyID <= 0 lists all.
func (s *Store) ListOffices(ctx context.Context, agencyID int64, limit, offset int) ([]archive.Office, error) {
	query := `SELECT id, slug, name, agency_id FROM offices`
	var args []any
	if agencyID > 0 {
		query += ` WHERE agency_id = $1`
		args = append(args, agencyID)
	}
	query += ` ORDER BY id` + limitOffset(limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list offices: %w", err)
	}
	defer rows.Close()

	var out []archive.Office
	for rows.Next() {
		var o archive.Office
		if err := rows.Scan(&o.ID, &o.Slug, &o.Name, &o.AgencyID); err != nil {
			return nil, fmt.Errorf("scan office: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListDocuments implements archive.CatalogReader.
func (s *Store) ListDocuments(ctx context.Context, filter archive.DocumentFilter) ([]archive.Document, error) {
	var query strings.Builder
	var args []any
	query.WriteString(`
SELECT id, url, local_path, filename, file_type, title, description,
	agency_id, office_id, reading_room_id, published_date, discovered_at, downloaded_at
FROM documents WHERE 1=1`)

	if filter.ReadingRoomID != nil {
		args = append(args, *filter.ReadingRoomID)
		fmt.Fprintf(&query, " AND reading_room_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		fmt.Fprintf(&query, " AND (title ILIKE $%d OR filename ILIKE $%d)", len(args), len(args))
	}
	query.WriteString(" ORDER BY id")
	query.WriteString(limitOffset(filter.Limit, filter.Offset))

	rows, err := s.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []archive.Document
	for rows.Next() {
		var d archive.Document
		if err := rows.Scan(&d.ID, &d.URL, &d.LocalPath, &d.Filename, &d.FileType, &d.Title,
			&d.Description, &d.AgencyID, &d.OfficeID, &d.ReadingRoomID,
			&d.PublishedDate, &d.DiscoveredAt, &d.DownloadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Stats implements archive.CatalogReader.
func (s *Store) Stats(ctx context.Context) (archive.CatalogStats, error) {
	var st archive.CatalogStats
	err := s.pool.QueryRow(ctx, `
SELECT
	(SELECT count(*) FROM agencies),
	(SELECT count(*) FROM offices),
	(SELECT count(*) FROM reading_rooms),
	(SELECT count(*) FROM documents),
	(SELECT count(*) FROM documents WHERE local_path IS NOT NULL)`).
		Scan(&st.Agencies, &st.Offices, &st.ReadingRooms, &st.Documents, &st.Downloaded)
	if err != nil {
		return archive.CatalogStats{}, fmt.Errorf("catalog stats: %w", err)
	}
	return st, nil
}

// limitOffset renders LIMIT/OFFSET clauses from validated integers. Values
// are embedded, not bound, to keep the positional argument numbering of the
// surrounding filters simple.
func limitOffset(limit, offset int) string {
	var b strings.Builder
	if limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(limit))
	}
	if offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(offset))
	}
	return b.String()
}
