package catalog

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitaker/foia-archive/internal/archive"
)

func TestLimitOffset(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", limitOffset(0, 0))
	assert.Equal(t, " LIMIT 10", limitOffset(10, 0))
	assert.Equal(t, " LIMIT 10 OFFSET 20", limitOffset(10, 20))
	assert.Equal(t, " OFFSET 5", limitOffset(0, 5))
}

func TestListAgencies(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, slug, name FROM agencies ORDER BY id LIMIT 2").
		WillReturnRows(pgxmock.NewRows([]string{"id", "slug", "name"}).
			AddRow(int64(1), "department-of-justice", "Department of Justice").
			AddRow(int64(2), "department-of-state", "Department of State"))

	agencies, err := store.ListAgencies(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Len(t, agencies, 2)
	assert.Equal(t, "department-of-justice", agencies[0].Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOfficesFiltersByAgency(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, slug, name, agency_id FROM offices WHERE agency_id").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "slug", "name", "agency_id"}).
			AddRow(int64(11), "doj-oip", "OIP", int64(7)))

	offices, err := store.ListOffices(context.Background(), 7, 0, 0)
	require.NoError(t, err)
	require.Len(t, offices, 1)
	assert.Equal(t, int64(7), offices[0].AgencyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDocumentsFilters(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	roomID := int64(3)
	discovered := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`AND reading_room_id = \$1 AND \(title ILIKE \$2 OR filename ILIKE \$2\)`).
		WithArgs(int64(3), "%report%").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "url", "local_path", "filename", "file_type", "title", "description",
			"agency_id", "office_id", "reading_room_id", "published_date", "discovered_at", "downloaded_at",
		}).AddRow(int64(21), "https://justice.example/a.pdf", (*string)(nil), "a.pdf", "pdf",
			"Annual Report", (*string)(nil), (*int64)(nil), (*int64)(nil), &roomID,
			(*time.Time)(nil), discovered, (*time.Time)(nil)))

	docs, err := store.ListDocuments(context.Background(), archive.DocumentFilter{
		ReadingRoomID: &roomID,
		Search:        "report",
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Annual Report", docs[0].Title)
	assert.False(t, docs[0].Downloaded())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStats(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT").
		WillReturnRows(pgxmock.NewRows([]string{"a", "o", "r", "d", "dl"}).
			AddRow(int64(2), int64(5), int64(6), int64(40), int64(12)))

	st, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.Agencies)
	assert.Equal(t, int64(12), st.Downloaded)
	assert.NoError(t, mock.ExpectationsWereMet())
}
