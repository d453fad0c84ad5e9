package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mwhitaker/foia-archive/internal/archive"
	"github.com/mwhitaker/foia-archive/internal/archive/archivetest"
)

func seedCatalog(t *testing.T) *archivetest.FakeStore {
	t.Helper()
	ctx := context.Background()
	store := archivetest.NewFakeStore()

	agencyID, err := store.UpsertAgency(ctx, "department-of-justice", "Department of Justice", nil)
	require.NoError(t, err)
	officeID, err := store.UpsertOffice(ctx, "doj-oip", "OIP", agencyID, nil)
	require.NoError(t, err)
	roomID, err := store.UpsertReadingRoom(ctx, "https://justice.example/foia", "OIP",
		archive.LevelOffice, &agencyID, &officeID)
	require.NoError(t, err)

	_, _, err = store.InsertDocument(ctx, archive.Document{
		URL:           "https://justice.example/report.pdf",
		Filename:      "report.pdf",
		FileType:      "pdf",
		Title:         "Annual Report",
		ReadingRoomID: &roomID,
		DiscoveredAt:  time.Unix(1700000000, 0),
	})
	require.NoError(t, err)
	_, _, err = store.InsertDocument(ctx, archive.Document{
		URL:           "https://justice.example/memo.docx",
		Filename:      "memo.docx",
		FileType:      "docx",
		Title:         "Staffing Memo",
		ReadingRoomID: &roomID,
		DiscoveredAt:  time.Unix(1700000100, 0),
	})
	require.NoError(t, err)
	return store
}

func doGET(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into))
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := NewServer(archivetest.NewFakeStore(), zap.NewNop())
	rec := doGET(t, srv.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := NewServer(archivetest.NewFakeStore(), zap.NewNop())
	rec := doGET(t, srv.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListAgenciesEndpoint(t *testing.T) {
	t.Parallel()

	srv := NewServer(seedCatalog(t), zap.NewNop())
	rec := doGET(t, srv.Handler(), "/api/agencies")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Agencies []archive.Agency `json:"agencies"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Agencies, 1)
	assert.Equal(t, "department-of-justice", body.Agencies[0].Slug)
}

func TestListOfficesEndpointFiltersByAgency(t *testing.T) {
	t.Parallel()

	srv := NewServer(seedCatalog(t), zap.NewNop())

	rec := doGET(t, srv.Handler(), "/api/offices?agency_id=999")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Offices []archive.Office `json:"offices"`
	}
	decode(t, rec, &body)
	assert.Empty(t, body.Offices)

	rec = doGET(t, srv.Handler(), "/api/offices")
	decode(t, rec, &body)
	assert.Len(t, body.Offices, 1)
}

func TestListDocumentsEndpointSearch(t *testing.T) {
	t.Parallel()

	srv := NewServer(seedCatalog(t), zap.NewNop())
	rec := doGET(t, srv.Handler(), "/api/documents?q=memo")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Documents []archive.Document `json:"documents"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Documents, 1)
	assert.Equal(t, "Staffing Memo", body.Documents[0].Title)
}

func TestListDocumentsEndpointBadRoomID(t *testing.T) {
	t.Parallel()

	srv := NewServer(seedCatalog(t), zap.NewNop())
	rec := doGET(t, srv.Handler(), "/api/documents?reading_room_id=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmptyListsRenderAsArrays(t *testing.T) {
	t.Parallel()

	srv := NewServer(archivetest.NewFakeStore(), zap.NewNop())
	rec := doGET(t, srv.Handler(), "/api/documents")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"documents":[]}`, rec.Body.String())
}

func TestStatsEndpoint(t *testing.T) {
	t.Parallel()

	srv := NewServer(seedCatalog(t), zap.NewNop())
	rec := doGET(t, srv.Handler(), "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats archive.CatalogStats
	decode(t, rec, &stats)
	assert.Equal(t, int64(1), stats.Agencies)
	assert.Equal(t, int64(2), stats.Documents)
	assert.Equal(t, int64(0), stats.Downloaded)
}
