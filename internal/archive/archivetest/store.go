// Package archivetest provides in-memory fakes for the catalog interfaces.
// The fakes enforce the same natural-key uniqueness the real store does, so
// idempotency properties can be asserted without a database.
package archivetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mwhitaker/foia-archive/internal/archive"
)

// FakeStore is an in-memory archive.CatalogStore and archive.CatalogReader.
type FakeStore struct {
	mu sync.Mutex

	nextID   int64
	agencies map[string]*archive.Agency     // by slug
	offices  map[string]*archive.Office     // by slug
	rooms    map[string]*archive.ReadingRoom // by url
	docs     map[string]*archive.Document    // by url

	// Call counters, for asserting cache behavior in tests.
	AgencyUpserts int
	OfficeUpserts int
	RoomUpserts   int

	// Err, when set, is returned by every mutating call.
	Err error
}

// NewFakeStore returns an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		agencies: make(map[string]*archive.Agency),
		offices:  make(map[string]*archive.Office),
		rooms:    make(map[string]*archive.ReadingRoom),
		docs:     make(map[string]*archive.Document),
	}
}

func (s *FakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

// UpsertAgency implements archive.CatalogStore.
func (s *FakeStore) UpsertAgency(_ context.Context, slug, name string, raw []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	s.AgencyUpserts++
	if a, ok := s.agencies[slug]; ok {
		a.Raw = append([]byte(nil), raw...)
		return a.ID, nil
	}
	a := &archive.Agency{ID: s.id(), Slug: slug, Name: name, Raw: append([]byte(nil), raw...)}
	s.agencies[slug] = a
	return a.ID, nil
}

// UpsertOffice implements archive.CatalogStore.
func (s *FakeStore) UpsertOffice(_ context.Context, slug, name string, agencyID int64, raw []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	s.OfficeUpserts++
	if o, ok := s.offices[slug]; ok {
		o.Raw = append([]byte(nil), raw...)
		return o.ID, nil
	}
	o := &archive.Office{ID: s.id(), Slug: slug, Name: name, AgencyID: agencyID, Raw: append([]byte(nil), raw...)}
	s.offices[slug] = o
	return o.ID, nil
}

// UpsertReadingRoom implements archive.CatalogStore.
func (s *FakeStore) UpsertReadingRoom(_ context.Context, url, label string, level archive.Level, agencyID, officeID *int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	s.RoomUpserts++
	if r, ok := s.rooms[url]; ok {
		return r.ID, nil
	}
	r := &archive.ReadingRoom{ID: s.id(), URL: url, Label: label, Level: level, AgencyID: agencyID, OfficeID: officeID}
	s.rooms[url] = r
	return r.ID, nil
}

// GetReadingRoom implements archive.CatalogStore.
func (s *FakeStore) GetReadingRoom(_ context.Context, id int64) (archive.ReadingRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if r.ID == id {
			return *r, nil
		}
	}
	return archive.ReadingRoom{}, archive.ErrNotFound
}

// ListReadingRooms implements archive.CatalogStore and archive.CatalogReader.
func (s *FakeStore) ListReadingRooms(_ context.Context, limit int) ([]archive.ReadingRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]archive.ReadingRoom, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DocumentExists implements archive.CatalogStore.
func (s *FakeStore) DocumentExists(_ context.Context, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[url]
	return ok, nil
}

// InsertDocument implements archive.CatalogStore.
func (s *FakeStore) InsertDocument(_ context.Context, doc archive.Document) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, false, s.Err
	}
	if _, ok := s.docs[doc.URL]; ok {
		return 0, false, nil
	}
	d := doc
	d.ID = s.id()
	s.docs[doc.URL] = &d
	return d.ID, true, nil
}

// MarkDownloaded implements archive.CatalogStore.
func (s *FakeStore) MarkDownloaded(_ context.Context, documentID int64, localPath string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, d := range s.docs {
		if d.ID == documentID {
			p := localPath
			t := at
			d.LocalPath = &p
			d.DownloadedAt = &t
			return nil
		}
	}
	return archive.ErrNotFound
}

// TouchReadingRoom implements archive.CatalogStore.
func (s *FakeStore) TouchReadingRoom(_ context.Context, roomID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if r.ID == roomID {
			t := at
			r.LastCrawledAt = &t
			return nil
		}
	}
	return archive.ErrNotFound
}

// ListAgencies implements archive.CatalogReader.
func (s *FakeStore) ListAgencies(_ context.Context, limit, offset int) ([]archive.Agency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]archive.Agency, 0, len(s.agencies))
	for _, a := range s.agencies {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, limit, offset), nil
}

// ListOffices implements archive.CatalogReader.
func (s *FakeStore) ListOffices(_ context.Context, agencyID int64, limit, offset int) ([]archive.Office, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]archive.Office, 0, len(s.offices))
	for _, o := range s.offices {
		if agencyID > 0 && o.AgencyID != agencyID {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, limit, offset), nil
}

// ListDocuments implements archive.CatalogReader.
func (s *FakeStore) ListDocuments(_ context.Context, filter archive.DocumentFilter) ([]archive.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]archive.Document, 0, len(s.docs))
	for _, d := range s.docs {
		if filter.ReadingRoomID != nil && (d.ReadingRoomID == nil || *d.ReadingRoomID != *filter.ReadingRoomID) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(d.Title), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, filter.Limit, filter.Offset), nil
}

// Stats implements archive.CatalogReader.
func (s *FakeStore) Stats(_ context.Context) (archive.CatalogStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := archive.CatalogStats{
		Agencies:     int64(len(s.agencies)),
		Offices:      int64(len(s.offices)),
		ReadingRooms: int64(len(s.rooms)),
		Documents:    int64(len(s.docs)),
	}
	for _, d := range s.docs {
		if d.Downloaded() {
			st.Downloaded++
		}
	}
	return st, nil
}

// Counts returns current row counts, for idempotency assertions.
func (s *FakeStore) Counts() (agencies, offices, rooms, docs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.agencies), len(s.offices), len(s.rooms), len(s.docs)
}

// Agency returns the stored agency row for a slug, if any.
func (s *FakeStore) Agency(slug string) (archive.Agency, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agencies[slug]
	if !ok {
		return archive.Agency{}, false
	}
	return *a, true
}

// Room returns the stored reading room for a URL, if any.
func (s *FakeStore) Room(url string) (archive.ReadingRoom, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[url]
	if !ok {
		return archive.ReadingRoom{}, false
	}
	return *r, true
}

// Doc returns the stored document for a URL, if any.
func (s *FakeStore) Doc(url string) (archive.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[url]
	if !ok {
		return archive.Document{}, false
	}
	return *d, true
}

func window[T any](in []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return nil
		}
		in = in[offset:]
	}
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}
