// Package archive defines the core catalog entities and the interfaces shared
// by the discovery and crawl subsystems.
package archive

import (
	"encoding/json"
	"fmt"
	"time"
)

// Level distinguishes agency-level from office-level reading rooms.
type Level string

// Reading room levels persisted in the catalog.
const (
	LevelAgency Level = "agency"
	LevelOffice Level = "office"
)

// Mode selects how a crawl pass treats newly discovered documents.
type Mode string

// Crawl execution modes.
const (
	// ModeSimulate records discoveries without fetching document bytes and
	// honors the per-source cap. Useful for inspecting a room before
	// committing to downloads.
	ModeSimulate Mode = "simulate"
	// ModeExecute downloads every newly discovered document; the per-source
	// cap does not apply so that coverage is always complete.
	ModeExecute Mode = "execute"
)

// ParseMode validates a mode string from config or CLI flags.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSimulate, ModeExecute:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid crawl mode %q (want %q or %q)", s, ModeSimulate, ModeExecute)
	}
}

// Agency is a top-level government entity. The slug is the natural key; once
// created the row is never deleted, only its raw payload is refreshed.
type Agency struct {
	ID   int64           `json:"id"`
	Slug string          `json:"slug"`
	Name string          `json:"name"`
	Raw  json.RawMessage `json:"-"`
}

// Office is a subordinate unit of exactly one Agency.
type Office struct {
	ID       int64           `json:"id"`
	Slug     string          `json:"slug"`
	Name     string          `json:"name"`
	AgencyID int64           `json:"agency_id"`
	Raw      json.RawMessage `json:"-"`
}

// ReadingRoom is a crawlable URL an agency or office publishes documents
// under. The URL is unique across the whole catalog regardless of which
// agency or office referenced it first.
type ReadingRoom struct {
	ID            int64      `json:"id"`
	URL           string     `json:"url"`
	Label         string     `json:"label"`
	Level         Level      `json:"level"`
	AgencyID      *int64     `json:"agency_id,omitempty"`
	OfficeID      *int64     `json:"office_id,omitempty"`
	LastCrawledAt *time.Time `json:"last_crawled_at,omitempty"`
}

// Document is a single discovered file artifact. LocalPath and DownloadedAt
// are both nil until a download succeeds, then both set together.
type Document struct {
	ID            int64      `json:"id"`
	URL           string     `json:"url"`
	LocalPath     *string    `json:"local_path,omitempty"`
	Filename      string     `json:"filename"`
	FileType      string     `json:"file_type"`
	Title         string     `json:"title"`
	Description   *string    `json:"description,omitempty"`
	AgencyID      *int64     `json:"agency_id,omitempty"`
	OfficeID      *int64     `json:"office_id,omitempty"`
	ReadingRoomID *int64     `json:"reading_room_id,omitempty"`
	PublishedDate *string    `json:"published_date,omitempty"`
	DiscoveredAt  time.Time  `json:"discovered_at"`
	DownloadedAt  *time.Time `json:"downloaded_at,omitempty"`
}

// Downloaded reports whether the document has advanced past discovery.
func (d Document) Downloaded() bool {
	return d.LocalPath != nil && d.DownloadedAt != nil
}

// DirectoryRecord is one normalized unit emitted by the directory client.
// It isolates the reconciler from the upstream wire format.
type DirectoryRecord struct {
	AgencyName string
	OfficeName string
	// NaturalKey is the upstream-provided stable identifier for the office,
	// empty when the upstream payload carries none.
	NaturalKey string
	// URLs are candidate reading-room URLs, exact strings, deduplicated
	// case-sensitively within the record.
	URLs []string
	Raw  json.RawMessage
}

// Candidate is a hyperlink found on a reading-room page that matched the
// document extension allow-list.
type Candidate struct {
	URL   string
	Title string
}

// DocumentFilter narrows read-only document listings.
type DocumentFilter struct {
	Search        string
	ReadingRoomID *int64
	Limit         int
	Offset        int
}

// CatalogStats summarizes catalog row counts for the browse surface.
type CatalogStats struct {
	Agencies     int64 `json:"agencies"`
	Offices      int64 `json:"offices"`
	ReadingRooms int64 `json:"reading_rooms"`
	Documents    int64 `json:"documents"`
	Downloaded   int64 `json:"downloaded"`
}

// RoomReport counts the outcome of one reading-room crawl pass.
type RoomReport struct {
	RoomID           int64
	Candidates       int
	Discovered       int
	Downloaded       int
	DownloadFailures int
	FetchFailed      bool
}

// RunReport aggregates one full discovery-and-crawl cycle.
type RunReport struct {
	RunID            string
	Units            int
	Agencies         int
	Offices          int
	ReadingRooms     int
	RoomsCrawled     int
	RoomsFailed      int
	Candidates       int
	Discovered       int
	Downloaded       int
	DownloadFailures int
	Started          time.Time
	Finished         time.Time
}

// Merge folds a room report into the run totals.
func (r *RunReport) Merge(room RoomReport) {
	r.RoomsCrawled++
	if room.FetchFailed {
		r.RoomsFailed++
	}
	r.Candidates += room.Candidates
	r.Discovered += room.Discovered
	r.Downloaded += room.Downloaded
	r.DownloadFailures += room.DownloadFailures
}
