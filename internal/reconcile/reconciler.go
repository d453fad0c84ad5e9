// Package reconcile maps normalized directory records onto the locally owned
// agency/office/reading-room graph, assigning or reusing stable identities.
package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mwhitaker/foia-archive/internal/archive"
)

// Fallback tokens for records whose upstream names do not survive slugifying.
// Whether such unlabeled records deserve archiving at all is unresolved
// upstream ambiguity; they are kept, under these synthetic identities, and
// logged so the decision remains auditable.
const (
	fallbackAgencySlug = "agency"
	fallbackOfficeName = "office"
	fallbackRoomLabel  = "Reading Room"
)

// Stats counts entity upserts performed during one reconciliation pass.
type Stats struct {
	Records      int
	Agencies     int
	Offices      int
	ReadingRooms int
}

// Reconciler drives insert-or-fetch of catalog entities.
type Reconciler struct {
	store  archive.CatalogStore
	logger *zap.Logger
}

// New builds a Reconciler on top of the catalog store.
func New(store archive.CatalogStore, logger *zap.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// Reconcile applies every record to the catalog. It is idempotent: running
// it twice over the same snapshot creates no additional rows. Raw payloads
// are overwritten on every pass so stale metadata never persists silently.
//
// The agency cache is scoped to this call; it only saves redundant store
// round-trips within one pass and carries nothing across runs.
func (r *Reconciler) Reconcile(ctx context.Context, records []archive.DirectoryRecord) (Stats, error) {
	var stats Stats
	agencyIDs := make(map[string]int64)

	for _, rec := range records {
		stats.Records++

		agencySlug := Slugify(rec.AgencyName)
		if agencySlug == "" {
			agencySlug = fallbackAgencySlug
			r.logger.Warn("directory record without resolvable agency name",
				zap.String("office", rec.OfficeName))
		}
		agencyName := rec.AgencyName
		if agencyName == "" {
			agencyName = agencySlug
		}

		agencyID, cached := agencyIDs[agencySlug]
		if !cached {
			id, err := r.store.UpsertAgency(ctx, agencySlug, agencyName, rec.Raw)
			if err != nil {
				return stats, fmt.Errorf("upsert agency %q: %w", agencySlug, err)
			}
			agencyIDs[agencySlug] = id
			agencyID = id
			stats.Agencies++
		}

		// Prefer the upstream identifier; same-named offices in different
		// agencies would otherwise collide, so the fallback key embeds the
		// agency slug.
		officeKey := rec.NaturalKey
		if officeKey == "" {
			officeName := rec.OfficeName
			if officeName == "" {
				officeName = fallbackOfficeName
			}
			officeKey = Slugify(agencySlug + " " + officeName)
		}
		officeName := rec.OfficeName
		if officeName == "" {
			officeName = officeKey
		}
		officeID, err := r.store.UpsertOffice(ctx, officeKey, officeName, agencyID, rec.Raw)
		if err != nil {
			return stats, fmt.Errorf("upsert office %q: %w", officeKey, err)
		}
		stats.Offices++

		label := rec.OfficeName
		if label == "" {
			label = rec.AgencyName
		}
		if label == "" {
			label = fallbackRoomLabel
		}
		level := archive.LevelOffice
		if rec.OfficeName == "" {
			level = archive.LevelAgency
		}
		for _, roomURL := range rec.URLs {
			if _, err := r.store.UpsertReadingRoom(ctx, roomURL, label, level, &agencyID, &officeID); err != nil {
				return stats, fmt.Errorf("upsert reading room %q: %w", roomURL, err)
			}
			stats.ReadingRooms++
		}
	}
	return stats, nil
}
