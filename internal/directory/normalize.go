package directory

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/mwhitaker/foia-archive/internal/archive"
)

// Well-known attribute keys checked, in order, before the generic scan.
var priorityURLKeys = []string{
	"foia_library",
	"foia_library_url",
	"reading_room",
	"reading_room_url",
	"public_reading_room",
	"library",
	"library_url",
	"website",
	"request_form",
}

var agencyNameKeys = []string{"department", "department_name", "agency", "agency_name"}

var officeNameKeys = []string{"name", "office", "component", "bureau_name", "title"}

// unit pairs the scannable field set of one directory entry with the payload
// preserved for audit. agencyName is pre-resolved for JSON:API resources that
// reference their agency through a relationship.
type unit struct {
	fields     Value
	raw        Value
	agencyName string
}

// normalizePage breaks a fetched payload into units plus pagination hints.
// paged is true only for resource collections that may continue on a further
// page via an offset cursor.
func normalizePage(page Value, logger *zap.Logger) (units []unit, next string, paged bool) {
	switch page.Kind {
	case KindList:
		return unitsFromList(page.List, logger), "", false
	case KindMap:
		if keyed, ok := page.Field("foia_units"); ok {
			if keyed.Kind == KindList {
				return unitsFromList(keyed.List, logger), "", false
			}
			logger.Warn("unexpected foia_units payload shape", zap.Int("kind", int(keyed.Kind)))
			return nil, "", false
		}
		if data, ok := page.Field("data"); ok {
			included := indexIncluded(page)
			switch data.Kind {
			case KindList:
				for _, res := range data.List {
					u, ok := resourceUnit(res, included, logger)
					if !ok {
						continue
					}
					units = append(units, u)
				}
			case KindMap:
				if u, ok := resourceUnit(data, included, logger); ok {
					units = append(units, u)
				}
			default:
				logger.Warn("unexpected data payload shape", zap.Int("kind", int(data.Kind)))
			}
			return units, nextLink(page), true
		}
		// A bare map without collection markers is treated as one unit.
		return unitsFromList([]Value{page}, logger), "", false
	}
	logger.Warn("unexpected directory payload shape", zap.Int("kind", int(page.Kind)))
	return nil, "", false
}

func unitsFromList(list []Value, logger *zap.Logger) []unit {
	units := make([]unit, 0, len(list))
	for _, item := range list {
		if item.Kind != KindMap {
			logger.Warn("skipping non-object directory entry", zap.Int("kind", int(item.Kind)))
			continue
		}
		units = append(units, unit{fields: item, raw: item})
	}
	return units
}

// resourceUnit flattens a JSON:API resource into a scannable unit. The
// attribute map is merged with the resource id so natural-key derivation sees
// the upstream identifier.
func resourceUnit(res Value, included map[string]string, logger *zap.Logger) (unit, bool) {
	if res.Kind != KindMap {
		logger.Warn("skipping non-object resource", zap.Int("kind", int(res.Kind)))
		return unit{}, false
	}
	fields := Value{Kind: KindMap, Map: map[string]Value{}}
	if attrs, ok := res.Field("attributes"); ok && attrs.Kind == KindMap {
		for k, v := range attrs.Map {
			fields.Map[k] = v
		}
	}
	if id := res.FieldText("id"); id != "" {
		fields.Map["id"] = Value{Kind: KindString, Str: id}
	}
	return unit{fields: fields, raw: res, agencyName: resolveAgency(res, included)}, true
}

// indexIncluded builds a type:id lookup of display names from the page-local
// included side-table.
func indexIncluded(page Value) map[string]string {
	out := map[string]string{}
	inc, ok := page.Field("included")
	if !ok || inc.Kind != KindList {
		return out
	}
	for _, res := range inc.List {
		if res.Kind != KindMap {
			continue
		}
		id := res.FieldText("id")
		typ := res.FieldText("type")
		if id == "" {
			continue
		}
		name := ""
		if attrs, ok := res.Field("attributes"); ok {
			for _, key := range []string{"name", "title", "abbreviation"} {
				if name = attrs.FieldText(key); name != "" {
					break
				}
			}
		}
		if name == "" {
			continue
		}
		out[typ+":"+id] = name
	}
	return out
}

// resolveAgency follows the resource's agency relationship into the included
// index. Unresolved references fall back to the raw identifier as a display
// name rather than failing the fetch.
func resolveAgency(res Value, included map[string]string) string {
	rels, ok := res.Field("relationships")
	if !ok {
		return ""
	}
	rel, ok := rels.Field("agency")
	if !ok {
		return ""
	}
	data, ok := rel.Field("data")
	if !ok {
		return ""
	}
	id := data.FieldText("id")
	if id == "" {
		return ""
	}
	typ := data.FieldText("type")
	if name, ok := included[typ+":"+id]; ok {
		return name
	}
	return id
}

func nextLink(page Value) string {
	links, ok := page.Field("links")
	if !ok {
		return ""
	}
	next, ok := links.Field("next")
	if !ok {
		return ""
	}
	switch next.Kind {
	case KindString:
		return next.Str
	case KindMap:
		return next.FieldText("href")
	}
	return ""
}

// record normalizes a unit into the tuple the reconciler consumes.
func (u unit) record(logger *zap.Logger) archive.DirectoryRecord {
	rec := archive.DirectoryRecord{
		AgencyName: u.agencyName,
		NaturalKey: u.fields.FieldText("id"),
		URLs:       extractURLs(u.fields),
	}
	if rec.AgencyName == "" {
		for _, key := range agencyNameKeys {
			if rec.AgencyName = u.fields.FieldText(key); rec.AgencyName != "" {
				break
			}
		}
	}
	for _, key := range officeNameKeys {
		if rec.OfficeName = u.fields.FieldText(key); rec.OfficeName != "" {
			break
		}
	}
	raw, err := json.Marshal(u.raw)
	if err != nil {
		logger.Warn("failed to preserve raw payload", zap.Error(err))
	} else {
		rec.Raw = raw
	}
	return rec
}

// extractURLs collects candidate reading-room URLs from one unit: the
// well-known attribute keys first, then a generic recursive scan of every
// string field. Duplicates are suppressed by exact string match; upstream
// casing and query strings are preserved.
func extractURLs(fields Value) []string {
	var urls []string
	seen := map[string]struct{}{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if !strings.HasPrefix(s, "http") {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		urls = append(urls, s)
	}
	for _, key := range priorityURLKeys {
		v, ok := fields.Field(key)
		if !ok {
			continue
		}
		switch v.Kind {
		case KindString:
			add(v.Str)
		case KindList:
			for _, item := range v.List {
				if item.Kind == KindString {
					add(item.Str)
				}
			}
		}
	}
	WalkStrings(fields, add)
	return urls
}
