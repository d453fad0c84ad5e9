package catalog

// The four catalog tables. Natural-key uniqueness (agency slug, office slug,
// room URL, document URL) is enforced here; it is the authoritative guard
// behind every insert-or-fetch and document dedup decision.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS agencies (
	id BIGSERIAL PRIMARY KEY,
	slug TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	raw_json JSONB
)`,
	`CREATE TABLE IF NOT EXISTS offices (
	id BIGSERIAL PRIMARY KEY,
	slug TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	agency_id BIGINT NOT NULL REFERENCES agencies(id),
	raw_json JSONB
)`,
	`CREATE TABLE IF NOT EXISTS reading_rooms (
	id BIGSERIAL PRIMARY KEY,
	url TEXT NOT NULL UNIQUE,
	label TEXT NOT NULL,
	level TEXT NOT NULL,
	agency_id BIGINT REFERENCES agencies(id),
	office_id BIGINT REFERENCES offices(id),
	last_crawled_at TIMESTAMPTZ
)`,
	`CREATE TABLE IF NOT EXISTS documents (
	id BIGSERIAL PRIMARY KEY,
	url TEXT NOT NULL UNIQUE,
	local_path TEXT,
	filename TEXT NOT NULL,
	file_type TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	agency_id BIGINT REFERENCES agencies(id),
	office_id BIGINT REFERENCES offices(id),
	reading_room_id BIGINT REFERENCES reading_rooms(id),
	published_date TEXT,
	discovered_at TIMESTAMPTZ NOT NULL,
	downloaded_at TIMESTAMPTZ
)`,
	`CREATE INDEX IF NOT EXISTS documents_reading_room_idx ON documents (reading_room_id)`,
}
