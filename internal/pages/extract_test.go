package pages

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestExtractCandidatesFiltersByExtension(t *testing.T) {
	t.Parallel()

	page := []byte(`<html><body>
		<a href="a.pdf">Annual Report</a>
		<a href="b.exe">Installer</a>
		<a href="c.DOCX">Memo</a>
		<a href="d">Index</a>
		<a href="e.pdf?x=1">Log</a>
	</body></html>`)

	got, err := ExtractCandidates(page, mustParse(t, "https://agency.example/library/"))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "https://agency.example/library/a.pdf", got[0].URL)
	assert.Equal(t, "Annual Report", got[0].Title)
	assert.Equal(t, "https://agency.example/library/c.DOCX", got[1].URL)
	assert.Equal(t, "Memo", got[1].Title)
	// Query strings do not defeat extension matching and are kept in the URL.
	assert.Equal(t, "https://agency.example/library/e.pdf?x=1", got[2].URL)
}

func TestExtractCandidatesResolvesRelativeAndAbsolute(t *testing.T) {
	t.Parallel()

	page := []byte(`<html><body>
		<a href="/docs/root.pdf">Rooted</a>
		<a href="https://other.example/far.zip">Elsewhere</a>
		<a href="../up.xlsx">Up</a>
	</body></html>`)

	got, err := ExtractCandidates(page, mustParse(t, "https://agency.example/library/sub/"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "https://agency.example/docs/root.pdf", got[0].URL)
	assert.Equal(t, "https://other.example/far.zip", got[1].URL)
	assert.Equal(t, "https://agency.example/library/up.xlsx", got[2].URL)
}

func TestExtractCandidatesTitleFallsBackToURL(t *testing.T) {
	t.Parallel()

	page := []byte(`<a href="report.pdf">   </a>`)
	got, err := ExtractCandidates(page, mustParse(t, "https://agency.example/"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://agency.example/report.pdf", got[0].Title)
}

func TestExtractCandidatesSkipsEmptyAndUnparsableHrefs(t *testing.T) {
	t.Parallel()

	page := []byte(`<body>
		<a href="">Blank</a>
		<a href="   ">Spaces</a>
		<a href="https://bad.example/%zz.pdf">Broken</a>
		<a href="fine.pdf">Fine</a>
	</body>`)
	got, err := ExtractCandidates(page, mustParse(t, "https://agency.example/"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Fine", got[0].Title)
}

func TestPathExtension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pdf", PathExtension("/docs/report.pdf"))
	assert.Equal(t, "docx", PathExtension("/docs/Memo.DOCX"))
	assert.Equal(t, "", PathExtension("/docs/readme"))
	assert.Equal(t, "", PathExtension("/"))
	assert.Equal(t, "gz", PathExtension("/archive.tar.gz"))
}
