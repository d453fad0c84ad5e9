package pages

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mwhitaker/foia-archive/internal/archive"
)

// Document formats worth archiving. Anything else on a reading-room page is
// navigation, not content.
var allowedExtensions = map[string]struct{}{
	"pdf":  {},
	"doc":  {},
	"docx": {},
	"xls":  {},
	"xlsx": {},
	"zip":  {},
}

// ExtractCandidates parses hyperlinks out of a reading-room page, resolves
// each against the page's own URL, and keeps those whose path extension is in
// the document allow-list. Candidates come back in document order.
//
// Extension matching is case-insensitive and looks only at the final path
// segment; query strings and fragments are ignored for matching but preserved
// in the returned URL.
func ExtractCandidates(body []byte, base *url.URL) ([]archive.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var candidates []archive.Candidate
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if _, ok := allowedExtensions[PathExtension(abs.Path)]; !ok {
			return
		}
		title := strings.TrimSpace(sel.Text())
		if title == "" {
			title = abs.String()
		}
		candidates = append(candidates, archive.Candidate{URL: abs.String(), Title: title})
	})
	return candidates, nil
}

// PathExtension returns the lowercased extension of the final path segment,
// without the dot, or "" when the segment has none.
func PathExtension(p string) string {
	ext := path.Ext(path.Base(p))
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
