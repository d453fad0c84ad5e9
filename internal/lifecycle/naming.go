package lifecycle

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/mwhitaker/foia-archive/internal/pages"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// cleanFilename strips everything outside a conservative character set.
func cleanFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	if name == "" {
		return "document"
	}
	return name
}

// filenameHint extracts the final path segment of a document URL.
func filenameHint(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "document"
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return "document"
	}
	return base
}

// objectName derives the storage name for a document: a short digest of the
// exact source URL plus a sanitized filename hint. Repeat downloads of the
// same URL always target the same name.
func objectName(rawURL, hint string) string {
	sum := sha1.Sum([]byte(rawURL))
	digest := hex.EncodeToString(sum[:])[:10]
	safe := cleanFilename(hint)

	name := digest + "_" + strings.TrimSuffix(safe, path.Ext(safe))
	if ext := pages.PathExtension(hint); ext != "" {
		name += "." + ext
	}
	return name
}
