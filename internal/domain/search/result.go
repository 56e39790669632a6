// Package search contains the domain model for screening searches: the
// bounded search result shape, the stored search record with its lifecycle
// states, and the per-result analysis attached when scoring completes.
package search

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Field bounds applied by every gateway before a result enters the system.
const (
	MaxTitleLen   = 200
	MaxURLLen     = 500
	MaxSnippetLen = 500

	// MaxCorpusSnippetLen is the wider snippet bound for the internal corpus
	// gateway, whose documents carry longer abstracts.
	MaxCorpusSnippetLen = 1000
)

// Result is a single bounded search hit.  Position is 1-based rank within
// the originating response; Query records which generated query produced it.
type Result struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
	Query    string `json:"query,omitempty"`
}

// Bounded returns a copy of r with title, url, and snippet truncated to the
// given snippet bound and the standard title/url bounds.
func (r Result) Bounded(maxSnippet int) Result {
	r.Title = Truncate(r.Title, MaxTitleLen)
	r.URL = Truncate(r.URL, MaxURLLen)
	r.Snippet = Truncate(r.Snippet, maxSnippet)
	return r
}

// Truncate cuts s to at most n bytes.  Bounds here exist to cap storage and
// prompt size, not to split grapheme clusters nicely, so a byte cut matches
// the storage contract.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

// QueryHash returns the lower-cased md5 digest of the query.  It is a
// secondary index value for idempotency checks and lookups; it is never the
// record's primary key, so hash collisions cannot overwrite unrelated
// records.
func QueryHash(query string) string {
	sum := md5.Sum([]byte(strings.ToLower(query)))
	return hex.EncodeToString(sum[:])
}
