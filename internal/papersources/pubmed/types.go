// Package pubmed implements the search and fetch operations against the NCBI
// PubMed E-utilities API.
//
// Search resolves a query with esearch.fcgi and joins the identifiers with
// esummary.fcgi entries (both JSON). Fetch reads one efetch.fcgi document
// (XML) and extracts title, journal, year and abstract.
//
// The E-utilities API documentation is available at:
// https://www.ncbi.nlm.nih.gov/books/NBK25499/
package pubmed

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoSummary is returned by ESummaryResponse.Summary when esummary has no
// entry for the identifier.
var ErrNoSummary = errors.New("no summary entry")

// ESearchResponse is the JSON envelope returned by esearch.fcgi.
type ESearchResponse struct {
	ESearchResult *ESearchResult `json:"esearchresult"`
}

// ESearchResult holds the identifier list of a search and the query as
// Entrez interpreted it.
type ESearchResult struct {
	IDList           []string `json:"idlist"`
	QueryTranslation string   `json:"querytranslation,omitempty"`
}

// IDs returns the identifier list, or nil when the response carried none.
func (r *ESearchResponse) IDs() []string {
	if r == nil || r.ESearchResult == nil {
		return nil
	}
	return r.ESearchResult.IDList
}

// ESummaryResponse is the JSON envelope returned by esummary.fcgi.
// Result maps each UID to its summary; it also carries a "uids" array,
// which is why entries are decoded lazily.
type ESummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

// DocSummary is one esummary entry.
type DocSummary struct {
	Title           string `json:"title"`
	Source          string `json:"source"`
	FullJournalName string `json:"fulljournalname"`
	PubDate         string `json:"pubdate"`
	// Error is set by esummary for identifiers it could not resolve.
	Error string `json:"error,omitempty"`
}

// Summary returns the entry for pmid. A missing entry yields ErrNoSummary;
// an entry that does not decode yields the decode error. Both come with a
// zero DocSummary.
func (r *ESummaryResponse) Summary(pmid string) (DocSummary, error) {
	if r == nil {
		return DocSummary{}, ErrNoSummary
	}
	raw, ok := r.Result[pmid]
	if !ok {
		return DocSummary{}, ErrNoSummary
	}
	var doc DocSummary
	if err := json.Unmarshal(raw, &doc); err != nil {
		return DocSummary{}, fmt.Errorf("decode summary for %s: %w", pmid, err)
	}
	return doc, nil
}

// QueryTranslation returns how Entrez interpreted the search term.
func (r *ESearchResponse) QueryTranslation() string {
	if r == nil || r.ESearchResult == nil {
		return ""
	}
	return r.ESearchResult.QueryTranslation
}

// Journal prefers the full journal name over the abbreviated source.
func (d DocSummary) Journal() string {
	if d.FullJournalName != "" {
		return d.FullJournalName
	}
	return d.Source
}
