// Package domain holds the records returned by the PubMed tools and the
// errors shared across layers.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PubMedBaseURL is the public article page prefix on pubmed.ncbi.nlm.nih.gov.
const PubMedBaseURL = "https://pubmed.ncbi.nlm.nih.gov/"

// ContentTypeText is the only content block kind produced by the tools.
const ContentTypeText = "text"

// CanonicalURL returns the public PubMed page for a PMID.
func CanonicalURL(pmid string) string {
	return PubMedBaseURL + pmid + "/"
}

// DisplayTitle returns the trimmed title, or "PMID:<pmid>" when it is empty.
func DisplayTitle(title, pmid string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return "PMID:" + pmid
}

// SearchMetadata is the per-record metadata of a search hit.
type SearchMetadata struct {
	Journal string `json:"journal"`
	PubDate string `json:"pubdate"`
}

// SearchRecord is a lightweight search hit built from an esummary entry.
type SearchRecord struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	URL      string         `json:"url"`
	Metadata SearchMetadata `json:"metadata"`
}

// NewSearchRecord builds a SearchRecord. Missing fields are passed as empty strings.
func NewSearchRecord(pmid, title, journal, pubDate string) SearchRecord {
	parts := make([]string, 0, 2)
	for _, s := range []string{journal, pubDate} {
		if s != "" {
			parts = append(parts, s)
		}
	}

	return SearchRecord{
		ID:    pmid,
		Title: DisplayTitle(title, pmid),
		Text:  strings.Join(parts, " / "),
		URL:   CanonicalURL(pmid),
		Metadata: SearchMetadata{
			Journal: journal,
			PubDate: pubDate,
		},
	}
}

// SearchResponse is the payload of the search tool.
type SearchResponse struct {
	Results []SearchRecord `json:"results"`
}

// EmptySearchResponse returns a response that encodes as {"results": []}.
func EmptySearchResponse() *SearchResponse {
	return &SearchResponse{Results: []SearchRecord{}}
}

// FetchMetadata is the metadata of a fetched record.
type FetchMetadata struct {
	Journal string `json:"journal"`
	Year    string `json:"year"`
}

// FetchRecord is the normalized full record of one article.
type FetchRecord struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Text     string        `json:"text"`
	URL      string        `json:"url"`
	Metadata FetchMetadata `json:"metadata"`
}

// NewFetchRecord builds a FetchRecord from the fields extracted from an efetch document.
func NewFetchRecord(pmid, title, journal, year, abstract string) FetchRecord {
	return FetchRecord{
		ID:    pmid,
		Title: DisplayTitle(title, pmid),
		Text:  strings.TrimSpace(fmt.Sprintf("%s (%s)\n\n%s", journal, year, abstract)),
		URL:   CanonicalURL(pmid),
		Metadata: FetchMetadata{
			Journal: journal,
			Year:    year,
		},
	}
}

// Encode serializes the record as JSON without HTML escaping.
func (r FetchRecord) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ContentBlock is the generic tool output element understood by the host.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// FetchResponse is the payload of the fetch tool.
type FetchResponse struct {
	Content []ContentBlock `json:"content"`
}

// NewFetchResponse wraps a record as a single text content block.
func NewFetchResponse(r FetchRecord) (*FetchResponse, error) {
	text, err := r.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode fetch record: %w", err)
	}
	return &FetchResponse{
		Content: []ContentBlock{{Type: ContentTypeText, Text: string(text)}},
	}, nil
}
