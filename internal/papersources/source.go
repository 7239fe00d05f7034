package papersources

import (
	"context"

	"github.com/helixir/pubmed-mcp/internal/domain"
)

// RetMaxDefault asks Search for the source's configured result count.
const RetMaxDefault = -1

// LiteratureSource is the contract the tool layer depends on.
//
// Example usage:
//
//	source := pubmed.New(papersources.NewClient(cfg, waiter, metrics, logger), pubmed.Config{}, metrics, logger)
//	resp, err := source.Search(ctx, "CRISPR gene editing", 20)
type LiteratureSource interface {
	// Search resolves a free-text query to lightweight records, in the
	// order the upstream identifier lookup returned them. An empty or
	// whitespace-only query yields an empty response without any request.
	// A negative retmax (RetMaxDefault) uses the configured default; zero
	// is sent upstream as is.
	Search(ctx context.Context, query string, retmax int) (*domain.SearchResponse, error)

	// Fetch retrieves the full record for one identifier, wrapped as a
	// single text content block. An empty identifier is an invalid
	// argument (domain.ErrInvalidInput).
	Fetch(ctx context.Context, pmid string) (*domain.FetchResponse, error)
}
