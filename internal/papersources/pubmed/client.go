package pubmed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/pubmed-mcp/internal/domain"
	"github.com/helixir/pubmed-mcp/internal/observability"
	"github.com/helixir/pubmed-mcp/internal/papersources"
)

const (
	// DefaultMaxResults is the result count used when retmax is negative.
	DefaultMaxResults = 20

	// MaxResultsLimit is the largest retmax esearch accepts.
	MaxResultsLimit = 10000

	// Database is the Entrez database queried by every request.
	Database = "pubmed"

	pathESearch  = "esearch.fcgi"
	pathESummary = "esummary.fcgi"
	pathEFetch   = "efetch.fcgi"
)

// Requester is the subset of papersources.Client used here.
type Requester interface {
	GetJSON(ctx context.Context, path string, params url.Values, v any) error
	GetXML(ctx context.Context, path string, params url.Values) ([]byte, error)
}

// Config holds the configuration for the PubMed source.
type Config struct {
	// MaxResults is used when a search passes a negative retmax.
	// Defaults to DefaultMaxResults if zero.
	MaxResults int
}

func (c *Config) applyDefaults() {
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.MaxResults > MaxResultsLimit {
		c.MaxResults = MaxResultsLimit
	}
}

// Client implements papersources.LiteratureSource for PubMed.
type Client struct {
	config  Config
	eutils  Requester
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// Compile-time check that Client implements LiteratureSource.
var _ papersources.LiteratureSource = (*Client)(nil)

// New creates a PubMed source backed by eutils. metrics may be nil.
func New(eutils Requester, cfg Config, metrics *observability.Metrics, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{
		config:  cfg,
		eutils:  eutils,
		metrics: metrics,
		logger:  logger.With().Str("component", "pubmed").Logger(),
	}
}

// Search queries PubMed in two steps:
// 1. esearch.fcgi - retrieves PMIDs matching the query
// 2. esummary.fcgi - retrieves title, journal and date for those PMIDs
//
// Records follow the esearch order. The summary call is skipped when
// esearch returns no identifiers.
func (c *Client) Search(ctx context.Context, query string, retmax int) (*domain.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.EmptySearchResponse(), nil
	}

	limit := c.effectiveRetMax(retmax)

	search, err := c.esearch(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("esearch failed: %w", err)
	}
	ids := search.IDs()
	if len(ids) == 0 {
		c.logger.Debug().
			Str("query", query).
			Str("query_translation", search.QueryTranslation()).
			Int("retmax", limit).
			Msg("search returned no identifiers")
		c.metrics.RecordSearchResults(0)
		return domain.EmptySearchResponse(), nil
	}

	summaries, err := c.esummary(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("esummary failed: %w", err)
	}

	resp := &domain.SearchResponse{Results: make([]domain.SearchRecord, 0, len(ids))}
	for _, pmid := range ids {
		doc, err := summaries.Summary(pmid)
		switch {
		case errors.Is(err, ErrNoSummary):
			c.logger.Debug().Str("pmid", pmid).Msg("no summary entry")
		case err != nil:
			c.logger.Warn().Err(err).Str("pmid", pmid).Msg("malformed summary entry")
		case doc.Error != "":
			c.logger.Debug().Str("pmid", pmid).Str("summary_error", doc.Error).Msg("summary entry reports an error")
		}
		resp.Results = append(resp.Results, domain.NewSearchRecord(pmid, doc.Title, doc.Journal(), doc.PubDate))
	}

	c.metrics.RecordSearchResults(len(resp.Results))
	c.logger.Debug().
		Str("query", query).
		Str("query_translation", search.QueryTranslation()).
		Int("retmax", limit).
		Int("results", len(resp.Results)).
		Msg("search completed")

	return resp, nil
}

// Fetch retrieves one article with efetch.fcgi and wraps it as a single
// text content block.
func (c *Client) Fetch(ctx context.Context, pmid string) (*domain.FetchResponse, error) {
	pmid = strings.TrimSpace(pmid)
	if pmid == "" {
		return nil, domain.NewValidationError("id", "must not be empty")
	}

	params := url.Values{}
	params.Set("db", Database)
	params.Set("id", pmid)

	body, err := c.eutils.GetXML(ctx, pathEFetch, params)
	if err != nil {
		return nil, fmt.Errorf("efetch failed: %w", err)
	}

	doc, err := parseArticleDoc(body)
	if err != nil {
		return nil, domain.NewExternalAPIError(papersources.SourceName, 0, "malformed efetch response", err)
	}

	abstract := doc.Abstract()
	record := domain.NewFetchRecord(pmid, doc.Title(), doc.Journal(), doc.Year(), abstract)
	resp, err := domain.NewFetchResponse(record)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("pmid", pmid).
		Bool("has_abstract", abstract != "").
		Msg("fetch completed")

	return resp, nil
}

// effectiveRetMax maps negative values to the default and clamps to
// MaxResultsLimit. Zero passes through; esearch then returns no identifiers.
func (c *Client) effectiveRetMax(retmax int) int {
	if retmax < 0 {
		return c.config.MaxResults
	}
	if retmax > MaxResultsLimit {
		return MaxResultsLimit
	}
	return retmax
}

func (c *Client) esearch(ctx context.Context, query string, retmax int) (*ESearchResponse, error) {
	params := url.Values{}
	params.Set("db", Database)
	params.Set("term", query)
	params.Set("retmax", strconv.Itoa(retmax))

	var result ESearchResponse
	if err := c.eutils.GetJSON(ctx, pathESearch, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) esummary(ctx context.Context, ids []string) (*ESummaryResponse, error) {
	params := url.Values{}
	params.Set("db", Database)
	params.Set("id", strings.Join(ids, ","))

	var result ESummaryResponse
	if err := c.eutils.GetJSON(ctx, pathESummary, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
