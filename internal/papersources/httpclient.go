package papersources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/helixir/pubmed-mcp/internal/domain"
	"github.com/helixir/pubmed-mcp/internal/observability"
)

const (
	// DefaultBaseURL is the base URL for NCBI E-utilities.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

	// DefaultTool identifies this program to NCBI.
	DefaultTool = "chatgpt-pubmed-mcp"

	// DefaultEmail is the placeholder contact address; deployments should override it.
	DefaultEmail = "your_email@example.com"

	// DefaultTimeout is the per-request deadline.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent with every outbound request.
	DefaultUserAgent = "Helixir-PubMedMCP/1.0"

	// SourceName is used for error attribution.
	SourceName = "PubMed"

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 10 << 20

	// maxErrorBody caps how much of an error body ends up in error messages.
	maxErrorBody = 512
)

// Response formats understood by E-utilities.
const (
	RetModeJSON = "json"
	RetModeXML  = "xml"
)

// Config identifies this client to E-utilities. It is built once at startup
// and never mutated afterwards.
type Config struct {
	// BaseURL is the E-utilities root. Defaults to DefaultBaseURL.
	BaseURL string

	// Tool is sent as the "tool" parameter on every request.
	Tool string

	// Email is sent as the "email" parameter on every request.
	Email string

	// APIKey is sent as "api_key" when non-empty.
	APIKey string

	// Timeout is the per-request deadline. Defaults to DefaultTimeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header. Defaults to DefaultUserAgent.
	UserAgent string
}

// applyDefaults applies default values to the config.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Tool == "" {
		c.Tool = DefaultTool
	}
	if c.Email == "" {
		c.Email = DefaultEmail
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
}

// Client issues throttled GET requests against E-utilities.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	config  Config
	client  *http.Client
	waiter  Waiter
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewClient creates a client. A nil waiter falls back to FixedDelay with
// DefaultDelay; metrics may be nil.
func NewClient(cfg Config, waiter Waiter, metrics *observability.Metrics, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	if waiter == nil {
		waiter = FixedDelay{Delay: DefaultDelay}
	}

	return &Client{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		waiter:  waiter,
		metrics: metrics,
		logger:  logger.With().Str("component", "eutils").Logger(),
	}
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// GetJSON requests path with retmode=json and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, v any) error {
	body, err := c.get(ctx, path, params, RetModeJSON)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		c.metrics.RecordUpstreamRequestFailed(endpointName(path), "decode")
		return fmt.Errorf("failed to parse JSON response from %s: %w", path, err)
	}
	return nil
}

// GetXML requests path with retmode=xml and returns the raw body.
func (c *Client) GetXML(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.get(ctx, path, params, RetModeXML)
}

// get waits, then performs a single GET. There is no retry.
func (c *Client) get(ctx context.Context, path string, params url.Values, retmode string) ([]byte, error) {
	endpoint := endpointName(path)

	if err := c.waiter.Wait(ctx); err != nil {
		c.metrics.RecordUpstreamRequestFailed(endpoint, "canceled")
		return nil, fmt.Errorf("throttle wait: %w", err)
	}

	reqURL, err := c.buildURL(path, params, retmode)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		errType := "network"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			errType = "canceled"
		}
		c.metrics.RecordUpstreamRequestFailed(endpoint, errType)
		c.logger.Debug().Err(err).Str("endpoint", endpoint).Dur("duration", elapsed).Msg("upstream request failed")
		return nil, domain.NewExternalAPIError(SourceName, 0, "request failed: "+err.Error(),
			fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err))
	}
	defer resp.Body.Close()

	c.metrics.RecordUpstreamRequest(endpoint, elapsed.Seconds())
	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", elapsed).
		Msg("upstream request")

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordUpstreamRequestFailed(endpoint, fmt.Sprintf("status_%dxx", resp.StatusCode/100))
		return nil, domain.NewExternalAPIError(SourceName, resp.StatusCode, truncate(string(body), maxErrorBody), nil)
	}
	if err != nil {
		c.metrics.RecordUpstreamRequestFailed(endpoint, "read")
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}

// buildURL merges the identification parameters over the caller's params.
func (c *Client) buildURL(path string, params url.Values, retmode string) (string, error) {
	u, err := url.Parse(strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	q := url.Values{}
	for k, vs := range params {
		q[k] = append([]string(nil), vs...)
	}
	q.Set("tool", c.config.Tool)
	q.Set("email", c.config.Email)
	q.Set("retmode", retmode)
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	} else {
		q.Del("api_key")
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// endpointName turns "esearch.fcgi" into "esearch" for metric labels.
func endpointName(path string) string {
	return strings.TrimSuffix(strings.Trim(path, "/"), ".fcgi")
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
