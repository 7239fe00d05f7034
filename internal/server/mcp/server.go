// Package mcpserver exposes the PubMed search and fetch operations as Model
// Context Protocol tools.
package mcpserver

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/helixir/pubmed-mcp/internal/observability"
	"github.com/helixir/pubmed-mcp/internal/papersources"
)

// Default identity reported to MCP clients.
const (
	DefaultName         = "PubMed MCP"
	DefaultInstructions = "Search PubMed and fetch abstracts by PMID via NCBI E-utilities."
	DefaultEndpointPath = "/mcp"
	DefaultRetMax       = 20
)

// Config holds tool host settings.
type Config struct {
	Name         string
	Version      string
	Instructions string
	EndpointPath string
	// DefaultRetMax is advertised as the default of the search tool's retmax.
	DefaultRetMax int
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Instructions == "" {
		c.Instructions = DefaultInstructions
	}
	if c.EndpointPath == "" {
		c.EndpointPath = DefaultEndpointPath
	}
	if c.DefaultRetMax <= 0 {
		c.DefaultRetMax = DefaultRetMax
	}
}

// Server registers the tools on an MCP server and serves them over
// streamable HTTP.
type Server struct {
	config   Config
	mcp      *server.MCPServer
	source   papersources.LiteratureSource
	validate *validator.Validate
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

// New creates the tool host. metrics may be nil.
func New(cfg Config, source papersources.LiteratureSource, metrics *observability.Metrics, logger zerolog.Logger) *Server {
	cfg.applyDefaults()

	s := &Server{
		config:   cfg,
		source:   source,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  metrics,
		logger:   logger.With().Str("component", "mcp").Logger(),
	}

	s.mcp = server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithInstructions(cfg.Instructions),
		server.WithRecovery(),
	)
	s.registerTools()

	return s
}

// EndpointPath is where Handler expects to be mounted.
func (s *Server) EndpointPath() string {
	return s.config.EndpointPath
}

// Handler returns the streamable HTTP transport. It is stateless: every
// request carries its own context and no session has to be kept alive.
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp,
		server.WithEndpointPath(s.config.EndpointPath),
		server.WithStateLess(true),
	)
}
