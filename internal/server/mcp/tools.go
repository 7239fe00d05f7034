package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/helixir/pubmed-mcp/internal/domain"
	"github.com/helixir/pubmed-mcp/internal/observability"
)

// Tool names.
const (
	ToolSearch = "search"
	ToolFetch  = "fetch"
)

// Tool call outcomes used as the status metric label.
const (
	statusOK      = "ok"
	statusInvalid = "invalid"
	statusError   = "error"
)

// SearchArgs are the arguments of the search tool. RetMax is nil when the
// caller omitted it.
type SearchArgs struct {
	Query  string `json:"query"`
	RetMax *int   `json:"retmax" validate:"omitempty,gte=0"`
}

// retMax resolves an omitted retmax to def.
func (a SearchArgs) retMax(def int) int {
	if a.RetMax == nil {
		return def
	}
	return *a.RetMax
}

// FetchArgs are the arguments of the fetch tool.
type FetchArgs struct {
	PMID string `json:"pmid"`
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool(ToolSearch,
		mcp.WithDescription("Search PubMed by keyword. Returns PMIDs with title, journal and publication date."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("PubMed search term, e.g. \"CRISPR gene editing\""),
		),
		mcp.WithNumber("retmax",
			mcp.DefaultNumber(float64(s.config.DefaultRetMax)),
			mcp.Min(0),
			mcp.Max(10000),
			mcp.Description("Maximum number of results"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.instrument(ToolSearch, s.handleSearch))

	s.mcp.AddTool(mcp.NewTool(ToolFetch,
		mcp.WithDescription("Fetch one PubMed article by PMID. Returns title, journal, year and abstract."),
		mcp.WithString("pmid",
			mcp.Required(),
			mcp.Description("PubMed identifier, e.g. \"31452104\""),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.instrument(ToolFetch, s.handleFetch))
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args SearchArgs
	if err := s.bind(req, &args); err != nil {
		return nil, err
	}

	resp, err := s.source.Search(ctx, args.Query, args.retMax(s.config.DefaultRetMax))
	if err != nil {
		return nil, err
	}

	text, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode search response: %w", err)
	}
	return mcp.NewToolResultStructured(resp, string(text)), nil
}

func (s *Server) handleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args FetchArgs
	if err := s.bind(req, &args); err != nil {
		return nil, err
	}

	resp, err := s.source.Fetch(ctx, args.PMID)
	if err != nil {
		return nil, err
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("fetch returned no content for %s", args.PMID)
	}

	return mcp.NewToolResultStructured(resp, resp.Content[0].Text), nil
}

// bind decodes and validates tool arguments.
func (s *Server) bind(req mcp.CallToolRequest, target any) error {
	if err := req.BindArguments(target); err != nil {
		return domain.NewValidationError("arguments", err.Error())
	}
	if err := s.validate.Struct(target); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return domain.NewValidationError(fe.Field(), fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param()))
		}
		return domain.NewValidationError("arguments", err.Error())
	}
	return nil
}

// toolFunc is a tool handler that reports failures as Go errors.
type toolFunc func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// instrument logs and counts each call and turns handler errors into
// isError tool results.
func (s *Server) instrument(tool string, h toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID := observability.RequestIDFromContext(ctx)
		if requestID == "" {
			requestID = uuid.NewString()
			ctx = observability.WithRequestID(ctx, requestID)
		}
		logger := observability.WithToolContext(s.logger, tool, requestID)

		start := time.Now()
		result, err := h(ctx, req)
		elapsed := time.Since(start)

		status := statusOK
		switch {
		case err != nil && errors.Is(err, domain.ErrInvalidInput):
			status = statusInvalid
		case err != nil:
			status = statusError
		}
		s.metrics.RecordToolCall(tool, status, elapsed.Seconds())

		if err != nil {
			logger.Warn().Err(err).Str("status", status).Dur("duration", elapsed).Msg("tool call failed")
			return mcp.NewToolResultError(err.Error()), nil
		}

		logger.Info().Str("status", status).Dur("duration", elapsed).Msg("tool call completed")
		return result, nil
	}
}
