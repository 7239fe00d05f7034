// Package observability provides logging and metrics support for the PubMed
// tool server.
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger = observability.WithToolContext(logger, "search", requestID)
//
// # Metrics
//
//	metrics := observability.NewMetrics("pubmed_mcp")
//	metrics.RecordToolCall("search", "ok", elapsed.Seconds())
//	metrics.RecordUpstreamRequest("esearch", elapsed.Seconds())
//
// A nil *Metrics is accepted everywhere and records nothing.
//
// # Standard Fields
//
//   - component: emitting subsystem (http-server, mcp, pubmed, eutils)
//   - request_id: correlation ID of the inbound HTTP request
//   - tool: tool name (search, fetch)
//   - endpoint: E-utilities endpoint (esearch, esummary, efetch)
//   - pmid: PubMed identifier
package observability
