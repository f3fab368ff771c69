// Package observability provides logging, metrics, and context helpers for
// the scientist search service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for searches, upstream calls and inbound HTTP
//   - Context helpers for propagating request and correlation IDs
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//	logger = observability.LoggerFromContext(ctx, logger)
//	logger.Info().Str("term", term).Msg("searching")
//
// # Metrics
//
//	metrics := observability.NewMetrics("scientist_search")
//	metrics.RecordSearchStarted(observability.SearchKindScientists)
//	metrics.RecordUpstreamRequest("pubmed", "esearch", elapsed.Seconds())
//
// A nil *Metrics is accepted everywhere and records nothing, which keeps tests
// and the CLI free of global registrations.
//
// # Standard Fields
//
//   - request_id: inbound HTTP request identifier
//   - correlation_id: caller-supplied or generated correlation identifier
//   - component: emitting component (http-server, scientist-service, pubmed-client)
//   - term: resolved esearch expression
//   - search_kind: scientists or articles
package observability
