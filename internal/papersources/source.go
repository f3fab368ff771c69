// Package papersources provides clients for the upstream literature databases
// the scientist search pipeline reads from.
//
// A DocumentSource answers the two questions the pipeline asks, in order:
// which document identifiers match a Boolean term, and what those documents contain.
//
//	ids, err := source.SearchIDs(ctx, term, 10, 0)
//	docs, err := source.FetchDocuments(ctx, ids)
package papersources

import (
	"context"

	"github.com/helixir/scientist-search-service/internal/domain"
)

// DocumentSource is a two-step search/fetch upstream.
//
// Implementations return errors that unwrap to domain.ErrUpstreamUnavailable for
// transport and non-success failures and to domain.ErrParseFailure when a document
// set has no recognizable envelope. Zero matches are not an error.
type DocumentSource interface {
	// SearchIDs returns at most limit identifiers matching term, skipping the first offset.
	SearchIDs(ctx context.Context, term string, limit, offset int) ([]string, error)

	// FetchDocuments retrieves and parses the documents for ids in one batched request.
	// An empty ids slice yields an empty result without contacting the upstream.
	FetchDocuments(ctx context.Context, ids []string) ([]domain.Document, error)

	// Name returns a human-readable name for logging and metrics.
	Name() string
}
