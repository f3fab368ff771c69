package scientist

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/scientist-search-service/internal/domain"
	"github.com/helixir/scientist-search-service/internal/observability"
	"github.com/helixir/scientist-search-service/internal/papersources"
	"github.com/helixir/scientist-search-service/internal/papersources/pubmed"
)

// Service runs the search pipeline: build the term, resolve ids, fetch and
// parse documents, then aggregate and paginate.
//
// Service holds no per-search state and is safe for concurrent use.
type Service struct {
	source  papersources.DocumentSource
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewService creates a Service reading from source.
// The metrics parameter may be nil (metrics recording will be skipped).
func NewService(source papersources.DocumentSource, logger zerolog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		source: source,
		logger: logger.With().
			Str("component", "scientist-service").
			Str("source", source.Name()).
			Logger(),
		metrics: metrics,
	}
}

// SearchArticles returns the parsed documents for one result window.
//
// No matching ids is an empty result, and no fetch is made. Any failure is a
// *domain.StageError with Op OpSearchArticles; a fetch failure is additionally
// wrapped with OpFetchArticles.
func (s *Service) SearchArticles(ctx context.Context, req domain.SearchRequest) ([]domain.Document, error) {
	logger := observability.LoggerFromContext(ctx, s.logger)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	term := pubmed.BuildTerm(req.Keywords, req.Affiliations)
	if term == "" {
		logger.Warn().Msg("searching without keywords or affiliations")
	}

	ids, err := s.source.SearchIDs(ctx, term, req.Limit, req.Offset())
	if err != nil {
		logger.Error().Err(err).Str("term", term).Msg("article id search failed")
		return nil, domain.NewStageError(domain.OpSearchArticles, err)
	}
	if len(ids) == 0 {
		return []domain.Document{}, nil
	}

	docs, err := s.source.FetchDocuments(ctx, ids)
	if err != nil {
		logger.Error().Err(err).Int("id_count", len(ids)).Msg("article fetch failed")
		fetchErr := domain.NewStageError(domain.OpFetchArticles, err)
		return nil, domain.NewStageError(domain.OpSearchArticles, fetchErr)
	}

	return docs, nil
}

// SearchAuthors returns the distinct authors of the documents in one result window.
func (s *Service) SearchAuthors(ctx context.Context, req domain.SearchRequest) ([]domain.ScientistSearchResult, error) {
	logger := observability.LoggerFromContext(ctx, s.logger)

	docs, err := s.SearchArticles(ctx, req)
	if err != nil {
		if isInvalidInput(err) {
			return nil, err
		}
		logger.Error().Err(err).Msg("author search failed")
		return nil, domain.NewStageError(domain.OpSearchAuthors, err)
	}

	scientists := Aggregate(docs)
	logger.Info().
		Int("documents", len(docs)).
		Int("unique_scientists", len(scientists)).
		Msg("aggregated authors")

	return scientists, nil
}

// SearchScientists returns one page of distinct authors with estimated pagination.
// The estimate is driven by the number of distinct authors, not documents.
func (s *Service) SearchScientists(ctx context.Context, req domain.SearchRequest) (*domain.PaginatedResponse[domain.ScientistSearchResult], error) {
	logger := observability.WithSearchContext(
		observability.LoggerFromContext(ctx, s.logger),
		observability.SearchKindScientists, req.Page, req.Limit,
	)
	logger.Info().
		Strs("keywords", req.Keywords).
		Strs("affiliations", req.Affiliations).
		Msg("searching scientists")

	s.metrics.RecordSearchStarted(observability.SearchKindScientists)
	start := time.Now()

	scientists, err := s.SearchAuthors(ctx, req)
	if err != nil {
		s.metrics.RecordSearchFailed(observability.SearchKindScientists, time.Since(start).Seconds())
		if isInvalidInput(err) {
			return nil, err
		}
		logger.Error().Err(err).Msg("scientist search failed")
		return nil, domain.NewStageError(domain.OpSearchScientists, err)
	}

	resp := Paginate(scientists, req.Page, req.Limit)
	s.metrics.RecordSearchCompleted(observability.SearchKindScientists, len(resp.Data), time.Since(start).Seconds())
	logger.Info().
		Int("returned", len(resp.Data)).
		Int("estimated_total", resp.Pagination.Total).
		Bool("has_next", resp.Pagination.HasNext).
		Msg("scientist search completed")

	return resp, nil
}

// SearchArticlesPage returns one page of documents with estimated pagination.
func (s *Service) SearchArticlesPage(ctx context.Context, req domain.SearchRequest) (*domain.PaginatedResponse[domain.Document], error) {
	logger := observability.WithSearchContext(
		observability.LoggerFromContext(ctx, s.logger),
		observability.SearchKindArticles, req.Page, req.Limit,
	)

	s.metrics.RecordSearchStarted(observability.SearchKindArticles)
	start := time.Now()

	docs, err := s.SearchArticles(ctx, req)
	if err != nil {
		s.metrics.RecordSearchFailed(observability.SearchKindArticles, time.Since(start).Seconds())
		return nil, err
	}

	resp := Paginate(docs, req.Page, req.Limit)
	s.metrics.RecordSearchCompleted(observability.SearchKindArticles, len(resp.Data), time.Since(start).Seconds())
	logger.Info().
		Int("returned", len(resp.Data)).
		Int("estimated_total", resp.Pagination.Total).
		Msg("article search completed")

	return resp, nil
}

func isInvalidInput(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput)
}
