package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/helixir/scientist-search-service/internal/domain"
	"github.com/helixir/scientist-search-service/internal/observability"
)

// searchQuery is the validated form of the search query string. The term
// limits live only in the tags; validationMessage reads them back.
type searchQuery struct {
	Keywords     []string `validate:"max=20,dive,max=500"`
	Affiliations []string `validate:"max=20,dive,max=500"`
	Page         int      `validate:"gte=1"`
	Limit        int      `validate:"gte=1,ltefield=MaxLimit"`
	MaxLimit     int      `validate:"-"`
}

// searchScientists handles GET /scientists/search.
func (s *Server) searchScientists(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseSearchRequest(w, r)
	if !ok {
		return
	}

	resp, err := s.searcher.SearchScientists(r.Context(), req)
	if err != nil {
		s.writeSearchError(w, r, err, domain.OpSearchScientists)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// searchArticles handles GET /articles/search.
func (s *Server) searchArticles(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseSearchRequest(w, r)
	if !ok {
		return
	}

	resp, err := s.searcher.SearchArticlesPage(r.Context(), req)
	if err != nil {
		s.writeSearchError(w, r, err, domain.OpSearchArticles)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// parseSearchRequest reads and validates the query string. On failure it has
// already written a 400 response.
func (s *Server) parseSearchRequest(w http.ResponseWriter, r *http.Request) (domain.SearchRequest, bool) {
	values := r.URL.Query()

	page, err := intParam(values, "page", 1)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return domain.SearchRequest{}, false
	}
	limit, err := intParam(values, "limit", s.limits.defaultLimit)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return domain.SearchRequest{}, false
	}

	q := searchQuery{
		Keywords:     collectTerms(values, "keywords", "keywordsArray"),
		Affiliations: collectTerms(values, "affiliation", "affiliationArray"),
		Page:         page,
		Limit:        limit,
		MaxLimit:     s.limits.maxLimit,
	}
	if err := s.validate.Struct(q); err != nil {
		s.writeError(w, http.StatusBadRequest, validationMessage(err, s.limits.maxLimit))
		return domain.SearchRequest{}, false
	}

	req := domain.SearchRequest{
		Keywords:     q.Keywords,
		Affiliations: q.Affiliations,
		Page:         q.Page,
		Limit:        q.Limit,
	}
	if err := req.Validate(); err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			s.writeError(w, http.StatusBadRequest, fieldMessage(validationErr))
		} else {
			s.writeError(w, http.StatusBadRequest, "invalid search parameters")
		}
		return domain.SearchRequest{}, false
	}

	return req, true
}

// writeSearchError maps a search failure to a response. Causes are logged and
// never returned; callers see only the coarse stage message.
func (s *Server) writeSearchError(w http.ResponseWriter, r *http.Request, err error, fallbackOp string) {
	logger := observability.LoggerFromContext(r.Context(), s.logger)

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		s.writeError(w, http.StatusBadRequest, fieldMessage(validationErr))
		return
	}

	op := fallbackOp
	var stageErr *domain.StageError
	if errors.As(err, &stageErr) {
		op = stageErr.Op
	}

	logger.Error().Err(err).Str("path", r.URL.Path).Msg("search failed")
	s.writeError(w, http.StatusBadGateway, op)
}

// collectTerms gathers the single-valued parameter first, then the repeated
// one. Values are trimmed and blanks dropped.
func collectTerms(values url.Values, single, repeated string) []string {
	raw := make([]string, 0, len(values[single])+len(values[repeated]))
	raw = append(raw, values[single]...)
	raw = append(raw, values[repeated]...)

	terms := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// intParam parses an optional integer query parameter.
func intParam(values url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

// fieldMessage renders a domain validation error as "field message".
func fieldMessage(err *domain.ValidationError) string {
	return err.Field + " " + err.Message
}

// validationMessage turns the first validator failure into a caller-facing message.
func validationMessage(err error, maxLimit int) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid search parameters"
	}

	fe := verrs[0]
	name, _, element := strings.Cut(fe.StructField(), "[")
	switch name {
	case "Page":
		return "page must be at least 1"
	case "Limit":
		return fmt.Sprintf("limit must be between 1 and %d", maxLimit)
	case "Keywords", "Affiliations":
		field := strings.ToLower(name)
		if element {
			return fmt.Sprintf("%s must be at most %s characters each", field, fe.Param())
		}
		return fmt.Sprintf("at most %s %s allowed", fe.Param(), field)
	default:
		return "invalid search parameters"
	}
}
