package domain

import "fmt"

// MaxResultWindow is how deep into a result set esearch will page: retstart
// must stay below it.
const MaxResultWindow = 10000

// SearchRequest holds the inputs of one scientist or article search.
// Empty term sets are allowed and produce an unconstrained upstream query.
type SearchRequest struct {
	Keywords     []string
	Affiliations []string
	Page         int
	Limit        int
}

// Offset returns the zero-based index of the first upstream result for the page.
func (r SearchRequest) Offset() int {
	if r.Page <= 1 {
		return 0
	}
	return (r.Page - 1) * r.Limit
}

// MaxPage returns the last page whose offset stays inside MaxResultWindow.
// Limit must be positive.
func (r SearchRequest) MaxPage() int {
	return (MaxResultWindow-1)/r.Limit + 1
}

// Validate checks the paging fields. Page is bounded by MaxPage, which also
// keeps Offset from overflowing.
func (r SearchRequest) Validate() error {
	if r.Limit <= 0 {
		return NewValidationError("limit", "must be positive")
	}
	if r.Page <= 0 {
		return NewValidationError("page", "must be positive")
	}
	if maxPage := r.MaxPage(); r.Page > maxPage {
		return NewValidationError("page", fmt.Sprintf("must be at most %d", maxPage))
	}
	return nil
}

// ScientistSearchResult is the deduplicated, externally visible projection of an Author.
type ScientistSearchResult struct {
	// Name is formatted as "LastName, ForeName".
	Name        string `json:"name"`
	Affiliation string `json:"affiliation"`
	ORCID       string `json:"orcid,omitempty"`
}
