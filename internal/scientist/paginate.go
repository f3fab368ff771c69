package scientist

import (
	"github.com/helixir/scientist-search-service/internal/domain"
)

// EstimatePagination infers the pagination envelope of a page from how full it is.
//
// PubMed reports no usable total for this access pattern, so a full page
// (count == limit) is taken to mean at least one more page exists and Total is
// a lower bound one past the results seen. A short page, including an empty
// one, is the last page and its Total is exact for what was observed.
func EstimatePagination(count, page, limit int) domain.PaginationMeta {
	meta := domain.PaginationMeta{
		Page:    page,
		Limit:   limit,
		HasPrev: page > 1,
	}

	seenBefore := (page - 1) * limit
	if count == limit {
		meta.HasNext = true
		meta.TotalPages = page + 1
		meta.Total = seenBefore + count + 1
	} else {
		meta.HasNext = false
		meta.TotalPages = page
		meta.Total = seenBefore + count
	}

	return meta
}

// Paginate wraps items with the pagination estimated from len(items).
// A nil items is reported as an empty page.
func Paginate[T any](items []T, page, limit int) *domain.PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}
	return &domain.PaginatedResponse[T]{
		Data:       items,
		Pagination: EstimatePagination(len(items), page, limit),
	}
}
