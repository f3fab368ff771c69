// Package scientist turns upstream documents into deduplicated scientist
// listings and wraps each page in an estimated pagination envelope.
package scientist

import (
	"github.com/helixir/scientist-search-service/internal/domain"
)

// Aggregate flattens the authors of docs into one result per distinct
// Author.Key, in first-seen order. The affiliation and ORCID of the first
// occurrence win; later occurrences are ignored even when they carry values
// the first one lacked. Group authors without a personal name are skipped.
func Aggregate(docs []domain.Document) []domain.ScientistSearchResult {
	results := make([]domain.ScientistSearchResult, 0)
	seen := make(map[string]struct{})

	for _, doc := range docs {
		for _, author := range doc.Authors {
			if !author.IsPerson() {
				continue
			}

			key := author.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			results = append(results, domain.ScientistSearchResult{
				Name:        key,
				Affiliation: author.Affiliation,
				ORCID:       author.ORCID,
			})
		}
	}

	return results
}
