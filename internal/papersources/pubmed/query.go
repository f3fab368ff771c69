package pubmed

import "strings"

// affiliationTag restricts a PubMed term to the author address field.
const affiliationTag = "[AD]"

// BuildTerm combines keyword and affiliation terms into one esearch expression.
//
// Keywords are OR-ed together, parenthesized only when there is more than one.
// Affiliations are tagged [AD] and OR-ed together. When both sets are present
// the affiliation group is always parenthesized and AND-ed with the keywords:
//
//	BuildTerm([]string{"cancer"}, []string{"Boston"})           // cancer AND (Boston[AD])
//	BuildTerm([]string{"a", "b"}, nil)                          // (a OR b)
//	BuildTerm(nil, []string{"MIT", "Harvard"})                  // (MIT[AD] OR Harvard[AD])
//
// Blank terms are ignored. With no terms at all the result is empty, which
// esearch treats as an unconstrained query.
func BuildTerm(keywords, affiliations []string) string {
	kws := nonBlank(keywords)
	affs := nonBlank(affiliations)
	for i, a := range affs {
		affs[i] = a + affiliationTag
	}

	switch {
	case len(kws) > 0 && len(affs) > 0:
		return orGroup(kws) + " AND (" + strings.Join(affs, " OR ") + ")"
	case len(kws) > 0:
		return orGroup(kws)
	case len(affs) > 0:
		return orGroup(affs)
	default:
		return ""
	}
}

// orGroup joins terms with OR, adding parentheses only around two or more terms.
func orGroup(terms []string) string {
	if len(terms) == 1 {
		return terms[0]
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}

func nonBlank(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
