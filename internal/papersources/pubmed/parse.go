package pubmed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/helixir/scientist-search-service/internal/domain"
)

// envelopeElement is the root element of every efetch PubMed response.
const envelopeElement = "PubmedArticleSet"

// defaultLanguage is reported for records without a <Language> element.
const defaultLanguage = "eng"

// ParseArticleSet decodes an efetch XML response into Documents, in upstream order.
//
// Only a missing or unrecognized <PubmedArticleSet> envelope, or markup too broken
// to read, is an error; it unwraps to domain.ErrParseFailure. Absent optional
// fields in a record become zero values. Non-article entries such as
// <PubmedBookArticle> are skipped.
func ParseArticleSet(r io.Reader) ([]domain.Document, error) {
	dec := xml.NewDecoder(r)
	dec.Entity = xml.HTMLEntity

	root, err := firstStartElement(dec)
	if err != nil {
		return nil, domain.NewParseError("no document set envelope", err)
	}
	if root.Name.Local != envelopeElement {
		return nil, domain.NewParseError(fmt.Sprintf("unexpected root element <%s>", root.Name.Local), nil)
	}

	docs := make([]domain.Document, 0)
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, domain.NewParseError("malformed document set", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "PubmedArticle" {
				if err := dec.Skip(); err != nil {
					return nil, domain.NewParseError("malformed document set", err)
				}
				continue
			}
			var raw pubmedArticle
			if err := dec.DecodeElement(&raw, &t); err != nil {
				return nil, domain.NewParseError("malformed article", err)
			}
			docs = append(docs, toDocument(raw))
		case xml.EndElement:
			return docs, nil
		}
	}
}

// firstStartElement skips the prolog (declaration, doctype, comments) and
// returns the root element.
func firstStartElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return xml.StartElement{}, io.ErrUnexpectedEOF
			}
			return xml.StartElement{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

func toDocument(raw pubmedArticle) domain.Document {
	citation := raw.MedlineCitation
	art := citation.Article

	return domain.Document{
		ID:               strings.TrimSpace(citation.PMID),
		Title:            string(art.ArticleTitle),
		Abstract:         extractAbstract(art.Abstract),
		Authors:          extractAuthors(art.AuthorList),
		Journal:          extractJournal(art.Journal, citation.MedlineJournalInfo),
		PublicationDate:  extractPublicationDate(art),
		DOI:              extractDOI(art, raw.PubmedData),
		Language:         extractLanguage(art.Languages),
		PublicationTypes: extractPublicationTypes(art.PublicationTypeList),
	}
}

// extractAbstract joins abstract sections, prefixing labelled ones with "Label: ".
func extractAbstract(abs *abstract) string {
	if abs == nil {
		return ""
	}

	parts := make([]string, 0, len(abs.Texts))
	for _, at := range abs.Texts {
		if at.Text == "" {
			continue
		}
		if at.Label != "" {
			parts = append(parts, at.Label+": "+at.Text)
		} else {
			parts = append(parts, at.Text)
		}
	}
	return strings.Join(parts, " ")
}

// extractAuthors keeps authors in listed order. Entries marked ValidYN="N" are
// corrections of earlier errors and are dropped.
func extractAuthors(list *authorList) []domain.Author {
	authors := make([]domain.Author, 0)
	if list == nil {
		return authors
	}

	for _, a := range list.Authors {
		if a.ValidYN == "N" {
			continue
		}

		author := domain.Author{
			LastName:       strings.TrimSpace(a.LastName),
			ForeName:       strings.TrimSpace(a.ForeName),
			Initials:       strings.TrimSpace(a.Initials),
			CollectiveName: strings.TrimSpace(a.CollectiveName),
		}
		if len(a.AffiliationInfo) > 0 {
			author.Affiliation = strings.TrimSpace(a.AffiliationInfo[0].Affiliation)
		}
		for _, id := range a.Identifiers {
			if strings.EqualFold(id.Source, "ORCID") {
				author.ORCID = strings.TrimSpace(id.Value)
				break
			}
		}
		authors = append(authors, author)
	}
	return authors
}

func extractJournal(j journal, info medlineJournalInfo) domain.Journal {
	out := domain.Journal{
		Title:           strings.TrimSpace(j.Title),
		ISOAbbreviation: strings.TrimSpace(j.ISOAbbreviation),
		Country:         strings.TrimSpace(info.Country),
	}
	if j.ISSN != nil {
		out.ISSN = strings.TrimSpace(j.ISSN.Value)
	}
	return out
}

// extractPublicationDate prefers the first ArticleDate (electronic publication)
// and falls back to the journal-issue PubDate, then to its MedlineDate.
func extractPublicationDate(art article) domain.PublicationDate {
	for _, ad := range art.ArticleDates {
		if strings.TrimSpace(ad.Year) != "" {
			return domain.PublicationDate{
				Year:  atoiOrZero(ad.Year),
				Month: ParseMonth(ad.Month),
				Day:   atoiOrZero(ad.Day),
			}
		}
	}

	pd := art.Journal.JournalIssue.PubDate
	if strings.TrimSpace(pd.Year) != "" {
		return domain.PublicationDate{
			Year:  atoiOrZero(pd.Year),
			Month: ParseMonth(pd.Month),
			Day:   atoiOrZero(pd.Day),
		}
	}
	return parseMedlineDate(pd.MedlineDate)
}

// parseMedlineDate reads the year and first month out of strings such as
// "2020 Jan-Feb", "2019 Dec-2020 Jan" or "1998-1999".
func parseMedlineDate(s string) domain.PublicationDate {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return domain.PublicationDate{}
	}

	date := domain.PublicationDate{
		Year: atoiOrZero(strings.SplitN(fields[0], "-", 2)[0]),
	}
	if len(fields) > 1 {
		date.Month = ParseMonth(strings.SplitN(fields[1], "-", 2)[0])
	}
	return date
}

// extractDOI checks ELocationID first, then the PubmedData ArticleIdList.
func extractDOI(art article, data pubmedData) string {
	for _, eloc := range art.ELocationIDs {
		if eloc.EIdType == "doi" && (eloc.ValidYN == "" || eloc.ValidYN == "Y") {
			return strings.TrimSpace(eloc.Value)
		}
	}
	for _, aid := range data.ArticleIDs {
		if aid.IdType == "doi" {
			return strings.TrimSpace(aid.Value)
		}
	}
	return ""
}

func extractLanguage(langs []string) string {
	for _, l := range langs {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return defaultLanguage
}

func extractPublicationTypes(list publicationTypeList) []string {
	types := make([]string, 0, len(list.Types))
	for _, t := range list.Types {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types
}

// monthNames is case-sensitive and English only, matching what PubMed emits.
var monthNames = map[string]int{
	"Jan": 1, "January": 1,
	"Feb": 2, "February": 2,
	"Mar": 3, "March": 3,
	"Apr": 4, "April": 4,
	"May": 5,
	"Jun": 6, "June": 6,
	"Jul": 7, "July": 7,
	"Aug": 8, "August": 8,
	"Sep": 9, "September": 9,
	"Oct": 10, "October": 10,
	"Nov": 11, "November": 11,
	"Dec": 12, "December": 12,
}

// ParseMonth resolves a publication month to a number.
//
// Values of any integer or floating-point kind are returned as-is (floats are
// truncated). Strings are looked up as English month names or abbreviations
// ("Jan", "December"), then parsed as integers ("05", "13"). Anything else,
// including an empty string, yields 0. The result is not range-checked.
func ParseMonth(v any) int {
	switch m := v.(type) {
	case int:
		return m
	case int8:
		return int(m)
	case int16:
		return int(m)
	case int32:
		return int(m)
	case int64:
		return int(m)
	case uint:
		return int(m)
	case uint8:
		return int(m)
	case uint16:
		return int(m)
	case uint32:
		return int(m)
	case uint64:
		return int(m)
	case float32:
		return int(m)
	case float64:
		return int(m)
	case string:
		m = strings.TrimSpace(m)
		if n, ok := monthNames[m]; ok {
			return n
		}
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
		return 0
	default:
		return 0
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
