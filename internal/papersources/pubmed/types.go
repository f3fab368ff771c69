// Package pubmed provides a client for the NCBI PubMed E-utilities API.
//
// A scientist search is a two-step exchange: esearch.fcgi resolves a Boolean
// term to a window of PMIDs (JSON), then efetch.fcgi returns the full records
// for those PMIDs in one batch (XML).
//
// The E-utilities API documentation is available at:
// https://www.ncbi.nlm.nih.gov/books/NBK25499/
package pubmed

import (
	"encoding/xml"
	"strings"
)

// esearchResponse is the JSON body returned by esearch.fcgi with retmode=json.
// NCBI reports fatal problems in the top-level error field.
type esearchResponse struct {
	Result *esearchResult `json:"esearchresult"`
	Error  string         `json:"error,omitempty"`
}

// esearchResult carries the id window. Counts arrive as strings.
type esearchResult struct {
	Count            string            `json:"count"`
	RetMax           string            `json:"retmax"`
	RetStart         string            `json:"retstart"`
	IDList           []string          `json:"idlist"`
	QueryTranslation string            `json:"querytranslation"`
	ErrorList        *esearchErrorList `json:"errorlist,omitempty"`
	Error            string            `json:"ERROR,omitempty"`
}

type esearchErrorList struct {
	PhrasesNotFound []string `json:"phrasesnotfound"`
	FieldsNotFound  []string `json:"fieldsnotfound"`
}

// The efetch XML types below decode only what a Document needs. Every element
// that may repeat is a slice, so zero, one or many occurrences decode to the
// same shape and nothing downstream has to tell a single element from a list.

// pubmedArticle is one <PubmedArticle> inside the <PubmedArticleSet> envelope.
type pubmedArticle struct {
	MedlineCitation medlineCitation `xml:"MedlineCitation"`
	PubmedData      pubmedData      `xml:"PubmedData"`
}

type medlineCitation struct {
	PMID               string             `xml:"PMID"`
	Article            article            `xml:"Article"`
	MedlineJournalInfo medlineJournalInfo `xml:"MedlineJournalInfo"`
}

type medlineJournalInfo struct {
	Country     string `xml:"Country"`
	MedlineTA   string `xml:"MedlineTA"`
	NlmUniqueID string `xml:"NlmUniqueID"`
}

type article struct {
	Journal             journal             `xml:"Journal"`
	ArticleTitle        markupText          `xml:"ArticleTitle"`
	ELocationIDs        []eLocationID       `xml:"ELocationID"`
	Abstract            *abstract           `xml:"Abstract"`
	AuthorList          *authorList         `xml:"AuthorList"`
	Languages           []string            `xml:"Language"`
	PublicationTypeList publicationTypeList `xml:"PublicationTypeList"`
	ArticleDates        []dateParts         `xml:"ArticleDate"`
}

type journal struct {
	ISSN            *issn        `xml:"ISSN"`
	JournalIssue    journalIssue `xml:"JournalIssue"`
	Title           string       `xml:"Title"`
	ISOAbbreviation string       `xml:"ISOAbbreviation"`
}

type issn struct {
	IssnType string `xml:"IssnType,attr"`
	Value    string `xml:",chardata"`
}

type journalIssue struct {
	Volume  string  `xml:"Volume"`
	Issue   string  `xml:"Issue"`
	PubDate pubDate `xml:"PubDate"`
}

// pubDate is the journal-issue date. Older records carry a free-form
// MedlineDate ("2020 Jan-Feb", "1998 Spring") instead of Year/Month/Day.
type pubDate struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"`
	Day         string `xml:"Day"`
	Season      string `xml:"Season"`
	MedlineDate string `xml:"MedlineDate"`
}

// dateParts is an <ArticleDate>.
type dateParts struct {
	DateType string `xml:"DateType,attr"`
	Year     string `xml:"Year"`
	Month    string `xml:"Month"`
	Day      string `xml:"Day"`
}

type eLocationID struct {
	EIdType string `xml:"EIdType,attr"`
	ValidYN string `xml:"ValidYN,attr"`
	Value   string `xml:",chardata"`
}

type abstract struct {
	Texts []abstractText `xml:"AbstractText"`
}

// abstractText is one section of a possibly structured abstract.
type abstractText struct {
	Label string
	Text  string
}

// UnmarshalXML keeps the Label attribute and the text of any inline markup.
func (a *abstractText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "Label" {
			a.Label = attr.Value
		}
	}
	text, err := collectText(d)
	if err != nil {
		return err
	}
	a.Text = text
	return nil
}

type authorList struct {
	Authors []author `xml:"Author"`
}

type author struct {
	ValidYN         string            `xml:"ValidYN,attr"`
	LastName        string            `xml:"LastName"`
	ForeName        string            `xml:"ForeName"`
	Initials        string            `xml:"Initials"`
	CollectiveName  string            `xml:"CollectiveName"`
	Identifiers     []identifier      `xml:"Identifier"`
	AffiliationInfo []affiliationInfo `xml:"AffiliationInfo"`
}

type identifier struct {
	Source string `xml:"Source,attr"`
	Value  string `xml:",chardata"`
}

type affiliationInfo struct {
	Affiliation string `xml:"Affiliation"`
}

type publicationTypeList struct {
	Types []string `xml:"PublicationType"`
}

type pubmedData struct {
	ArticleIDs []articleID `xml:"ArticleIdList>ArticleId"`
}

type articleID struct {
	IdType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}

// markupText is element text with inline markup (<i>, <sup>, <b>) flattened.
type markupText string

// UnmarshalXML implements xml.Unmarshaler.
func (m *markupText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	text, err := collectText(d)
	if err != nil {
		return err
	}
	*m = markupText(text)
	return nil
}

// collectText consumes tokens up to the end of the current element and returns
// all character data inside it, nested elements included, trimmed.
func collectText(d *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return strings.TrimSpace(sb.String()), nil
			}
			depth--
		}
	}
}
