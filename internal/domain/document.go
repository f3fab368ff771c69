// Package domain provides the domain models and error taxonomy for the scientist search service.
package domain

// Document is one bibliographic record parsed from the upstream source.
// Documents are immutable once parsed and live only for one search.
type Document struct {
	// ID is the upstream identifier (PMID).
	ID       string   `json:"pmid"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract,omitempty"`
	Authors  []Author `json:"authors"`
	Journal  Journal  `json:"journal"`

	PublicationDate PublicationDate `json:"publicationDate"`

	// DOI is empty when the record carries no DOI.
	DOI      string `json:"doi,omitempty"`
	Language string `json:"language"`

	PublicationTypes []string `json:"publicationTypes"`
}

// Author is one named contributor to a Document.
type Author struct {
	LastName    string `json:"lastName"`
	ForeName    string `json:"foreName"`
	Initials    string `json:"initials"`
	Affiliation string `json:"affiliation"`
	ORCID       string `json:"orcid,omitempty"`

	// CollectiveName is set instead of the personal name fields for group authors.
	CollectiveName string `json:"collectiveName,omitempty"`
}

// IsPerson reports whether the author carries a personal name.
func (a Author) IsPerson() bool {
	return a.CollectiveName == "" && (a.LastName != "" || a.ForeName != "")
}

// Key returns the identity used to deduplicate authors across documents.
// Two distinct people sharing a name collapse into one entry, and one person
// published under name variants stays split.
func (a Author) Key() string {
	return a.LastName + ", " + a.ForeName
}

// Journal describes the venue a Document appeared in.
type Journal struct {
	Title           string `json:"title"`
	ISOAbbreviation string `json:"isoAbbreviation"`
	ISSN            string `json:"issn,omitempty"`
	Country         string `json:"country"`
}

// PublicationDate is a loosely specified date. Unknown parts are zero.
type PublicationDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}
