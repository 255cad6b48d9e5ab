// Package semanticscholar provides a client for the Semantic Scholar Graph API.
//
// Two endpoints are used: the citation-sorted bulk search, which returns
// lightweight candidates with a continuation token, and the batch endpoint,
// which returns full metadata for up to 500 ids per call.
//
// API Documentation: https://api.semanticscholar.org/api-docs/
package semanticscholar

import (
	"encoding/json"
	"math"

	"github.com/helixir/research-timeline-service/internal/domain"
)

// BulkSearchPage represents one page of the /paper/search/bulk endpoint.
type BulkSearchPage struct {
	// Total is the approximate number of papers matching the query.
	Total int `json:"total"`

	// Token continues the search on the next page. Empty on the last page.
	Token string `json:"token"`

	// Data contains the papers on this page.
	Data []SearchHit `json:"data"`
}

// SearchHit is a paper in a bulk search page, limited to the lightweight fields.
type SearchHit struct {
	PaperID       string `json:"paperId"`
	Title         string `json:"title"`
	Year          Year   `json:"year"`
	CitationCount *int   `json:"citationCount"`
}

// Year is a publication year as sent upstream. Anything other than a whole
// number (fractions, strings, objects) decodes as absent instead of failing
// the whole response.
type Year struct {
	value *int
}

// UnmarshalJSON implements json.Unmarshaler.
func (y *Year) UnmarshalJSON(data []byte) error {
	y.value = nil
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil || n == "" {
		return nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	y.value = domain.IntPtr(int(f))
	return nil
}

// Int returns the year, or nil when it is absent or not a whole number.
func (y Year) Int() *int {
	return y.value
}

// PaperResult represents a single paper in the batch endpoint response.
// Every field apart from PaperID may be null upstream.
type PaperResult struct {
	// PaperID is the Semantic Scholar unique identifier for the paper.
	PaperID string `json:"paperId"`

	// Title is the title of the paper.
	Title *string `json:"title"`

	// Year is the publication year.
	Year Year `json:"year"`

	// Venue is the publication venue (conference, journal name, etc.).
	Venue *string `json:"venue"`

	// Abstract is the paper's abstract text.
	Abstract *string `json:"abstract"`

	// CitationCount is the number of citations this paper has received.
	CitationCount *int `json:"citationCount"`

	// Authors is the list of paper authors.
	Authors []Author `json:"authors"`

	// URL is the paper's Semantic Scholar page.
	URL *string `json:"url"`
}

// Author represents an author in the Semantic Scholar API.
type Author struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

// batchRequest is the JSON body of the batch endpoint.
type batchRequest struct {
	IDs []string `json:"ids"`
}

// ErrorResponse represents an error response from the Semantic Scholar API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
