package domain

import (
	"cmp"
	"slices"
)

// Candidate is a lightweight search hit returned by the bulk search endpoint,
// before full metadata has been fetched.
type Candidate struct {
	ID            string
	Title         string
	Year          *int
	CitationCount int
}

// HasYear reports whether the candidate carries a publication year.
func (c Candidate) HasYear() bool {
	return c.Year != nil
}

// HydratedPaper is a paper with full metadata from the batch endpoint.
type HydratedPaper struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Year          *int     `json:"year"`
	Venue         *string  `json:"venue"`
	Abstract      string   `json:"abstract"`
	CitationCount int      `json:"citationCount"`
	Authors       []string `json:"authors"`
	URL           string   `json:"url"`
}

// YearOrZero returns the publication year, or 0 when it is unknown.
func (p HydratedPaper) YearOrZero() int {
	if p.Year == nil {
		return 0
	}
	return *p.Year
}

// SelectionResult is a hydrated paper chosen for the timeline, with the
// optional justification and display title produced by the selector.
type SelectionResult struct {
	HydratedPaper
	WhyImportant  string
	TimelineTitle string
}

// SortByCitationsDesc returns a copy of papers ordered by descending citation
// count. Ties keep their input order.
func SortByCitationsDesc(papers []HydratedPaper) []HydratedPaper {
	sorted := slices.Clone(papers)
	slices.SortStableFunc(sorted, func(a, b HydratedPaper) int {
		return cmp.Compare(b.CitationCount, a.CitationCount)
	})
	return sorted
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
