package domain

import (
	"encoding/json"
	"fmt"
)

// PresentDayID is the id of the synthetic entry appended to every timeline.
const PresentDayID = "present-day"

// YearRange is an inclusive range of publication years.
type YearRange struct {
	Start int
	End   int
}

// Contains reports whether year falls inside the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.Start && year <= r.End
}

// String returns the range as "start-end".
func (r YearRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// MarshalJSON encodes the range as a two element array.
func (r YearRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Start, r.End})
}

// UnmarshalJSON decodes a two element array.
func (r *YearRange) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode year range: %w", err)
	}
	r.Start, r.End = pair[0], pair[1]
	return nil
}

// Bin groups the candidates whose year falls in Range.
type Bin struct {
	Range  YearRange
	Papers []Candidate
}

// PresentDayEntry summarises the current state of a research topic.
type PresentDayEntry struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

// TimelineEntry is a single rendered milestone. Year is null for historical
// papers without a publication year.
type TimelineEntry struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Year    *int   `json:"year"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// Timeline is the response body of a timeline query.
type Timeline struct {
	Query  string          `json:"query"`
	Bins   []YearRange     `json:"bins"`
	Count  int             `json:"count"`
	Papers []TimelineEntry `json:"papers"`
}
