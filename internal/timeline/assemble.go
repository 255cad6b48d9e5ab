package timeline

import (
	"cmp"
	"slices"

	"github.com/helixir/research-timeline-service/internal/domain"
)

const presentDayTitlePrefix = "Present Day: "

// Assemble builds the response payload. Historical entries are ordered by
// year ascending with missing years sorting as 0 and rendered as null. The
// present-day entry is always appended last with currentYear.
func Assemble(query string, ranges []domain.YearRange, count int, selected []domain.SelectionResult, present domain.PresentDayEntry, currentYear int) domain.Timeline {
	sorted := slices.Clone(selected)
	slices.SortStableFunc(sorted, func(a, b domain.SelectionResult) int {
		return cmp.Compare(a.YearOrZero(), b.YearOrZero())
	})

	papers := make([]domain.TimelineEntry, 0, len(sorted)+1)
	for _, s := range sorted {
		summary := s.WhyImportant
		if summary == "" {
			summary = s.Abstract
		}
		papers = append(papers, domain.TimelineEntry{
			ID:      s.ID,
			Title:   s.Title,
			Year:    s.Year,
			URL:     s.URL,
			Summary: summary,
		})
	}
	papers = append(papers, domain.TimelineEntry{
		ID:      domain.PresentDayID,
		Title:   presentDayTitlePrefix + present.Title,
		Year:    domain.IntPtr(currentYear),
		URL:     present.URL,
		Summary: present.Summary,
	})

	bins := ranges
	if bins == nil {
		bins = []domain.YearRange{}
	}
	return domain.Timeline{
		Query:  query,
		Bins:   bins,
		Count:  count,
		Papers: papers,
	}
}
