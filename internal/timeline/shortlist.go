package timeline

import (
	"cmp"
	"slices"

	"github.com/helixir/research-timeline-service/internal/domain"
)

// DefaultPerBin is the number of candidates taken from each bin.
const DefaultPerBin = 5

// Shortlist takes the perBin most cited candidates of every bin and
// concatenates them from the oldest bin to the newest. Ties keep input order.
func Shortlist(bins []domain.Bin, perBin int) []domain.Candidate {
	var out []domain.Candidate
	for _, b := range bins {
		sorted := slices.Clone(b.Papers)
		slices.SortStableFunc(sorted, func(x, y domain.Candidate) int {
			return cmp.Compare(y.CitationCount, x.CitationCount)
		})
		out = append(out, sorted[:min(perBin, len(sorted))]...)
	}
	return out
}

// candidateIDs returns the ids of cands in order.
func candidateIDs(cands []domain.Candidate) []string {
	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.ID
	}
	return ids
}
