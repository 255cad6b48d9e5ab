package timeline

import (
	"math"
	"slices"

	"github.com/helixir/research-timeline-service/internal/domain"
)

// DefaultQuantiles are the cut fractions for year binning. They skew bins
// towards recent years, where publication volume is highest.
var DefaultQuantiles = []float64{0.30, 0.50, 0.70, 0.85, 0.95}

// MakeYearBins splits the candidates' year span into contiguous ranges cut
// at the given quantiles of the sorted year distribution. Candidates without
// a year are ignored. Fewer than two distinct years yields no bins.
func MakeYearBins(cands []domain.Candidate, quantiles []float64) []domain.YearRange {
	years := make([]int, 0, len(cands))
	for _, c := range cands {
		if c.HasYear() {
			years = append(years, *c.Year)
		}
	}
	if len(years) < 2 {
		return nil
	}
	slices.Sort(years)

	first, last := years[0], years[len(years)-1]
	if first == last {
		return nil
	}

	qs := slices.Clone(quantiles)
	slices.Sort(qs)

	n := len(years)
	cuts := make([]int, 0, len(qs))
	for _, q := range qs {
		idx := int(math.Floor(q * float64(n-1)))
		idx = max(0, min(idx, n-1))
		cuts = append(cuts, years[idx])
	}
	cuts = slices.Compact(cuts)

	var ranges []domain.YearRange
	start := first
	for _, c := range cuts {
		if c < start {
			continue
		}
		ranges = append(ranges, domain.YearRange{Start: start, End: c})
		start = c + 1
	}
	if start <= last {
		ranges = append(ranges, domain.YearRange{Start: start, End: last})
	}
	return ranges
}

// AssignBins groups candidates into the given ranges, keeping input order
// within each bin. Candidates without a year belong to no bin.
func AssignBins(cands []domain.Candidate, ranges []domain.YearRange) []domain.Bin {
	bins := make([]domain.Bin, len(ranges))
	for i, r := range ranges {
		bins[i].Range = r
		for _, c := range cands {
			if c.HasYear() && r.Contains(*c.Year) {
				bins[i].Papers = append(bins[i].Papers, c)
			}
		}
	}
	return bins
}
