package papersources

import (
	"context"

	"github.com/helixir/research-timeline-service/internal/domain"
)

// CandidatePage is one page of lightweight search results.
type CandidatePage struct {
	// Candidates are the hits on this page, in upstream order.
	Candidates []domain.Candidate

	// Token is the continuation token for the next page. Empty means no more pages.
	Token string

	// Total is the upstream's estimate of the total number of matches.
	Total int
}

// CandidateSearcher runs a citation-sorted bulk search.
type CandidateSearcher interface {
	// SearchCandidates fetches one page for query. An empty token fetches the first page.
	SearchCandidates(ctx context.Context, query, token string) (*CandidatePage, error)
}

// PaperFetcher fetches full metadata for a set of paper ids in one call.
type PaperFetcher interface {
	// FetchPapers returns the known papers among ids. Unknown ids are omitted.
	FetchPapers(ctx context.Context, ids []string) ([]domain.HydratedPaper, error)
}
