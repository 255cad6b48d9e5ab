package timeline

import (
	"context"
	"time"

	"github.com/helixir/research-timeline-service/internal/domain"
	"github.com/helixir/research-timeline-service/internal/events"
	"github.com/helixir/research-timeline-service/internal/llm"
	"github.com/helixir/research-timeline-service/internal/papersources"
)

type searchCall struct {
	query string
	token string
}

type fakeSearcher struct {
	pages map[string][]*papersources.CandidatePage
	calls []searchCall
	err   error
}

func (f *fakeSearcher) SearchCandidates(_ context.Context, query, token string) (*papersources.CandidatePage, error) {
	f.calls = append(f.calls, searchCall{query: query, token: token})
	if f.err != nil {
		return nil, f.err
	}
	n := 0
	for _, c := range f.calls {
		if c.query == query {
			n++
		}
	}
	pages := f.pages[query]
	if n > len(pages) {
		return &papersources.CandidatePage{}, nil
	}
	return pages[n-1], nil
}

func (f *fakeSearcher) Name() string { return "fake-s2" }

type fakeFetcher struct {
	papers map[string]domain.HydratedPaper
	calls  [][]string
	err    error
}

func (f *fakeFetcher) FetchPapers(_ context.Context, ids []string) ([]domain.HydratedPaper, error) {
	f.calls = append(f.calls, append([]string(nil), ids...))
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.HydratedPaper
	for _, id := range ids {
		if p, ok := f.papers[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeGenerator struct {
	responses map[string]string
	errs      map[string]error
	requests  []llm.GenerateRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.requests = append(f.requests, req)
	if err := f.errs[req.Operation]; err != nil {
		return nil, err
	}
	return &llm.GenerateResponse{Text: f.responses[req.Operation], Model: "fake-model"}, nil
}

func (f *fakeGenerator) Provider() string { return "fake" }
func (f *fakeGenerator) Model() string    { return "fake-model" }

type stubClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *stubClock) Now() time.Time { return c.now }

func (c *stubClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

type fakePaceObserver struct {
	reasons []string
}

func (f *fakePaceObserver) RecordPacingWait(reason string, _ time.Duration) {
	f.reasons = append(f.reasons, reason)
}

type fakeRecorder struct {
	stages     []string
	candidates int
	completed  int
	entries    int
	failed     int
	strategies []string
	fallbacks  []string
}

func (f *fakeRecorder) RecordStage(stage string, _ float64) { f.stages = append(f.stages, stage) }
func (f *fakeRecorder) RecordCandidates(n int)              { f.candidates = n }
func (f *fakeRecorder) RecordPipelineCompleted(_ float64, entries int) {
	f.completed++
	f.entries = entries
}
func (f *fakeRecorder) RecordPipelineFailed(float64) { f.failed++ }
func (f *fakeRecorder) RecordSelectionStrategy(strategy string) {
	f.strategies = append(f.strategies, strategy)
}
func (f *fakeRecorder) RecordFallback(stage, reason string) {
	f.fallbacks = append(f.fallbacks, stage+"/"+reason)
}

type fakePublisher struct {
	generated []events.GeneratedPayload
	failed    []events.FailedPayload
	err       error
}

func (f *fakePublisher) PublishTimelineGenerated(_ context.Context, p events.GeneratedPayload) error {
	f.generated = append(f.generated, p)
	return f.err
}

func (f *fakePublisher) PublishTimelineFailed(_ context.Context, p events.FailedPayload) error {
	f.failed = append(f.failed, p)
	return f.err
}

func candidate(id string, year, citations int) domain.Candidate {
	return domain.Candidate{ID: id, Title: "Paper " + id, Year: domain.IntPtr(year), CitationCount: citations}
}

func hydrated(id string, year, citations int) domain.HydratedPaper {
	return domain.HydratedPaper{
		ID:            id,
		Title:         "Paper " + id,
		Year:          domain.IntPtr(year),
		Abstract:      "Abstract of " + id,
		CitationCount: citations,
		URL:           "https://www.semanticscholar.org/paper/" + id,
	}
}
