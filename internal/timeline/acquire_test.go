package timeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-timeline-service/internal/domain"
	"github.com/helixir/research-timeline-service/internal/papersources"
)

func newTestAcquirer(searcher *fakeSearcher, clock *stubClock, observer *fakePaceObserver, cfg AcquirerConfig) *Acquirer {
	return NewAcquirer(searcher, papersources.NewPacer(clock, observer), DefaultAliases(), cfg, zerolog.Nop())
}

func TestAcquirer_Queries(t *testing.T) {
	a := NewAcquirer(&fakeSearcher{}, papersources.NewPacer(&stubClock{}, nil), NewAliasTable(map[string][]string{
		" Large Language Models ": {"transformer model", "Transformer Model", "large language models", ""},
	}), AcquirerConfig{}, zerolog.Nop())

	assert.Equal(t, []string{"LARGE language models", "transformer model"}, a.Queries("LARGE language models"))
	assert.Equal(t, []string{"graph algorithms"}, a.Queries("graph algorithms"))
}

func TestAcquirer_Acquire(t *testing.T) {
	t.Run("follows tokens up to max pages with page delay", func(t *testing.T) {
		searcher := &fakeSearcher{pages: map[string][]*papersources.CandidatePage{
			"graph algorithms": {
				{Candidates: []domain.Candidate{candidate("a", 2001, 10)}, Token: "t1"},
				{Candidates: []domain.Candidate{candidate("b", 2002, 5)}, Token: "t2"},
				{Candidates: []domain.Candidate{candidate("c", 2003, 1)}, Token: "t3"},
			},
		}}
		clock := &stubClock{}
		observer := &fakePaceObserver{}
		a := newTestAcquirer(searcher, clock, observer, AcquirerConfig{MaxSearchPages: 2, PageDelay: 3 * time.Second})

		got, err := a.Acquire(context.Background(), "graph algorithms")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, candidateIDs(got))
		assert.Equal(t, []searchCall{{"graph algorithms", ""}, {"graph algorithms", "t1"}}, searcher.calls)
		assert.Equal(t, []time.Duration{3 * time.Second}, clock.sleeps)
		assert.Equal(t, []string{"page"}, observer.reasons)
	})

	t.Run("stops when token is empty", func(t *testing.T) {
		searcher := &fakeSearcher{pages: map[string][]*papersources.CandidatePage{
			"graph algorithms": {{Candidates: []domain.Candidate{candidate("a", 2001, 10)}}},
		}}
		clock := &stubClock{}
		a := newTestAcquirer(searcher, clock, nil, AcquirerConfig{MaxSearchPages: 5, PageDelay: time.Second})

		got, err := a.Acquire(context.Background(), "graph algorithms")
		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Len(t, searcher.calls, 1)
		assert.Empty(t, clock.sleeps)
	})

	t.Run("alias queries are merged and deduplicated", func(t *testing.T) {
		searcher := &fakeSearcher{pages: map[string][]*papersources.CandidatePage{
			"large language models": {{Candidates: []domain.Candidate{candidate("a", 2018, 10), candidate("b", 2019, 20)}}},
			"transformer model":     {{Candidates: []domain.Candidate{candidate("a", 2018, 11), candidate("c", 2017, 30)}}},
		}}
		clock := &stubClock{}
		observer := &fakePaceObserver{}
		a := newTestAcquirer(searcher, clock, observer, AcquirerConfig{MaxSearchPages: 1, QueryDelay: 1200 * time.Millisecond})

		got, err := a.Acquire(context.Background(), "large language models")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, candidateIDs(got))
		assert.Equal(t, 11, got[0].CitationCount)
		assert.Equal(t, []string{"query"}, observer.reasons)
		assert.Equal(t, []time.Duration{1200 * time.Millisecond}, clock.sleeps)
	})

	t.Run("upstream error aborts", func(t *testing.T) {
		upstream := domain.NewUpstreamError("semantic_scholar", 429, "Too Many Requests", nil)
		searcher := &fakeSearcher{err: upstream}
		a := newTestAcquirer(searcher, &stubClock{}, nil, AcquirerConfig{MaxSearchPages: 3})

		_, err := a.Acquire(context.Background(), "graph algorithms")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUpstream)
		assert.Contains(t, err.Error(), `search "graph algorithms" page 1`)
	})

	t.Run("cancelled context stops pacing", func(t *testing.T) {
		searcher := &fakeSearcher{pages: map[string][]*papersources.CandidatePage{
			"graph algorithms": {{Token: "more"}, {}},
		}}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		a := newTestAcquirer(searcher, &stubClock{}, nil, AcquirerConfig{MaxSearchPages: 2, PageDelay: time.Second})

		_, err := a.Acquire(ctx, "graph algorithms")
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestAcquirer_LogsSearchContext(t *testing.T) {
	searcher := &fakeSearcher{pages: map[string][]*papersources.CandidatePage{
		"graph algorithms": {{Candidates: []domain.Candidate{candidate("a", 2001, 1)}, Total: 1}},
	}}
	var logs bytes.Buffer
	a := NewAcquirer(searcher, papersources.NewPacer(&stubClock{}, nil), nil, AcquirerConfig{}, zerolog.New(&logs))

	_, err := a.Acquire(context.Background(), "graph algorithms")
	require.NoError(t, err)

	var fetched map[string]any
	scanner := bufio.NewScanner(&logs)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		if entry["message"] == "search page fetched" {
			fetched = entry
		}
	}
	require.NotNil(t, fetched)
	assert.Equal(t, "acquirer", fetched["component"])
	assert.Equal(t, "graph algorithms", fetched["search_query"])
	assert.Equal(t, "fake-s2", fetched["source"])
	assert.Equal(t, float64(1), fetched["hits"])
}

func TestDedupeCandidates(t *testing.T) {
	got := DedupeCandidates([]domain.Candidate{
		candidate("a", 2001, 1),
		candidate("a", 2001, 2),
		candidate("b", 2002, 3),
		{ID: ""},
	})
	require.Len(t, got, 2)
	assert.Equal(t, []string{"a", "b"}, candidateIDs(got))
	assert.Equal(t, 2, got[0].CitationCount)
	assert.Empty(t, DedupeCandidates(nil))
}
