package timeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-timeline-service/internal/domain"
	"github.com/helixir/research-timeline-service/internal/llm"
	"github.com/helixir/research-timeline-service/internal/papersources"
)

type pipelineFixture struct {
	searcher  *fakeSearcher
	fetcher   *fakeFetcher
	clock     *stubClock
	observer  *fakePaceObserver
	recorder  *fakeRecorder
	publisher *fakePublisher
}

// newPipelineFixture seeds one candidate per year from 1990 to 2019.
func newPipelineFixture() *pipelineFixture {
	var cands []domain.Candidate
	papers := make(map[string]domain.HydratedPaper)
	for i := 0; i < 30; i++ {
		id := fmt.Sprintf("p%02d", i)
		cites := (i * 53) % 97
		cands = append(cands, candidate(id, 1990+i, cites))
		papers[id] = hydrated(id, 1990+i, cites)
	}
	// A duplicate hit must not inflate the count.
	cands = append(cands, candidate("p00", 1990, 0))

	return &pipelineFixture{
		searcher: &fakeSearcher{pages: map[string][]*papersources.CandidatePage{
			"graph algorithms": {
				{Candidates: cands[:15], Token: "next"},
				{Candidates: cands[15:]},
			},
		}},
		fetcher:   &fakeFetcher{papers: papers},
		clock:     &stubClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		observer:  &fakePaceObserver{},
		recorder:  &fakeRecorder{},
		publisher: &fakePublisher{},
	}
}

func (f *pipelineFixture) pipeline(gen llm.Generator) *Pipeline {
	logger := zerolog.Nop()
	pacer := papersources.NewPacer(f.clock, f.observer)
	return NewPipeline(Deps{
		Acquirer: NewAcquirer(f.searcher, pacer, DefaultAliases(), AcquirerConfig{
			MaxSearchPages: 3,
			PageDelay:      3 * time.Second,
			QueryDelay:     1200 * time.Millisecond,
		}, logger),
		Hydrator:   NewHydrator(f.fetcher, pacer, HydratorConfig{Delay: 3 * time.Second}, logger),
		Selector:   NewSelector(gen, ModelStrategyConfig{}, f.recorder, logger),
		Summarizer: NewSummarizer(gen, SummarizerConfig{WebSearch: true}, f.recorder, logger),
		Publisher:  f.publisher,
		Recorder:   f.recorder,
		Now:        f.clock.Now,
	}, Config{}, logger)
}

func TestPipeline_Run_WithoutModel(t *testing.T) {
	f := newPipelineFixture()

	got, err := f.pipeline(nil).Run(context.Background(), "  graph algorithms ")
	require.NoError(t, err)

	assert.Equal(t, "graph algorithms", got.Query)
	assert.Equal(t, 30, got.Count)
	assert.NotEmpty(t, got.Bins)
	require.Len(t, got.Papers, DefaultPaperCount+1)

	for i := 1; i < DefaultPaperCount; i++ {
		require.NotNil(t, got.Papers[i-1].Year)
		require.NotNil(t, got.Papers[i].Year)
		assert.LessOrEqual(t, *got.Papers[i-1].Year, *got.Papers[i].Year)
	}
	for _, p := range got.Papers[:DefaultPaperCount] {
		assert.Equal(t, "Abstract of "+p.ID, p.Summary)
	}

	present := got.Papers[DefaultPaperCount]
	assert.Equal(t, domain.PresentDayID, present.ID)
	assert.Equal(t, "Present Day: "+fallbackPresentDayTitle, present.Title)
	assert.Equal(t, fallbackPresentDaySummary, present.Summary)
	assert.Empty(t, present.URL)
	require.NotNil(t, present.Year)
	assert.GreaterOrEqual(t, *present.Year, *got.Papers[DefaultPaperCount-1].Year)

	assert.Equal(t, []string{"page", "hydrate"}, f.observer.reasons)
	require.Len(t, f.fetcher.calls, 1)
	assert.Len(t, f.fetcher.calls[0], 24)

	assert.Equal(t, 30, f.recorder.candidates)
	assert.Equal(t, 1, f.recorder.completed)
	assert.Equal(t, DefaultPaperCount+1, f.recorder.entries)
	assert.Equal(t, []string{StageAcquire, StageBin, StageHydrate, StageSelect, StagePresentDay, StageAssemble}, f.recorder.stages)

	require.Len(t, f.publisher.generated, 1)
	assert.Equal(t, StrategyCitation, f.publisher.generated[0].Strategy)
	assert.Equal(t, DefaultPaperCount+1, f.publisher.generated[0].Entries)
}

func TestPipeline_Run_WithModel(t *testing.T) {
	f := newPipelineFixture()
	gen := &fakeGenerator{responses: map[string]string{
		llm.OperationSelectPapers: `{"selected":[
			{"id":"p20","why_important":"Popularised the method.","timeline_title":"Breakthrough"},
			{"id":"p07","why_important":"Founded the field.","timeline_title":"Origins"}
		]}`,
		llm.OperationPresentDay: "```json\n{\"title\":\"Scale\",\"summary\":\"Large graphs.\",\"url\":\"https://arxiv.org/abs/2401.00001\"}\n```",
	}}

	got, err := f.pipeline(gen).Run(context.Background(), "graph algorithms")
	require.NoError(t, err)
	require.Len(t, got.Papers, 3)
	assert.Equal(t, "p07", got.Papers[0].ID)
	assert.Equal(t, "Founded the field.", got.Papers[0].Summary)
	assert.Equal(t, "p20", got.Papers[1].ID)
	assert.Equal(t, "Present Day: Scale", got.Papers[2].Title)
	assert.Equal(t, domain.IntPtr(2026), got.Papers[2].Year)
}

func TestPipeline_Run_PublishFailureDoesNotFailRequest(t *testing.T) {
	f := newPipelineFixture()
	f.publisher.err = errors.New("broker unavailable")

	got, err := f.pipeline(nil).Run(context.Background(), "graph algorithms")
	require.NoError(t, err)
	assert.Len(t, got.Papers, DefaultPaperCount+1)
	assert.Len(t, f.publisher.generated, 1)
}

func TestPipeline_Run_EmptyQuery(t *testing.T) {
	f := newPipelineFixture()

	_, err := f.pipeline(nil).Run(context.Background(), "   ")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "missing q", ve.Message)
	assert.Empty(t, f.searcher.calls)
}

func TestPipeline_Run_UpstreamFailure(t *testing.T) {
	t.Run("search", func(t *testing.T) {
		f := newPipelineFixture()
		f.searcher.err = domain.NewUpstreamError("semantic_scholar", 429, "Too Many Requests", nil)

		_, err := f.pipeline(nil).Run(context.Background(), "graph algorithms")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUpstream)
		assert.Equal(t, 1, f.recorder.failed)
		require.Len(t, f.publisher.failed, 1)
		assert.Equal(t, StageAcquire, f.publisher.failed[0].Stage)
		assert.Empty(t, f.fetcher.calls)
	})

	t.Run("hydration", func(t *testing.T) {
		f := newPipelineFixture()
		f.fetcher.err = domain.NewUpstreamError("semantic_scholar", 500, "Internal Server Error", nil)

		_, err := f.pipeline(nil).Run(context.Background(), "graph algorithms")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUpstream)
		require.Len(t, f.publisher.failed, 1)
		assert.Equal(t, StageHydrate, f.publisher.failed[0].Stage)
		assert.Empty(t, f.publisher.generated)
	})
}

func TestPipeline_Run_SingleYear(t *testing.T) {
	f := newPipelineFixture()
	f.searcher.pages = map[string][]*papersources.CandidatePage{
		"graph algorithms": {{Candidates: []domain.Candidate{candidate("a", 2020, 1), candidate("b", 2020, 2)}}},
	}

	got, err := f.pipeline(nil).Run(context.Background(), "graph algorithms")
	require.NoError(t, err)
	assert.Empty(t, got.Bins)
	assert.Equal(t, 2, got.Count)
	require.Len(t, got.Papers, 1)
	assert.Equal(t, domain.PresentDayID, got.Papers[0].ID)
	assert.Empty(t, f.fetcher.calls, "nothing to hydrate")
}
