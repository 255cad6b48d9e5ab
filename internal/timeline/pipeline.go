package timeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-timeline-service/internal/domain"
	"github.com/helixir/research-timeline-service/internal/events"
	"github.com/helixir/research-timeline-service/internal/observability"
)

// Pipeline stage names used for metrics and failure events.
const (
	StageAcquire    = "acquire"
	StageBin        = "bin"
	StageHydrate    = "hydrate"
	StageSelect     = "select"
	StagePresentDay = "present_day"
	StageAssemble   = "assemble"
)

// EventPublisher receives lifecycle events. Failures are logged only.
type EventPublisher interface {
	PublishTimelineGenerated(ctx context.Context, payload events.GeneratedPayload) error
	PublishTimelineFailed(ctx context.Context, payload events.FailedPayload) error
}

// Config holds the curation policy.
type Config struct {
	// PerBin caps the shortlist contribution of each bin.
	PerBin int
	// PaperCount is the number of historical papers picked.
	PaperCount int
	// Quantiles are the cut points used for year binning.
	Quantiles []float64
}

// Deps are the collaborators of a Pipeline. Publisher, Recorder and Now are optional.
type Deps struct {
	Acquirer   *Acquirer
	Hydrator   *Hydrator
	Selector   *Selector
	Summarizer *Summarizer
	Publisher  EventPublisher
	Recorder   Recorder
	Now        func() time.Time
}

// Pipeline turns a topic into a curated timeline.
type Pipeline struct {
	deps   Deps
	config Config
	logger zerolog.Logger
}

// NewPipeline creates a Pipeline, filling zero policy values with defaults.
func NewPipeline(deps Deps, cfg Config, logger zerolog.Logger) *Pipeline {
	if cfg.PerBin <= 0 {
		cfg.PerBin = DefaultPerBin
	}
	if cfg.PaperCount <= 0 {
		cfg.PaperCount = DefaultPaperCount
	}
	if len(cfg.Quantiles) == 0 {
		cfg.Quantiles = DefaultQuantiles
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Pipeline{
		deps:   deps,
		config: cfg,
		logger: observability.WithComponent(logger, "pipeline"),
	}
}

// Run builds the timeline for query. A blank query is a ValidationError;
// search and hydration failures abort the request. Selection and present-day
// failures never surface.
func (p *Pipeline) Run(ctx context.Context, query string) (*domain.Timeline, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, domain.NewValidationError("q", "missing q")
	}

	started := time.Now()
	logger := observability.WithQueryContext(p.logger, observability.RequestIDFromContext(ctx), q)

	logger.Info().Msgf("[%s] 1/6: Starting bulk search...", q)
	stageStart := time.Now()
	candidates, err := p.deps.Acquirer.Acquire(ctx, q)
	if err != nil {
		return nil, p.fail(ctx, logger, q, StageAcquire, started, err)
	}
	p.deps.Recorder.RecordStage(StageAcquire, time.Since(stageStart).Seconds())
	p.deps.Recorder.RecordCandidates(len(candidates))
	logger.Info().Int("candidates", len(candidates)).
		Msgf("[%s] 2/6: Bulk search done! Found %d unique candidates.", q, len(candidates))

	stageStart = time.Now()
	ranges := MakeYearBins(candidates, p.config.Quantiles)
	bins := AssignBins(candidates, ranges)
	for _, b := range bins {
		logger.Debug().
			Str("range", b.Range.String()).
			Int("papers", len(b.Papers)).
			Msg("bin created")
	}
	shortlist := Shortlist(bins, p.config.PerBin)
	p.deps.Recorder.RecordStage(StageBin, time.Since(stageStart).Seconds())

	logger.Info().Int("shortlist", len(shortlist)).
		Msgf("[%s] 3/6: Hydrating %d papers from bins...", q, len(shortlist))
	stageStart = time.Now()
	hydrated, err := p.deps.Hydrator.Hydrate(ctx, candidateIDs(shortlist))
	if err != nil {
		return nil, p.fail(ctx, logger, q, StageHydrate, started, err)
	}
	p.deps.Recorder.RecordStage(StageHydrate, time.Since(stageStart).Seconds())

	logger.Info().Msgf("[%s] 4/6: Asking LLM to select historical papers...", q)
	stageStart = time.Now()
	selected, strategy := p.deps.Selector.Run(ctx, q, hydrated, p.config.PaperCount)
	p.deps.Recorder.RecordStage(StageSelect, time.Since(stageStart).Seconds())

	logger.Info().Msgf("[%s] 5/6: Generating present day summary...", q)
	stageStart = time.Now()
	present := p.deps.Summarizer.Summarize(ctx, q)
	p.deps.Recorder.RecordStage(StagePresentDay, time.Since(stageStart).Seconds())

	stageStart = time.Now()
	result := Assemble(q, ranges, len(candidates), selected, present, p.deps.Now().Year())
	p.deps.Recorder.RecordStage(StageAssemble, time.Since(stageStart).Seconds())

	elapsed := time.Since(started)
	p.deps.Recorder.RecordPipelineCompleted(elapsed.Seconds(), len(result.Papers))
	logger.Info().
		Int("entries", len(result.Papers)).
		Str("strategy", strategy).
		Dur("duration", elapsed).
		Msgf("[%s] 6/6: Done! Sending %d papers to frontend.", q, len(result.Papers))

	if p.deps.Publisher != nil {
		err := p.deps.Publisher.PublishTimelineGenerated(ctx, events.GeneratedPayload{
			Query:      q,
			Candidates: len(candidates),
			Bins:       len(ranges),
			Shortlist:  len(shortlist),
			Entries:    len(result.Papers),
			Strategy:   strategy,
			DurationMS: elapsed.Milliseconds(),
		})
		if err != nil {
			logger.Debug().Err(err).Msg("timeline event not delivered")
		}
	}

	return &result, nil
}

func (p *Pipeline) fail(ctx context.Context, logger zerolog.Logger, query, stage string, started time.Time, err error) error {
	elapsed := time.Since(started)
	p.deps.Recorder.RecordPipelineFailed(elapsed.Seconds())
	logger.Error().Err(err).Str("stage", stage).Msg("timeline request failed")

	if p.deps.Publisher != nil {
		pubErr := p.deps.Publisher.PublishTimelineFailed(ctx, events.FailedPayload{
			Query:      query,
			Stage:      stage,
			Error:      err.Error(),
			DurationMS: elapsed.Milliseconds(),
		})
		if pubErr != nil {
			logger.Debug().Err(pubErr).Msg("failure event not delivered")
		}
	}
	return fmt.Errorf("%s: %w", stage, err)
}
