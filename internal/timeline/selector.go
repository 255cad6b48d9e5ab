package timeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/helixir/research-timeline-service/internal/domain"
	"github.com/helixir/research-timeline-service/internal/llm"
	"github.com/helixir/research-timeline-service/internal/observability"
)

// DefaultPaperCount is the number of historical papers on a timeline.
const DefaultPaperCount = 9

// Selector runs the selection strategies in order until one succeeds.
type Selector struct {
	strategies []SelectionStrategy
	recorder   Recorder
	logger     zerolog.Logger
}

// NewSelector builds the default chain: the model strategy when a generator
// is configured, then the citation strategy. recorder may be nil.
func NewSelector(generator llm.Generator, cfg ModelStrategyConfig, recorder Recorder, logger zerolog.Logger) *Selector {
	logger = observability.WithComponent(logger, "selector")

	var strategies []SelectionStrategy
	if generator != nil {
		strategies = append(strategies, NewModelStrategy(generator, cfg, logger))
	}
	strategies = append(strategies, NewCitationStrategy())
	return NewSelectorWithStrategies(recorder, logger, strategies...)
}

// NewSelectorWithStrategies builds a selector over an explicit chain.
func NewSelectorWithStrategies(recorder Recorder, logger zerolog.Logger, strategies ...SelectionStrategy) *Selector {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Selector{
		strategies: strategies,
		recorder:   recorder,
		logger:     logger,
	}
}

// Strategies returns the names of the chain in order.
func (s *Selector) Strategies() []string {
	names := make([]string, len(s.strategies))
	for i, st := range s.strategies {
		names[i] = st.Name()
	}
	return names
}

// Select picks up to count papers for topic. It never fails: strategies that
// cannot produce a result hand over to the next one. Empty input yields an
// empty result.
func (s *Selector) Select(ctx context.Context, topic string, papers []domain.HydratedPaper, count int) []domain.SelectionResult {
	results, _ := s.Run(ctx, topic, papers, count)
	return results
}

// Run is Select that also reports the name of the strategy that produced the
// result, or "" when none did.
func (s *Selector) Run(ctx context.Context, topic string, papers []domain.HydratedPaper, count int) ([]domain.SelectionResult, string) {
	if len(papers) == 0 {
		return []domain.SelectionResult{}, ""
	}

	in := SelectionInput{Topic: topic, Papers: papers, Count: count}
	for i, st := range s.strategies {
		results, ok := st.Select(ctx, in)
		if !ok {
			if i < len(s.strategies)-1 {
				s.recorder.RecordFallback("selection", st.Name())
				s.logger.Info().
					Str("strategy", st.Name()).
					Str("next", s.strategies[i+1].Name()).
					Msg("selection strategy gave no result, trying next")
			}
			continue
		}
		s.recorder.RecordSelectionStrategy(st.Name())
		return results, st.Name()
	}

	s.logger.Warn().Int("papers", len(papers)).Msg("no selection strategy produced a result")
	return []domain.SelectionResult{}, ""
}
