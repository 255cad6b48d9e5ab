package timeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/helixir/research-timeline-service/internal/domain"
	"github.com/helixir/research-timeline-service/internal/llm"
)

// Strategy names.
const (
	StrategyModel    = "model"
	StrategyCitation = "citation"
)

// SelectionInput is what a strategy chooses from.
type SelectionInput struct {
	Topic  string
	Papers []domain.HydratedPaper
	Count  int
}

// SelectionStrategy picks timeline papers. ok=false means the next strategy
// in the chain should be tried.
type SelectionStrategy interface {
	Name() string
	Select(ctx context.Context, in SelectionInput) (results []domain.SelectionResult, ok bool)
}

// citationStrategy takes the most cited papers with empty justifications.
type citationStrategy struct{}

// NewCitationStrategy returns the deterministic citation-count strategy.
func NewCitationStrategy() SelectionStrategy {
	return citationStrategy{}
}

func (citationStrategy) Name() string { return StrategyCitation }

func (citationStrategy) Select(_ context.Context, in SelectionInput) ([]domain.SelectionResult, bool) {
	if len(in.Papers) == 0 {
		return nil, false
	}
	sorted := domain.SortByCitationsDesc(in.Papers)
	n := min(max(in.Count, 0), len(sorted))

	results := make([]domain.SelectionResult, 0, n)
	for _, p := range sorted[:n] {
		results = append(results, domain.SelectionResult{HydratedPaper: p})
	}
	return results, len(results) > 0
}

// ModelStrategyConfig controls the model selection call.
type ModelStrategyConfig struct {
	// CandidatePoolSize is how many of the papers are shown to the model.
	CandidatePoolSize int
	// AbstractChars caps each abstract in the prompt.
	AbstractChars int
	// Temperature of the generation call.
	Temperature float32
	// MaxOutputTokens of the generation call.
	MaxOutputTokens int32
}

// modelStrategy asks the assistive model to choose milestone papers.
type modelStrategy struct {
	generator llm.Generator
	config    ModelStrategyConfig
	logger    zerolog.Logger
}

// NewModelStrategy returns a strategy backed by generator.
func NewModelStrategy(generator llm.Generator, cfg ModelStrategyConfig, logger zerolog.Logger) SelectionStrategy {
	if cfg.CandidatePoolSize <= 0 {
		cfg.CandidatePoolSize = 30
	}
	if cfg.AbstractChars <= 0 {
		cfg.AbstractChars = 900
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 2048
	}
	return &modelStrategy{
		generator: generator,
		config:    cfg,
		logger:    logger.With().Str("strategy", StrategyModel).Logger(),
	}
}

func (s *modelStrategy) Name() string { return StrategyModel }

func (s *modelStrategy) Select(ctx context.Context, in SelectionInput) ([]domain.SelectionResult, bool) {
	if len(in.Papers) == 0 || in.Count <= 0 {
		return nil, false
	}

	pool := in.Papers[:min(s.config.CandidatePoolSize, len(in.Papers))]
	prompt, err := buildSelectionPrompt(in.Topic, compactPapers(pool, s.config.AbstractChars), in.Count)
	if err != nil {
		s.logger.Warn().Err(err).Msg("building selection prompt failed")
		return nil, false
	}

	resp, err := s.generator.Generate(ctx, llm.GenerateRequest{
		Operation:       llm.OperationSelectPapers,
		Prompt:          prompt,
		Temperature:     llm.Float32(s.config.Temperature),
		MaxOutputTokens: s.config.MaxOutputTokens,
		JSONResponse:    true,
		Schema:          selectionSchema,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("selection generation failed")
		return nil, false
	}
	s.logger.Debug().Str("response", resp.Text).Msg("selection response")

	var parsed selectionResponse
	if err := llm.ParseJSON("selection", resp.Text, &parsed, llm.ExtractWhole, llm.ExtractObject); err != nil {
		s.logger.Warn().Err(err).Msg("selection response could not be parsed")
		return nil, false
	}

	results := reconcileSelection(in.Papers, parsed, in.Count)
	if len(results) == 0 {
		s.logger.Warn().Int("returned", len(parsed.Selected)).Msg("model selected no known papers")
		return nil, false
	}
	return results, true
}

// reconcileSelection keeps the papers the model chose, in input order,
// attaching the model's justification and title. Unknown ids are ignored
// and at most count papers are kept.
func reconcileSelection(papers []domain.HydratedPaper, parsed selectionResponse, count int) []domain.SelectionResult {
	type reason struct{ why, title string }
	reasons := make(map[string]reason, len(parsed.Selected))
	for _, s := range parsed.Selected {
		reasons[s.ID] = reason{why: s.WhyImportant, title: s.TimelineTitle}
	}

	var results []domain.SelectionResult
	for _, p := range papers {
		r, ok := reasons[p.ID]
		if !ok {
			continue
		}
		results = append(results, domain.SelectionResult{
			HydratedPaper: p,
			WhyImportant:  r.why,
			TimelineTitle: r.title,
		})
		if len(results) == count {
			break
		}
	}
	return results
}
