// Package app wires configuration into a ready-to-run timeline pipeline.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/research-timeline-service/internal/config"
	"github.com/helixir/research-timeline-service/internal/events"
	"github.com/helixir/research-timeline-service/internal/llm"
	"github.com/helixir/research-timeline-service/internal/observability"
	"github.com/helixir/research-timeline-service/internal/papersources"
	"github.com/helixir/research-timeline-service/internal/papersources/semanticscholar"
	"github.com/helixir/research-timeline-service/internal/timeline"
)

// Components are the long-lived objects built from configuration.
type Components struct {
	Pipeline  *timeline.Pipeline
	Publisher *events.Publisher
	// Generator is nil when no assistive model is configured.
	Generator llm.Generator
}

// Close releases the event sink.
func (c *Components) Close() error {
	if c.Publisher == nil {
		return nil
	}
	return c.Publisher.Close()
}

// Options override collaborators, mainly for tests.
type Options struct {
	// Clock drives pacing and the present-day year. Nil means wall clock.
	Clock papersources.Clock
	// Sink replaces the configured event sink.
	Sink events.Sink
}

// Build creates the pipeline and its collaborators. metrics may be nil.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics, opts Options) (*Components, error) {
	s2 := semanticscholar.NewClient(semanticscholar.Config{
		BaseURL:   cfg.SemanticScholar.BaseURL,
		APIKey:    cfg.SemanticScholar.APIKey,
		Timeout:   cfg.SemanticScholar.Timeout,
		RateLimit: cfg.SemanticScholar.RateLimit,
		BurstSize: cfg.SemanticScholar.Burst,
	}, nil, metrics)
	if cfg.SemanticScholar.APIKey == "" {
		logger.Warn().Msg("no Semantic Scholar API key configured, using the shared unauthenticated rate limit")
	}

	generator, err := llm.NewGenerator(ctx, llm.FactoryConfig{
		Provider: strings.ToLower(cfg.LLM.Provider),
		Gemini: llm.GeminiConfig{
			APIKey:  cfg.LLM.Gemini.APIKey,
			Model:   cfg.LLM.Gemini.Model,
			Timeout: cfg.LLM.Timeout,
		},
	}, metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}
	if generator == nil {
		logger.Warn().Msg("no assistive model configured, selecting by citation count with a static present-day entry")
	} else {
		logger.Info().
			Str("provider", generator.Provider()).
			Str("model", generator.Model()).
			Msg("assistive model configured")
	}

	sink := opts.Sink
	if sink == nil {
		sink = newSink(cfg.Events.Kafka, logger)
	}
	publisher := events.NewPublisher(
		events.NewEmitter(events.EmitterConfig{ServiceName: cfg.Events.ServiceName}),
		sink,
		metrics,
		logger,
	)

	pacer := papersources.NewPacer(opts.Clock, metrics)
	now := pacer.Now

	aliases := timeline.DefaultAliases()
	if len(cfg.Pipeline.Aliases) > 0 {
		aliases = timeline.NewAliasTable(cfg.Pipeline.Aliases)
	}

	selector := timeline.NewSelector(generator, timeline.ModelStrategyConfig{
		CandidatePoolSize: cfg.Pipeline.CandidatePoolSize,
		AbstractChars:     cfg.Pipeline.AbstractChars,
		Temperature:       float32(cfg.LLM.Temperature),
		MaxOutputTokens:   int32(cfg.LLM.MaxOutputTokens),
	}, metrics, logger)
	logger.Info().Strs("selection_strategies", selector.Strategies()).Msg("selection chain configured")

	pipeline := timeline.NewPipeline(timeline.Deps{
		Acquirer: timeline.NewAcquirer(s2, pacer, aliases, timeline.AcquirerConfig{
			MaxSearchPages: cfg.Pipeline.MaxSearchPages,
			PageDelay:      cfg.Pipeline.PageDelay,
			QueryDelay:     cfg.Pipeline.QueryDelay,
		}, logger),
		Hydrator: timeline.NewHydrator(s2, pacer, timeline.HydratorConfig{
			ChunkSize: cfg.Pipeline.HydrateChunkSize,
			Delay:     cfg.Pipeline.HydrateDelay,
		}, logger),
		Summarizer: timeline.NewSummarizer(generator, timeline.SummarizerConfig{
			WebSearch: cfg.LLM.SearchGrounding,
		}, metrics, logger),
		Selector:  selector,
		Publisher: publisher,
		Recorder:  metrics,
		Now:       now,
	}, timeline.Config{
		PerBin:     cfg.Pipeline.PerBin,
		PaperCount: cfg.Pipeline.PaperCount,
		Quantiles:  cfg.Pipeline.Quantiles,
	}, logger)

	return &Components{
		Pipeline:  pipeline,
		Publisher: publisher,
		Generator: generator,
	}, nil
}

func newSink(cfg config.KafkaConfig, logger zerolog.Logger) events.Sink {
	if !cfg.Enabled {
		return events.NoopSink{}
	}
	logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("publishing timeline events to kafka")
	return events.NewKafkaSink(events.KafkaConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	})
}
