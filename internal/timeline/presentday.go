package timeline

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/research-timeline-service/internal/domain"
	"github.com/helixir/research-timeline-service/internal/llm"
	"github.com/helixir/research-timeline-service/internal/observability"
)

const (
	fallbackPresentDayTitle   = "Present Day"
	fallbackPresentDaySummary = "Current research focuses on improving efficiency, safety, and multimodal capabilities in large language models."
)

// FallbackPresentDay is the static entry used whenever generation is not
// possible.
func FallbackPresentDay() domain.PresentDayEntry {
	return domain.PresentDayEntry{
		Title:   fallbackPresentDayTitle,
		Summary: fallbackPresentDaySummary,
		URL:     "",
	}
}

// SummarizerConfig controls the present-day generation call.
type SummarizerConfig struct {
	// WebSearch grounds the call with the model's search tool.
	WebSearch bool
	// MaxOutputTokens of the generation call. Zero leaves the model default.
	MaxOutputTokens int32
}

// Summarizer produces the present-day entry for a topic.
type Summarizer struct {
	generator llm.Generator
	config    SummarizerConfig
	recorder  Recorder
	logger    zerolog.Logger
}

// NewSummarizer creates a Summarizer. generator and recorder may be nil.
func NewSummarizer(generator llm.Generator, cfg SummarizerConfig, recorder Recorder, logger zerolog.Logger) *Summarizer {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Summarizer{
		generator: generator,
		config:    cfg,
		recorder:  recorder,
		logger:    observability.WithComponent(logger, "present_day"),
	}
}

// Summarize never fails; every error path yields FallbackPresentDay.
func (s *Summarizer) Summarize(ctx context.Context, topic string) domain.PresentDayEntry {
	if s.generator == nil {
		s.recorder.RecordFallback("present_day", "no_generator")
		return FallbackPresentDay()
	}

	resp, err := s.generator.Generate(ctx, llm.GenerateRequest{
		Operation:       llm.OperationPresentDay,
		Prompt:          buildPresentDayPrompt(topic),
		Temperature:     llm.Float32(0),
		MaxOutputTokens: s.config.MaxOutputTokens,
		WebSearch:       s.config.WebSearch,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("topic", topic).Msg("present day summary generation failed")
		s.recorder.RecordFallback("present_day", "generation")
		return FallbackPresentDay()
	}

	var entry domain.PresentDayEntry
	if err := llm.ParseJSON("present_day", resp.Text, &entry, llm.ExtractFenced, llm.ExtractWhole, llm.ExtractObject); err != nil {
		s.logger.Error().Err(err).Str("topic", topic).Msg("present day summary could not be parsed")
		s.recorder.RecordFallback("present_day", "parse")
		return FallbackPresentDay()
	}

	fallback := FallbackPresentDay()
	if strings.TrimSpace(entry.Title) == "" {
		entry.Title = fallback.Title
	}
	if strings.TrimSpace(entry.Summary) == "" {
		entry.Summary = fallback.Summary
	}
	return entry
}
