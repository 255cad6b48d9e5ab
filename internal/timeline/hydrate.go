package timeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-timeline-service/internal/domain"
	"github.com/helixir/research-timeline-service/internal/observability"
	"github.com/helixir/research-timeline-service/internal/papersources"
)

// HydratorConfig controls batching and pacing of hydration calls.
type HydratorConfig struct {
	// ChunkSize is the number of ids per batch call.
	ChunkSize int
	// Delay is waited before every batch call, including the first.
	Delay time.Duration
}

// Hydrator fetches full metadata for shortlisted ids.
type Hydrator struct {
	fetcher papersources.PaperFetcher
	pacer   *papersources.Pacer
	config  HydratorConfig
	logger  zerolog.Logger
}

// NewHydrator creates a Hydrator.
func NewHydrator(fetcher papersources.PaperFetcher, pacer *papersources.Pacer, cfg HydratorConfig, logger zerolog.Logger) *Hydrator {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}
	return &Hydrator{
		fetcher: fetcher,
		pacer:   pacer,
		config:  cfg,
		logger:  observability.WithComponent(logger, "hydrator"),
	}
}

// Hydrate fetches ids chunk by chunk. An empty id list makes no call.
// Any failed chunk fails the whole hydration.
func (h *Hydrator) Hydrate(ctx context.Context, ids []string) ([]domain.HydratedPaper, error) {
	if len(ids) == 0 {
		return []domain.HydratedPaper{}, nil
	}

	out := make([]domain.HydratedPaper, 0, len(ids))
	for start := 0; start < len(ids); start += h.config.ChunkSize {
		end := min(start+h.config.ChunkSize, len(ids))

		if err := h.pacer.Wait(ctx, "hydrate", h.config.Delay); err != nil {
			return nil, err
		}

		papers, err := h.fetcher.FetchPapers(ctx, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("hydrate ids %d-%d: %w", start, end-1, err)
		}
		h.logger.Debug().
			Int("requested", end-start).
			Int("returned", len(papers)).
			Msg("hydrated chunk")
		out = append(out, papers...)
	}
	return out, nil
}
