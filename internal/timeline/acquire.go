package timeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-timeline-service/internal/domain"
	"github.com/helixir/research-timeline-service/internal/observability"
	"github.com/helixir/research-timeline-service/internal/papersources"
)

// AliasResolver maps a topic to additional search queries.
type AliasResolver interface {
	Aliases(topic string) []string
}

// AliasTable is an AliasResolver keyed by lower-cased, trimmed topic.
type AliasTable map[string][]string

// NewAliasTable normalises the keys of m.
func NewAliasTable(m map[string][]string) AliasTable {
	t := make(AliasTable, len(m))
	for topic, aliases := range m {
		key := normalizeTopic(topic)
		t[key] = append(t[key], aliases...)
	}
	return t
}

// DefaultAliases returns the built-in alias table.
func DefaultAliases() AliasTable {
	return NewAliasTable(map[string][]string{
		"large language models": {"transformer model"},
	})
}

// Aliases returns the extra queries registered for topic.
func (t AliasTable) Aliases(topic string) []string {
	return t[normalizeTopic(topic)]
}

func normalizeTopic(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AcquirerConfig controls paging and pacing of candidate acquisition.
type AcquirerConfig struct {
	// MaxSearchPages is the number of pages fetched per query.
	MaxSearchPages int
	// PageDelay is waited before every page after the first.
	PageDelay time.Duration
	// QueryDelay is waited between distinct queries.
	QueryDelay time.Duration
}

// Acquirer runs the bulk searches for a topic and merges their results.
type Acquirer struct {
	searcher papersources.CandidateSearcher
	source   string
	pacer    *papersources.Pacer
	aliases  AliasResolver
	config   AcquirerConfig
	logger   zerolog.Logger
}

// NewAcquirer creates an Acquirer. A nil aliases resolver disables alias queries.
func NewAcquirer(searcher papersources.CandidateSearcher, pacer *papersources.Pacer, aliases AliasResolver, cfg AcquirerConfig, logger zerolog.Logger) *Acquirer {
	if cfg.MaxSearchPages <= 0 {
		cfg.MaxSearchPages = 1
	}
	if aliases == nil {
		aliases = AliasTable{}
	}
	source := "search"
	if named, ok := searcher.(interface{ Name() string }); ok {
		source = named.Name()
	}
	return &Acquirer{
		searcher: searcher,
		source:   source,
		pacer:    pacer,
		aliases:  aliases,
		config:   cfg,
		logger:   observability.WithComponent(logger, "acquirer"),
	}
}

// Queries returns the topic followed by its aliases, without case-insensitive duplicates.
func (a *Acquirer) Queries(topic string) []string {
	queries := []string{topic}
	seen := map[string]bool{normalizeTopic(topic): true}
	for _, alias := range a.aliases.Aliases(topic) {
		key := normalizeTopic(alias)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		queries = append(queries, strings.TrimSpace(alias))
	}
	return queries
}

// Acquire searches every query for topic and returns the deduplicated candidates.
// Any upstream failure aborts the acquisition.
func (a *Acquirer) Acquire(ctx context.Context, topic string) ([]domain.Candidate, error) {
	queries := a.Queries(topic)
	if len(queries) > 1 {
		a.logger.Info().Strs("queries", queries).Msg("performing multi-query search")
	}

	var all []domain.Candidate
	for i, q := range queries {
		if i > 0 {
			if err := a.pacer.Wait(ctx, "query", a.config.QueryDelay); err != nil {
				return nil, err
			}
		}
		found, err := a.search(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, found...)
	}

	return DedupeCandidates(all), nil
}

// search follows continuation tokens for one query up to MaxSearchPages.
func (a *Acquirer) search(ctx context.Context, query string) ([]domain.Candidate, error) {
	logger := observability.WithSearchContext(a.logger, query, a.source)
	var out []domain.Candidate
	token := ""
	for page := 1; page <= a.config.MaxSearchPages; page++ {
		if page > 1 {
			if err := a.pacer.Wait(ctx, "page", a.config.PageDelay); err != nil {
				return nil, err
			}
		}

		logger.Debug().
			Int("page", page).
			Int("max_pages", a.config.MaxSearchPages).
			Msg("fetching search page")

		res, err := a.searcher.SearchCandidates(ctx, query, token)
		if err != nil {
			return nil, fmt.Errorf("search %q page %d: %w", query, page, err)
		}
		out = append(out, res.Candidates...)
		logger.Debug().
			Int("page", page).
			Int("hits", len(res.Candidates)).
			Int("total", res.Total).
			Msg("search page fetched")

		token = res.Token
		if token == "" {
			break
		}
	}
	return out, nil
}

// DedupeCandidates removes repeated ids. Each id keeps the position of its
// first occurrence and the data of its last. Candidates without an id are dropped.
func DedupeCandidates(cands []domain.Candidate) []domain.Candidate {
	index := make(map[string]int, len(cands))
	out := make([]domain.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.ID == "" {
			continue
		}
		if i, ok := index[c.ID]; ok {
			out[i] = c
			continue
		}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	return out
}
