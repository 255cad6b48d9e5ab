package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("q", "missing q")

	assert.Equal(t, "validation error: q: missing q", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidInput))

	var ve *ValidationError
	wrapped := fmt.Errorf("run pipeline: %w", err)
	require.True(t, errors.As(wrapped, &ve))
	assert.Equal(t, "missing q", ve.Message)
}

func TestUpstreamError(t *testing.T) {
	t.Run("with status", func(t *testing.T) {
		err := NewUpstreamError("Semantic Scholar", 503, "service unavailable", nil)
		assert.Equal(t, "Semantic Scholar API error (status 503): service unavailable", err.Error())
		assert.True(t, errors.Is(err, ErrUpstream))
		assert.False(t, errors.Is(err, ErrParse))
	})

	t.Run("transport failure", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewUpstreamError("Semantic Scholar", 0, "request failed", cause)
		assert.Equal(t, "Semantic Scholar request failed: request failed", err.Error())
		assert.True(t, errors.Is(err, ErrUpstream))
		assert.True(t, errors.Is(err, cause))
	})
}

func TestParseError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := NewParseError("selection", "no JSON object found", cause)

	assert.Contains(t, err.Error(), "no JSON object found")
	assert.True(t, errors.Is(err, ErrParse))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrUpstream))
}

func TestSortByCitationsDesc(t *testing.T) {
	papers := []HydratedPaper{
		{ID: "a", CitationCount: 10},
		{ID: "b", CitationCount: 30},
		{ID: "c", CitationCount: 10},
		{ID: "d", CitationCount: 50},
	}

	sorted := SortByCitationsDesc(papers)

	ids := make([]string, len(sorted))
	for i, p := range sorted {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"d", "b", "a", "c"}, ids)
	assert.Equal(t, "a", papers[0].ID, "input must not be reordered")
}

func TestHydratedPaper_Accessors(t *testing.T) {
	p := HydratedPaper{ID: "x"}
	assert.Equal(t, 0, p.YearOrZero())

	p.Year = IntPtr(2017)
	assert.Equal(t, 2017, p.YearOrZero())

	assert.False(t, Candidate{ID: "y"}.HasYear())
	assert.True(t, Candidate{ID: "y", Year: IntPtr(1999)}.HasYear())
}

func TestYearRange_JSON(t *testing.T) {
	data, err := json.Marshal([]YearRange{{Start: 1990, End: 2001}, {Start: 2002, End: 2010}})
	require.NoError(t, err)
	assert.JSONEq(t, `[[1990,2001],[2002,2010]]`, string(data))

	var decoded []YearRange
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, YearRange{Start: 2002, End: 2010}, decoded[1])

	var bad YearRange
	assert.Error(t, json.Unmarshal([]byte(`"1990-2001"`), &bad))
}

func TestYearRange_Contains(t *testing.T) {
	r := YearRange{Start: 2000, End: 2005}
	assert.True(t, r.Contains(2000))
	assert.True(t, r.Contains(2005))
	assert.False(t, r.Contains(1999))
	assert.False(t, r.Contains(2006))
	assert.Equal(t, "2000-2005", r.String())
}

func TestTimeline_JSONShape(t *testing.T) {
	tl := Timeline{
		Query: "graph algorithms",
		Bins:  []YearRange{{Start: 1959, End: 1990}},
		Count: 42,
		Papers: []TimelineEntry{
			{ID: "p1", Title: "Shortest paths", Year: IntPtr(1959), URL: "https://example.org/p1", Summary: ""},
			{ID: PresentDayID, Title: "Present Day: Now", Year: IntPtr(2026), URL: "", Summary: "trends"},
		},
	}

	data, err := json.Marshal(tl)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"query": "graph algorithms",
		"bins": [[1959, 1990]],
		"count": 42,
		"papers": [
			{"id": "p1", "title": "Shortest paths", "year": 1959, "url": "https://example.org/p1", "summary": ""},
			{"id": "present-day", "title": "Present Day: Now", "year": 2026, "url": "", "summary": "trends"}
		]
	}`, string(data))
}
