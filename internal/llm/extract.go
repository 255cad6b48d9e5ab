package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/helixir/research-timeline-service/internal/domain"
)

// ExtractResult is the outcome of pulling a JSON document out of model text.
// Exactly one of JSON and Err is set.
type ExtractResult struct {
	JSON []byte
	Err  error
}

// Ok reports whether a candidate JSON document was found.
func (r ExtractResult) Ok() bool {
	return r.Err == nil && len(r.JSON) > 0
}

// Decode unmarshals the extracted document into v.
func (r ExtractResult) Decode(v any) error {
	if !r.Ok() {
		if r.Err != nil {
			return r.Err
		}
		return errors.New("no JSON extracted")
	}
	return json.Unmarshal(r.JSON, v)
}

// Extractor finds a JSON document inside free text.
type Extractor func(text string) ExtractResult

var fencedJSON = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```")

// ExtractFenced returns the body of the first ```json fenced block.
func ExtractFenced(text string) ExtractResult {
	m := fencedJSON.FindStringSubmatch(text)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return ExtractResult{Err: errors.New("no fenced json block")}
	}
	return ExtractResult{JSON: []byte(strings.TrimSpace(m[1]))}
}

// ExtractObject returns the span from the first '{' to the last '}'.
func ExtractObject(text string) ExtractResult {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return ExtractResult{Err: errors.New("no JSON object found")}
	}
	return ExtractResult{JSON: []byte(text[start : end+1])}
}

// ExtractWhole returns the whole trimmed text.
func ExtractWhole(text string) ExtractResult {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ExtractResult{Err: errors.New("empty response")}
	}
	return ExtractResult{JSON: []byte(trimmed)}
}

// ParseJSON decodes text into v, trying each extractor in order until one
// yields a document that decodes. With no extractors, only the whole text is
// tried. The returned error is a *domain.ParseError naming source.
func ParseJSON(source, text string, v any, extractors ...Extractor) error {
	if len(extractors) == 0 {
		extractors = []Extractor{ExtractWhole}
	}

	var lastErr error
	for _, extract := range extractors {
		if err := extract(text).Decode(v); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return domain.NewParseError(source, "no decodable JSON in model output", lastErr)
}
