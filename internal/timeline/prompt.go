package timeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/helixir/research-timeline-service/internal/domain"
	"github.com/helixir/research-timeline-service/internal/llm"
)

// compactPaper is the trimmed paper representation sent to the model.
type compactPaper struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Year      *int    `json:"year"`
	Venue     *string `json:"venue"`
	Citations int     `json:"citations"`
	Abstract  string  `json:"abstract"`
}

// compactPapers converts papers for the prompt, cutting abstracts to abstractChars runes.
func compactPapers(papers []domain.HydratedPaper, abstractChars int) []compactPaper {
	out := make([]compactPaper, len(papers))
	for i, p := range papers {
		out[i] = compactPaper{
			ID:        p.ID,
			Title:     p.Title,
			Year:      p.Year,
			Venue:     p.Venue,
			Citations: p.CitationCount,
			Abstract:  truncateRunes(p.Abstract, abstractChars),
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// buildSelectionPrompt asks for exactly count milestone papers among candidates.
func buildSelectionPrompt(topic string, candidates []compactPaper, count int) (string, error) {
	data, err := json.Marshal(candidates)
	if err != nil {
		return "", fmt.Errorf("encode candidates: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are selecting key milestone papers to form a coherent timeline for the topic: %q.\n", topic)
	fmt.Fprintf(&sb, "Choose exactly %d papers that best trace the field's evolution. Prefer paradigm shifts and influential works.\n", count)
	sb.WriteString("Avoid near-duplicates. Use ONLY provided info.\n")
	sb.WriteString("Do not mention the year of the paper in the 'why_important' summary, as it is already displayed separately.\n\n")
	sb.WriteString("Return STRICT JSON with this exact shape:\n")
	sb.WriteString(`{"selected":[{"id":"<id>","why_important":"<A few sentences explaining why this work was revolutionary and its impact>","timeline_title":"<A Title For The Timeline, e.g. 'The Attention Mechanism is Introduced'>"}]}`)
	sb.WriteString("\n\nCANDIDATES:\n")
	sb.Write(data)
	return sb.String(), nil
}

// selectionSchema is the structured output contract of the selection call.
var selectionSchema = &llm.Schema{
	Type:     llm.TypeObject,
	Required: []string{"selected"},
	Properties: map[string]*llm.Schema{
		"selected": {
			Type: llm.TypeArray,
			Items: &llm.Schema{
				Type:     llm.TypeObject,
				Required: []string{"id", "why_important", "timeline_title"},
				Properties: map[string]*llm.Schema{
					"id":             {Type: llm.TypeString, Description: "id of a provided candidate"},
					"why_important":  {Type: llm.TypeString},
					"timeline_title": {Type: llm.TypeString},
				},
			},
		},
	},
}

// selectionResponse is the shape the selection call returns.
type selectionResponse struct {
	Selected []struct {
		ID            string `json:"id"`
		WhyImportant  string `json:"why_important"`
		TimelineTitle string `json:"timeline_title"`
	} `json:"selected"`
}

// buildPresentDayPrompt asks for a title, summary and exemplary paper URL.
func buildPresentDayPrompt(topic string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "For the topic %q, I need to create a \"Present Day\" summary for a timeline. Please provide the following in a strict JSON format:\n", topic)
	sb.WriteString("1.  A \"title\" that summarizes the current era of research (e.g., \"Focus on Multimodality, Efficiency, and Reasoning\").\n")
	sb.WriteString("2.  A \"summary\" of one to three sentences describing the current, ongoing research trends.\n")
	sb.WriteString("3.  Use Google Search to find a single, highly-relevant, and recent (survey or breakthrough) paper that exemplifies these trends and provide its \"url\".\n\n")
	sb.WriteString("Return ONLY the JSON object with the keys \"title\", \"summary\", and \"url\".")
	return sb.String()
}
