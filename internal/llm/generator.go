// Package llm wraps the assistive text generation model used to pick timeline
// milestones and to summarise the present state of a topic.
package llm

import (
	"context"
)

// Operation names used for logging and metrics.
const (
	OperationSelectPapers = "select_papers"
	OperationPresentDay   = "present_day"
)

// Generator produces text from a single-turn user prompt.
type Generator interface {
	// Generate runs one generation call.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// Provider returns the provider name (e.g. "gemini").
	Provider() string

	// Model returns the model identifier.
	Model() string
}

// GenerateRequest holds the prompt and generation options of one call.
type GenerateRequest struct {
	// Operation labels the call in logs and metrics.
	Operation string

	// Prompt is sent as a single user turn.
	Prompt string

	// Temperature controls randomness. Nil leaves the provider default.
	Temperature *float32

	// MaxOutputTokens caps the response length. Zero leaves the provider default.
	MaxOutputTokens int32

	// JSONResponse asks the provider to return application/json.
	JSONResponse bool

	// Schema constrains the JSON response. Only honoured with JSONResponse.
	Schema *Schema

	// WebSearch enables the provider's web search grounding tool.
	// Providers may not combine it with JSONResponse.
	WebSearch bool
}

// GenerateResponse is the text produced by a generation call.
type GenerateResponse struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// SchemaType is the JSON type of a schema node.
type SchemaType string

// Schema node types.
const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeInteger SchemaType = "integer"
	TypeNumber  SchemaType = "number"
	TypeBoolean SchemaType = "boolean"
)

// Schema is a provider-neutral subset of JSON Schema for structured output.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Required    []string
	Items       *Schema
}

// Float32 returns a pointer to v, for GenerateRequest.Temperature.
func Float32(v float32) *float32 {
	return &v
}
