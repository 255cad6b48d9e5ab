package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/helixir/research-timeline-service/internal/observability"
)

const (
	// DefaultGeminiModel is the model used when none is configured.
	DefaultGeminiModel = "gemini-2.5-flash-lite-preview-09-2025"

	// DefaultGeminiTimeout bounds a single generation call.
	DefaultGeminiTimeout = 60 * time.Second

	geminiProvider = "gemini"
)

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	// APIKey authenticates against the Gemini API.
	APIKey string
	// Model is the model identifier.
	Model string
	// Timeout bounds each generation call.
	Timeout time.Duration
}

// RequestRecorder receives generation outcomes for metrics.
type RequestRecorder interface {
	RecordLLMRequest(operation, model string, durationSeconds float64, inputTokens, outputTokens int)
	RecordLLMRequestFailed(operation, model, errorType string)
}

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements Generator on the Google Gen AI SDK.
// It is safe for concurrent use.
type GeminiGenerator struct {
	models   contentGenerator
	config   GeminiConfig
	recorder RequestRecorder
	logger   zerolog.Logger
}

// Compile-time check that GeminiGenerator implements Generator.
var _ Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a Gemini client. recorder may be nil.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig, recorder RequestRecorder, logger zerolog.Logger) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return newGeminiGenerator(client.Models, cfg, recorder, logger), nil
}

func newGeminiGenerator(models contentGenerator, cfg GeminiConfig, recorder RequestRecorder, logger zerolog.Logger) *GeminiGenerator {
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultGeminiTimeout
	}
	return &GeminiGenerator{
		models:   models,
		config:   cfg,
		recorder: recorder,
		logger:   observability.WithComponent(logger, "gemini"),
	}
}

// Provider returns "gemini".
func (g *GeminiGenerator) Provider() string { return geminiProvider }

// Model returns the configured model identifier.
func (g *GeminiGenerator) Model() string { return g.config.Model }

// Generate sends req.Prompt as a single user turn.
func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}

	logger := observability.WithLLMContext(g.logger, req.Operation, g.config.Model)

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.config.Model, contents, buildGenerateConfig(req))
	elapsed := time.Since(start)
	if err != nil {
		err = convertGeminiError(err)
		g.recordFailure(req.Operation, err)
		logger.Warn().
			Err(err).
			Bool("transient", IsTransient(err)).
			Str("error_type", ErrorType(err)).
			Dur("duration", elapsed).
			Msg("generation failed")
		return nil, fmt.Errorf("gemini generate %s: %w", req.Operation, err)
	}

	out := &GenerateResponse{
		Text:  resp.Text(),
		Model: g.config.Model,
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if u := resp.UsageMetadata; u != nil {
		out.InputTokens = int(u.PromptTokenCount)
		out.OutputTokens = int(u.CandidatesTokenCount)
	}

	if g.recorder != nil {
		g.recorder.RecordLLMRequest(req.Operation, g.config.Model, elapsed.Seconds(), out.InputTokens, out.OutputTokens)
	}
	logger.Debug().
		Dur("duration", elapsed).
		Int("input_tokens", out.InputTokens).
		Int("output_tokens", out.OutputTokens).
		Msg("generation completed")

	return out, nil
}

func (g *GeminiGenerator) recordFailure(operation string, err error) {
	if g.recorder != nil {
		g.recorder.RecordLLMRequestFailed(operation, g.config.Model, ErrorType(err))
	}
}

// buildGenerateConfig maps a request onto the SDK config. Gemini rejects a
// response schema combined with the search tool, so WebSearch wins.
func buildGenerateConfig(req GenerateRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxOutputTokens,
	}
	if req.WebSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
		return cfg
	}
	if req.JSONResponse {
		cfg.ResponseMIMEType = "application/json"
		if req.Schema != nil {
			cfg.ResponseSchema = toGenaiSchema(req.Schema)
		}
	}
	return cfg
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        toGenaiType(s.Type),
		Description: s.Description,
		Required:    s.Required,
		Items:       toGenaiSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}

func toGenaiType(t SchemaType) genai.Type {
	switch t {
	case TypeObject:
		return genai.TypeObject
	case TypeArray:
		return genai.TypeArray
	case TypeString:
		return genai.TypeString
	case TypeInteger:
		return genai.TypeInteger
	case TypeNumber:
		return genai.TypeNumber
	case TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}

// convertGeminiError maps SDK API errors onto APIError and leaves other
// errors (network, context) untouched.
func convertGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newGeminiAPIError(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return newGeminiAPIError(*apiErrPtr)
	}
	return err
}

func newGeminiAPIError(e genai.APIError) *APIError {
	return &APIError{
		Provider:   geminiProvider,
		StatusCode: e.Code,
		Message:    e.Message,
		Status:     e.Status,
	}
}
