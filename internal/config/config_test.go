package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear any existing env vars that might interfere
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Server defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 4000, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, 5*time.Minute, cfg.Server.WriteTimeout)

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Metrics defaults
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "research_timeline", cfg.Metrics.Namespace)

	// Semantic Scholar defaults
	assert.Equal(t, "https://api.semanticscholar.org/graph/v1", cfg.SemanticScholar.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.SemanticScholar.Timeout)
	assert.Empty(t, cfg.SemanticScholar.APIKey)

	// LLM defaults
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite-preview-09-2025", cfg.LLM.Gemini.Model)
	assert.True(t, cfg.LLM.SearchGrounding)
	assert.Zero(t, cfg.LLM.Temperature)
	assert.Equal(t, 2048, cfg.LLM.MaxOutputTokens)
	assert.Empty(t, cfg.LLM.Gemini.APIKey)

	// Pipeline defaults
	assert.Equal(t, 5, cfg.Pipeline.PerBin)
	assert.Equal(t, 9, cfg.Pipeline.PaperCount)
	assert.Equal(t, []float64{0.30, 0.50, 0.70, 0.85, 0.95}, cfg.Pipeline.Quantiles)
	assert.Equal(t, 30, cfg.Pipeline.CandidatePoolSize)
	assert.Equal(t, 900, cfg.Pipeline.AbstractChars)
	assert.Equal(t, 3*time.Second, cfg.Pipeline.PageDelay)
	assert.Equal(t, 1200*time.Millisecond, cfg.Pipeline.QueryDelay)
	assert.Equal(t, 3*time.Second, cfg.Pipeline.HydrateDelay)
	assert.Equal(t, []string{"transformer model"}, cfg.Pipeline.Aliases["large language models"])

	// Events defaults
	assert.False(t, cfg.Events.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Events.Kafka.Brokers)
	assert.Equal(t, 100, cfg.Events.Kafka.BatchSize)
	assert.Equal(t, 10*time.Millisecond, cfg.Events.Kafka.BatchTimeout)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	clearEnvVars(t)

	// Set environment variables with TIMELINE prefix
	t.Setenv("TIMELINE_SERVER_HTTP_PORT", "8888")
	t.Setenv("TIMELINE_LOGGING_LEVEL", "debug")
	t.Setenv("TIMELINE_LLM_PROVIDER", "none")
	t.Setenv("TIMELINE_PIPELINE_PAPER_COUNT", "12")
	t.Setenv("TIMELINE_PIPELINE_PAGE_DELAY", "500ms")
	t.Setenv("TIMELINE_EVENTS_KAFKA_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "none", cfg.LLM.Provider)
	assert.Equal(t, 12, cfg.Pipeline.PaperCount)
	assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.PageDelay)
	assert.True(t, cfg.Events.Kafka.Enabled)
}

func TestLoad_PortVariable(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("PORT", "5050")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5050, cfg.Server.HTTPPort)

	t.Setenv("PORT", "not-a-port")
	_, err = Load()
	assert.ErrorContains(t, err, "invalid PORT")
}

func TestLoad_APIKeysFromEnvOnly(t *testing.T) {
	clearEnvVars(t)

	t.Run("prefixed names", func(t *testing.T) {
		t.Setenv("TIMELINE_SEMANTIC_SCHOLAR_API_KEY", "s2-key")
		t.Setenv("TIMELINE_LLM_GEMINI_API_KEY", "gemini-key")
		t.Setenv("SEMANTIC_SCHOLAR_KEY", "legacy-s2")
		t.Setenv("GEMINI_API_KEY", "legacy-gemini")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "s2-key", cfg.SemanticScholar.APIKey)
		assert.Equal(t, "gemini-key", cfg.LLM.Gemini.APIKey)
	})

	t.Run("legacy names", func(t *testing.T) {
		t.Setenv("SEMANTIC_SCHOLAR_KEY", "legacy-s2")
		t.Setenv("GEMINI_API_KEY", "legacy-gemini")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "legacy-s2", cfg.SemanticScholar.APIKey)
		assert.Equal(t, "legacy-gemini", cfg.LLM.Gemini.APIKey)
	})
}

func TestLoadFile(t *testing.T) {
	clearEnvVars(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "timeline.yaml")
	content := `
server:
  http_port: 7070
pipeline:
  per_bin: 3
  aliases:
    graph neural networks:
      - graph convolutional network
semantic_scholar:
  api_key: must-not-load
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.HTTPPort)
	assert.Equal(t, 3, cfg.Pipeline.PerBin)
	assert.Equal(t, []string{"graph convolutional network"}, cfg.Pipeline.Aliases["graph neural networks"])
	assert.Empty(t, cfg.SemanticScholar.APIKey, "secrets are never read from files")

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_InvalidPort(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero HTTP port", func(c *Config) { c.Server.HTTPPort = 0 }},
		{"HTTP port too large", func(c *Config) { c.Server.HTTPPort = 70000 }},
		{"negative metrics port", func(c *Config) { c.Server.MetricsPort = -1 }},
		{"metrics port equals HTTP port", func(c *Config) { c.Server.MetricsPort = c.Server.HTTPPort }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	assert.ErrorContains(t, cfg.Validate(), "invalid log level")

	cfg.Logging.Level = "DEBUG"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_LLMConfig(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Provider = "openai"
	assert.ErrorContains(t, cfg.Validate(), "unsupported LLM provider")

	cfg = validConfig()
	cfg.LLM.Temperature = 3
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.LLM.Gemini.APIKey = ""
	assert.NoError(t, cfg.Validate(), "missing key degrades rather than fails")
}

func TestValidate_Pipeline(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"zero per bin", func(c *Config) { c.Pipeline.PerBin = 0 }, "PerBin"},
		{"zero paper count", func(c *Config) { c.Pipeline.PaperCount = 0 }, "PaperCount"},
		{"no quantiles", func(c *Config) { c.Pipeline.Quantiles = nil }, "Quantiles"},
		{"quantile out of range", func(c *Config) { c.Pipeline.Quantiles = []float64{0.5, 1.0} }, "Quantiles[1]"},
		{"chunk size above batch limit", func(c *Config) { c.Pipeline.HydrateChunkSize = 501 }, "HydrateChunkSize"},
		{"negative delay", func(c *Config) { c.Pipeline.PageDelay = -time.Second }, "PageDelay"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_Kafka(t *testing.T) {
	cfg := validConfig()
	cfg.Events.Kafka.Enabled = true
	cfg.Events.Kafka.Brokers = nil
	assert.ErrorContains(t, cfg.Validate(), "brokers")

	cfg = validConfig()
	cfg.Events.Kafka.Enabled = true
	cfg.Events.Kafka.Topic = ""
	assert.ErrorContains(t, cfg.Validate(), "topic")
}

func TestServerConfig_Addresses(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", HTTPPort: 4000, MetricsPort: 9091}
	assert.Equal(t, "127.0.0.1:4000", cfg.HTTPAddress())
	assert.Equal(t, "127.0.0.1:9091", cfg.MetricsAddress())
}

// clearEnvVars unsets every variable Load reads, restoring them after the test.
func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, env := range os.Environ() {
		key, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(key, EnvPrefix+"_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
	for _, key := range []string{"PORT", "SEMANTIC_SCHOLAR_KEY", "GEMINI_API_KEY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// validConfig returns a valid configuration for testing
func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			HTTPPort:    4000,
			MetricsPort: 9091,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		SemanticScholar: SemanticScholarConfig{
			BaseURL:   "https://api.semanticscholar.org/graph/v1",
			RateLimit: 1,
			Burst:     1,
		},
		LLM: LLMConfig{
			Provider:    "gemini",
			Temperature: 0,
			Gemini:      GeminiConfig{APIKey: "key", Model: "gemini-2.5-flash-lite-preview-09-2025"},
		},
		Pipeline: PipelineConfig{
			PerBin:            5,
			PaperCount:        9,
			Quantiles:         []float64{0.30, 0.50, 0.70, 0.85, 0.95},
			CandidatePoolSize: 30,
			AbstractChars:     900,
			HydrateChunkSize:  500,
			MaxSearchPages:    1,
			PageDelay:         3 * time.Second,
			QueryDelay:        1200 * time.Millisecond,
			HydrateDelay:      3 * time.Second,
		},
		Events: EventsConfig{
			Kafka: KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "events.research_timeline"},
		},
	}
}
