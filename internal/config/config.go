// Package config provides configuration management for the research timeline service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "TIMELINE"

// Config holds all configuration for the research timeline service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// SemanticScholar contains the bibliographic API settings.
	SemanticScholar SemanticScholarConfig `mapstructure:"semantic_scholar"`
	// LLM contains the assistive model settings.
	LLM LLMConfig `mapstructure:"llm"`
	// Pipeline contains the curation policy.
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	// Events contains lifecycle event publishing settings.
	Events EventsConfig `mapstructure:"events"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 4000, overridden by PORT).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response. A timeline
	// request includes several paced upstream calls, so this is generous.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the keep-alive idle timeout.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the output format (json, console).
	Format string `mapstructure:"format"`
	// Output is the destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds caller information.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp layout.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint.
	Enabled bool `mapstructure:"enabled"`
	// Path of the metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// SemanticScholarConfig holds the Semantic Scholar Graph API settings.
type SemanticScholarConfig struct {
	// APIKey is loaded from the environment only.
	APIKey string `mapstructure:"-"`
	// BaseURL of the Graph API.
	BaseURL string `mapstructure:"base_url"`
	// Timeout per HTTP request.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit in requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// Burst of the rate limiter.
	Burst int `mapstructure:"burst"`
}

// LLMConfig holds the assistive model settings.
type LLMConfig struct {
	// Provider is "gemini" or "none".
	Provider string `mapstructure:"provider"`
	// Timeout per generation call.
	Timeout time.Duration `mapstructure:"timeout"`
	// Temperature of the selection call (default 0).
	Temperature float64 `mapstructure:"temperature"`
	// MaxOutputTokens of the selection call.
	MaxOutputTokens int `mapstructure:"max_output_tokens"`
	// SearchGrounding enables the web search tool for the present-day summary.
	SearchGrounding bool `mapstructure:"search_grounding"`
	// Gemini contains Gemini API settings.
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Gemini settings.
type GeminiConfig struct {
	// APIKey is loaded from the environment only.
	APIKey string `mapstructure:"-"`
	// Model name.
	Model string `mapstructure:"model"`
}

// PipelineConfig holds the timeline curation policy.
type PipelineConfig struct {
	PerBin            int                 `mapstructure:"per_bin" validate:"gte=1,lte=50"`
	PaperCount        int                 `mapstructure:"paper_count" validate:"gte=1,lte=50"`
	Quantiles         []float64           `mapstructure:"quantiles" validate:"required,dive,gt=0,lt=1"`
	CandidatePoolSize int                 `mapstructure:"candidate_pool_size" validate:"gte=1,lte=500"`
	AbstractChars     int                 `mapstructure:"abstract_chars" validate:"gte=1"`
	HydrateChunkSize  int                 `mapstructure:"hydrate_chunk_size" validate:"gte=1,lte=500"`
	MaxSearchPages    int                 `mapstructure:"max_search_pages" validate:"gte=1,lte=100"`
	PageDelay         time.Duration       `mapstructure:"page_delay" validate:"gte=0"`
	QueryDelay        time.Duration       `mapstructure:"query_delay" validate:"gte=0"`
	HydrateDelay      time.Duration       `mapstructure:"hydrate_delay" validate:"gte=0"`
	Aliases           map[string][]string `mapstructure:"aliases"`
}

// EventsConfig holds lifecycle event settings.
type EventsConfig struct {
	// ServiceName is stamped on every event as its source.
	ServiceName string `mapstructure:"service_name"`
	// Kafka contains Kafka publisher settings.
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// KafkaConfig holds Kafka producer configuration.
type KafkaConfig struct {
	// Enabled turns on publishing. When false events are discarded.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic is the destination topic.
	Topic string `mapstructure:"topic"`
	// BatchSize is the producer batch size.
	BatchSize int `mapstructure:"batch_size"`
	// BatchTimeout is the maximum time before a partial batch is flushed.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// default locations and tolerates a missing file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/research-timeline")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// Config file not found is OK, we'll use env vars and defaults
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := applyPortOverride(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// The unprefixed names are accepted for compatibility with existing deployments.
func loadSecrets(cfg *Config) {
	cfg.SemanticScholar.APIKey = firstEnv(EnvPrefix+"_SEMANTIC_SCHOLAR_API_KEY", "SEMANTIC_SCHOLAR_KEY")
	cfg.LLM.Gemini.APIKey = firstEnv(EnvPrefix+"_LLM_GEMINI_API_KEY", "GEMINI_API_KEY")
}

// applyPortOverride honours the conventional PORT variable.
func applyPortOverride(cfg *Config) error {
	raw := os.Getenv("PORT")
	if raw == "" {
		return nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid PORT %q: %w", raw, err)
	}
	cfg.Server.HTTPPort = port
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 4000)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "research_timeline")

	// Semantic Scholar defaults
	// The API key is loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("semantic_scholar.base_url", "https://api.semanticscholar.org/graph/v1")
	v.SetDefault("semantic_scholar.timeout", "30s")
	v.SetDefault("semantic_scholar.rate_limit", 1.0)
	v.SetDefault("semantic_scholar.burst", 1)

	// LLM defaults
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_output_tokens", 2048)
	v.SetDefault("llm.search_grounding", true)
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash-lite-preview-09-2025")

	// Pipeline defaults
	v.SetDefault("pipeline.per_bin", 5)
	v.SetDefault("pipeline.paper_count", 9)
	v.SetDefault("pipeline.quantiles", []float64{0.30, 0.50, 0.70, 0.85, 0.95})
	v.SetDefault("pipeline.candidate_pool_size", 30)
	v.SetDefault("pipeline.abstract_chars", 900)
	v.SetDefault("pipeline.hydrate_chunk_size", 500)
	v.SetDefault("pipeline.max_search_pages", 1)
	v.SetDefault("pipeline.page_delay", "3s")
	v.SetDefault("pipeline.query_delay", "1200ms")
	v.SetDefault("pipeline.hydrate_delay", "3s")
	v.SetDefault("pipeline.aliases", map[string][]string{
		"large language models": {"transformer model"},
	})

	// Events defaults
	v.SetDefault("events.service_name", "research-timeline-service")
	v.SetDefault("events.kafka.enabled", false)
	v.SetDefault("events.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("events.kafka.topic", "events.research_timeline")
	v.SetDefault("events.kafka.batch_size", 100)
	v.SetDefault("events.kafka.batch_timeout", "10ms")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}
	if c.Metrics.Enabled && c.Server.MetricsPort == c.Server.HTTPPort {
		return fmt.Errorf("metrics port must differ from HTTP port (%d)", c.Server.HTTPPort)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate Semantic Scholar config
	if c.SemanticScholar.BaseURL == "" {
		return fmt.Errorf("semantic scholar base_url is required")
	}
	if c.SemanticScholar.RateLimit <= 0 {
		return fmt.Errorf("semantic scholar rate_limit must be positive")
	}

	// Validate LLM config. A missing Gemini key is not an error: selection
	// then runs on citation counts and the present-day entry is static.
	switch strings.ToLower(c.LLM.Provider) {
	case "", "gemini", "none":
	default:
		return fmt.Errorf("unsupported LLM provider: %q", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM temperature must be between 0 and 2")
	}

	// Validate pipeline policy
	if err := validator.New().Struct(c.Pipeline); err != nil {
		return fmt.Errorf("invalid pipeline config: %w", err)
	}

	// Validate events config
	if c.Events.Kafka.Enabled {
		if len(c.Events.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Events.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	return nil
}
