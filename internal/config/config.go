package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/cost"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/observability/slogobs"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FNCALL"

// Config is the complete fncall configuration.
type Config struct {
	Provider   ProviderConfig   `mapstructure:"provider" yaml:"provider" json:"provider"`
	Extraction ExtractionConfig `mapstructure:"extraction" yaml:"extraction" json:"extraction"`
	Scrape     ScrapeConfig     `mapstructure:"scrape" yaml:"scrape" json:"scrape"`
	Log        LogConfig        `mapstructure:"log" yaml:"log" json:"log"`
}

// ProviderConfig selects the chat-completions endpoint.
type ProviderConfig struct {
	BaseURL            string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	APIKey             string `mapstructure:"api_key" yaml:"api_key" json:"api_key"`
	Model              string `mapstructure:"model" yaml:"model" json:"model"`
	UseLegacyFunctions bool   `mapstructure:"use_legacy_functions" yaml:"use_legacy_functions" json:"use_legacy_functions"`
	TimeoutSeconds     int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
	// MaxTransportRetries bounds retries of rate-limited or failed requests.
	MaxTransportRetries int `mapstructure:"max_transport_retries" yaml:"max_transport_retries" json:"max_transport_retries"`
	// Pricing prices the token usage of a run. All zero disables pricing.
	Pricing cost.ModelCost `mapstructure:"pricing" yaml:"pricing" json:"pricing"`
}

// ExtractionConfig tunes the validate-and-retry loop.
type ExtractionConfig struct {
	MaxRetries int  `mapstructure:"max_retries" yaml:"max_retries" json:"max_retries"`
	Strict     bool `mapstructure:"strict" yaml:"strict" json:"strict"`
	RepairJSON bool `mapstructure:"repair_json" yaml:"repair_json" json:"repair_json"`
}

// ScrapeConfig tunes table scraping.
type ScrapeConfig struct {
	ChunkSize      int    `mapstructure:"chunk_size" yaml:"chunk_size" json:"chunk_size"`
	UserAgent      string `mapstructure:"user_agent" yaml:"user_agent" json:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
}

// LogConfig controls logging and observability.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	// Requests is the verbosity of per-request logs: minimal, standard or verbose.
	Requests string `mapstructure:"requests" yaml:"requests" json:"requests"`
	// Observer is slog, otel or none.
	Observer string `mapstructure:"observer" yaml:"observer" json:"observer"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL:             "https://api.openai.com/v1",
			APIKey:              "${OPENAI_API_KEY}",
			Model:               "gpt-4o-mini",
			TimeoutSeconds:      120,
			MaxTransportRetries: 2,
		},
		Extraction: ExtractionConfig{
			MaxRetries: 1,
		},
		Scrape: ScrapeConfig{
			ChunkSize:      10,
			UserAgent:      "fncall-scraper/1.0",
			TimeoutSeconds: 30,
		},
		Log: LogConfig{
			Level:    "info",
			Format:   "compact",
			Requests: "standard",
			Observer: "slog",
		},
	}
}

// Load reads the configuration. cfgFile, when set, must exist; otherwise an
// fncall.yaml is looked up and may be missing. A .env file in the working
// directory is loaded first without overriding variables already set.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("fncall")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.fncall")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Provider.APIKey = ResolveEnvVars(cfg.Provider.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every leaf key, which also lets AutomaticEnv see
// keys that no config file mentions.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("provider.base_url", d.Provider.BaseURL)
	v.SetDefault("provider.api_key", d.Provider.APIKey)
	v.SetDefault("provider.model", d.Provider.Model)
	v.SetDefault("provider.use_legacy_functions", d.Provider.UseLegacyFunctions)
	v.SetDefault("provider.timeout_seconds", d.Provider.TimeoutSeconds)
	v.SetDefault("provider.max_transport_retries", d.Provider.MaxTransportRetries)
	v.SetDefault("provider.pricing.input_cost_per_million", d.Provider.Pricing.InputCostPerMillion)
	v.SetDefault("provider.pricing.output_cost_per_million", d.Provider.Pricing.OutputCostPerMillion)
	v.SetDefault("provider.pricing.cached_input_cost_per_million", d.Provider.Pricing.CachedInputCostPerMillion)
	v.SetDefault("provider.pricing.reasoning_cost_per_million", d.Provider.Pricing.ReasoningCostPerMillion)

	v.SetDefault("extraction.max_retries", d.Extraction.MaxRetries)
	v.SetDefault("extraction.strict", d.Extraction.Strict)
	v.SetDefault("extraction.repair_json", d.Extraction.RepairJSON)

	v.SetDefault("scrape.chunk_size", d.Scrape.ChunkSize)
	v.SetDefault("scrape.user_agent", d.Scrape.UserAgent)
	v.SetDefault("scrape.timeout_seconds", d.Scrape.TimeoutSeconds)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.requests", d.Log.Requests)
	v.SetDefault("log.observer", d.Log.Observer)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Provider.Model == "" {
		return errors.New("config: provider.model is required")
	}
	if c.Provider.MaxTransportRetries < 0 {
		return fmt.Errorf("config: provider.max_transport_retries must not be negative, got %d", c.Provider.MaxTransportRetries)
	}
	if err := c.Provider.Pricing.Validate(); err != nil {
		return fmt.Errorf("config: provider.pricing: %w", err)
	}
	if c.Scrape.ChunkSize <= 0 {
		return fmt.Errorf("config: scrape.chunk_size must be positive, got %d", c.Scrape.ChunkSize)
	}
	if _, err := slogobs.ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	switch c.Log.Requests {
	case "minimal", "standard", "verbose":
	default:
		return fmt.Errorf("config: log.requests must be minimal, standard or verbose, got %q", c.Log.Requests)
	}
	switch c.Log.Observer {
	case "slog", "otel", "none":
	default:
		return fmt.Errorf("config: log.observer must be slog, otel or none, got %q", c.Log.Observer)
	}
	return nil
}

// ProviderTimeout returns the per-request timeout, zero meaning none.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}

// ScrapeTimeout returns the page fetch timeout.
func (c *Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Scrape.TimeoutSeconds) * time.Second
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in value. Unset variables
// expand to the empty string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envRef.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# fncall configuration
# Every key can be overridden with an FNCALL_ environment variable,
# e.g. FNCALL_PROVIDER_MODEL=llama3.1 or FNCALL_EXTRACTION_MAX_RETRIES=3.
# The API key uses ${ENV_VAR} syntax to reference an environment variable.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
