// Package config loads service configuration from a YAML file and
// environment variables.
package config

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Vision   VisionConfig   `mapstructure:"vision"`
	Geometry GeometryConfig `mapstructure:"geometry"`
	Loop     LoopConfig     `mapstructure:"loop"`
	Log      LogConfig      `mapstructure:"log"`
}

// APIConfig configures the HTTP listener.
type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LLMConfig selects the generation provider and carries credentials. Keys
// normally arrive through environment variables (PLANDRAFT_LLM_GEMINI_API_KEY
// and friends) rather than the config file.
type LLMConfig struct {
	Provider string `mapstructure:"provider"` // gemini | claude | grok
	Model    string `mapstructure:"model"`

	GeminiAPIKey    string `mapstructure:"gemini_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	XAIAPIKey       string `mapstructure:"xai_api_key"`

	RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
}

// VisionConfig configures the visual review pass.
type VisionConfig struct {
	// Enabled switches the post-generation review on. The review reuses the
	// generation provider's credentials.
	Enabled bool `mapstructure:"enabled"`

	// USDPer1KTokens prices cost estimates for review calls.
	USDPer1KTokens float64 `mapstructure:"usd_per_1k_tokens"`
}

// GeometryConfig points at the geometry server.
type GeometryConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// LoopConfig tunes the generation loop.
type LoopConfig struct {
	MaxIterations int `mapstructure:"max_iterations"`
}

// LogConfig configures logging and the in-memory log store.
type LogConfig struct {
	Level    string `mapstructure:"level"` // debug | info | warn | error
	Capacity int    `mapstructure:"capacity"`
}

// Load reads configuration from the given file, with PLANDRAFT_-prefixed
// environment variables taking precedence. An empty path loads defaults and
// environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PLANDRAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", configPath))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.requests_per_minute", 0)

	// Credential keys need registered defaults so AutomaticEnv picks them up
	// during Unmarshal.
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.anthropic_api_key", "")
	v.SetDefault("llm.xai_api_key", "")

	v.SetDefault("vision.enabled", true)
	v.SetDefault("vision.usd_per_1k_tokens", 0.002)

	v.SetDefault("geometry.base_url", "http://localhost:3001")

	v.SetDefault("loop.max_iterations", 20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.capacity", 10000)
}
