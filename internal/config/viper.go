package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
//
// The Store port and secure fields stay strings on purpose: secure flags are
// tri-state (unset means "derive from the URL scheme") and port values that
// fail to parse must silently fall back to defaults, both of which the
// backend resolver handles.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	LM struct {
		Endpoint       string  `mapstructure:"endpoint" yaml:"endpoint"`
		Model          string  `mapstructure:"model" yaml:"model"`
		Temperature    float64 `mapstructure:"temperature" yaml:"temperature"`
		MaxTokens      int     `mapstructure:"max_tokens" yaml:"max_tokens"`
		TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		APIKey         string  `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"lm" yaml:"lm"`

	Store struct {
		RemoteDisabled string `mapstructure:"remote_disabled" yaml:"remote_disabled"`
		URL            string `mapstructure:"url" yaml:"url"`
		HTTPHost       string `mapstructure:"http_host" yaml:"http_host"`
		HTTPPort       string `mapstructure:"http_port" yaml:"http_port"`
		HTTPSecure     string `mapstructure:"http_secure" yaml:"http_secure"`
		GRPCHost       string `mapstructure:"grpc_host" yaml:"grpc_host"`
		GRPCPort       string `mapstructure:"grpc_port" yaml:"grpc_port"`
		GRPCSecure     string `mapstructure:"grpc_secure" yaml:"grpc_secure"`
		APIKey         string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
		DataDir        string `mapstructure:"data_dir" yaml:"data_dir"`
		FallbackDir    string `mapstructure:"fallback_dir" yaml:"fallback_dir"`
	} `mapstructure:"store" yaml:"store"`

	Ledger struct {
		StateFile string `mapstructure:"state_file" yaml:"state_file"`
	} `mapstructure:"ledger" yaml:"ledger"`

	Taxonomy struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"taxonomy" yaml:"taxonomy"`

	Server struct {
		Addr string `mapstructure:"addr" yaml:"addr"`
	} `mapstructure:"server" yaml:"server"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading:
// defaults, then an optional config file, then environment variables.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.blocek")
	v.AddConfigPath(".blocek")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("BLOCEK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Log the error but don't fail - continue with defaults and env vars
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// 5. Unprefixed environment aliases kept for compatibility with the
	// original deployment's variable names.
	aliases := map[string]string{
		"lm.endpoint":           "LM_ENDPOINT",
		"lm.model":              "LM_MODEL",
		"lm.api_key":            "LM_API_KEY",
		"store.remote_disabled": "WEAVIATE_REMOTE_DISABLED",
		"store.url":             "WEAVIATE_URL",
		"store.http_host":       "WEAVIATE_HTTP_HOST",
		"store.http_port":       "WEAVIATE_HTTP_PORT",
		"store.http_secure":     "WEAVIATE_HTTP_SECURE",
		"store.grpc_host":       "WEAVIATE_GRPC_HOST",
		"store.grpc_port":       "WEAVIATE_GRPC_PORT",
		"store.grpc_secure":     "WEAVIATE_GRPC_SECURE",
		"store.api_key":         "WEAVIATE_API_KEY",
		"store.data_dir":        "WEAVIATE_DATA_PATH",
	}
	for key, env := range aliases {
		if err := v.BindEnv(key, env); err != nil {
			fmt.Printf("Warning: failed to bind %s environment variable: %v\n", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Text-generation defaults (LM Studio style local endpoint)
	v.SetDefault("lm.endpoint", "http://localhost:1234")
	v.SetDefault("lm.model", "qwen3-vl-8b-instruct-mlx")
	v.SetDefault("lm.temperature", 0.0)
	v.SetDefault("lm.max_tokens", 350)
	v.SetDefault("lm.timeout_seconds", 300)

	// Store defaults; connection parameters default to empty so the resolver
	// can tell "unset" from an explicit value
	v.SetDefault("store.remote_disabled", "")
	v.SetDefault("store.url", "")
	v.SetDefault("store.http_host", "")
	v.SetDefault("store.http_port", "")
	v.SetDefault("store.http_secure", "")
	v.SetDefault("store.grpc_host", "")
	v.SetDefault("store.grpc_port", "")
	v.SetDefault("store.grpc_secure", "")
	v.SetDefault("store.data_dir", "./weaviate_data")
	// Empty means the fallback store shares the data directory
	v.SetDefault("store.fallback_dir", "")

	// Ledger defaults
	v.SetDefault("ledger.state_file", "stats.json")

	// Taxonomy defaults: empty means the built-in taxonomy
	v.SetDefault("taxonomy.file", "")

	// Server defaults
	v.SetDefault("server.addr", ":5002")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.LM.Endpoint == "" {
		return fmt.Errorf("lm.endpoint must not be empty")
	}

	if config.LM.TimeoutSeconds < 1 {
		return fmt.Errorf("lm.timeout_seconds must be positive, got: %d", config.LM.TimeoutSeconds)
	}

	if config.LM.MaxTokens < 1 {
		return fmt.Errorf("lm.max_tokens must be positive, got: %d", config.LM.MaxTokens)
	}

	if config.Store.DataDir == "" {
		return fmt.Errorf("store.data_dir must not be empty")
	}

	return nil
}
